package observability

import (
	"fmt"
	"time"
)

// Metrics holds focus statistics derived from the event log.
type Metrics struct {
	SessionsStarted    int        `json:"sessions_started"`
	SessionsCompleted  int        `json:"sessions_completed"`
	MinutesFocused     int        `json:"minutes_focused"`
	NavigationsBlocked int        `json:"navigations_blocked"`
	EntriesJournaled   int        `json:"entries_journaled"`
	EventCount         int        `json:"event_count"`
	OldestEvent        *time.Time `json:"oldest_event,omitempty"`
	NewestEvent        *time.Time `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventSessionStarted:
			m.SessionsStarted++
		case EventSessionFinished:
			m.SessionsCompleted++
			if minutes, ok := event.Data["duration"].(float64); ok {
				m.MinutesFocused += int(minutes)
			}
		case EventNavBlocked:
			m.NavigationsBlocked++
		case EventJournalAppended:
			m.EntriesJournaled++
		}
	}

	return m, nil
}
