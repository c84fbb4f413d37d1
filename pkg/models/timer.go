package models

import "time"

// Phase identifies where the shared focus timer is in its lifecycle.
type Phase string

const (
	// PhaseStart means no session is active.
	PhaseStart Phase = "start"
	// PhaseRunning means a countdown is in progress.
	PhaseRunning Phase = "running"
	// PhaseEnd means the countdown has elapsed and a journal entry is pending.
	PhaseEnd Phase = "end"
)

// AllowedDurations is the fixed set of selectable session lengths in minutes.
var AllowedDurations = []int{1, 25, 35, 45, 55}

// MinSummaryWords is the number of whitespace-delimited tokens a session
// summary must contain before it can be submitted to the journal.
const MinSummaryWords = 50

// TimerState is the single shared timer record. Exactly one exists
// system-wide; every focal process observes the same value through the
// state store. EndTime is meaningful only while Phase is running, and
// CurrentSummary only while Phase is end.
type TimerState struct {
	Phase          Phase
	EndTime        *time.Time
	Duration       int
	SessionID      string
	CurrentSummary string
	CurrentNote    string
}

// Remaining returns the time left until EndTime at the given instant.
// The result may be negative once the countdown has elapsed.
func (s TimerState) Remaining(now time.Time) time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(now)
}

// State store key names. These are the durable field names in the local
// state file; only this "local" namespace exists.
const (
	KeyTimerState     = "timerState"
	KeyEndTime        = "endTime"
	KeyDuration       = "duration"
	KeySessionID      = "sessionId"
	KeyCurrentSummary = "currentSummary"
	KeyCurrentNote    = "currentNote"
	KeyExcludedURLs   = "excludedUrls"
)

// DurationAllowed reports whether d is one of the selectable session lengths.
func DurationAllowed(d int) bool {
	for _, allowed := range AllowedDurations {
		if d == allowed {
			return true
		}
	}
	return false
}
