package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/focal-sh/focal/pkg/models"
)

// ErrCorruptState means the stored end time was missing or unparseable
// while a countdown was supposedly running. The controller recovers by
// forcing a reset to the start phase; callers surface the error to the
// user.
var ErrCorruptState = errors.New("timer state is corrupt")

// timerKeys are the state store keys that make up the shared TimerState.
var timerKeys = []string{
	models.KeyTimerState,
	models.KeyEndTime,
	models.KeyDuration,
	models.KeySessionID,
	models.KeyCurrentSummary,
	models.KeyCurrentNote,
}

// decodeTimerState converts raw state store values into a TimerState.
// A malformed end time is reported as an error with the rest of the
// fields decoded; the caller decides whether that matters for the
// current phase.
func decodeTimerState(values map[string]any) (models.TimerState, error) {
	state := models.TimerState{Phase: models.PhaseStart}

	if v, ok := values[models.KeyTimerState].(string); ok && v != "" {
		state.Phase = models.Phase(v)
	}
	if v, ok := values[models.KeyDuration].(float64); ok {
		state.Duration = int(v)
	}
	if v, ok := values[models.KeySessionID].(string); ok {
		state.SessionID = v
	}
	if v, ok := values[models.KeyCurrentSummary].(string); ok {
		state.CurrentSummary = v
	}
	if v, ok := values[models.KeyCurrentNote].(string); ok {
		state.CurrentNote = v
	}

	if raw, present := values[models.KeyEndTime]; present && raw != nil {
		v, ok := raw.(string)
		if !ok {
			return state, fmt.Errorf("end time has type %T: %w", raw, ErrCorruptState)
		}
		if v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return state, fmt.Errorf("parsing end time %q: %w", v, ErrCorruptState)
			}
			state.EndTime = &t
		}
	}

	// A running countdown without an end time cannot be displayed or
	// expired sensibly; it is the same fault as an unparseable one.
	if state.Phase == models.PhaseRunning && state.EndTime == nil {
		return state, fmt.Errorf("running with no end time: %w", ErrCorruptState)
	}

	return state, nil
}

// decodeStringList converts a JSON-decoded state value into an ordered
// string slice, dropping anything that is not a string.
func decodeStringList(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
