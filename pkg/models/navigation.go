package models

import "time"

// NavigationEvent describes one completed top-level navigation reported by
// a browser helper through the navigation channel.
type NavigationEvent struct {
	ID         string
	URL        string
	OccurredAt time.Time
}

// Verdict is the guard's decision for a navigation event.
type Verdict struct {
	EventID  string
	Blocked  bool
	Redirect string
}
