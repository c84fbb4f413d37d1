package core

import (
	"context"
	"fmt"

	"github.com/focal-sh/focal/internal/observability"
	"github.com/focal-sh/focal/internal/storage"
	"github.com/focal-sh/focal/pkg/models"
)

// Navigator delivers redirect verdicts back to the surface that reported
// a navigation.
type Navigator interface {
	Redirect(eventID, target string) error
}

// FinishNotifier raises the user-visible session-finished notification.
type FinishNotifier interface {
	NotifySessionFinished() error
}

// NavigationSource streams completed navigation events into the guard.
type NavigationSource interface {
	Events() <-chan models.NavigationEvent
}

// SignalSource streams one-shot timerFinished signals into the guard.
type SignalSource interface {
	Finished() <-chan struct{}
}

// Guard is the background process that blocks distracting navigations
// while no session runs and relays the finished signal into a
// notification. It coordinates with the timer instances purely through
// the shared state store.
type Guard struct {
	store    storage.StateStore
	matcher  *Matcher
	nav      Navigator
	notifier FinishNotifier
	events   EventLogger
	homeURL  string
}

// NewGuard creates a Guard. notifier and events may be nil.
func NewGuard(store storage.StateStore, matcher *Matcher, nav Navigator, notifier FinishNotifier, events EventLogger, homeURL string) *Guard {
	return &Guard{
		store:    store,
		matcher:  matcher,
		nav:      nav,
		notifier: notifier,
		events:   events,
		homeURL:  homeURL,
	}
}

// EnsureDefaults seeds the default timer state on a fresh install. It is
// idempotent: state written by a previous run is left alone.
func (g *Guard) EnsureDefaults() error {
	values, err := g.store.Get(models.KeyTimerState)
	if err != nil {
		return fmt.Errorf("checking installed state: %w", err)
	}
	if _, installed := values[models.KeyTimerState]; installed {
		return nil
	}

	err = g.store.Set(map[string]any{
		models.KeyTimerState: string(models.PhaseStart),
		models.KeyEndTime:    nil,
		models.KeyDuration:   0,
	})
	if err != nil {
		return fmt.Errorf("seeding default state: %w", err)
	}
	return nil
}

// Decide evaluates the blocking policy for a URL against the current
// phase and exclusion list, without side effects.
func (g *Guard) Decide(rawURL string) (models.Verdict, error) {
	values, err := g.store.Get(models.KeyTimerState, models.KeyExcludedURLs)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("reading state for navigation check: %w", err)
	}

	phase, _ := values[models.KeyTimerState].(string)
	if models.Phase(phase) == models.PhaseRunning {
		return models.Verdict{}, nil
	}

	patterns := decodeStringList(values[models.KeyExcludedURLs])
	if !g.matcher.IsBlockable(rawURL, patterns) {
		return models.Verdict{}, nil
	}
	return models.Verdict{Blocked: true, Redirect: g.homeURL}, nil
}

// HandleNavigation applies the blocking policy to one completed
// navigation. A failed redirect (the tab may be gone by the time the
// verdict lands) is logged, not retried.
func (g *Guard) HandleNavigation(ev models.NavigationEvent) error {
	verdict, err := g.Decide(ev.URL)
	if err != nil {
		return err
	}
	if !verdict.Blocked {
		return nil
	}

	if err := g.nav.Redirect(ev.ID, verdict.Redirect); err != nil {
		g.logEvent(observability.EventNavRedirectFailed, map[string]any{
			"event_id": ev.ID,
			"url":      ev.URL,
			"error":    err.Error(),
		})
		return nil
	}

	g.logEvent(observability.EventNavBlocked, map[string]any{
		"event_id": ev.ID,
		"url":      ev.URL,
	})
	return nil
}

// HandleTimerFinished raises a single notification per received signal.
// De-duplication beyond the signal being one-shot is not attempted.
func (g *Guard) HandleTimerFinished() error {
	if g.notifier == nil {
		return nil
	}
	if err := g.notifier.NotifySessionFinished(); err != nil {
		return fmt.Errorf("raising session notification: %w", err)
	}
	return nil
}

// Run consumes navigation events and finished signals until the context
// is cancelled. Per-event failures are recorded and do not stop the loop.
func (g *Guard) Run(ctx context.Context, navs NavigationSource, signals SignalSource) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-navs.Events():
			if !ok {
				return nil
			}
			if err := g.HandleNavigation(ev); err != nil {
				g.logEvent(observability.EventNavCheckFailed, map[string]any{
					"url":   ev.URL,
					"error": err.Error(),
				})
			}
		case _, ok := <-signals.Finished():
			if !ok {
				return nil
			}
			if err := g.HandleTimerFinished(); err != nil {
				g.logEvent(observability.EventNotifyFailed, map[string]any{"error": err.Error()})
			}
		}
	}
}

func (g *Guard) logEvent(eventType string, data map[string]any) {
	if g.events == nil {
		return
	}
	_ = g.events.LogEvent(eventType, data)
}
