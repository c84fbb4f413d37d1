package cli

import (
	"github.com/focal-sh/focal/internal/core"
	"github.com/focal-sh/focal/internal/integration"
	"github.com/focal-sh/focal/internal/observability"
	"github.com/focal-sh/focal/internal/storage"
	"github.com/focal-sh/focal/pkg/models"
)

// Package-level collaborators injected by internal.NewApp before Execute
// runs. Commands check for nil where a collaborator is optional.
var (
	// BasePath is the focal home directory holding the state file, the
	// event log, the signal spool, and the navigation channel.
	BasePath string

	// Config is the loaded global configuration.
	Config *models.GlobalConfig

	// Store is the shared timer state store.
	Store storage.StateStore

	// Timer drives the session state machine.
	Timer *core.Controller

	// Guard applies the blocking policy and relays finished signals.
	Guard *core.Guard

	// Journal is the session journal store.
	Journal storage.JournalStore

	// Caps is the journal file capability registry.
	Caps storage.CapabilityRegistry

	// Excl manages the URL exclusion list.
	Excl *core.Exclusions

	// NavChannel is the file channel navigations arrive through.
	NavChannel *integration.NavChannel

	// Signals is the timer-finished signal spool.
	Signals *integration.SignalSpool

	// MetricsCalc derives focus statistics from the event log. Nil when
	// the event log is disabled.
	MetricsCalc observability.MetricsCalculator
)
