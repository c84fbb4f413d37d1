// Package internal provides the App struct that wires all components of
// focal together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/focal-sh/focal/internal/cli"
	"github.com/focal-sh/focal/internal/core"
	"github.com/focal-sh/focal/internal/integration"
	"github.com/focal-sh/focal/internal/observability"
	"github.com/focal-sh/focal/internal/storage"
	"github.com/focal-sh/focal/pkg/models"
)

// App holds all service dependencies for focal.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	Store   storage.StateStore
	Caps    storage.CapabilityRegistry
	Journal storage.JournalStore

	// Core services
	Timer   *core.Controller
	Matcher *core.Matcher
	Guard   *core.Guard
	Excl    *core.Exclusions

	// Integration services
	NavChannel *integration.NavChannel
	Signals    *integration.SignalSpool

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of focal. basePath is the root
// directory where all shared state is stored (typically ~/.focal).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating focal home %s: %w", basePath, err)
	}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Store, err = storage.NewStateStore(filepath.Join(basePath, "state.json"))
	if err != nil {
		return nil, err
	}
	app.Caps = storage.NewCapabilityRegistry(filepath.Join(basePath, "journal_binding.yaml"))
	app.Journal = storage.NewJournalStore(app.Caps, cli.NewPromptBinder(cfg.Journal.DefaultPath))

	// --- Integration services ---
	app.NavChannel, err = integration.NewNavChannel(filepath.Join(basePath, "channel"))
	if err != nil {
		return nil, err
	}
	app.Signals, err = integration.NewSignalSpool(filepath.Join(basePath, "signals"))
	if err != nil {
		return nil, err
	}

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".focal_events.jsonl")
	app.EventLog, err = observability.NewEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if the log can't be created.
		app.EventLog = nil
	}
	var events core.EventLogger
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		events = &eventLogAdapter{log: app.EventLog}
	}
	if cfg.Notifications.Enabled && cfg.Notifications.WebhookURL != "" {
		app.Notifier = observability.NewWebhookNotifier(cfg.Notifications.WebhookURL)
	}

	// --- Core services ---
	app.Timer = core.NewController(app.Store, app.Journal, app.Signals, events)
	app.Matcher = core.NewMatcher(cfg.HomeURL, cfg.NewTabURL)
	app.Excl = core.NewExclusions(app.Store)

	var notifier core.FinishNotifier
	if app.Notifier != nil {
		notifier = app.Notifier
	}
	app.Guard = core.NewGuard(app.Store, app.Matcher, app.NavChannel, notifier, events, cfg.HomeURL)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = app.Config
	cli.Store = app.Store
	cli.Timer = app.Timer
	cli.Guard = app.Guard
	cli.Journal = app.Journal
	cli.Caps = app.Caps
	cli.Excl = app.Excl
	cli.NavChannel = app.NavChannel
	cli.Signals = app.Signals
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases resources held by the App: the state store watcher and
// the event log file handle.
func (a *App) Close() error {
	var first error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			first = err
		}
	}
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ResolveBasePath determines the focal home directory. It checks the
// FOCAL_HOME env var, then falls back to ~/.focal.
func ResolveBasePath() string {
	if home := os.Getenv("FOCAL_HOME"); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".focal")
	}
	return filepath.Join(userHome, ".focal")
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelInfo,
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
