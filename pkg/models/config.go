package models

// NotificationConfig controls the session-finished notification.
type NotificationConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// JournalConfig holds journal defaults offered when no binding exists yet.
type JournalConfig struct {
	DefaultPath string `yaml:"default_path" mapstructure:"default_path"`
}

// GlobalConfig is the merged configuration read from .focalconfig.
type GlobalConfig struct {
	// HomeURL is the surface blocked navigations are redirected to.
	HomeURL string `yaml:"home_url"`
	// NewTabURL is never blockable, matching browser new-tab behaviour.
	NewTabURL     string             `yaml:"newtab_url"`
	Journal       JournalConfig      `yaml:"journal"`
	Notifications NotificationConfig `yaml:"notifications"`
}
