// Package core contains the focus-timer business logic: the shared timer
// controller, the URL exclusion matcher, the background guard, and
// configuration loading.
package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/focal-sh/focal/pkg/models"
	"github.com/spf13/viper"
)

// ConfigurationManager loads and validates the .focalconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .focalconfig resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func defaultGlobalConfig(basePath string) *models.GlobalConfig {
	return &models.GlobalConfig{
		HomeURL:   "focal://home",
		NewTabURL: "about:newtab",
		Journal: models.JournalConfig{
			DefaultPath: filepath.Join(basePath, "journal.ndjson"),
		},
		Notifications: models.NotificationConfig{Enabled: false},
	}
}

// LoadGlobalConfig reads the .focalconfig file from the base path. If the
// file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := defaultGlobalConfig(cm.basePath)

	v := viper.New()
	v.SetConfigName(".focalconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("home_url", cfg.HomeURL)
	v.SetDefault("newtab_url", cfg.NewTabURL)
	v.SetDefault("journal.default_path", cfg.Journal.DefaultPath)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("notifications.webhook_url", cfg.Notifications.WebhookURL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .focalconfig: %w", err)
	}

	cfg.HomeURL = v.GetString("home_url")
	cfg.NewTabURL = v.GetString("newtab_url")
	cfg.Journal.DefaultPath = v.GetString("journal.default_path")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.WebhookURL = v.GetString("notifications.webhook_url")

	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and returns
// a clear error message identifying every problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.HomeURL == "" {
		errs = append(errs, "home_url must not be empty")
	}
	if cfg.NewTabURL == "" {
		errs = append(errs, "newtab_url must not be empty")
	}
	if cfg.Journal.DefaultPath == "" {
		errs = append(errs, "journal.default_path must not be empty")
	}
	if cfg.Notifications.Enabled && cfg.Notifications.WebhookURL == "" {
		errs = append(errs, "notifications.webhook_url must be set when notifications are enabled")
	}
	if cfg.Notifications.WebhookURL != "" && !strings.HasPrefix(cfg.Notifications.WebhookURL, "http") {
		errs = append(errs, fmt.Sprintf("notifications.webhook_url %q is not an http(s) URL", cfg.Notifications.WebhookURL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
