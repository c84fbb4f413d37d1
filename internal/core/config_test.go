package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/focal-sh/focal/pkg/models"
)

func TestLoadGlobalConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigurationManager(dir)

	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig: %v", err)
	}
	if cfg.HomeURL != "focal://home" {
		t.Errorf("HomeURL = %q", cfg.HomeURL)
	}
	if cfg.NewTabURL != "about:newtab" {
		t.Errorf("NewTabURL = %q", cfg.NewTabURL)
	}
	if cfg.Journal.DefaultPath != filepath.Join(dir, "journal.ndjson") {
		t.Errorf("Journal.DefaultPath = %q", cfg.Journal.DefaultPath)
	}
	if cfg.Notifications.Enabled {
		t.Error("notifications should default to disabled")
	}
}

func TestLoadGlobalConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `home_url: "https://intranet/home"
journal:
  default_path: "/tmp/focus.ndjson"
notifications:
  enabled: true
  webhook_url: "https://hooks.example.com/focal"
`
	if err := os.WriteFile(filepath.Join(dir, ".focalconfig"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cm := NewConfigurationManager(dir)
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig: %v", err)
	}
	if cfg.HomeURL != "https://intranet/home" {
		t.Errorf("HomeURL = %q", cfg.HomeURL)
	}
	if cfg.NewTabURL != "about:newtab" {
		t.Errorf("NewTabURL = %q, want default preserved", cfg.NewTabURL)
	}
	if cfg.Journal.DefaultPath != "/tmp/focus.ndjson" {
		t.Errorf("Journal.DefaultPath = %q", cfg.Journal.DefaultPath)
	}
	if !cfg.Notifications.Enabled || cfg.Notifications.WebhookURL != "https://hooks.example.com/focal" {
		t.Errorf("Notifications = %+v", cfg.Notifications)
	}
}

func TestValidateConfigCollectsAllProblems(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())

	cfg := &models.GlobalConfig{
		Notifications: models.NotificationConfig{Enabled: true},
	}
	err := cm.ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"home_url", "newtab_url", "journal.default_path", "webhook_url"} {
		if !strings.Contains(msg, want) {
			t.Errorf("validation message missing %q: %s", want, msg)
		}
	}
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigurationManager(dir)
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig: %v", err)
	}
	if err := cm.ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig: %v", err)
	}
}
