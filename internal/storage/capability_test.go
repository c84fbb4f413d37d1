package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/focal-sh/focal/pkg/models"
)

func TestCapabilityRegistryRoundTrip(t *testing.T) {
	reg := NewCapabilityRegistry(filepath.Join(t.TempDir(), "binding.yaml"))

	binding, err := reg.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if binding != nil {
		t.Fatal("expected no binding on a fresh registry")
	}

	stored := models.JournalBinding{
		Path:    "/home/user/focus.ndjson",
		Mode:    models.ModeReadWrite,
		BoundAt: time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC),
	}
	if err := reg.Store(stored); err != nil {
		t.Fatalf("Store: %v", err)
	}

	binding, err = reg.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if binding == nil {
		t.Fatal("expected a binding after Store")
	}
	if binding.Path != stored.Path || binding.Mode != stored.Mode {
		t.Errorf("binding = %+v, want %+v", binding, stored)
	}
	if !binding.BoundAt.Equal(stored.BoundAt) {
		t.Errorf("BoundAt = %v, want %v", binding.BoundAt, stored.BoundAt)
	}
}

func TestCapabilityRegistryRebind(t *testing.T) {
	reg := NewCapabilityRegistry(filepath.Join(t.TempDir(), "binding.yaml"))

	mustStoreBinding(t, reg, "/first.ndjson")
	mustStoreBinding(t, reg, "/second.ndjson")

	binding, err := reg.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if binding == nil || binding.Path != "/second.ndjson" {
		t.Errorf("binding = %+v, want /second.ndjson", binding)
	}
}

func TestCapabilityRegistryClear(t *testing.T) {
	reg := NewCapabilityRegistry(filepath.Join(t.TempDir(), "binding.yaml"))

	mustStoreBinding(t, reg, "/some.ndjson")
	if err := reg.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	binding, err := reg.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if binding != nil {
		t.Error("expected no binding after Clear")
	}

	// Clearing an already-clear registry is fine.
	if err := reg.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestCapabilityRegistryRejectsEmptyPath(t *testing.T) {
	reg := NewCapabilityRegistry(filepath.Join(t.TempDir(), "binding.yaml"))

	err := reg.Store(models.JournalBinding{Mode: models.ModeReadWrite})
	if err == nil {
		t.Error("expected error storing a binding without a path")
	}
}

func mustStoreBinding(t *testing.T, reg CapabilityRegistry, path string) {
	t.Helper()
	err := reg.Store(models.JournalBinding{
		Path:    path,
		Mode:    models.ModeReadWrite,
		BoundAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Store(%s): %v", path, err)
	}
}
