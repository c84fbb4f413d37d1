package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/focal-sh/focal/pkg/models"
	"gopkg.in/yaml.v3"
)

// CapabilityRegistry persists the single journal file binding. It lives
// outside the state store because the binding is a capability, not
// synchronized state: presence means the journal workflow is bound,
// absence means the user must pick a destination again.
type CapabilityRegistry interface {
	// Current returns the stored binding, or nil if the journal is unbound.
	Current() (*models.JournalBinding, error)
	Store(binding models.JournalBinding) error
	Clear() error
}

type fileCapabilityRegistry struct {
	path string
}

// NewCapabilityRegistry creates a registry backed by a single YAML slot
// file at the given path.
func NewCapabilityRegistry(path string) CapabilityRegistry {
	return &fileCapabilityRegistry{path: path}
}

func (r *fileCapabilityRegistry) Current() (*models.JournalBinding, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading journal binding: %w", err)
	}

	var binding models.JournalBinding
	if err := yaml.Unmarshal(data, &binding); err != nil {
		return nil, fmt.Errorf("parsing journal binding: %w", err)
	}
	if binding.Path == "" {
		return nil, nil
	}
	return &binding, nil
}

func (r *fileCapabilityRegistry) Store(binding models.JournalBinding) error {
	if binding.Path == "" {
		return fmt.Errorf("storing journal binding: path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("creating binding directory: %w", err)
	}
	data, err := yaml.Marshal(&binding)
	if err != nil {
		return fmt.Errorf("encoding journal binding: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("writing journal binding: %w", err)
	}
	return nil
}

func (r *fileCapabilityRegistry) Clear() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing journal binding: %w", err)
	}
	return nil
}
