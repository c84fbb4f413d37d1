package core

import (
	"fmt"
	"strings"

	"github.com/focal-sh/focal/internal/storage"
	"github.com/focal-sh/focal/pkg/models"
)

// Exclusions manages the ordered wildcard pattern list in the state
// store. The only uniqueness rule is "no duplicate literal string",
// enforced at insertion.
type Exclusions struct {
	store storage.StateStore
}

// NewExclusions creates an exclusion-list manager over the state store.
func NewExclusions(store storage.StateStore) *Exclusions {
	return &Exclusions{store: store}
}

// List returns the patterns in insertion order.
func (e *Exclusions) List() ([]string, error) {
	values, err := e.store.Get(models.KeyExcludedURLs)
	if err != nil {
		return nil, fmt.Errorf("reading exclusion list: %w", err)
	}
	return decodeStringList(values[models.KeyExcludedURLs]), nil
}

// Add appends a pattern, rejecting empty input and exact duplicates.
func (e *Exclusions) Add(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return fmt.Errorf("adding exclusion: pattern is empty")
	}

	patterns, err := e.List()
	if err != nil {
		return err
	}
	for _, existing := range patterns {
		if existing == pattern {
			return fmt.Errorf("adding exclusion: pattern %q already present", pattern)
		}
	}

	patterns = append(patterns, pattern)
	if err := e.store.Set(map[string]any{models.KeyExcludedURLs: patterns}); err != nil {
		return fmt.Errorf("saving exclusion list: %w", err)
	}
	return nil
}

// Remove deletes the first occurrence of the pattern.
func (e *Exclusions) Remove(pattern string) error {
	patterns, err := e.List()
	if err != nil {
		return err
	}

	for i, existing := range patterns {
		if existing == pattern {
			patterns = append(patterns[:i], patterns[i+1:]...)
			if err := e.store.Set(map[string]any{models.KeyExcludedURLs: patterns}); err != nil {
				return fmt.Errorf("saving exclusion list: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("removing exclusion: pattern %q not in list", pattern)
}
