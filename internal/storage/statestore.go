// Package storage holds the durable state shared between focal processes:
// the timer state store, the journal file and its capability registry.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Change records the before and after value of one state key.
type Change struct {
	Old any
	New any
}

// WatchFunc receives one batch of key changes per observed mutation.
type WatchFunc func(changes map[string]Change)

// StateStore is the durable key-value record shared by every focal process
// (CLI commands, the timer TUI, the guard daemon). Values are JSON
// scalars, nulls, or string lists. A multi-key Set is delivered to
// watchers as a single batch, but there is no cross-key transaction
// guarantee beyond that; concurrent writers are last-write-wins per key.
// Within one process a Set followed by a Get observes its own write.
type StateStore interface {
	// Get returns the values for the given keys. With no keys it returns
	// the whole record. Missing keys are absent from the result.
	Get(keys ...string) (map[string]any, error)
	// Set writes the given keys and notifies watchers in every process,
	// including remote ones via the state file.
	Set(values map[string]any) error
	// Watch registers a callback fired once per mutation batch, local or
	// remote. The returned cancel function unregisters it.
	Watch(fn WatchFunc) (cancel func(), err error)
	Close() error
}

type fileStateStore struct {
	path string

	mu       sync.Mutex
	cache    map[string]any
	loaded   bool
	watchers map[int]WatchFunc
	nextID   int

	fsw    *fsnotify.Watcher
	done   chan struct{}
	closed bool
}

// NewStateStore creates a StateStore backed by a JSON file at the given
// path. The file is created lazily on first Set.
func NewStateStore(path string) (StateStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &fileStateStore{
		path:     filepath.Clean(path),
		watchers: make(map[int]WatchFunc),
	}, nil
}

func (s *fileStateStore) Get(keys ...string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		state, err := s.readFile()
		if err != nil {
			return nil, err
		}
		s.cache = state
		s.loaded = true
	}

	result := make(map[string]any)
	if len(keys) == 0 {
		for k, v := range s.cache {
			result[k] = v
		}
		return result, nil
	}
	for _, k := range keys {
		if v, ok := s.cache[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

func (s *fileStateStore) Set(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return fmt.Errorf("locking state file: %w", err)
	}
	defer func() { _ = unlock() }()

	// Re-read under the lock so a concurrent writer's keys survive the
	// whole-file rewrite.
	current, err := s.readFile()
	if err != nil {
		return err
	}

	changes := make(map[string]Change, len(values))
	for k, v := range values {
		nv, err := normalize(v)
		if err != nil {
			return fmt.Errorf("encoding state key %s: %w", k, err)
		}
		old, had := current[k]
		if !had || !reflect.DeepEqual(old, nv) {
			changes[k] = Change{Old: old, New: nv}
		}
		current[k] = nv
	}

	if err := s.writeFile(current); err != nil {
		return err
	}
	s.cache = current
	s.loaded = true

	if len(changes) > 0 {
		s.notifyLocked(changes)
	}
	return nil
}

func (s *fileStateStore) Watch(fn WatchFunc) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("watching state store: store is closed")
	}

	if s.fsw == nil {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("creating state watcher: %w", err)
		}
		// Watch the directory: the file itself is replaced by rename on
		// every write, which would drop a direct file watch.
		if err := fsw.Add(filepath.Dir(s.path)); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching state directory: %w", err)
		}
		s.fsw = fsw
		s.done = make(chan struct{})
		go s.watchLoop(fsw, s.done)
	}

	id := s.nextID
	s.nextID++
	s.watchers[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}, nil
}

func (s *fileStateStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.watchers = make(map[int]WatchFunc)

	if s.fsw != nil {
		close(s.done)
		if err := s.fsw.Close(); err != nil {
			return fmt.Errorf("closing state watcher: %w", err)
		}
		s.fsw = nil
	}
	return nil
}

func (s *fileStateStore) watchLoop(fsw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.reloadAndNotify()
		case _, ok := <-fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// reloadAndNotify re-reads the state file and fires watchers for keys that
// differ from the in-memory cache. A notification triggered by this
// process's own rename diffs to nothing and is dropped here, so local
// writers are not re-notified for their own mutations.
func (s *fileStateStore) reloadAndNotify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.readFile()
	if err != nil {
		return
	}

	changes := make(map[string]Change)
	for k, nv := range state {
		old, had := s.cache[k]
		if !had || !reflect.DeepEqual(old, nv) {
			changes[k] = Change{Old: old, New: nv}
		}
	}
	for k, old := range s.cache {
		if _, still := state[k]; !still {
			changes[k] = Change{Old: old, New: nil}
		}
	}

	s.cache = state
	s.loaded = true

	if len(changes) > 0 {
		s.notifyLocked(changes)
	}
}

func (s *fileStateStore) notifyLocked(changes map[string]Change) {
	fns := make([]WatchFunc, 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	go func() {
		for _, fn := range fns {
			fn(changes)
		}
	}()
}

func (s *fileStateStore) readFile() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	state := make(map[string]any)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("parsing state file: %w", err)
		}
	}
	return state, nil
}

func (s *fileStateStore) writeFile(state map[string]any) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// normalize passes a value through a JSON round-trip so cached values
// compare equal to values reloaded from disk (ints become float64, typed
// string slices become []any, and so on).
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
