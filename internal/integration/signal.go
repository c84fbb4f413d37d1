package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// timerFinishedType is the only message carried by the signal spool.
const timerFinishedType = "timerFinished"

// signalPayload is the JSON body of one spool file.
type signalPayload struct {
	Type   string `json:"type"`
	SentAt string `json:"sent_at"`
}

// SignalSpool carries the one-shot timer-finished message from timer
// instances to the guard through files in a spool directory. Each signal
// is one file; the guard deletes the file as it consumes it, which is
// what makes the message one-shot. Several instances detecting expiry at
// once may each drop a file; the resulting duplicate notifications are a
// tolerated side effect.
type SignalSpool struct {
	dir      string
	finished chan struct{}
}

// NewSignalSpool creates a spool rooted at dir.
func NewSignalSpool(dir string) (*SignalSpool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating signal spool: %w", err)
	}
	return &SignalSpool{
		dir:      dir,
		finished: make(chan struct{}, 4),
	}, nil
}

// SignalFinished drops a timer-finished signal file into the spool.
func (s *SignalSpool) SignalFinished() error {
	payload := signalPayload{
		Type:   timerFinishedType,
		SentAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding finished signal: %w", err)
	}

	path := filepath.Join(s.dir, uuid.NewString()+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing finished signal: %w", err)
	}
	return nil
}

// Finished returns the stream fed by Start.
func (s *SignalSpool) Finished() <-chan struct{} {
	return s.finished
}

// Start watches the spool and emits one value per consumed signal file.
// It blocks until the context is cancelled.
func (s *SignalSpool) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating signal watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watching signal spool: %w", err)
	}

	// Signals sent while no guard was running are still delivered.
	s.consumeAll()

	for {
		select {
		case <-ctx.Done():
			close(s.finished)
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				close(s.finished)
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			s.consumeAll()
		case _, ok := <-watcher.Errors:
			if !ok {
				close(s.finished)
				return nil
			}
		}
	}
}

// consumeAll reads, deletes, and emits every signal file currently in the
// spool. Unreadable or foreign files are left alone.
func (s *SignalSpool) consumeAll() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var payload signalPayload
		if err := json.Unmarshal(data, &payload); err != nil || payload.Type != timerFinishedType {
			continue
		}
		if err := os.Remove(path); err != nil {
			continue
		}
		s.finished <- struct{}{}
	}
}
