package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, path string) StateStore {
	t.Helper()
	store, err := NewStateStore(path)
	if err != nil {
		t.Fatalf("NewStateStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStateStoreSetThenGet(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "state.json"))

	err := store.Set(map[string]any{
		"timerState": "running",
		"duration":   25,
		"endTime":    nil,
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	values, err := store.Get("timerState", "duration", "endTime")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if values["timerState"] != "running" {
		t.Errorf("timerState = %v", values["timerState"])
	}
	// Numbers come back as float64 after the JSON round-trip.
	if values["duration"] != float64(25) {
		t.Errorf("duration = %v (%T), want float64(25)", values["duration"], values["duration"])
	}
	if v, ok := values["endTime"]; !ok || v != nil {
		t.Errorf("endTime = %v, want present nil", v)
	}
}

func TestStateStoreGetAllAndMissing(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "state.json"))

	if err := store.Set(map[string]any{"a": 1, "b": "two"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	all, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d keys, want 2", len(all))
	}

	values, err := store.Get("a", "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, ok := values["missing"]; ok {
		t.Error("missing key should be absent from the result")
	}
}

func TestStateStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	first := newTestStore(t, path)
	if err := first.Set(map[string]any{"excludedUrls": []string{"*a.com*", "*b.com*"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	second := newTestStore(t, path)
	values, err := second.Get("excludedUrls")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	list, ok := values["excludedUrls"].([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("excludedUrls = %v (%T)", values["excludedUrls"], values["excludedUrls"])
	}
	if list[0] != "*a.com*" || list[1] != "*b.com*" {
		t.Errorf("excludedUrls = %v", list)
	}
}

func TestStateStoreWatchDeliversBatch(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "state.json"))

	batches := make(chan map[string]Change, 4)
	cancel, err := store.Watch(func(changes map[string]Change) {
		batches <- changes
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer cancel()

	err = store.Set(map[string]any{
		"timerState": "running",
		"duration":   25,
		"sessionId":  "s-1",
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case changes := <-batches:
		if len(changes) != 3 {
			t.Errorf("batch has %d changes, want 3: %v", len(changes), changes)
		}
		ch, ok := changes["timerState"]
		if !ok {
			t.Fatal("batch missing timerState")
		}
		if ch.Old != nil || ch.New != "running" {
			t.Errorf("timerState change = %+v", ch)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification delivered")
	}
}

func TestStateStoreNoNotificationForNoopWrite(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "state.json"))

	if err := store.Set(map[string]any{"timerState": "start"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	batches := make(chan map[string]Change, 4)
	cancel, err := store.Watch(func(changes map[string]Change) {
		batches <- changes
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer cancel()

	if err := store.Set(map[string]any{"timerState": "start"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case changes := <-batches:
		t.Errorf("unexpected notification for unchanged value: %v", changes)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestStateStoreWatchSeesRemoteWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	writer := newTestStore(t, path)
	reader := newTestStore(t, path)

	// Prime the reader's cache so the remote write diffs against it.
	if _, err := reader.Get(); err != nil {
		t.Fatalf("Get: %v", err)
	}

	batches := make(chan map[string]Change, 4)
	cancel, err := reader.Watch(func(changes map[string]Change) {
		batches <- changes
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer cancel()

	if err := writer.Set(map[string]any{"timerState": "running", "duration": 55}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case changes := <-batches:
		if ch, ok := changes["timerState"]; !ok || ch.New != "running" {
			t.Errorf("remote batch = %v", changes)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("remote write not observed")
	}

	// The reader's own view now includes the remote keys.
	values, err := reader.Get("duration")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if values["duration"] != float64(55) {
		t.Errorf("duration = %v", values["duration"])
	}
}

func TestStateStoreConcurrentWritersMergeKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	a := newTestStore(t, path)
	b := newTestStore(t, path)

	if err := a.Set(map[string]any{"keyA": "from-a"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b.Set(map[string]any{"keyB": "from-b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// b's rewrite must not have dropped a's key.
	fresh := newTestStore(t, path)
	values, err := fresh.Get("keyA", "keyB")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if values["keyA"] != "from-a" || values["keyB"] != "from-b" {
		t.Errorf("merged state = %v", values)
	}
}

func TestStateStoreWatchCancel(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "state.json"))

	batches := make(chan map[string]Change, 4)
	cancel, err := store.Watch(func(changes map[string]Change) {
		batches <- changes
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	cancel()

	if err := store.Set(map[string]any{"k": "v"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	select {
	case changes := <-batches:
		t.Errorf("cancelled watcher still notified: %v", changes)
	case <-time.After(300 * time.Millisecond):
	}
}
