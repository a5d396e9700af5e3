package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{OnChange: func(Event) {}})
	assert.Error(t, err)

	_, err = New(Config{Paths: []string{"x"}})
	assert.Error(t, err)

	_, err = New(Config{Paths: []string{filepath.Join(t.TempDir(), "absent", "cfg.yaml")}, OnChange: func(Event) {}})
	assert.Error(t, err, "parent directory must exist")
}

func TestWatcher_ReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".cigen.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: CI\n"), 0o644))

	rec := &recorder{}
	w, err := New(Config{
		Paths:    []string{path},
		OnChange: rec.add,
		Debounce: 30 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(other, []byte("ignored\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("name: Build\n"), 0o644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) >= 1 }, 2*time.Second, 10*time.Millisecond)
	for _, ev := range rec.snapshot() {
		want, _ := filepath.Abs(path)
		assert.Equal(t, want, ev.Path)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
