// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package filewatcher notifies callers when watched files change on disk.
//
// Parent directories are watched rather than the files themselves so that
// editors which save by renaming a temporary file are still observed.
// Bursts of events for the same file are coalesced by a Debouncer.
package filewatcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tombee/cigen/internal/log"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 200 * time.Millisecond

// Event describes a change to a watched file.
type Event struct {
	Path string
	Op   string
	Time time.Time
}

// Config configures a Watcher.
type Config struct {
	// Paths are the files to watch
	Paths []string

	// OnChange is called once per debounced change, never concurrently
	OnChange func(Event)

	// Debounce defaults to DefaultDebounce
	Debounce time.Duration

	// Logger is optional
	Logger *slog.Logger
}

// Watcher watches a fixed set of files.
type Watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]bool
	logger   *slog.Logger
	debounce time.Duration
	onChange func(Event)
}

// New creates a watcher for cfg.Paths. Call Run to start delivering events.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("at least one path is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change handler is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		fs:       fsw,
		files:    make(map[string]bool, len(cfg.Paths)),
		logger:   log.OrDiscard(cfg.Logger),
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
	}
	if w.debounce == 0 {
		w.debounce = DefaultDebounce
	}

	dirs := make(map[string]bool)
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to resolve path %s: %w", p, err)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
		w.logger.Debug("watching directory", log.PathKey, dir)
	}
	return w, nil
}

// Run delivers change events until ctx is cancelled, then releases the
// underlying watcher. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	changes := make(chan Event, 1)
	debouncer := NewDebouncer(w.debounce, func(ev Event) {
		select {
		case changes <- ev:
		case <-ctx.Done():
		}
	})
	defer func() {
		debouncer.Stop()
		w.fs.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			debouncer.Add(Event{Path: abs, Op: ev.Op.String(), Time: time.Now()})

		case ev := <-changes:
			w.logger.Info("file changed", log.PathKey, ev.Path, log.EventKey, ev.Op)
			w.onChange(ev)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", log.Error(err))
		}
	}
}
