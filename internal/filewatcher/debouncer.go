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

package filewatcher

import (
	"sync"
	"time"
)

// Debouncer delays delivery of events until no new event for the same path
// has arrived for the configured window. Only the latest event per path is
// delivered.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timers  map[string]*time.Timer
	latest  map[string]Event
	onFlush func(Event)
	stopped bool
}

// NewDebouncer creates a debouncer that calls onFlush once per burst.
func NewDebouncer(window time.Duration, onFlush func(Event)) *Debouncer {
	return &Debouncer{
		window:  window,
		timers:  make(map[string]*time.Timer),
		latest:  make(map[string]Event),
		onFlush: onFlush,
	}
}

// Add records ev and restarts the timer for its path.
func (d *Debouncer) Add(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	path := ev.Path
	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	d.latest[path] = ev
	d.timers[path] = time.AfterFunc(d.window, func() {
		d.flush(path)
	})
}

func (d *Debouncer) flush(path string) {
	d.mu.Lock()
	ev, ok := d.latest[path]
	delete(d.latest, path)
	delete(d.timers, path)
	stopped := d.stopped
	d.mu.Unlock()

	// onFlush runs outside the lock so it may call Add
	if ok && !stopped && d.onFlush != nil {
		d.onFlush(ev)
	}
}

// Stop cancels all pending events without delivering them.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
		delete(d.latest, path)
	}
}

// Pending returns the number of paths with a pending event.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}
