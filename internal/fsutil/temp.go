package fsutil

import (
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
)

// Tracker remembers temp files created during the current operation so a
// termination signal can remove them before the process exits.
// A nil *Tracker is valid and tracks nothing.
type Tracker struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{paths: make(map[string]struct{})}
}

// CreateTemp creates a temp file in dir (see os.CreateTemp) and records it.
func (t *Tracker) CreateTemp(dir string, pattern string) (*os.File, error) {
	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	t.Add(file.Name())
	return file, nil
}

// Add records path as a temp file owned by the current operation.
func (t *Tracker) Add(path string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths[path] = struct{}{}
}

// Forget stops tracking path; call it once the file was renamed or removed.
func (t *Tracker) Forget(path string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.paths, path)
}

// Pending returns the tracked paths in sorted order.
func (t *Tracker) Pending() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.paths))
	for path := range t.paths {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// RemoveAll deletes every tracked file and clears the tracker.
func (t *Tracker) RemoveAll() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for path := range t.paths {
		_ = os.Remove(path)
	}
	t.paths = make(map[string]struct{})
}

var notifyFn = signal.Notify
var stopFn = signal.Stop

// CleanupOnSignal removes tracked temp files when SIGINT or SIGTERM arrives
// and then calls exit with 128+signo. The returned func stops listening.
func CleanupOnSignal(t *Tracker, exit func(int)) func() {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	notifyFn(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			t.RemoveAll()
			code := 1
			if s, ok := sig.(syscall.Signal); ok {
				code = 128 + int(s)
			}
			exit(code)
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			stopFn(sigCh)
			close(done)
		})
	}
}
