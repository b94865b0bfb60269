// Package watcher monitors outline data sources for external edits.
//
// fsnotify provides the primary change signal. Network and FUSE mounts
// deliver inotify events unreliably or not at all, so the watcher falls
// back to stat polling there, and whenever TREELINE_FORCE_POLL asks for
// it.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is how often polling mode stats the source.
const DefaultPollInterval = 2 * time.Second

var (
	// ErrSourceRemoved reports that the watched source file vanished.
	ErrSourceRemoved = errors.New("watched source was removed")
	// ErrPermission reports that the source became unreadable.
	ErrPermission = errors.New("permission denied")
	// ErrAlreadyStarted reports a second Start without a Stop in between.
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets how long bursts of writes are coalesced
// before the change callback fires.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithPollInterval sets the stat interval for polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithOnChange registers the callback invoked after a debounced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError registers the callback invoked on watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll skips fsnotify and polls unconditionally.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// Watcher monitors one outline source for changes. SQLite sources are
// watched together with their -wal and -journal sidecars, since WAL
// writes may not touch the database file itself until checkpoint.
type Watcher struct {
	path         string
	companions   []string
	debounce     time.Duration
	pollInterval time.Duration
	onChange     func()
	onError      func(error)
	forcePoll    bool
	fsType       FilesystemType

	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool
	stamps    map[string]stamp

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// stamp is the polled identity of a file.
type stamp struct {
	mtime time.Time
	size  int64
}

// NewWatcher creates a watcher for the outline source at path.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:         abs,
		companions:   companionPaths(abs),
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onChange:     func() {},
		onError:      func(error) {},
		changeCh:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)

	return w, nil
}

// companionPaths returns the files that carry writes for a source.
// SQLite in WAL mode appends to a -wal sidecar between checkpoints, so
// the sidecars are watched alongside the database itself.
func companionPaths(path string) []string {
	if strings.HasSuffix(path, ".db") {
		return []string{path, path + "-wal", path + "-journal"}
	}
	return []string{path}
}

// Start begins watching the source.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.polling = w.forcePoll || envBool("TREELINE_FORCE_POLL") || envBool("TREELINE_FORCE_POLLING")

	w.fsType = DetectFilesystemType(w.path)
	if isRemoteFilesystem(w.fsType) {
		w.polling = true
	}

	// Prime the stat baseline. A missing source is not an error yet: it
	// may be created after the watcher starts.
	w.stamps = make(map[string]stamp, len(w.companions))
	for _, p := range w.companions {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsPermission(err) && p == w.path {
				return ErrPermission
			}
			continue
		}
		w.stamps[p] = stamp{mtime: info.ModTime(), size: info.Size()}
	}

	if !w.polling {
		if err := w.startFsnotify(); err != nil {
			w.polling = true
		}
	}
	if w.polling {
		go w.watchPolling()
	}

	w.started = true
	return nil
}

// startFsnotify watches the source's directory rather than the file:
// editors and SQLite both replace files by rename, which would orphan a
// direct file watch.
func (w *Watcher) startFsnotify() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw
	go w.watchFsnotify()
	return nil
}

// Stop ends watching. The Changed channel stays open: closing it would
// race with in-flight notifications and wake readers spuriously, and
// watchers are only stopped on the way out of the program.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}

	if w.cancel != nil {
		w.cancel()
	}
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling reports whether the watcher is in polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives after each debounced change.
// It is an alternative to the OnChange callback.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the absolute path of the watched source.
func (w *Watcher) Path() string {
	return w.path
}

// FilesystemType returns the best-effort classification of the
// filesystem holding the source.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the stat interval used in polling mode.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// watchFsnotify consumes directory events until the watcher stops.
func (w *Watcher) watchFsnotify() {
	// Capture the channels so Stop clearing fsw cannot race this loop.
	w.mu.RLock()
	if w.fsw == nil {
		w.mu.RUnlock()
		return
	}
	events := w.fsw.Events
	errs := w.fsw.Errors
	w.mu.RUnlock()

	watched := make(map[string]bool, len(w.companions))
	for _, p := range w.companions {
		watched[filepath.Base(p)] = true
	}
	source := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !watched[name] {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0:
				// Sidecars vanish on every checkpoint; only the source
				// itself disappearing is worth reporting.
				if name == source {
					w.onError(ErrSourceRemoved)
				}
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// watchPolling stats the watched paths on a ticker until the watcher
// stops.
func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if w.pollOnce() {
				w.debouncer.Trigger(w.notifyChange)
			}
		}
	}
}

// pollOnce stats every watched path and reports whether any changed
// since the previous round.
func (w *Watcher) pollOnce() bool {
	changed := false
	for _, p := range w.companions {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				w.mu.Lock()
				_, had := w.stamps[p]
				delete(w.stamps, p)
				w.mu.Unlock()
				if had && p == w.path {
					w.onError(ErrSourceRemoved)
				}
			} else if os.IsPermission(err) {
				w.onError(ErrPermission)
			} else {
				w.onError(err)
			}
			continue
		}

		w.mu.Lock()
		prev, had := w.stamps[p]
		if !had || info.ModTime().After(prev.mtime) || info.Size() != prev.size {
			w.stamps[p] = stamp{mtime: info.ModTime(), size: info.Size()}
			changed = true
		}
		w.mu.Unlock()
	}
	return changed
}

// notifyChange invokes the change callback and signals the channel.
func (w *Watcher) notifyChange() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()

	// Best-effort guard against firing after Stop. A small race window
	// remains, but change callbacks are idempotent.
	if !started {
		return
	}

	w.onChange()

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
