package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultPollInterval is the watcher's polling interval unless overridden
// with [WithInterval].
const DefaultPollInterval = 5 * time.Second

// fingerprint identifies one version of the config file. mtime and size are
// a cheap pre-check; sum decides.
type fingerprint struct {
	mtime time.Time
	size  int64
	sum   [sha256.Size]byte
}

// Watcher polls a config file and hands every new valid version to a
// callback together with the one it replaces. Edits that fail to parse or
// validate are reported once and otherwise ignored; [Watcher.Current] keeps
// returning the last valid config.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Config)
	onError  func(error)

	pollMu sync.Mutex // one Poll at a time

	mu      sync.Mutex
	current *Config
	seen    fingerprint // last version read, valid or not

	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. Non-positive values are ignored.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithErrorHandler receives every rejected file version. Rejections are
// logged regardless.
func WithErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher loads the config at path, which must be valid, and starts
// polling it. onChange may be nil. Call [Watcher.Stop] to end polling.
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: DefaultPollInterval,
		onChange: onChange,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fp, data, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watch %q: %w", path, err)
	}
	cfg, err := w.parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: watch %q: %w", path, err)
	}
	w.current, w.seen = cfg, fp

	go w.loop()
	return w, nil
}

// Current returns the most recent valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop ends polling and waits for an in-flight poll to finish. It is safe to
// call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.stopped
}

func (w *Watcher) loop() {
	defer close(w.stopped)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.Poll()
		}
	}
}

// Poll checks the file once, outside the regular schedule. It reports
// whether a new config was applied.
func (w *Watcher) Poll() bool {
	w.pollMu.Lock()
	defer w.pollMu.Unlock()

	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config watcher: stat failed", "path", w.path, "err", err)
		return false
	}

	w.mu.Lock()
	seen := w.seen
	w.mu.Unlock()
	if info.ModTime().Equal(seen.mtime) && info.Size() == seen.size {
		return false
	}

	fp, data, err := w.read()
	if err != nil {
		slog.Warn("config watcher: read failed", "path", w.path, "err", err)
		return false
	}
	if fp.sum == seen.sum {
		w.mu.Lock()
		w.seen = fp
		w.mu.Unlock()
		return false
	}

	cfg, err := w.parse(data)
	w.mu.Lock()
	w.seen = fp
	old := w.current
	if err == nil {
		w.current = cfg
	}
	w.mu.Unlock()

	if err != nil {
		slog.Warn("config watcher: keeping previous config", "path", w.path, "err", err)
		if w.onError != nil {
			w.onError(err)
		}
		return false
	}

	slog.Info("config watcher: configuration reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(old, cfg)
	}
	return true
}

func (w *Watcher) read() (fingerprint, []byte, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return fingerprint{}, nil, err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fingerprint{}, nil, err
	}
	return fingerprint{mtime: info.ModTime(), size: int64(len(data)), sum: sha256.Sum256(data)}, data, nil
}

// parse decodes data and resolves variant paths against the file's
// directory, like [Load].
func (w *Watcher) parse(data []byte) (*Config, error) {
	cfg, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(filepath.Dir(w.path))
	return cfg, nil
}
