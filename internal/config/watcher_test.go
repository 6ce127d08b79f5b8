package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrWong99/recruitgraph/internal/config"
)

const watcherValidYAML = `
server:
  log_level: info
variants:
  active: Default
  files: [variants/default.yaml]
`

const watcherUpdatedYAML = `
server:
  log_level: debug
variants:
  active: Balrog
  files: [variants/default.yaml, variants/balrog.yaml]
`

const watcherInvalidYAML = `
server:
  log_level: bananas
variants:
  files: [variants/default.yaml]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

// reload records watcher callbacks. Polling is driven by the test through
// Poll; the background interval is long enough never to fire.
type reload struct {
	changes [][2]*config.Config
	errs    []error
}

func startWatcher(t *testing.T, content string) (*config.Watcher, *reload, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, content)

	r := &reload{}
	w, err := config.NewWatcher(path,
		func(old, new *config.Config) { r.changes = append(r.changes, [2]*config.Config{old, new}) },
		config.WithInterval(time.Hour),
		config.WithErrorHandler(func(err error) { r.errs = append(r.errs, err) }),
	)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, r, path
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	w, r, path := startWatcher(t, watcherValidYAML)

	cfg := w.Current()
	if cfg == nil || cfg.Server.LogLevel != config.LogInfo {
		t.Fatalf("Current() = %+v, want info log level", cfg)
	}
	if want := filepath.Join(filepath.Dir(path), "variants", "default.yaml"); cfg.Variants.Files[0] != want {
		t.Errorf("files[0] = %q, want %q", cfg.Variants.Files[0], want)
	}
	if w.Poll() {
		t.Error("Poll without a file change reported a reload")
	}
	if len(r.changes)+len(r.errs) != 0 {
		t.Errorf("unexpected callbacks: %d changes, %d errors", len(r.changes), len(r.errs))
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()
	w, r, path := startWatcher(t, watcherValidYAML)

	writeFile(t, path, watcherUpdatedYAML)
	if !w.Poll() {
		t.Fatal("Poll did not pick up the new content")
	}

	if len(r.changes) != 1 {
		t.Fatalf("changes = %d, want 1", len(r.changes))
	}
	old, cur := r.changes[0][0], r.changes[0][1]
	if old.Server.LogLevel != config.LogInfo || cur.Server.LogLevel != config.LogDebug {
		t.Errorf("callback log levels = %q -> %q, want info -> debug", old.Server.LogLevel, cur.Server.LogLevel)
	}
	if w.Current() != cur {
		t.Error("Current() is not the config passed to the callback")
	}
	if d := config.Diff(old, cur); !d.VariantsChanged || !d.LogLevelChanged {
		t.Errorf("Diff = %+v, want log level and variant changes", d)
	}
	if want := filepath.Join(filepath.Dir(path), "variants", "balrog.yaml"); len(cur.Variants.Files) != 2 || cur.Variants.Files[1] != want {
		t.Errorf("reloaded files = %v, want second entry %q", cur.Variants.Files, want)
	}
}

func TestWatcher_InvalidEditReportedOnce(t *testing.T) {
	t.Parallel()
	w, r, path := startWatcher(t, watcherValidYAML)
	before := w.Current()

	writeFile(t, path, watcherInvalidYAML)
	for range 3 {
		if w.Poll() {
			t.Fatal("invalid config was applied")
		}
	}
	if len(r.errs) != 1 {
		t.Errorf("errors reported = %d, want 1", len(r.errs))
	}
	if len(r.changes) != 0 {
		t.Errorf("changes = %d, want 0", len(r.changes))
	}
	if w.Current() != before {
		t.Error("Current() changed after an invalid edit")
	}

	// Fixing the file recovers with the last valid config as old.
	writeFile(t, path, watcherUpdatedYAML)
	if !w.Poll() {
		t.Fatal("valid edit after an invalid one was not applied")
	}
	if len(r.changes) != 1 || r.changes[0][0] != before {
		t.Errorf("recovery callback old config is not the last valid one")
	}
}

func TestWatcher_TouchWithoutContentChange(t *testing.T) {
	t.Parallel()
	w, r, path := startWatcher(t, watcherValidYAML)

	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if w.Poll() {
		t.Error("touch without content change reported a reload")
	}
	if len(r.changes)+len(r.errs) != 0 {
		t.Errorf("unexpected callbacks: %d changes, %d errors", len(r.changes), len(r.errs))
	}
}

func TestWatcher_MissingFileDuringPoll(t *testing.T) {
	t.Parallel()
	w, _, path := startWatcher(t, watcherValidYAML)
	before := w.Current()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if w.Poll() {
		t.Error("Poll of a missing file reported a reload")
	}
	if w.Current() != before {
		t.Error("Current() changed after the file disappeared")
	}
}

func TestWatcher_BackgroundPolling(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, watcherValidYAML)

	called := make(chan *config.Config, 1)
	w, err := config.NewWatcher(path, func(_, new *config.Config) {
		select {
		case called <- new:
		default:
		}
	}, config.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeFile(t, path, watcherUpdatedYAML)
	select {
	case cfg := <-called:
		if cfg.Variants.Active != "Balrog" {
			t.Errorf("reloaded active variant = %q, want Balrog", cfg.Variants.Active)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("background poll did not reload within 2s")
	}
}

func TestNewWatcher_Errors(t *testing.T) {
	t.Parallel()

	if _, err := config.NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want os.ErrNotExist", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, watcherInvalidYAML)
	if _, err := config.NewWatcher(path, nil); err == nil {
		t.Error("invalid initial config: expected error")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	w, _, _ := startWatcher(t, watcherValidYAML)
	w.Stop()
	w.Stop()
}
