package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
)

// DefaultDebounce is how long a burst of writes must settle before the
// watch callback runs.
const DefaultDebounce = 150 * time.Millisecond

type WatchOptions struct {
	// Dirs are watched non-recursively.
	Dirs []string

	Debounce time.Duration

	// OnChange runs once per settled burst of changes to JSON documents.
	// Its error is logged and watching continues.
	OnChange func(ctx context.Context) error
}

// WatchPaths blocks until ctx is done, calling opts.OnChange after JSON
// documents in opts.Dirs change. Lock and temp files are ignored.
func WatchPaths(ctx context.Context, opts WatchOptions) error {
	if opts.OnChange == nil {
		return fmt.Errorf("change callback is required")
	}
	if len(opts.Dirs) == 0 {
		return fmt.Errorf("at least one directory is required")
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	lg := log.FromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch data directory: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()
	for _, d := range opts.Dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	var (
		pending     bool
		pendingFrom time.Time
	)
	tick := debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if pending && time.Since(pendingFrom) >= debounce {
				pending = false
				if err := opts.OnChange(ctx); err != nil {
					lg.Warn("watch callback failed", "err", err)
				}
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDocument(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				lg.Debug("document changed", "path", event.Name, "op", event.Op.String())
				pending = true
				pendingFrom = time.Now()
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			lg.Warn("file watcher error", "err", watchErr)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

type CheckWatchOptions struct {
	Debounce time.Duration

	// OnReport receives the initial report and one per settled change.
	OnReport func(*content.CheckReport) error
}

// WatchCheck runs Check once, then again whenever the data directory
// changes. It returns when ctx is done.
func (a *Admin) WatchCheck(ctx context.Context, opts CheckWatchOptions) error {
	if a.Config.Backend != BackendFile {
		return fmt.Errorf("watching needs the file backend, not %q: %w", a.Config.Backend, content.ErrInvalid)
	}
	if opts.OnReport == nil {
		return fmt.Errorf("report callback is required")
	}
	if err := os.MkdirAll(a.Config.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	run := func(ctx context.Context) error {
		rep, err := a.Check(ctx)
		if err != nil {
			return err
		}
		return opts.OnReport(rep)
	}
	if err := run(ctx); err != nil {
		return err
	}
	return WatchPaths(ctx, WatchOptions{
		Dirs:     []string{a.Config.DataDir},
		Debounce: opts.Debounce,
		OnChange: run,
	})
}
