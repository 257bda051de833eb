package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ziadkadry99/manualview/internal/manual"
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce     time.Duration
	PollInterval time.Duration
	// ForcePoll skips fsnotify, for filesystems that do not deliver events.
	ForcePoll bool
	Logger    *slog.Logger
}

// Watch reloads a file-backed Static whenever the file changes and reports
// each result to fn. It blocks until ctx is done. Bundled documents never
// change and Watch returns immediately for them.
func (s *Static) Watch(ctx context.Context, opts WatchOptions, fn func(*manual.Manual, error)) error {
	if s.path == "" {
		return nil
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	changed := make(chan struct{}, 1)
	notify := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	if opts.ForcePoll {
		go poll(ctx, s.path, opts.PollInterval, notify)
	} else if err := s.watchEvents(ctx, notify, logger); err != nil {
		logger.Warn("file events unavailable, polling instead", "path", s.path, "error", err)
		go poll(ctx, s.path, opts.PollInterval, notify)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-changed:
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			m, err := s.Reload()
			if err != nil {
				logger.Warn("reloading manual failed", "path", s.path, "error", err)
			} else {
				logger.Info("manual reloaded", "path", s.path, "title", m.Title)
			}
			fn(m, err)
		}
	}
}

// watchEvents watches the directory holding the file, which also catches
// editors that save by renaming a temporary file over it.
func (s *Static) watchEvents(ctx context.Context, notify func(), logger *slog.Logger) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(s.path)
	if err != nil {
		fsw.Close()
		return err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return err
	}
	target := filepath.Base(abs)

	go func() {
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					notify()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("file watcher error", "error", err)
			}
		}
	}()
	return nil
}

func poll(ctx context.Context, path string, interval time.Duration, notify func()) {
	var lastMod time.Time
	var lastSize int64
	if info, err := os.Stat(path); err == nil {
		lastMod, lastSize = info.ModTime(), info.Size()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) || info.Size() != lastSize {
				lastMod, lastSize = info.ModTime(), info.Size()
				notify()
			}
		}
	}
}
