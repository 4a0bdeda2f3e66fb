// Package watch runs a callback whenever statement files land in a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce absorbs the several events a single copy produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls Run once at start and again after CSV files are created or
// written in Dir. Calls never overlap.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	Run      func(ctx context.Context) error
	Log      zerolog.Logger
}

// Watch blocks until ctx is cancelled. Errors from Run are logged, not
// returned, so one bad file does not stop the watcher.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("creating watch dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.Dir, err)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w.run(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isCSV(event.Name) {
				continue
			}
			w.Log.Debug().Str("file", filepath.Base(event.Name)).Str("op", event.Op.String()).Msg("statement changed")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.run(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Log.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) run(ctx context.Context) {
	if err := w.Run(ctx); err != nil {
		w.Log.Error().Err(err).Msg("itemize run failed")
	}
}

func isCSV(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}
