package pass

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher re-resolves whenever a dependency declaration file or the project
// config changes. Bursts of events (editors write several times, version
// control checkouts touch many files) are debounced into one pass.
type Watcher struct {
	runner *Runner
	log    *zap.Logger
	fsw    *fsnotify.Watcher
	window time.Duration
}

// NewWatcher watches the runner's project tree. The debounce window comes
// from the runner's config.
func NewWatcher(runner *Runner) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		runner: runner,
		log:    runner.log.Named("watch"),
		fsw:    fsw,
		window: runner.cfg.Debounce(),
	}
	if err := w.addTree(runner.cfg.ProjectDir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers every directory under root; fsnotify watches are not
// recursive.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name == ".git" || name == ".depstage" {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run blocks until ctx is cancelled, resolving after each debounced burst of
// relevant changes. The initial pass runs immediately.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	w.resolve(ctx)

	// The timer starts stopped; every relevant event rewinds it, so a pass
	// fires only after the window elapses with no further changes.
	timer := time.NewTimer(w.window)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != 0 {
				// New subdirectories need their own watch.
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					_ = w.maybeWatchDir(event.Name)
				}
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.window)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-timer.C:
			w.resolve(ctx)
		}
	}
}

func (w *Watcher) maybeWatchDir(path string) error {
	base := filepath.Base(path)
	if base == ".git" || base == ".depstage" {
		return nil
	}
	return w.fsw.Add(path)
}

// relevant filters to declaration files and the project config; generated
// descriptors are written by our own passes and must not retrigger.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	return strings.HasSuffix(name, w.runner.cfg.DependencyFileSuffix) || name == "depstage.yaml"
}

func (w *Watcher) resolve(ctx context.Context) {
	outcome, err := w.runner.ResolveNow(ctx)
	if err != nil {
		w.log.Error("resolution pass failed", zap.Error(err))
		return
	}
	for _, warning := range outcome.Warnings {
		w.log.Warn(warning)
	}
	if !outcome.OK {
		w.log.Warn("resolution pass completed with failures")
	}
}
