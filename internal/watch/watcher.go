package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DefaultOps are the operations that count as content changes. Chmod alone
// never does.
const DefaultOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Options configures Watch.
type Options struct {
	Root string
	// Recursive watches subdirectories too, except hidden ones.
	Recursive bool
	// Ops selects the operations passed on. Zero means DefaultOps.
	Ops fsnotify.Op
	// Match filters events by slash-separated path relative to Root. Nil accepts all.
	Match func(rel string) bool
	// OnEvent is called for every accepted event.
	OnEvent func(rel string, op fsnotify.Op)
	Logger  *slog.Logger
}

// Watch runs an fsnotify watcher on Root until ctx is cancelled. With
// Recursive set, directories created at runtime are added to the watch list.
func Watch(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ops := opts.Ops
	if ops == 0 {
		ops = DefaultOps
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if opts.Recursive {
		err = addTree(w, opts.Root)
	} else {
		err = w.Add(opts.Root)
	}
	if err != nil {
		return fmt.Errorf("watch %s: %w", opts.Root, err)
	}

	logger.Info("watcher: started", slog.String("root", opts.Root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped", slog.String("root", opts.Root))
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&ops == 0 {
				continue
			}
			if opts.Recursive && ev.Has(fsnotify.Create) {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if hidden(ev.Name) {
						continue
					}
					if addErr := addTree(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					continue
				}
			}

			rel, relErr := filepath.Rel(opts.Root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if opts.Match != nil && !opts.Match(rel) {
				continue
			}
			logger.Debug("watcher: event", slog.String("path", rel), slog.String("op", ev.Op.String()))
			if opts.OnEvent != nil {
				opts.OnEvent(rel, ev.Op)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func hidden(p string) bool {
	return strings.HasPrefix(filepath.Base(p), ".")
}

// addTree adds root and its non-hidden subdirectories to the watcher.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && hidden(p) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
