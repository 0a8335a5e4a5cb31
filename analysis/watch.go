package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gophersatwork/issuecache"
	"github.com/spf13/afero"
)

// ChangeKind describes what happened to a watched file.
type ChangeKind int

const (
	// ChangeModified means the file was created or written
	ChangeModified ChangeKind = iota
	// ChangeRemoved means the file was deleted or moved away
	ChangeRemoved
)

// Change is the outcome of handling one file event.
type Change struct {
	Path    string
	Kind    ChangeKind
	Trigger Trigger
	Issues  issuecache.Issues
	Err     error
}

// WatchConfig holds configuration for a Watcher
type WatchConfig struct {
	DebounceTime time.Duration
	Logger       *slog.Logger
	// OnChange is called after each batch of file changes was applied.
	OnChange func([]Change)
}

// Watcher re-analyzes Go files as they change and keeps the cache current.
type Watcher struct {
	pipeline     *Pipeline
	logger       *slog.Logger
	debounceTime time.Duration
	onChange     func([]Change)

	watcher *fsnotify.Watcher

	// Debouncing state
	mu             sync.Mutex
	pendingChanges map[string]ChangeKind
	debounceTimer  *time.Timer

	// processing is held while a batch is applied
	processing sync.Mutex
}

// NewWatcher creates a watcher driving p.
func NewWatcher(p *Pipeline, cfg WatchConfig) *Watcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.DebounceTime == 0 {
		cfg.DebounceTime = 100 * time.Millisecond
	}
	if cfg.OnChange == nil {
		cfg.OnChange = func([]Change) {}
	}

	return &Watcher{
		pipeline:       p,
		logger:         cfg.Logger,
		debounceTime:   cfg.DebounceTime,
		onChange:       cfg.OnChange,
		pendingChanges: make(map[string]ChangeKind),
	}
}

// Start runs an initial analysis of root, then applies file changes until
// ctx is done. On the way out every live entry is flushed to the store.
func (w *Watcher) Start(ctx context.Context, root string) (*Report, error) {
	report, err := w.pipeline.Run(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("initial analysis failed: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return report, fmt.Errorf("failed to create watcher: %w", err)
	}
	w.watcher = watcher
	defer w.watcher.Close()

	if err := w.addDirs(root); err != nil {
		return report, fmt.Errorf("failed to add directories to watcher: %w", err)
	}

	w.logger.Info("Watching for changes", "path", root)
	loopErr := w.processEvents(ctx)

	if err := w.shutdown(); err != nil {
		return report, errors.Join(loopErr, err)
	}
	return report, loopErr
}

// shutdown applies what is still queued and flushes the cache. It waits for
// a batch the debounce timer already started, so nothing that batch saves is
// missed by the flush.
func (w *Watcher) shutdown() error {
	w.stopTimer()
	w.processPendingChanges()

	w.processing.Lock()
	defer w.processing.Unlock()
	return w.pipeline.Cache().FlushAll()
}

// addDirs recursively adds all directories below root to the watcher
func (w *Watcher) addDirs(root string) error {
	return afero.Walk(w.pipeline.Workspace().Fs(), root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("Error walking path", "path", path, "error", err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(info.Name(), ".") || info.Name() == "vendor") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// processEvents handles file system events with debouncing
func (w *Watcher) processEvents(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watch mode")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleEvent queues a single file system event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := w.pipeline.Workspace().Fs().Stat(event.Name); err == nil && info.IsDir() {
			if w.watcher == nil {
				return
			}
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("Failed to watch directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".go") {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.queue(event.Name, ChangeRemoved)
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		w.queue(event.Name, ChangeModified)
	}
}

// queue records a change and restarts the debounce timer
func (w *Watcher) queue(path string, kind ChangeKind) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pendingChanges[issuecache.NormalizePath(path)] = kind

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceTime, w.processPendingChanges)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

// processPendingChanges applies all queued changes. Batches never overlap.
func (w *Watcher) processPendingChanges() {
	w.processing.Lock()
	defer w.processing.Unlock()

	w.mu.Lock()
	pending := w.pendingChanges
	w.pendingChanges = make(map[string]ChangeKind)
	w.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	w.onChange(w.apply(pending))
}

// apply re-analyzes modified files and forgets removed ones, in path order.
func (w *Watcher) apply(pending map[string]ChangeKind) []Change {
	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	changes := make([]Change, 0, len(paths))
	for _, path := range paths {
		change := Change{Path: path, Kind: pending[path], Trigger: TriggerChangedFiles}

		// A rename or a write racing a delete can report a file that is gone.
		if change.Kind == ChangeModified {
			if exists, _ := afero.Exists(w.pipeline.Workspace().Fs(), path); !exists {
				change.Kind = ChangeRemoved
			}
		}

		switch change.Kind {
		case ChangeRemoved:
			change.Err = w.pipeline.Forget(path)
		case ChangeModified:
			change.Issues, change.Err = w.pipeline.AnalyzeFile(path)
		}

		if change.Err != nil {
			w.logger.Error("Failed to apply change", "path", path, "error", change.Err)
		}
		changes = append(changes, change)
	}
	return changes
}
