package source

import (
	"context"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	eventChannelBuffer   = 256
	defaultDebounceDelay = 500 * time.Millisecond
)

// WatchConfig configures requirement file watching.
type WatchConfig struct {
	// DebounceDelay is how long changes accumulate before events are emitted.
	DebounceDelay string `json:"debounce_delay" yaml:"debounce_delay"`

	// FileExtensions restricts watched files. Empty means every extension
	// the registry can decode.
	FileExtensions []string `json:"file_extensions,omitempty" yaml:"file_extensions,omitempty"`

	// ExcludeDirs lists directory names to skip.
	ExcludeDirs []string `json:"exclude_dirs,omitempty" yaml:"exclude_dirs,omitempty"`
}

// DefaultWatchConfig returns default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay: "500ms",
		ExcludeDirs:   []string{".git", "node_modules", "vendor"},
	}
}

// GetDebounceDelay returns the debounce delay as a duration.
func (c *WatchConfig) GetDebounceDelay() time.Duration {
	d, err := time.ParseDuration(c.DebounceDelay)
	if err != nil || d <= 0 {
		return defaultDebounceDelay
	}
	return d
}

// WatchOperation indicates the type of file change.
type WatchOperation string

// Watch operations.
const (
	WatchOpCreate WatchOperation = "create"
	WatchOpModify WatchOperation = "modify"
	WatchOpDelete WatchOperation = "delete"
)

// WatchEvent is a debounced requirement file change.
type WatchEvent struct {
	// Path is relative to the watched root.
	Path string

	// AbsPath is the absolute file path.
	AbsPath string

	Operation WatchOperation

	// Hash is the content hash for create and modify events.
	Hash string
}

// Watcher watches a directory tree for requirement file changes. Events
// are debounced and suppressed when the content hash is unchanged.
type Watcher struct {
	config   WatchConfig
	root     string
	registry *Registry
	fsw      *fsnotify.Watcher
	logger   *slog.Logger

	extensions map[string]bool
	excludes   map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.RWMutex
	hashes map[string]string

	events  chan WatchEvent
	dropped atomic.Int64
}

// NewWatcher creates a watcher rooted at root.
func NewWatcher(config WatchConfig, root string, registry *Registry, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = DefaultRegistry
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		fsw.Close()
		return nil, err
	}

	extensions := make(map[string]bool, len(config.FileExtensions))
	for _, ext := range config.FileExtensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}
	excludes := make(map[string]bool, len(config.ExcludeDirs))
	for _, dir := range config.ExcludeDirs {
		excludes[dir] = true
	}

	return &Watcher{
		config:     config,
		root:       absRoot,
		registry:   registry,
		fsw:        fsw,
		logger:     logger,
		extensions: extensions,
		excludes:   excludes,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]string),
		events:     make(chan WatchEvent, eventChannelBuffer),
	}, nil
}

// Events returns the channel of watch events. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Start adds watches below the root and begins processing events until ctx
// is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatches(w.root); err != nil {
		return err
	}
	go w.run(ctx)

	w.logger.Info("Requirement watcher started",
		"root", w.root,
		"debounce", w.config.GetDebounceDelay())
	return nil
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// SetHash records the content hash of a file, e.g. after an initial compile.
func (w *Watcher) SetHash(relPath, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[relPath] = hash
}

// GetHash returns the recorded hash for a file.
func (w *Watcher) GetHash(relPath string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[relPath]
	return hash, ok
}

// DroppedEvents returns the number of events dropped on a full channel.
func (w *Watcher) DroppedEvents() int64 {
	return w.dropped.Load()
}

func (w *Watcher) watched(path string) bool {
	if len(w.extensions) > 0 {
		return w.extensions[strings.ToLower(filepath.Ext(path))]
	}
	return w.registry.Supports(path)
}

func (w *Watcher) skipDir(path string) bool {
	base := filepath.Base(path)
	return path != w.root && (w.excludes[base] || strings.HasPrefix(base, "."))
}

func (w *Watcher) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.config.GetDebounceDelay())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !w.watched(event.Name) {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.skipDir(event.Name) {
				if err := w.addWatches(event.Name); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
				}
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] |= event.Op
	w.pendingMu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	batch := maps.Clone(w.pending)
	clear(w.pending)
	w.pendingMu.Unlock()

	for path, op := range batch {
		if ctx.Err() != nil {
			return
		}
		relPath, _ := filepath.Rel(w.root, path)
		event := WatchEvent{Path: relPath, AbsPath: path}

		content, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				w.logger.Warn("Failed to read changed file", "path", relPath, "error", err)
				continue
			}
			w.hashMu.Lock()
			_, known := w.hashes[relPath]
			delete(w.hashes, relPath)
			w.hashMu.Unlock()
			if known || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
				event.Operation = WatchOpDelete
				w.send(event)
			}
			continue
		}

		hash := ContentHash(content)
		old, known := w.GetHash(relPath)
		if known && old == hash {
			continue
		}
		w.SetHash(relPath, hash)

		event.Hash = hash
		event.Operation = WatchOpModify
		if !known {
			event.Operation = WatchOpCreate
		}
		w.send(event)
	}
}

func (w *Watcher) send(event WatchEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("Requirement file changed", "path", event.Path, "op", event.Operation)
	default:
		dropped := w.dropped.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}
