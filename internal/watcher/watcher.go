// Package watcher converts documents dropped into watched directories. Events are
// debounced per path and a file is handed over only once its size and modification
// time have stopped changing, so half-written saves are not converted.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler receives settled files and removals. Errors are logged, never retried.
type Handler interface {
	Convert(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
}

// HandlerFuncs adapts plain functions to Handler. A nil func ignores the event.
type HandlerFuncs struct {
	OnConvert func(ctx context.Context, path string) error
	OnRemove  func(ctx context.Context, path string) error
}

// Convert implements Handler.
func (h HandlerFuncs) Convert(ctx context.Context, path string) error {
	if h.OnConvert == nil {
		return nil
	}
	return h.OnConvert(ctx, path)
}

// Remove implements Handler.
func (h HandlerFuncs) Remove(ctx context.Context, path string) error {
	if h.OnRemove == nil {
		return nil
	}
	return h.OnRemove(ctx, path)
}

// snapshot is what a pending file looked like when its timer was armed.
type snapshot struct {
	size int64
	mod  time.Time
}

func statFile(path string) (snapshot, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return snapshot{}, false
	}
	return snapshot{size: info.Size(), mod: info.ModTime()}, true
}

func (s snapshot) same(o snapshot) bool {
	return s.size == o.size && s.mod.Equal(o.mod)
}

type pending struct {
	timer *time.Timer
	seen  snapshot
}

// Watcher watches root directories and hands matching files to a Handler.
type Watcher struct {
	handler    Handler
	extensions []string
	recursive  bool
	debounce   time.Duration
	logger     *zap.Logger // optional

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	ctx     context.Context // handler context, live between Start and Stop
	cancel  context.CancelFunc
	roots   []string          // in the order they were added
	dirs    map[string]string // every watched directory -> the root that owns it
	pending map[string]*pending
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a path must stay quiet before it is converted.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher over roots. Only files whose extension is in extensions
// (all files when empty) reach handler; editor lock and temp files never do.
func NewWatcher(roots []string, extensions []string, recursive bool, handler Handler, opts ...WatcherOption) *Watcher {
	if handler == nil {
		handler = HandlerFuncs{}
	}
	w := &Watcher{
		handler:    handler,
		extensions: extensions,
		recursive:  recursive,
		debounce:   defaultDebounce,
		dirs:       make(map[string]string),
		pending:    make(map[string]*pending),
	}
	for _, root := range roots {
		w.roots = append(w.roots, filepath.Clean(root))
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start creates missing roots, registers them and begins handling events. It runs until
// ctx is cancelled or Stop is called. Starting twice is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	for _, root := range w.roots {
		if err := w.watchTreeLocked(root, root); err != nil {
			_ = fsw.Close()
			w.fsw = nil
			w.dirs = make(map[string]string)
			return err
		}
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	if w.logger != nil {
		w.logger.Debug("watcher started",
			zap.Strings("roots", w.roots),
			zap.Strings("extensions", w.extensions),
			zap.Bool("recursive", w.recursive),
			zap.Int("directories", len(w.dirs)))
	}
	go w.loop(w.ctx, fsw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.stop(fsw)
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	root, ok := w.ownerOf(path)
	if !ok {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if ev.Has(fsnotify.Create) {
				w.adoptDirectory(root, path)
			}
			return
		}
		if w.matchFile(path) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		if w.forgetDirectory(path) {
			return
		}
		w.unschedule(path)
		if w.matchFile(path) {
			w.call("remove", path, w.handler.Remove)
		}
	}
}

// ownerOf returns the root that path lies under.
func (w *Watcher) ownerOf(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if root, ok := w.dirs[path]; ok {
		return root, true
	}
	if root, ok := w.dirs[filepath.Dir(path)]; ok {
		return root, true
	}
	for _, root := range w.roots {
		if inDir(root, path) {
			return root, true
		}
	}
	return "", false
}

// adoptDirectory starts watching a directory created (or moved) under root and converts
// the files it already holds, since their create events predate the watch.
func (w *Watcher) adoptDirectory(root, dir string) {
	if !w.recursive {
		return
	}
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return
	}
	err := w.watchTreeLocked(root, dir)
	w.mu.Unlock()
	if err != nil {
		if w.logger != nil {
			w.logger.Debug("watcher failed to add directory", zap.String("path", dir), zap.Error(err))
		}
		return
	}
	w.convertTree(dir)
}

// forgetDirectory drops a removed directory and everything watched below it.
// It reports whether path was a watched directory.
func (w *Watcher) forgetDirectory(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[path]; !ok {
		return false
	}
	for dir := range w.dirs {
		if inDir(path, dir) {
			delete(w.dirs, dir)
		}
	}
	return true
}

// watchTreeLocked registers dir (and its subdirectories when recursive) as owned by root,
// creating dir when it does not exist yet.
func (w *Watcher) watchTreeLocked(root, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	add := func(path string) error {
		if _, ok := w.dirs[path]; ok {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		w.dirs[path] = root
		return nil
	}
	if !w.recursive {
		return add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && ignoredName(d.Name()) {
			return filepath.SkipDir
		}
		return add(filepath.Clean(path))
	})
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) matchFile(path string) bool {
	return !ignoredName(filepath.Base(path)) && matchExtension(path, w.extensions)
}

// ignoredName reports editor lock files ("~$report.docx"), hidden files and
// temporary save files, which are never complete documents.
func ignoredName(name string) bool {
	return strings.HasPrefix(name, "~$") ||
		strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(strings.ToLower(name), ".tmp")
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(path string) {
	seen, ok := statFile(path)
	if !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return
	}
	if p, ok := w.pending[path]; ok {
		p.seen = seen
		p.timer.Reset(w.debounce)
		return
	}
	p := &pending{seen: seen}
	p.timer = time.AfterFunc(w.debounce, func() { w.settle(path, p) })
	w.pending[path] = p
}

// settle converts path if it has not changed since it was scheduled, and re-arms the
// timer otherwise.
func (w *Watcher) settle(path string, p *pending) {
	now, ok := statFile(path)
	w.mu.Lock()
	if w.pending[path] != p {
		w.mu.Unlock()
		return
	}
	if ok && !now.same(p.seen) {
		p.seen = now
		p.timer.Reset(w.debounce)
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()
	if ok {
		w.call("convert", path, w.handler.Convert)
	}
}

func (w *Watcher) unschedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) call(action, path string, fn func(context.Context, string) error) {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if w.logger != nil {
		w.logger.Debug("watcher "+action, zap.String("path", path))
	}
	if err := fn(ctx, path); err != nil && w.logger != nil && !errors.Is(err, context.Canceled) {
		w.logger.Warn("watcher "+action+" failed", zap.String("path", path), zap.Error(err))
	}
}

// convertTree hands every matching file below dir to the handler, synchronously.
func (w *Watcher) convertTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && (!w.recursive || ignoredName(d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.matchFile(path) {
			w.call("convert", path, w.handler.Convert)
		}
		return nil
	})
}

// AddDirectory adds a root and, when syncExisting is set, converts the files already in
// it in the background. Adding a known root is a no-op; before Start the root is only
// remembered.
func (w *Watcher) AddDirectory(root string, syncExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	w.mu.Lock()
	for _, r := range w.roots {
		if r == abs {
			w.mu.Unlock()
			return nil
		}
	}
	if w.fsw == nil {
		// registered by Start
		w.roots = append(w.roots, abs)
		w.mu.Unlock()
		return nil
	}
	if err := w.watchTreeLocked(abs, abs); err != nil {
		w.mu.Unlock()
		return err
	}
	w.roots = append(w.roots, abs)
	w.mu.Unlock()
	if w.logger != nil {
		w.logger.Debug("watcher directory added", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	}
	if syncExisting {
		go w.convertTree(abs)
	}
	return nil
}

// RemoveDirectory stops watching a root. Conversions already made are kept.
func (w *Watcher) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.roots[:0]
	found := false
	for _, r := range w.roots {
		if r == abs {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	w.roots = kept
	if !found {
		return nil
	}
	for dir, owner := range w.dirs {
		if owner != abs {
			continue
		}
		if w.fsw != nil {
			_ = w.fsw.Remove(dir)
		}
		delete(w.dirs, dir)
	}
	for path, p := range w.pending {
		if inDir(abs, path) {
			p.timer.Stop()
			delete(w.pending, path)
		}
	}
	if w.logger != nil {
		w.logger.Debug("watcher directory removed", zap.String("path", abs))
	}
	return nil
}

// Directories returns the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// SyncExistingFiles converts every matching file already present in the roots. Call it
// after Start to catch up on files that arrived while nothing was watching.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.Directories() {
		if w.logger != nil {
			w.logger.Debug("watcher syncing directory", zap.String("root", root))
		}
		w.convertTree(root)
	}
}

// Stop cancels pending conversions and releases the fsnotify watcher. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	w.stop(fsw)
}

// stop shuts down fsw if it is still the live watcher, so a loop outliving a restart
// cannot close its successor.
func (w *Watcher) stop(fsw *fsnotify.Watcher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fsw == nil || w.fsw != fsw {
		return
	}
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.cancel()
	_ = w.fsw.Close()
	w.fsw = nil
	w.dirs = make(map[string]string)
}
