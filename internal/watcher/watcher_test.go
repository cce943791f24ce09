package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// recorder collects callback paths.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(_ context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	return nil
}

// handlerOf routes converts and removes into recorders; either may be nil.
func handlerOf(converted, removed *recorder) Handler {
	var h HandlerFuncs
	if converted != nil {
		h.OnConvert = converted.record
	}
	if removed != nil {
		h.OnRemove = removed.record
	}
	return h
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) count(suffix string) int {
	n := 0
	for _, p := range r.snapshot() {
		if strings.HasSuffix(p, suffix) {
			n++
		}
	}
	return n
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	var converted, removed recorder

	w := NewWatcher(nil, []string{".docx"}, true, handlerOf(&converted, &removed))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
}

func TestWatcher_DebounceCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}

	var converted recorder
	w := NewWatcher([]string{dir}, []string{".docx"}, true, handlerOf(&converted, nil), WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(sub, "report.docx")
	for _, body := range []string{"a", "ab", "abc"} {
		if err := writeFile(fPath, body); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err := writeFile(filepath.Join(sub, "notes.txt"), "skip"); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, func() bool { return converted.count("report.docx") >= 1 }) {
		t.Fatalf("expected a convert callback, got %v", converted.snapshot())
	}
	time.Sleep(300 * time.Millisecond)
	if n := converted.count("report.docx"); n != 1 {
		t.Errorf("rapid writes should be converted once, got %d", n)
	}
	if converted.count("notes.txt") != 0 {
		t.Errorf("notes.txt does not match the extension filter: %v", converted.snapshot())
	}
}

func TestWatcher_RemoveCallsOnRemove(t *testing.T) {
	dir := t.TempDir()
	fPath := filepath.Join(dir, "gone.docx")
	if err := writeFile(fPath, "x"); err != nil {
		t.Fatal(err)
	}

	var removed recorder
	w := NewWatcher([]string{dir}, []string{".docx"}, true, handlerOf(nil, &removed), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(fPath); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return removed.count("gone.docx") == 1 }) {
		t.Errorf("expected remove callback, got %v", removed.snapshot())
	}
}

func TestWatcher_IgnoresLockAndTempFiles(t *testing.T) {
	dir := t.TempDir()
	var converted recorder
	w := NewWatcher([]string{dir}, []string{".docx"}, true, handlerOf(&converted, nil), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for _, name := range []string{"~$draft.docx", ".hidden.docx", "draft.docx"} {
		if err := writeFile(filepath.Join(dir, name), "x"); err != nil {
			t.Fatal(err)
		}
	}
	if !waitFor(t, func() bool { return converted.count("draft.docx") >= 1 }) {
		t.Fatalf("expected draft.docx to be converted, got %v", converted.snapshot())
	}
	time.Sleep(150 * time.Millisecond)
	for _, p := range converted.snapshot() {
		if base := filepath.Base(p); base != "draft.docx" {
			t.Errorf("%s should have been ignored", base)
		}
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.docx", []string{".docx"}, true},
		{"/a/b.DOCX", []string{"docx"}, true},
		{"/a/b.odt", []string{".docx"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestIgnoredName(t *testing.T) {
	tests := map[string]bool{
		"report.docx":     false,
		"~$report.docx":   true,
		".report.docx":    true,
		"report.docx~":    true,
		"report.docx.TMP": true,
		"q3-summary.odt":  false,
	}
	for name, want := range tests {
		if got := ignoredName(name); got != want {
			t.Errorf("ignoredName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.docx", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles_convertsMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "a.docx"), "hello"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "~$a.docx"), "lock"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "ignore.xyz"), "x"); err != nil {
		t.Fatal(err)
	}

	var converted recorder
	w := NewWatcher([]string{dir}, []string{".docx"}, true, handlerOf(&converted, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	w.SyncExistingFiles()

	got := converted.snapshot()
	if len(got) != 1 || filepath.Base(got[0]) != "a.docx" {
		t.Errorf("expected one converted file a.docx, got %v", got)
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "watch", "me")
	_ = os.RemoveAll(filepath.Join(base, "watch"))

	w := NewWatcher([]string{root}, []string{".docx"}, true, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_HandleNewDirectory_convertsFilesInNewFolder(t *testing.T) {
	dir := t.TempDir()

	var converted recorder
	w := NewWatcher([]string{dir}, []string{".docx", ".odt"}, true, handlerOf(&converted, nil), WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Simulate copying a folder with files into the watched directory
	newFolder := filepath.Join(dir, "new-folder", "nested")
	if err := mkdirAll(newFolder); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(newFolder, "doc1.docx"), "hello"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(newFolder, "doc2.odt"), "world"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(newFolder, "ignore.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, func() bool {
		return converted.count("doc1.docx") >= 1 && converted.count("doc2.odt") >= 1
	})
	if !ok {
		t.Errorf("expected doc1.docx and doc2.odt to be converted, got %v", converted.snapshot())
	}
	if converted.count("ignore.xyz") != 0 {
		t.Error("ignore.xyz should not be converted")
	}
}

func TestWatcher_AddDirectoryBeforeStart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "later")
	var converted recorder
	w := NewWatcher(nil, []string{".docx"}, true, handlerOf(&converted, nil), WithDebounce(50*time.Millisecond))
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(filepath.Join(dir, "late.docx"), "x"); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return converted.count("late.docx") == 1 }) {
		t.Errorf("root added before Start should be watched, got %v", converted.snapshot())
	}
}

func TestWatcher_RemovedRootStopsConverting(t *testing.T) {
	dir := t.TempDir()
	var converted recorder
	w := NewWatcher([]string{dir}, []string{".docx"}, true, handlerOf(&converted, nil), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "after.docx"), "x"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := converted.count("after.docx"); n != 0 {
		t.Errorf("removed root should not convert, got %v", converted.snapshot())
	}
}

func TestWatcher_FileDeletedBeforeSettlingIsNotConverted(t *testing.T) {
	dir := t.TempDir()
	var converted, removed recorder
	w := NewWatcher([]string{dir}, []string{".docx"}, true, handlerOf(&converted, &removed), WithDebounce(200*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(dir, "blip.docx")
	if err := writeFile(fPath, "x"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := os.Remove(fPath); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return removed.count("blip.docx") == 1 }) {
		t.Fatalf("expected remove callback, got %v", removed.snapshot())
	}
	time.Sleep(300 * time.Millisecond)
	if n := converted.count("blip.docx"); n != 0 {
		t.Errorf("a deleted file must not be converted, got %v", converted.snapshot())
	}
}

func TestWatcher_HandlerErrorsDoNotStopWatching(t *testing.T) {
	dir := t.TempDir()
	var calls recorder
	h := HandlerFuncs{OnConvert: func(ctx context.Context, path string) error {
		_ = calls.record(ctx, path)
		return errors.New("boom")
	}}
	w := NewWatcher([]string{dir}, []string{".docx"}, true, h, WithDebounce(30*time.Millisecond), WithLogger(zap.NewNop()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for _, name := range []string{"one.docx", "two.docx"} {
		if err := writeFile(filepath.Join(dir, name), "x"); err != nil {
			t.Fatal(err)
		}
	}
	if !waitFor(t, func() bool { return calls.count("one.docx") >= 1 && calls.count("two.docx") >= 1 }) {
		t.Errorf("both files should reach the handler, got %v", calls.snapshot())
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, nil, true, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("restart after Stop: %v", err)
	}
	w.Stop()
}

func TestHandlerFuncs_nilFuncsIgnoreEvents(t *testing.T) {
	var h HandlerFuncs
	if err := h.Convert(context.Background(), "a.docx"); err != nil {
		t.Errorf("Convert: %v", err)
	}
	if err := h.Remove(context.Background(), "a.docx"); err != nil {
		t.Errorf("Remove: %v", err)
	}
}

func TestSnapshotSame(t *testing.T) {
	now := time.Now()
	a := snapshot{size: 10, mod: now}
	if !a.same(snapshot{size: 10, mod: now}) {
		t.Error("identical snapshots should match")
	}
	if a.same(snapshot{size: 11, mod: now}) || a.same(snapshot{size: 10, mod: now.Add(time.Millisecond)}) {
		t.Error("a change in size or mtime should not match")
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
