package issuecache

import (
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"
)

// FileHandle is the identity of a workspace file.
//
// Implementations must be comparable: the cache uses the handle itself as
// its map key, so two handles are the same entry only if they compare equal.
// Pointer types satisfy this trivially.
type FileHandle interface {
	// IsValid reports whether the file still exists and can be resolved.
	IsValid() bool
	// Path returns the location the handle was created for.
	Path() string
}

// Workspace hands out file handles for a project rooted at Root.
//
// Handles are interned: File returns the same *WorkspaceFile for the same
// normalized path until it is invalidated, so handle identity is stable for
// the lifetime of the file.
type Workspace struct {
	fs   afero.Fs
	root string

	mu    sync.Mutex
	files map[string]*WorkspaceFile
}

// NewWorkspace creates a workspace over fs rooted at root.
func NewWorkspace(fs afero.Fs, root string) *Workspace {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Workspace{
		fs:    fs,
		root:  NormalizePath(root),
		files: make(map[string]*WorkspaceFile),
	}
}

// Root returns the normalized project root.
func (w *Workspace) Root() string {
	return w.root
}

// Fs returns the filesystem backing the workspace.
func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

// File returns the handle for path, creating it on first use.
func (w *Workspace) File(path string) *WorkspaceFile {
	normalized := NormalizePath(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if f, ok := w.files[normalized]; ok {
		return f
	}
	f := &WorkspaceFile{fs: w.fs, path: normalized}
	w.files[normalized] = f
	return f
}

// Invalidate marks the handle for path as no longer valid and forgets it.
// A later File call for the same path returns a fresh handle.
func (w *Workspace) Invalidate(path string) *WorkspaceFile {
	normalized := NormalizePath(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.files[normalized]
	if !ok {
		return nil
	}
	f.invalidated.Store(true)
	delete(w.files, normalized)
	return f
}

// ResolveKey derives the store key for h relative to the workspace root.
func (w *Workspace) ResolveKey(h FileHandle) (string, bool) {
	return ResolveKey(w.root, h)
}

// WorkspaceFile is a FileHandle backed by an afero filesystem.
type WorkspaceFile struct {
	fs          afero.Fs
	path        string
	invalidated atomic.Bool
}

// Path returns the normalized path of the file.
func (f *WorkspaceFile) Path() string {
	return f.path
}

// IsValid reports whether the file has not been invalidated and still
// exists as a regular file.
func (f *WorkspaceFile) IsValid() bool {
	if f == nil || f.invalidated.Load() {
		return false
	}
	info, err := f.fs.Stat(f.path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// String implements the Stringer interface
func (f *WorkspaceFile) String() string {
	return f.path
}
