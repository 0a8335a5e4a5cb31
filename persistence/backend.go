// Package persistence provides durable stores for evicted and flushed issue
// snapshots.
package persistence

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gophersatwork/issuecache"
	"github.com/spf13/afero"
)

// Backend is a Store that can also be read back by tooling.
type Backend interface {
	issuecache.Store

	// Load returns the issues stored under key, if any.
	Load(key string) (issuecache.Issues, bool, error)

	// Keys lists every stored key.
	Keys() ([]string, error)

	// Close releases resources held by the backend.
	Close() error
}

// Open creates the backend selected by cfg.Store. Relative locations are
// resolved against root. The sqlite backend always uses the OS filesystem.
func Open(cfg issuecache.Config, fs afero.Fs, root string, logger *slog.Logger) (Backend, error) {
	switch cfg.Store.Backend {
	case issuecache.BackendFS, "":
		return NewFSStore(fs, resolve(root, cfg.Store.Dir), logger)
	case issuecache.BackendSQLite:
		path := resolve(root, cfg.Store.SQLitePath)
		if err := afero.NewOsFs().MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, issuecache.WithFile(issuecache.NewFSError("failed to create sqlite directory", err), path)
		}
		return NewSQLiteStore(path, logger)
	default:
		return nil, issuecache.NewConfigError(fmt.Sprintf("unknown store backend %q", cfg.Store.Backend), nil)
	}
}

func resolve(root, path string) string {
	if root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
