package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/gophersatwork/issuecache"
	"github.com/spf13/afero"
)

const recordExt = ".issues"

// FSStore keeps one record file per key below a directory.
//
// File names are the xxhash of the key, so any key maps to a safe flat name;
// the key itself is stored inside the record. Writes go to a temporary file
// that is renamed into place, so a reader never observes a partial record.
type FSStore struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
	seq    atomic.Uint64
}

var _ Backend = (*FSStore)(nil)

// NewFSStore creates the store directory if needed.
func NewFSStore(fs afero.Fs, dir string, logger *slog.Logger) (*FSStore, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		return nil, issuecache.NewConfigError("store directory is required", nil)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, issuecache.WithFile(issuecache.NewFSError("failed to create store directory", err), dir)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FSStore{fs: fs, dir: dir, logger: logger}, nil
}

// Dir returns the directory records are written to.
func (s *FSStore) Dir() string {
	return s.dir
}

func (s *FSStore) recordPath(key string) string {
	return filepath.Join(s.dir, strconv.FormatUint(xxhash.Sum64String(key), 16)+recordExt)
}

// Save writes issues for key, replacing any previous record.
func (s *FSStore) Save(key string, issues issuecache.Issues) error {
	data := marshalRecord(key, issues)
	target := s.recordPath(key)
	tmp := fmt.Sprintf("%s.tmp-%d", target, s.seq.Add(1))

	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to write record for %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to commit record for %s: %w", key, err)
	}

	s.logger.Debug("Stored issues", "key", key, "file", target, "bytes", len(data))
	return nil
}

// Clear removes the record for key. A missing record is not an error.
func (s *FSStore) Clear(key string) error {
	err := s.fs.Remove(s.recordPath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove record for %s: %w", key, err)
	}
	return nil
}

// ClearAll removes every record and any temporary file left by an
// interrupted Save. Other files and subdirectories are left alone, since the
// store directory may be shared with the fingerprint cache or a config file.
func (s *FSStore) ClearAll() error {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to list store directory: %w", err)
	}

	var errs []error
	for _, info := range infos {
		if info.IsDir() || !isStoreFile(info.Name()) {
			continue
		}
		path := filepath.Join(s.dir, info.Name())
		if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// isStoreFile reports whether name is a record or a temporary record.
func isStoreFile(name string) bool {
	return strings.HasSuffix(name, recordExt) || strings.Contains(name, recordExt+".tmp-")
}

// Load reads the record for key.
func (s *FSStore) Load(key string) (issuecache.Issues, bool, error) {
	data, err := afero.ReadFile(s.fs, s.recordPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return issuecache.Issues{}, false, nil
		}
		return issuecache.Issues{}, false, fmt.Errorf("failed to read record for %s: %w", key, err)
	}

	storedKey, issues, err := unmarshalRecord(data)
	if err != nil {
		return issuecache.Issues{}, false, fmt.Errorf("failed to decode record for %s: %w", key, err)
	}
	// two keys hashing to the same name overwrite each other
	if storedKey != key {
		return issuecache.Issues{}, false, nil
	}
	return issues, true, nil
}

// Keys lists the keys of all stored records in lexical order. Unreadable
// records are skipped and logged.
func (s *FSStore) Keys() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list store directory: %w", err)
	}

	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), recordExt) {
			continue
		}
		path := filepath.Join(s.dir, info.Name())
		data, err := afero.ReadFile(s.fs, path)
		if err != nil {
			s.logger.Warn("Skipping unreadable record", "file", path, "error", err)
			continue
		}
		key, _, err := unmarshalRecord(data)
		if err != nil {
			s.logger.Warn("Skipping corrupt record", "file", path, "error", err)
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; FSStore holds no open handles.
func (s *FSStore) Close() error {
	return nil
}
