package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gophersatwork/issuecache"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS issues (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps records in a single SQLite table keyed by store key.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ Backend = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and creates if needed) the database at path.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, issuecache.NewConfigError("sqlite path is required", nil)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, issuecache.WithFile(issuecache.NewFSError("failed to open sqlite store", err), path)
	}
	// The cache already serializes access; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", sqliteSchema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, issuecache.WithFile(issuecache.NewFSError("failed to initialize sqlite store", err), path)
		}
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

// Save upserts the record for key.
func (s *SQLiteStore) Save(key string, issues issuecache.Issues) error {
	payload := MarshalIssues(issues)
	_, err := s.db.Exec(
		`INSERT INTO issues (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, payload, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save issues for %s: %w", key, err)
	}
	s.logger.Debug("Stored issues", "key", key, "bytes", len(payload))
	return nil
}

// Clear deletes the record for key. A missing record is not an error.
func (s *SQLiteStore) Clear(key string) error {
	if _, err := s.db.Exec(`DELETE FROM issues WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear issues for %s: %w", key, err)
	}
	return nil
}

// ClearAll deletes every record.
func (s *SQLiteStore) ClearAll() error {
	if _, err := s.db.Exec(`DELETE FROM issues`); err != nil {
		return fmt.Errorf("failed to clear issues: %w", err)
	}
	return nil
}

// Load reads the record for key.
func (s *SQLiteStore) Load(key string) (issuecache.Issues, bool, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM issues WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return issuecache.Issues{}, false, nil
	}
	if err != nil {
		return issuecache.Issues{}, false, fmt.Errorf("failed to load issues for %s: %w", key, err)
	}

	issues, err := UnmarshalIssues(payload)
	if err != nil {
		return issuecache.Issues{}, false, fmt.Errorf("failed to decode issues for %s: %w", key, err)
	}
	return issues, true, nil
}

// Keys lists all stored keys in lexical order.
func (s *SQLiteStore) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM issues ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
