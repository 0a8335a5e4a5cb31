package issuecache

// Store is the durable backend evicted and flushed entries are written to.
//
// Keys are the project-relative strings produced by a KeyResolver; the
// backend owns its own layout. The cache never reads from a Store.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type Store interface {
	// Save durably stores issues under key, replacing any previous value.
	Save(key string, issues Issues) error

	// Clear removes the value stored under key. Clearing a missing key is
	// not an error.
	Clear(key string) error

	// ClearAll removes every stored value.
	ClearAll() error
}
