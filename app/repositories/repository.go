package repositories

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Repository owns the badger database holding the local cache.
type Repository struct {
	db       *badger.DB
	mutex    sync.RWMutex
	dbPath   string
	inMemory bool
}

// NewRepository opens the cache at path. An empty path opens an in-memory
// database that disappears on Close.
func NewRepository(path string) (*Repository, error) {
	inMemory := path == ""
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1).
		WithNumGoroutines(1)
	if inMemory {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache %q: %w", path, err)
	}
	return &Repository{
		db:       db,
		dbPath:   path,
		inMemory: inMemory,
	}, nil
}

// Path returns the on-disk location, empty for in-memory caches.
func (r *Repository) Path() string {
	return r.dbPath
}

// KV returns the key/value view of the cache.
func (r *Repository) KV() *BadgerKVRepository {
	return NewBadgerKVRepository(r.db)
}

// Backup writes a full backup of the cache to w.
func (r *Repository) Backup(w io.Writer) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if _, err := r.db.Backup(w, 0); err != nil {
		return fmt.Errorf("backup cache: %w", err)
	}
	return nil
}

// Restore loads a backup produced by Backup.
func (r *Repository) Restore(rd io.Reader) (err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic occurred during restore: %v", p)
		}
	}()
	if err := r.db.Load(rd, 4); err != nil {
		return fmt.Errorf("restore cache: %w", err)
	}
	return nil
}

// Clean drops every key from the cache.
func (r *Repository) Clean() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.db.DropAll()
}

// Close releases the database.
func (r *Repository) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.db == nil {
		return errors.New("repository already closed")
	}
	err := r.db.Close()
	r.db = nil
	return err
}
