package repositories

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKVRepository implements KVRepository using BadgerDB
type BadgerKVRepository struct {
	db *badger.DB
}

// NewBadgerKVRepository creates a new BadgerKVRepository
func NewBadgerKVRepository(db *badger.DB) *BadgerKVRepository {
	return &BadgerKVRepository{db: db}
}

// Get retrieves the value stored under key
func (r *BadgerKVRepository) Get(key string) ([]byte, error) {
	var value []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key
func (r *BadgerKVRepository) Set(key string, value []byte) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes keys in one transaction. Missing keys are ignored.
func (r *BadgerKVRepository) Delete(keys ...string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Keys lists every key in the cache
func (r *BadgerKVRepository) Keys() ([]string, error) {
	var keys []string
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}
