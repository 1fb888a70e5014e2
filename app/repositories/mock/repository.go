package mock

import (
	"errors"
	"sort"
	"sync"

	"pressroom/app/repositories"
)

// KVRepository is an in-memory repositories.KVRepository for tests.
type KVRepository struct {
	values map[string][]byte
	mutex  sync.RWMutex

	// FailWrites makes Set and Delete return ErrWrite.
	FailWrites bool
}

// ErrWrite is returned by a repository with FailWrites set.
var ErrWrite = errors.New("mock: write failed")

func NewKVRepository() *KVRepository {
	return &KVRepository{values: make(map[string][]byte)}
}

func (m *KVRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.values = make(map[string][]byte)
}

func (m *KVRepository) Get(key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	v, exists := m.values[key]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *KVRepository) Set(key string, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.FailWrites {
		return ErrWrite
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *KVRepository) Delete(keys ...string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.FailWrites {
		return ErrWrite
	}
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *KVRepository) Keys() ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

var _ repositories.KVRepository = (*KVRepository)(nil)
