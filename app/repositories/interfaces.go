package repositories

// KVRepository defines the interface for the local key/value cache that
// backs the session.
type KVRepository interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(keys ...string) error
	Keys() ([]string, error)
}
