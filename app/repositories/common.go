package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// Session cache keys. The names match what the web client keeps in
	// local storage so a cache dump reads the same.
	TokenKey        = "token"
	RefreshTokenKey = "refreshToken"
	UserKey         = "user"
)

var (
	ErrNotFound = errors.New("record not found")
)

// SessionKeys lists every key owned by the session.
func SessionKeys() []string {
	return []string{TokenKey, RefreshTokenKey, UserKey}
}

// GetEntity reads key and unmarshals it into entity.
func GetEntity(repo KVRepository, key string, entity interface{}) error {
	data, err := repo.Get(key)
	if err != nil {
		return err
	}
	return unmarshalEntity(data, entity)
}

// SetEntity marshals entity and stores it under key.
func SetEntity(repo KVRepository, key string, entity interface{}) error {
	data, err := marshalEntity(entity)
	if err != nil {
		return err
	}
	return repo.Set(key, data)
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
