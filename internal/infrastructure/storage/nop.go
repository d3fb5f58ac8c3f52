package storage

import "context"

// NopStorage discards documents. It backs the "none" storage type.
type NopStorage struct{}

// Put validates the key and discards the data
func (NopStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return requireKey(key)
}

// Get always reports the object as missing
func (NopStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	return nil, ErrObjectNotFound
}

// Exists is always false
func (NopStorage) Exists(ctx context.Context, key string) (bool, error) {
	return false, requireKey(key)
}

// Delete is a no-op
func (NopStorage) Delete(ctx context.Context, key string) error {
	return requireKey(key)
}

var _ DocumentStorage = NopStorage{}
