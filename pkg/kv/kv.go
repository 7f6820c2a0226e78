package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is a minimal CRUD contract over a single logical table of
// key to opaque JSON value records. Implementations carry no log
// semantics; callers own key layout and value shape.
type Store interface {
	// Set upserts a single record, overwriting any existing value at key.
	Set(ctx context.Context, key string, value interface{}) error

	// Get returns the value stored at key. A missing key is reported via
	// the boolean, never as an error.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Delete removes the record at key, if present.
	Delete(ctx context.Context, key string) error

	// SetMany upserts all key/value pairs as one batch. The batch need not
	// be atomic across the backing storage.
	SetMany(ctx context.Context, keys []string, values []interface{}) error

	// GetMany returns the values found for keys. Absent keys are omitted
	// and no positional correspondence with keys is guaranteed.
	GetMany(ctx context.Context, keys []string) ([]json.RawMessage, error)

	// DeleteMany removes every record whose key is in keys.
	DeleteMany(ctx context.Context, keys []string) error

	// GetByPrefix returns all values whose key starts with prefix
	// (literal string prefix, no wildcard semantics).
	GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
}

// StorageError wraps a backing-store failure so callers can map it to a
// 500-class response without inspecting driver-specific errors.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("kv: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying storage error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func marshalValue(op string, value interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, storageErr(op, fmt.Errorf("marshal value: %w", err))
	}
	return payload, nil
}
