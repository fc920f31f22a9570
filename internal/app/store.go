package app

import (
	"context"
	"encoding/json"

	"learnquest-service/internal/domain"
)

// CollectionStore abstracts where serialized collections live (in-memory, Redis, SQLite).
// Get returns nil data and a nil error when the collection does not exist.
// Usage reports the total number of characters across every stored name and value.
type CollectionStore interface {
	Get(ctx context.Context, collection string) ([]byte, error)
	Put(ctx context.Context, collection string, data []byte) error
	Delete(ctx context.Context, collection string) error
	Usage(ctx context.Context) (int64, error)
}

func loadCollection[T any](ctx context.Context, store CollectionStore, name string) ([]T, error) {
	raw, err := store.Get(ctx, name)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Collection: name, Err: err}
	}
	items := []T{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &domain.StorageError{Op: "decode", Collection: name, Err: err}
	}
	return items, nil
}

func saveCollection[T any](ctx context.Context, store CollectionStore, name string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return &domain.StorageError{Op: "encode", Collection: name, Err: err}
	}
	if err := store.Put(ctx, name, raw); err != nil {
		return &domain.StorageError{Op: "put", Collection: name, Err: err}
	}
	return nil
}
