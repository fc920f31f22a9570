package memory

import (
	"context"
	"sync"
	"unicode/utf8"
)

// CollectionStore is an in-memory implementation of app.CollectionStore.
type CollectionStore struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

func NewCollectionStore() *CollectionStore {
	return &CollectionStore{
		collections: make(map[string][]byte),
	}
}

func (s *CollectionStore) Get(ctx context.Context, collection string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *CollectionStore) Put(ctx context.Context, collection string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = stored
	return nil
}

func (s *CollectionStore) Delete(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}

// Usage counts characters (runes) of every collection name and value.
func (s *CollectionStore) Usage(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for name, data := range s.collections {
		total += int64(utf8.RuneCountInString(name) + utf8.RuneCount(data))
	}
	return total, nil
}
