package redis

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"
)

// CollectionStore keeps each collection as one Redis string: SET {prefix}{collection} {json}.
type CollectionStore struct {
	client *redis.Client
	prefix string
}

func NewCollectionStore(client *redis.Client, prefix string) *CollectionStore {
	return &CollectionStore{client: client, prefix: prefix}
}

func (s *CollectionStore) Get(ctx context.Context, collection string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *CollectionStore) Put(ctx context.Context, collection string, data []byte) error {
	return s.client.Set(ctx, s.key(collection), data, 0).Err()
}

func (s *CollectionStore) Delete(ctx context.Context, collection string) error {
	return s.client.Del(ctx, s.key(collection)).Err()
}

// Usage scans every key under the prefix and counts name and value characters.
// The prefix itself is not counted.
func (s *CollectionStore) Usage(ctx context.Context) (int64, error) {
	var total int64
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		value, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, err
		}
		name := strings.TrimPrefix(key, s.prefix)
		total += int64(utf8.RuneCountInString(name) + utf8.RuneCountInString(value))
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *CollectionStore) key(collection string) string {
	return s.prefix + collection
}
