package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"learnquest-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// GameLoader fetches game content from a backing store (e.g., Postgres).
type GameLoader interface {
	LoadGame(ctx context.Context, gameID string) (domain.OfflineGame, error)
}

// GameRepository caches catalog games in Redis and falls back to a loader on cache miss.
// Games are stored as: SET game:{gameID} {json} EX ttl
type GameRepository struct {
	client *redis.Client
	loader GameLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewGameRepository(client *redis.Client, loader GameLoader, ttl time.Duration) *GameRepository {
	return &GameRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *GameRepository) GetGame(ctx context.Context, gameID string) (domain.OfflineGame, error) {
	if game, ok := r.fromCache(ctx, gameID); ok {
		return game, nil
	}

	result, err, _ := r.sf.Do(gameID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if game, ok := r.fromCache(ctx, gameID); ok {
			return game, nil
		}

		game, err := r.loader.LoadGame(ctx, gameID)
		if err != nil {
			return domain.OfflineGame{}, err
		}

		if raw, err := json.Marshal(game); err == nil {
			_ = r.client.Set(ctx, r.gameKey(gameID), raw, r.ttlWithJitter()).Err()
		}
		return game, nil
	})
	if err != nil {
		return domain.OfflineGame{}, err
	}
	return result.(domain.OfflineGame), nil
}

func (r *GameRepository) fromCache(ctx context.Context, gameID string) (domain.OfflineGame, bool) {
	raw, err := r.client.Get(ctx, r.gameKey(gameID)).Bytes()
	if err != nil || len(raw) == 0 {
		return domain.OfflineGame{}, false
	}
	var game domain.OfflineGame
	if err := json.Unmarshal(raw, &game); err != nil {
		return domain.OfflineGame{}, false
	}
	return game, true
}

func (r *GameRepository) gameKey(gameID string) string {
	return "game:" + gameID
}

func (r *GameRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
