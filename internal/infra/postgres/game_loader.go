package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"learnquest-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// GameLoader loads game JSONB from Postgres.
type GameLoader struct {
	pool *pgxpool.Pool
}

func NewGameLoader(pool *pgxpool.Pool) *GameLoader {
	return &GameLoader{pool: pool}
}

func (l *GameLoader) LoadGame(ctx context.Context, gameID string) (domain.OfflineGame, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM games WHERE id=$1`, gameID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OfflineGame{}, fmt.Errorf("load game %s: %w", gameID, domain.ErrGameNotFound)
	}
	if err != nil {
		return domain.OfflineGame{}, fmt.Errorf("load game: %w", err)
	}
	var game domain.OfflineGame
	if err := json.Unmarshal(raw, &game); err != nil {
		return domain.OfflineGame{}, fmt.Errorf("unmarshal game: %w", err)
	}
	if game.ID == "" {
		game.ID = gameID
	}
	return game, nil
}
