package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	createGamesSQL := mustReadSQL("0001_create_games.sql")
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createGamesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS games`)
			return err
		},
	)
}
