package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	createSyncedProgressSQL := mustReadSQL("0002_create_synced_progress.sql")
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createSyncedProgressSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS synced_progress`)
			return err
		},
	)
}
