package migrate

import (
	"context"
	"fmt"

	"github.com/urbancart/urbancart-backend/pkg/config"
	"github.com/urbancart/urbancart-backend/pkg/db"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

// Prepare brings the schema up to date at API startup. sqlite runs use gorm
// AutoMigrate on the models since the SQL migrations are Postgres-only.
// Postgres runs goose only in dev with the auto-migrate flag on.
func Prepare(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client.Dialect() == "sqlite" {
		logg.Info(ctx, "migrations.sqlite_automigrate")
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sqlite auto-migrate: %w", err)
		}
		return nil
	}
	return MaybeRunDev(ctx, cfg, logg, client)
}

// MaybeRunDev applies pending migrations in dev when auto-migrate is on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	if err := Run(ctx, sqlDB, DefaultDir, "up", logg); err != nil {
		return err
	}
	logg.Info(ctx, "migrations.up_to_date")
	return nil
}
