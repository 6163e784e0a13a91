package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date at boot when that is safe:
// sqlite databases are always auto-migrated from the models, Postgres runs
// the embedded goose set only in dev with STOREFRONT_AUTO_MIGRATE on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	switch {
	case client.Driver() == config.DBDriverSQLite:
		logg.Info(ctx, "migrate.models.start")
		return AutoMigrateModels(ctx, client)
	case !cfg.App.IsDev(), !cfg.FeatureFlags.AutoMigrate:
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": "embedded"})
	logg.Info(ctx, "migrate.goose.start")
	if err := Run(ctx, sqlDB, "", "up", nil); err != nil {
		return fmt.Errorf("goose up at boot: %w", err)
	}
	logg.Info(ctx, "migrate.goose.done")
	return nil
}

// AutoMigrateModels creates or alters every table from the GORM models.
func AutoMigrateModels(ctx context.Context, client *db.Client) error {
	if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate models: %w", err)
	}
	return nil
}
