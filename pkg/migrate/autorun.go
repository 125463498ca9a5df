package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/pharmalink/pharmalink-backend/pkg/config"
	"github.com/pharmalink/pharmalink-backend/pkg/db"
	"github.com/pharmalink/pharmalink-backend/pkg/db/models"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date when running in dev with
// PHARMALINK_DB_AUTO_MIGRATE set. Postgres runs the goose migrations; sqlite,
// which cannot run them, gets a GORM AutoMigrate of the order models.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.DB.AutoMigrate {
		return nil
	}

	if strings.EqualFold(cfg.DB.Driver, config.DBDriverSQLite) {
		logg.Info(ctx, "auto-migrating sqlite schema")
		if err := client.DB().WithContext(ctx).AutoMigrate(&models.Order{}, &models.OrderStatusHistory{}); err != nil {
			return fmt.Errorf("auto-migrate sqlite: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
