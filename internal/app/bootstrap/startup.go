// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	categorystore "github.com/dalemusser/articlio/internal/app/store/categories"
	"github.com/dalemusser/articlio/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It seeds
// reference data, builds the services and starts background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := seedCategories(ctx, deps, appCfg.SeedCategories, logger); err != nil {
		return err
	}

	if err := deps.Runtime.build(appCfg, deps, logger); err != nil {
		logger.Error("runtime init failed", zap.Error(err))
		return err
	}
	if deps.Runtime.Reconciler != nil {
		deps.Runtime.Reconciler.Start()
	}
	return nil
}

func seedCategories(ctx context.Context, deps DBDeps, names []string, logger *zap.Logger) error {
	if len(names) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	created, err := categorystore.New(deps.MongoDatabase).Seed(ctx, names)
	if err != nil {
		logger.Error("seed categories failed", zap.Error(err))
		return err
	}
	if created > 0 {
		logger.Info("seeded categories", zap.Int("created", created))
	}
	return nil
}
