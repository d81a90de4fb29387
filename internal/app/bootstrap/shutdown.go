// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown flushes the activity feed, closes redis, and disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if svc := deps.Services; svc != nil {
		if svc.Feed != nil {
			if err := svc.Feed.Close(); err != nil {
				logger.Warn("activity feed close failed", zap.Error(err))
			}
		}
		if svc.memory != nil {
			svc.memory.Stop()
		}
		if svc.Redis != nil {
			if err := svc.Redis.Close(); err != nil {
				logger.Warn("redis close failed", zap.Error(err))
			}
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
