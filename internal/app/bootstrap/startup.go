// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/clubbera/internal/app/system/activityfeed"
	"github.com/dalemusser/clubbera/internal/app/system/googleauth"
	"github.com/dalemusser/clubbera/internal/app/system/mailer"
	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/app/system/passwords"
	"github.com/dalemusser/clubbera/internal/app/system/ratelimit"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/dalemusser/clubbera/internal/app/system/tokens"
	"github.com/dalemusser/clubbera/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// configures operation timeouts and builds the shared services every
// feature handler draws from.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	t := timeouts.Current()
	logger.Info("operation timeouts",
		zap.Duration("short", t.Short),
		zap.Duration("medium", t.Medium),
		zap.Duration("long", t.Long))

	svc := deps.Services
	if svc == nil {
		return fmt.Errorf("startup: services not allocated")
	}

	svc.Tokens = tokens.NewIssuer(tokens.Config{
		SessionSecret: appCfg.JWTSecret,
		EmailSecret:   appCfg.EmailJWTSecret,
		ResetSecret:   appCfg.ResetJWTSecret,
		EmailTTL:      appCfg.EmailTokenTTL,
		ResetTTL:      appCfg.ResetTokenTTL,
	})
	svc.Hasher = passwords.NewHasher(appCfg.BcryptCost)
	svc.Runner = txn.New(deps.MongoClient, logger)
	svc.Google = googleauth.New(appCfg.GoogleClientID, appCfg.GoogleClientSecret)

	svc.Mailer = mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.CompanyName,
	}, logger)
	if appCfg.MailSMTPHost == "" {
		logger.Warn("mail_smtp_host not set; outgoing email will only be logged")
	}

	objects, err := buildObjectStore(ctx, appCfg, logger)
	if err != nil {
		return err
	}
	svc.Objects = objects

	svc.Feed = buildFeed(appCfg, logger)

	if err := buildLimiter(ctx, svc, appCfg, logger); err != nil {
		return err
	}

	if !svc.Google.Configured() {
		logger.Info("google sign-in disabled; google_client_id not set")
	}
	return nil
}

func buildObjectStore(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (objectstore.Store, error) {
	if appCfg.StorageS3Bucket == "" {
		logger.Warn("storage_s3_bucket not set; uploads are kept in memory")
		return objectstore.NewMemory(appCfg.StoragePublicURL), nil
	}
	s3, err := objectstore.NewS3(ctx, objectstore.Config{
		Region:    appCfg.StorageS3Region,
		Bucket:    appCfg.StorageS3Bucket,
		PublicURL: appCfg.StoragePublicURL,
	})
	if err != nil {
		logger.Error("S3 client init failed", zap.Error(err))
		return nil, fmt.Errorf("object storage: %w", err)
	}
	logger.Info("object storage ready",
		zap.String("bucket", appCfg.StorageS3Bucket),
		zap.String("region", appCfg.StorageS3Region))
	return s3, nil
}

// buildFeed falls back to a no-op publisher when Kafka is unset or
// unreachable; the feed is best-effort and never blocks startup.
func buildFeed(appCfg AppConfig, logger *zap.Logger) activityfeed.Publisher {
	if len(appCfg.KafkaBrokers) == 0 {
		return activityfeed.Nop{}
	}
	k, err := activityfeed.NewKafka(appCfg.KafkaBrokers, appCfg.KafkaActivityTopic, logger)
	if err != nil {
		logger.Error("activity feed producer init failed; publishing disabled",
			zap.Strings("brokers", appCfg.KafkaBrokers), zap.Error(err))
		return activityfeed.Nop{}
	}
	logger.Info("activity feed publishing to kafka",
		zap.Strings("brokers", appCfg.KafkaBrokers),
		zap.String("topic", appCfg.KafkaActivityTopic))
	return k
}

func buildLimiter(ctx context.Context, svc *Services, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.RedisAddr == "" {
		svc.memory = ratelimit.New(appCfg.AuthRateLimit, appCfg.AuthRateWindow)
		svc.Limiter = svc.memory
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		logger.Error("redis ping failed", zap.String("addr", appCfg.RedisAddr), zap.Error(err))
		return fmt.Errorf("redis: %w", err)
	}
	svc.Redis = rdb
	svc.Limiter = ratelimit.NewRedis(rdb, "", appCfg.AuthRateLimit, appCfg.AuthRateWindow)
	logger.Info("rate limiter backed by redis", zap.String("addr", appCfg.RedisAddr))
	return nil
}
