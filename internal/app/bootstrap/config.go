// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// Development defaults for the signing secrets. ValidateConfig rejects them in prod.
const (
	defaultJWTSecret      = "dev-only-session-secret-change-me-0123456789"
	defaultEmailJWTSecret = "dev-only-email-secret-change-me-0123456789"
	defaultResetJWTSecret = "dev-only-reset-secret-change-me-0123456789"

	minSecretLen = 32
)

// appConfigKeys defines the configuration keys for Clubbera.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: CLUBBERA_MONGO_URI, CLUBBERA_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "clubbera", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Token signing
	{Name: "jwt_secret", Default: defaultJWTSecret, Desc: "Bearer token signing secret (must be strong in production)"},
	{Name: "email_jwt_secret", Default: defaultEmailJWTSecret, Desc: "Email confirmation token signing secret"},
	{Name: "reset_jwt_secret", Default: defaultResetJWTSecret, Desc: "Password reset token signing secret"},
	{Name: "email_token_ttl", Default: "1h", Desc: "Email confirmation link lifetime"},
	{Name: "reset_token_ttl", Default: "1h", Desc: "Password reset link lifetime"},
	{Name: "bcrypt_cost", Default: 10, Desc: "bcrypt cost for password hashes"},

	// Branding for outgoing email
	{Name: "company_name", Default: "Clubbera", Desc: "Company name used in emails"},
	{Name: "company_website", Default: "http://localhost:3000", Desc: "Front-end origin used in email links"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs emails instead of sending)"},
	{Name: "mail_smtp_port", Default: 465, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@clubbera.com", Desc: "From email address"},

	// Object storage
	{Name: "storage_s3_region", Default: "us-east-1", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket for banners and profile photos (blank keeps uploads in memory)"},
	{Name: "storage_public_url", Default: "", Desc: "Public base URL for stored objects (CDN or custom domain)"},

	// Google sign-in
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "cors_allowed_origins", Default: "*", Desc: "Comma-separated list of allowed CORS origins"},

	// Rate limiting
	{Name: "redis_addr", Default: "", Desc: "Redis address for shared rate limiting (blank uses an in-process limiter)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "auth_rate_limit", Default: 20, Desc: "Requests allowed per window on login, signup, and password reset"},
	{Name: "auth_rate_window", Default: "1m", Desc: "Rate limit window"},

	// Activity feed
	{Name: "kafka_brokers", Default: "", Desc: "Comma-separated Kafka brokers for the activity feed (blank disables it)"},
	{Name: "kafka_activity_topic", Default: "clubbera.activity", Desc: "Kafka topic for membership activity"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for multi-document operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for bulk operations and schema setup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CLUBBERA_* for app), and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLUBBERA", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:      appValues.String("jwt_secret"),
		EmailJWTSecret: appValues.String("email_jwt_secret"),
		ResetJWTSecret: appValues.String("reset_jwt_secret"),
		EmailTokenTTL:  appValues.Duration("email_token_ttl", time.Hour),
		ResetTokenTTL:  appValues.Duration("reset_token_ttl", time.Hour),
		BcryptCost:     appValues.Int("bcrypt_cost"),

		CompanyName:    appValues.String("company_name"),
		CompanyWebsite: strings.TrimRight(appValues.String("company_website"), "/"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),

		StorageS3Region:  appValues.String("storage_s3_region"),
		StorageS3Bucket:  appValues.String("storage_s3_bucket"),
		StoragePublicURL: appValues.String("storage_public_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		RedisAddr:      appValues.String("redis_addr"),
		RedisPassword:  appValues.String("redis_password"),
		AuthRateLimit:  appValues.Int("auth_rate_limit"),
		AuthRateWindow: appValues.Duration("auth_rate_window", time.Minute),

		KafkaBrokers:       splitList(appValues.String("kafka_brokers")),
		KafkaActivityTopic: appValues.String("kafka_activity_topic"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before any connection attempt. In prod the
// token secrets must be set to something other than the development
// defaults and be long enough for HMAC signing.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.AuthRateLimit <= 0 {
		return fmt.Errorf("auth_rate_limit must be positive, got %d", appCfg.AuthRateLimit)
	}

	if coreCfg.Env != "prod" {
		return nil
	}
	secrets := []struct {
		key, value, def string
	}{
		{"jwt_secret", appCfg.JWTSecret, defaultJWTSecret},
		{"email_jwt_secret", appCfg.EmailJWTSecret, defaultEmailJWTSecret},
		{"reset_jwt_secret", appCfg.ResetJWTSecret, defaultResetJWTSecret},
	}
	for _, s := range secrets {
		if s.value == s.def {
			return fmt.Errorf("%s must be changed from its development default in prod", s.key)
		}
		if len(s.value) < minSecretLen {
			return fmt.Errorf("%s must be at least %d bytes in prod", s.key, minSecretLen)
		}
	}
	return nil
}
