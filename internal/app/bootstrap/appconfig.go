// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for Clubbera.
//
// Values come from environment variables (CLUBBERA_*), configuration files,
// or command-line flags, loaded once in LoadConfig. WAFFLE's CoreConfig
// covers ports, TLS, and log level; everything here is app-level.
//
// The struct is passed by value to every lifecycle hook. Handlers never read
// it directly; BuildHandler hands each one only the pieces it needs.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Signing secrets for bearer, email-confirmation, and password-reset tokens
	JWTSecret      string
	EmailJWTSecret string
	ResetJWTSecret string
	EmailTokenTTL  time.Duration
	ResetTokenTTL  time.Duration

	BcryptCost int

	// Used in outgoing email copy and links
	CompanyName    string
	CompanyWebsite string // front-end origin, e.g. https://clubbera.com

	// Email/SMTP configuration (empty host logs emails instead of sending)
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string

	// Object storage for banners and profile photos (empty bucket keeps them in memory)
	StorageS3Region  string
	StorageS3Bucket  string
	StoragePublicURL string

	// Google sign-in
	GoogleClientID     string
	GoogleClientSecret string

	CORSAllowedOrigins []string

	// Rate limiting on the unauthenticated account endpoints
	RedisAddr      string // blank keeps the limiter in-process
	RedisPassword  string
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// Activity feed (no brokers means entries are not published)
	KafkaBrokers       []string
	KafkaActivityTopic string

	// Database operation timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
