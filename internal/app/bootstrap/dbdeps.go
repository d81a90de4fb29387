// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/clubbera/internal/app/system/activityfeed"
	"github.com/dalemusser/clubbera/internal/app/system/googleauth"
	"github.com/dalemusser/clubbera/internal/app/system/mailer"
	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/app/system/passwords"
	"github.com/dalemusser/clubbera/internal/app/system/ratelimit"
	"github.com/dalemusser/clubbera/internal/app/system/tokens"
	"github.com/dalemusser/clubbera/internal/app/system/txn"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// WAFFLE passes DBDeps by value to every hook after ConnectDB, so the shared
// services built in Startup live behind a pointer allocated in ConnectDB.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Services *Services
}

// Services are the process-wide collaborators built once in Startup.
type Services struct {
	Tokens  *tokens.Issuer
	Hasher  *passwords.Hasher
	Mailer  mailer.Sender
	Objects objectstore.Store
	Google  *googleauth.Client
	Feed    activityfeed.Publisher
	Runner  *txn.Runner

	Limiter ratelimit.Allower
	Redis   *redis.Client      // nil when the limiter is in-process
	memory  *ratelimit.Limiter // stopped on shutdown
}
