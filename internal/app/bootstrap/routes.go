// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	accountsfeature "github.com/dalemusser/clubbera/internal/app/features/accounts"
	authgooglefeature "github.com/dalemusser/clubbera/internal/app/features/authgoogle"
	categoriesfeature "github.com/dalemusser/clubbera/internal/app/features/categories"
	commentsfeature "github.com/dalemusser/clubbera/internal/app/features/comments"
	errorsfeature "github.com/dalemusser/clubbera/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/clubbera/internal/app/features/events"
	groupsfeature "github.com/dalemusser/clubbera/internal/app/features/groups"
	healthfeature "github.com/dalemusser/clubbera/internal/app/features/health"
	searchfeature "github.com/dalemusser/clubbera/internal/app/features/search"
	activitystore "github.com/dalemusser/clubbera/internal/app/store/activity"
	categorystore "github.com/dalemusser/clubbera/internal/app/store/categories"
	commentstore "github.com/dalemusser/clubbera/internal/app/store/comments"
	eventstore "github.com/dalemusser/clubbera/internal/app/store/events"
	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	membershipstore "github.com/dalemusser/clubbera/internal/app/store/memberships"
	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/limits"
	commentsvc "github.com/dalemusser/clubbera/internal/app/system/comments"
	"github.com/dalemusser/clubbera/internal/app/system/membership"
	"github.com/dalemusser/clubbera/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for Clubbera.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. Stores are cheap wrappers around collections and
// are built here; the shared services come from deps.Services.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.Services
	if svc == nil || svc.Tokens == nil {
		return nil, fmt.Errorf("build handler: startup did not complete")
	}
	db := deps.MongoDatabase

	users := userstore.New(db)
	groups := groupstore.New(db)
	memberships := membershipstore.New(db)
	activity := activitystore.New(db)
	comments := commentstore.New(db)
	events := eventstore.New(db)
	categories := categorystore.New(db)

	engine := membership.New(memberships, users, activity, svc.Runner, svc.Feed, logger)
	commentService := commentsvc.New(comments, groups, engine, activity, svc.Runner, svc.Feed, logger)

	// Resolves the bearer token to a live user on every request that needs one.
	gate := auth.NewGate(svc.Tokens, userstore.NewFetcher(db), logger)
	limit := ratelimit.Middleware(svc.Limiter, logger)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestSize(limits.MaxRequestBody))

	errorsHandler := errorsfeature.NewHandler(logger)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Group(healthfeature.Routes(healthHandler))

	// Accounts, sessions, and profiles
	accountsHandler := accountsfeature.NewHandler(users, svc.Tokens, svc.Hasher, svc.Mailer, svc.Objects, accountsfeature.Site{
		Name:     appCfg.CompanyName,
		Website:  appCfg.CompanyWebsite,
		EmailTTL: appCfg.EmailTokenTTL,
		ResetTTL: appCfg.ResetTokenTTL,
	}, logger)
	accountsHandler.Limiter = svc.Limiter
	r.Group(accountsfeature.Routes(accountsHandler, gate, limit))

	googleHandler := authgooglefeature.NewHandler(users, svc.Tokens, svc.Hasher, svc.Google, logger)
	r.Group(authgooglefeature.Routes(googleHandler))

	// Groups and the membership lifecycle
	groupsHandler := groupsfeature.NewHandler(groups, users, memberships, activity, events, comments, engine, svc.Objects, svc.Runner, svc.Feed, logger)
	r.Group(groupsfeature.Routes(groupsHandler, gate))

	commentsHandler := commentsfeature.NewHandler(commentService, logger)
	r.Group(commentsfeature.Routes(commentsHandler, gate))

	eventsHandler := eventsfeature.NewHandler(events, groups, engine, svc.Objects, logger)
	r.Group(eventsfeature.Routes(eventsHandler, gate))

	categoriesHandler := categoriesfeature.NewHandler(categories, logger)
	r.Group(categoriesfeature.Routes(categoriesHandler, gate))

	searchHandler := searchfeature.NewHandler(groups, logger)
	r.Group(searchfeature.Routes(searchHandler))

	return r, nil
}
