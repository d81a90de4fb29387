// Package cmd implements clubberactl, the operator tool for a Clubbera
// database: schema setup, admin promotion, category seeding, and profile URL
// backfill.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	mongoURI string
	dbName   string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "clubberactl",
	Short: "Administer a Clubbera database",
	Long: `clubberactl runs one-off maintenance against the MongoDB database
behind a Clubbera API server: creating indexes, promoting administrators,
seeding group categories, and backfilling user profile URLs.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", envOr("CLUBBERA_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	rootCmd.PersistentFlags().StringVar(&dbName, "db", envOr("CLUBBERA_MONGO_DATABASE", "clubbera"), "Database name")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall command timeout")

	rootCmd.AddCommand(ensureIndexesCmd)
	rootCmd.AddCommand(promoteAdminCmd)
	rootCmd.AddCommand(addCategoryCmd)
	rootCmd.AddCommand(updateURLsCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// withDatabase connects, runs fn against the configured database, and
// disconnects.
func withDatabase(cmd *cobra.Command, fn func(ctx context.Context, db *mongo.Database) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return fn(ctx, client.Database(dbName))
}
