package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var updateURLsCmd = &cobra.Command{
	Use:   "update-urls",
	Short: "Assign profile URLs to users that have none",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *mongo.Database) error {
			return runUpdateURLs(ctx, db, time.Now().UTC(), cmd.OutOrStdout())
		})
	},
}

func runUpdateURLs(ctx context.Context, db *mongo.Database, at time.Time, out io.Writer) error {
	updated, err := userstore.New(db).AssignMissingURLs(ctx, at)
	for _, u := range updated {
		fmt.Fprintf(out, "%s -> %s\n", u.Email, u.UniqueURL)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "updated %d user(s)\n", len(updated))
	return nil
}
