package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/indexes"
	"github.com/dalemusser/clubbera/internal/app/system/validators"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create collection validators and reconcile indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *mongo.Database) error {
			return runEnsureIndexes(ctx, db, cmd.OutOrStdout())
		})
	},
}

var revoke bool

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin <email>",
	Short: "Grant (or with --revoke, remove) admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *mongo.Database) error {
			return runPromoteAdmin(ctx, db, args[0], !revoke, cmd.OutOrStdout())
		})
	},
}

func init() {
	promoteAdminCmd.Flags().BoolVar(&revoke, "revoke", false, "Remove admin rights instead of granting them")
}

func runEnsureIndexes(ctx context.Context, db *mongo.Database, out io.Writer) error {
	if err := validators.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("indexes: %w", err)
	}
	fmt.Fprintf(out, "schema ensured on %s\n", db.Name())
	return nil
}

func runPromoteAdmin(ctx context.Context, db *mongo.Database, email string, admin bool, out io.Writer) error {
	err := userstore.New(db).SetAdmin(ctx, email, admin)
	if errors.Is(err, userstore.ErrNotFound) {
		return fmt.Errorf("no user with email %q", email)
	}
	if err != nil {
		return err
	}
	if admin {
		fmt.Fprintf(out, "%s is now an admin\n", email)
	} else {
		fmt.Fprintf(out, "%s is no longer an admin\n", email)
	}
	return nil
}
