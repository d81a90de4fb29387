package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	categorystore "github.com/dalemusser/clubbera/internal/app/store/categories"
	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var creatorEmail string

var addCategoryCmd = &cobra.Command{
	Use:   "add-category <name>",
	Short: "Add a group category",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return withDatabase(cmd, func(ctx context.Context, db *mongo.Database) error {
			return runAddCategory(ctx, db, name, creatorEmail, cmd.OutOrStdout())
		})
	},
}

func init() {
	addCategoryCmd.Flags().StringVar(&creatorEmail, "creator", "", "Email of the user recorded as the category's creator")
}

func runAddCategory(ctx context.Context, db *mongo.Database, name, creator string, out io.Writer) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("category name is required")
	}

	creatorID := primitive.NilObjectID
	if creator != "" {
		u, err := userstore.New(db).GetByEmail(ctx, creator)
		if errors.Is(err, userstore.ErrNotFound) {
			return fmt.Errorf("no user with email %q", creator)
		}
		if err != nil {
			return err
		}
		creatorID = u.ID
	}

	c, err := categorystore.New(db).Create(ctx, name, creatorID)
	if errors.Is(err, categorystore.ErrDuplicateName) {
		return fmt.Errorf("category %q already exists", name)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "added category %s (%s)\n", c.Name, c.ID.Hex())
	return nil
}
