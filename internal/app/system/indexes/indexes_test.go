package indexes_test

import (
	"testing"

	"github.com/dalemusser/clubbera/internal/app/system/indexes"
	"github.com/dalemusser/clubbera/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		coll  string
		names []string
	}{
		{"users", []string{"uniq_users_email", "uniq_users_unique_url", "idx_users_tokens"}},
		{"groups", []string{"uniq_groups_title_ci", "uniq_groups_unique_url", "text_groups_search", "geo_groups_location"}},
		{"group_memberships", []string{"uniq_gm_group_user", "idx_gm_group_state", "idx_gm_user_state"}},
		{"activity_logs", []string{"idx_activity_group_action_user", "idx_activity_group_ts", "idx_activity_user_ts"}},
		{"comments", []string{"idx_comments_target_created", "idx_comments_author"}},
		{"categories", []string{"uniq_categories_name_ci"}},
		{"events", []string{"uniq_events_unique_url", "idx_events_group_date"}},
	}
	for _, tt := range tests {
		t.Run(tt.coll, func(t *testing.T) {
			got := indexNames(t, db, tt.coll)
			for _, name := range tt.names {
				if !got[name] {
					t.Errorf("expected index %q on %s", name, tt.coll)
				}
			}
		})
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("categories").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_ci", Value: 1}},
		Options: options.Index().SetName("legacy_name").SetUnique(true),
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, db, "categories")
	if got["legacy_name"] {
		t.Error("legacy index should have been dropped")
	}
	if !got["uniq_categories_name_ci"] {
		t.Error("expected uniq_categories_name_ci after reconcile")
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if _, err := db.Collection("users").InsertOne(ctx, bson.M{"email": "a@example.com", "unique_url": "a-1"}); err != nil {
		t.Fatalf("Insert user failed: %v", err)
	}
	_, err := db.Collection("users").InsertOne(ctx, bson.M{"email": "a@example.com", "unique_url": "a-2"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error on users.email, got %v", err)
	}
}

func TestEnsureAll_ReportsDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if _, err := db.Collection("categories").InsertOne(ctx, bson.M{"name": "Chess", "name_ci": "chess"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if err := indexes.EnsureAll(ctx, db); err == nil {
		t.Fatal("expected EnsureAll to report duplicate categories")
	}
}
