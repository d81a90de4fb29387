// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	activitystore "github.com/dalemusser/clubbera/internal/app/store/activity"
	categorystore "github.com/dalemusser/clubbera/internal/app/store/categories"
	commentstore "github.com/dalemusser/clubbera/internal/app/store/comments"
	eventstore "github.com/dalemusser/clubbera/internal/app/store/events"
	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	membershipstore "github.com/dalemusser/clubbera/internal/app/store/memberships"
	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collectionIndexes pairs a collection with the indexes its store declares.
type collectionIndexes struct {
	name   string
	models func() []mongo.IndexModel
}

var all = []collectionIndexes{
	{userstore.Collection, userstore.IndexModels},
	{groupstore.Collection, groupstore.IndexModels},
	{membershipstore.Collection, membershipstore.IndexModels},
	{activitystore.Collection, activitystore.IndexModels},
	{commentstore.Collection, commentstore.IndexModels},
	{categorystore.Collection, categorystore.IndexModels},
	{eventstore.Collection, eventstore.IndexModels},
}

/*
EnsureAll is called at startup and by clubberactl. Reconciling a collection is
idempotent. Errors are aggregated so every problem is visible at once and
startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, c := range all {
		if err := ensureIndexSet(ctx, db.Collection(c.name), c.models()); err != nil {
			problems = append(problems, c.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

// Servers report IndexOptionsConflict when the same keys already exist under
// another name or with different options.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 85 || ce.Code == 86) {
		return true
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

// listExisting maps key signature and name to the indexes already on coll.
func listExisting(ctx context.Context, coll *mongo.Collection) (bySig, byName map[string]existingIndex, err error) {
	bySig = map[string]existingIndex{}
	byName = map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		bySig[keySig(idx.Key)] = idx
		byName[idx.Name] = idx
	}
	return bySig, byName, cur.Err()
}

// ensureIndexSet reconciles the desired models against what exists on coll.
// An index with the same keys and uniqueness is reused (renamed if the name
// differs); one whose options differ is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	bySig, byName, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		bySig, byName = map[string]existingIndex{}, map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		start := time.Now()
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		keys, _ := m.Keys.(bson.D)
		sig := keySig(keys)
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
		}

		ex, found := bySig[sig]
		if !found && name != "" {
			// text indexes list their keys as _fts/_ftsx, so fall back to the name
			ex, found = byName[name]
		}

		if found && sameBoolPtr(unique, ex.Unique) && (name == "" || ex.Name == name) {
			zap.L().Debug("reusing existing index", fields...)
			continue
		}

		if found {
			zap.L().Info("dropping index to realign name or options",
				append(fields, zap.String("existing", ex.Name))...)
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil && isOptionsConflictErr(err) {
			// Someone else created a conflicting index between our list and create.
			if b, _, lerr := listExisting(ctx, coll); lerr == nil {
				if conflict, ok := b[sig]; ok {
					if _, derr := coll.Indexes().DropOne(ctx, conflict.Name); derr != nil {
						zap.L().Warn("failed to drop conflicting index",
							append(fields, zap.Error(derr))...)
					}
					created, err = coll.Indexes().CreateOne(ctx, m)
				}
			}
		}
		if err != nil {
			if isDuplicateKeyErr(err) && unique != nil && *unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		zap.L().Info("index ensured",
			append(fields,
				zap.String("created_name", created),
				zap.Bool("unique", unique != nil && *unique),
				zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
