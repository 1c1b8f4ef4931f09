package mongodb

import (
	"context"
	"fmt"

	"github.com/dfryer1193/portfolio/shared/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// index describes a single index on the posts collection.
// CreateMany is a no-op for indexes that already exist with the same definition.
type index struct {
	name string
	keys bson.D
}

var indexes = []index{
	{
		// matches the listing sort, newest first with _id as tie-breaker
		name: "uploadDate_id_desc",
		keys: bson.D{{Key: "uploadDate", Value: -1}, {Key: "_id", Value: -1}},
	},
}

// EnsureIndexes creates any missing indexes on the given collection
func EnsureIndexes(ctx context.Context, c db.Connector, collection string) error {
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		models = append(models, mongo.IndexModel{
			Keys:    idx.keys,
			Options: options.Index().SetName(idx.name),
		})
	}

	return db.RunInSession(ctx, c, func(ctx context.Context, database *mongo.Database) error {
		if _, err := database.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
		return nil
	})
}
