package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Connector hands out a database handle for the duration of fn.
// Implementations must release whatever they acquired on every exit path, including when fn
// returns an error or panics.
type Connector interface {
	Session(ctx context.Context, fn func(ctx context.Context, db *mongo.Database) error) error
	Close(ctx context.Context) error
}
