package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// sessionKey is the key type for storing a database handle in context
type sessionKey struct{}

// WithDatabase returns a new context with the database handle attached
func WithDatabase(ctx context.Context, database *mongo.Database) context.Context {
	return context.WithValue(ctx, sessionKey{}, database)
}

// GetDatabase retrieves the database handle from context if it exists
func GetDatabase(ctx context.Context) (*mongo.Database, bool) {
	database, ok := ctx.Value(sessionKey{}).(*mongo.Database)
	return database, ok && database != nil
}

// RunInSession executes fn with a database handle.
// If the context already carries a handle, fn reuses it and the outer session stays
// responsible for releasing it. Otherwise a new session is opened through the connector and
// closed when fn returns.
func RunInSession(ctx context.Context, c Connector, fn func(ctx context.Context, db *mongo.Database) error) error {
	if database, ok := GetDatabase(ctx); ok {
		return fn(ctx, database)
	}

	return c.Session(ctx, func(sessCtx context.Context, database *mongo.Database) error {
		return fn(WithDatabase(sessCtx, database), database)
	})
}
