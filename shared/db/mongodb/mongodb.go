package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/dfryer1193/portfolio/shared/db"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

const (
	defaultConnectTimeout = 10 * time.Second
	disconnectTimeout     = 5 * time.Second

	authenticationFailedCode = 18
)

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

func (c *MongoConfig) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return defaultConnectTimeout
	}
	return c.ConnectTimeout
}

var (
	_ db.Connector = (*PerCallConnector)(nil)
	_ db.Connector = (*PooledConnector)(nil)
)

// PerCallConnector opens a fresh client for every session and disconnects it before returning.
type PerCallConnector struct {
	cfg MongoConfig
}

func NewPerCallConnector(cfg MongoConfig) *PerCallConnector {
	return &PerCallConnector{cfg: cfg}
}

// Session connects, verifies the deployment is reachable, runs fn, and disconnects.
// The client is released on every exit path.
func (p *PerCallConnector) Session(ctx context.Context, fn func(ctx context.Context, database *mongo.Database) error) error {
	client, err := connect(ctx, &p.cfg)
	if err != nil {
		return err
	}
	defer disconnect(ctx, client)

	return Classify(fn(ctx, client.Database(p.cfg.Database)))
}

// Close is a no-op; per-call sessions never outlive their call.
func (p *PerCallConnector) Close(ctx context.Context) error {
	return nil
}

// PooledConnector shares one client, and therefore one connection pool, across sessions.
type PooledConnector struct {
	cfg MongoConfig

	mu     sync.Mutex
	client *mongo.Client
}

func NewPooledConnector(cfg MongoConfig) *PooledConnector {
	return &PooledConnector{cfg: cfg}
}

// Connect establishes the shared client
func (p *PooledConnector) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return fmt.Errorf("database already connected")
	}

	client, err := connect(ctx, &p.cfg)
	if err != nil {
		return err
	}

	p.client = client
	return nil
}

func (p *PooledConnector) Session(ctx context.Context, fn func(ctx context.Context, database *mongo.Database) error) error {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()

	if client == nil {
		return fmt.Errorf("%w: client is not connected", domain.ErrStoreUnavailable)
	}

	return Classify(fn(ctx, client.Database(p.cfg.Database)))
}

// Close disconnects the shared client
func (p *PooledConnector) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}

	err := p.client.Disconnect(ctx)
	p.client = nil
	return err
}

func connect(ctx context.Context, cfg *MongoConfig) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.connectTimeout())
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.connectTimeout())

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect: %w", domain.ErrStoreUnavailable, err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		disconnect(ctx, client)
		return nil, fmt.Errorf("%w: failed to ping: %w", domain.ErrStoreUnavailable, err)
	}

	return client, nil
}

func disconnect(ctx context.Context, client *mongo.Client) {
	// The caller's context may already be cancelled; the client still has to be released.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
	defer cancel()

	if err := client.Disconnect(dctx); err != nil {
		log.Warn().Err(err).Msg("Failed to disconnect from database")
	}
}

// Classify marks errors that mean the deployment could not be reached or would not let us in
// as domain.ErrStoreUnavailable. Everything else is returned unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}

	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	var selErr topology.ServerSelectionError
	if errors.As(err, &selErr) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == authenticationFailedCode {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	return err
}
