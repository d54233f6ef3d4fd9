package mongo

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"geoatlas/internal/platform/config"
)

// Client wraps the pooled mongo client and the application database handle.
// Connect is idempotent: the first call dials, later calls reuse the pool.
type Client struct {
	mu     sync.Mutex
	cfg    config.Mongo
	client *mongo.Client
	db     *mongo.Database
}

func New(cfg config.Mongo) *Client {
	return &Client{cfg: cfg}
}

// Connect establishes the pooled connection if it is not already open.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.cfg.URI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("mongo ping failed: %w", err)
	}

	c.client = client
	c.db = client.Database(c.cfg.Database)
	return nil
}

// Database returns the application database handle. Connect must have succeeded.
func (c *Client) Database() *mongo.Database {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db
}

// Health checks if the connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return fmt.Errorf("mongo not connected")
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close tears down the pool.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	c.db = nil
	return err
}
