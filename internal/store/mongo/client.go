package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mdelaney/renewal-ops/internal/platform/config"
)

const (
	maxConnectAttempts = 5
	initialBackoff     = 1 * time.Second
	maxBackoff         = 30 * time.Second
)

// MongoClient bundles the driver client with the comparison database.
type MongoClient struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewClient connects to MongoDB, retrying with exponential backoff so
// the API survives the database coming up after it does.
func NewClient(cfg *config.Config) (*MongoClient, error) {
	clientOpts := options.Client().ApplyURI(cfg.MongoURI)
	connectTimeout := time.Duration(cfg.MongoConnectTimeoutSec) * time.Second

	var client *mongo.Client
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		var err error
		client, err = dial(clientOpts, connectTimeout)
		if err == nil {
			break
		}
		if attempt == maxConnectAttempts {
			return nil, fmt.Errorf("connect to mongo after %d attempts: %w", maxConnectAttempts, err)
		}
		slog.Warn("mongo connect failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"err", err)
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}

	return &MongoClient{Client: client, DB: client.Database(cfg.MongoDB)}, nil
}

// dial performs one connect-and-ping round trip within the timeout.
func dial(opts *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Ping verifies connectivity for the readiness probe.
func (c *MongoClient) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx, nil)
}

// Close disconnects the underlying driver client.
func (c *MongoClient) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}
