package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	var client *mongo.Client
	var err error

	for i := 0; i < defaultMaxRetries; i++ {
		connCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
		client, err = mongo.Connect(connCtx, options.Client().ApplyURI(cfg.URI))
		if err == nil {
			err = client.Ping(connCtx, nil)
		}
		cancel()
		if err == nil {
			break
		}
		slog.Warn("Database connection attempt failed",
			slog.String("type", "db"),
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}

	return &DB{
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

// InitializeSchema creates the indexes the claim pipeline depends on.
func (d *DB) InitializeSchema(ctx context.Context) error {
	users := d.Users()

	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "discord_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		// partial indexes back the scheduler's credential scan
		{
			Keys: bson.D{{Key: "hoyolab.token", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(
				bson.D{{Key: "hoyolab.token", Value: bson.D{{Key: "$exists", Value: true}}}}),
		},
		{
			Keys: bson.D{{Key: "endfield.account_token", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(
				bson.D{{Key: "endfield.account_token", Value: bson.D{{Key: "$exists", Value: true}}}}),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	slog.Info("Database schema initialized",
		slog.String("type", "db"),
		slog.String("collection", "users"))
	return nil
}

func (d *DB) Users() *mongo.Collection {
	return d.db.Collection("users")
}

func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
