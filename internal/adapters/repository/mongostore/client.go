package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

const (
	pollsCollection = "polls"
	votesCollection = "votes"

	// Default name MongoDB gives the unique {poll_id: 1, voter_ip: 1} index,
	// also the one created by database init scripts.
	voterIndexName = "poll_id_1_voter_ip_1"

	connectTimeout = 10 * time.Second
)

// Connect opens a client and verifies it with a ping against the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique indexes that guard poll ids and one vote
// per (poll_id, voter_ip), plus the lookup indexes used by listing.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(pollsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "active", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create poll indexes: %w", err)
	}

	_, err = db.Collection(votesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "poll_id", Value: 1}, {Key: "voter_ip", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "poll_id", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create vote indexes: %w", err)
	}
	return nil
}

type healthChecker struct {
	client *mongo.Client
}

func NewHealthChecker(client *mongo.Client) ports.HealthChecker {
	return &healthChecker{client: client}
}

func (h *healthChecker) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, readpref.Primary())
}
