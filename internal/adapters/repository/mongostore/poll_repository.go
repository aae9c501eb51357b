package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type pollRepository struct {
	polls *mongo.Collection
}

func NewPollRepository(db *mongo.Database) ports.PollRepository {
	return &pollRepository{
		polls: db.Collection(pollsCollection),
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	if _, err := r.polls.InsertOne(ctx, newPollDocument(poll)); err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id string) (*domain.Poll, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *pollRepository) GetActiveByID(ctx context.Context, id string) (*domain.Poll, error) {
	return r.findOne(ctx, bson.M{"id": id, "active": true})
}

func (r *pollRepository) ListActive(ctx context.Context) ([]*domain.Poll, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *pollRepository) GetAll(ctx context.Context) ([]*domain.Poll, error) {
	return r.find(ctx, bson.M{})
}

// Deactivate matches on id alone, so an already inactive poll still counts
// as found.
func (r *pollRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.polls.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		return fmt.Errorf("failed to deactivate poll: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPollNotFound
	}
	return nil
}

func (r *pollRepository) findOne(ctx context.Context, filter bson.M) (*domain.Poll, error) {
	var doc pollDocument
	if err := r.polls.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *pollRepository) find(ctx context.Context, filter bson.M) ([]*domain.Poll, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.polls.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer cursor.Close(ctx)

	var polls []*domain.Poll
	for cursor.Next(ctx) {
		var doc pollDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode poll: %w", err)
		}
		polls = append(polls, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	return polls, nil
}
