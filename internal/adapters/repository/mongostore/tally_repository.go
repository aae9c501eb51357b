package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type tallyRepository struct {
	polls *mongo.Collection
	votes *mongo.Collection
}

func NewTallyRepository(db *mongo.Database) ports.TallyRepository {
	return &tallyRepository{
		polls: db.Collection(pollsCollection),
		votes: db.Collection(votesCollection),
	}
}

type optionCount struct {
	OptionID string `bson:"_id"`
	Count    int64  `bson:"count"`
}

func (r *tallyRepository) Recount(ctx context.Context, pollID string) error {
	var poll pollDocument
	if err := r.polls.FindOne(ctx, bson.M{"id": pollID}).Decode(&poll); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrPollNotFound
		}
		return fmt.Errorf("failed to get poll %s: %w", pollID, err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"poll_id": pollID}}},
		{{Key: "$group", Value: bson.M{"_id": "$option_id", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.votes.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("failed to count votes for poll %s: %w", pollID, err)
	}
	var counts []optionCount
	if err := cursor.All(ctx, &counts); err != nil {
		return fmt.Errorf("failed to count votes for poll %s: %w", pollID, err)
	}

	byOption := make(map[string]int64, len(counts))
	for _, c := range counts {
		byOption[c.OptionID] = c.Count
	}

	for _, opt := range poll.Options {
		_, err := r.polls.UpdateOne(ctx,
			bson.M{"id": pollID, "options.id": opt.ID},
			bson.M{"$set": bson.M{"options.$.votes": byOption[opt.ID]}},
		)
		if err != nil {
			return fmt.Errorf("failed to recount option %s of poll %s: %w", opt.ID, pollID, err)
		}
	}
	return nil
}
