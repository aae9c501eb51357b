package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type voteRepository struct {
	polls *mongo.Collection
	votes *mongo.Collection
}

func NewVoteRepository(db *mongo.Database) ports.VoteRepository {
	return &voteRepository{
		polls: db.Collection(pollsCollection),
		votes: db.Collection(votesCollection),
	}
}

// Record performs two independent writes: the ledger insert, guarded by the
// unique (poll_id, voter_ip) index, then a positional $inc on the option
// matched by id. A failure between them leaves a ledger entry without tally
// credit until the tally is recounted.
func (r *voteRepository) Record(ctx context.Context, vote *domain.Vote) error {
	doc := voteDocument{
		ID:        vote.ID,
		PollID:    vote.PollID,
		OptionID:  vote.OptionID,
		VoterIP:   vote.VoterIP,
		Timestamp: vote.Timestamp,
	}
	if _, err := r.votes.InsertOne(ctx, doc); err != nil {
		if isVoterDuplicate(err) {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to save vote: %w", err)
	}

	res, err := r.polls.UpdateOne(ctx,
		bson.M{"id": vote.PollID, "options.id": vote.OptionID},
		bson.M{"$inc": bson.M{"options.$.votes": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment tally for vote %s: %w", vote.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to increment tally for vote %s: option %s not found", vote.ID, vote.OptionID)
	}
	return nil
}

// isVoterDuplicate reports a duplicate key on the (poll_id, voter_ip) index
// only, not on the vote id index.
func isVoterDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), voterIndexName)
}

func (r *voteRepository) HasVoted(ctx context.Context, pollID, voterIP string) (bool, error) {
	count, err := r.votes.CountDocuments(ctx, bson.M{"poll_id": pollID, "voter_ip": voterIP})
	if err != nil {
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}
	return count > 0, nil
}

func (r *voteRepository) GetByVoter(ctx context.Context, pollID, voterIP string) (*domain.Vote, error) {
	var doc voteDocument
	err := r.votes.FindOne(ctx, bson.M{"poll_id": pollID, "voter_ip": voterIP}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrVoteNotFound
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return doc.toDomain(), nil
}
