package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
)

type pollDocument struct {
	ObjectID    primitive.ObjectID `bson:"_id,omitempty"`
	ID          string             `bson:"id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Options     []optionDocument   `bson:"options"`
	CreatedAt   time.Time          `bson:"created_at"`
	Active      bool               `bson:"active"`
}

type optionDocument struct {
	ID          string `bson:"id"`
	Title       string `bson:"title"`
	Description string `bson:"description"`
	Votes       int64  `bson:"votes"`
}

type voteDocument struct {
	ObjectID  primitive.ObjectID `bson:"_id,omitempty"`
	ID        string             `bson:"id"`
	PollID    string             `bson:"poll_id"`
	OptionID  string             `bson:"option_id"`
	VoterIP   string             `bson:"voter_ip"`
	Timestamp time.Time          `bson:"timestamp"`
}

func newPollDocument(p *domain.Poll) pollDocument {
	doc := pollDocument{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Options:     make([]optionDocument, 0, len(p.Options)),
		CreatedAt:   p.CreatedAt,
		Active:      p.Active,
	}
	for _, opt := range p.Options {
		doc.Options = append(doc.Options, optionDocument(opt))
	}
	return doc
}

func (d pollDocument) toDomain() *domain.Poll {
	poll := &domain.Poll{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Options:     make([]domain.PollOption, 0, len(d.Options)),
		CreatedAt:   d.CreatedAt,
		Active:      d.Active,
	}
	for _, opt := range d.Options {
		poll.Options = append(poll.Options, domain.PollOption(opt))
	}
	return poll
}

func (d voteDocument) toDomain() *domain.Vote {
	return &domain.Vote{
		ID:        d.ID,
		PollID:    d.PollID,
		OptionID:  d.OptionID,
		VoterIP:   d.VoterIP,
		Timestamp: d.Timestamp,
	}
}
