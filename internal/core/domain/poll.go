package domain

import "time"

type Poll struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Options     []PollOption `json:"options"`
	CreatedAt   time.Time    `json:"created_at"`
	Active      bool         `json:"active"`
}

// PollOption is embedded in its poll. Votes is only ever changed by an
// atomic increment at the storage layer.
type PollOption struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Votes       int64  `json:"votes"`
}

// Option returns the option with the given id, matched by identifier and
// never by position.
func (p *Poll) Option(id string) (PollOption, bool) {
	for _, opt := range p.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return PollOption{}, false
}

func (p *Poll) TotalVotes() int64 {
	var total int64
	for _, opt := range p.Options {
		total += opt.Votes
	}
	return total
}
