package domain

import "time"

// Vote is a Vote Ledger record. Records are never mutated after insert.
type Vote struct {
	ID        string    `json:"id"`
	PollID    string    `json:"poll_id"`
	OptionID  string    `json:"option_id"`
	VoterIP   string    `json:"voter_ip"`
	Timestamp time.Time `json:"timestamp"`
}
