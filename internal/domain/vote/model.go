package vote

import (
	"context"
	"errors"
	"time"

	"pollhub/internal/domain/poll"
)

type Vote struct {
	ID       string  `json:"id"`
	PollID   string  `json:"poll_id"`
	OptionID string  `json:"option_id"`
	UserID   *string `json:"user_id,omitempty"`
	// VoterKey identifies who cast the vote ("user:<id>" or
	// "anon:<fingerprint>") and is stored whenever it is known, whatever the
	// poll settings were at the time.
	VoterKey *string `json:"-"`
	// DedupeKey repeats VoterKey on single-vote polls, where the store's
	// unique index on (poll_id, dedupe_key) settles concurrent inserts.
	DedupeKey *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrDuplicateVote = errors.New("duplicate vote")

type Repository interface {
	// Insert returns ErrDuplicateVote when the store already holds a vote
	// with the same poll and dedupe key.
	Insert(ctx context.Context, v *Vote) error
	// HasVoted reports whether any vote on the poll carries voterKey,
	// including votes cast while the poll still allowed several.
	HasVoted(ctx context.Context, pollID, voterKey string) (bool, error)
	// CountByPoll returns vote counts keyed by option id.
	CountByPoll(ctx context.Context, pollID string) (map[string]int64, error)
}

type PollReader interface {
	GetByID(ctx context.Context, id string) (*poll.Poll, error)
}

type OptionResult struct {
	OptionID   string `json:"option_id"`
	Text       string `json:"text"`
	Votes      int64  `json:"votes"`
	Percentage int    `json:"percentage"`
}

type Tally struct {
	PollID  string         `json:"poll_id"`
	State   poll.State     `json:"state"`
	Total   int64          `json:"total"`
	Options []OptionResult `json:"options"`
}
