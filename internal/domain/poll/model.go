package poll

import (
	"context"
	"errors"
	"time"
)

type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

const (
	MinOptions = 2
	MaxOptions = 10
)

type Settings struct {
	AllowMultipleVotes    bool `json:"allow_multiple_votes"`
	RequireAuthentication bool `json:"require_authentication"`
}

// DefaultSettings is applied when a caller does not say otherwise: one vote
// per signed-in user.
func DefaultSettings() Settings {
	return Settings{AllowMultipleVotes: false, RequireAuthentication: true}
}

type Poll struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Options     []Option   `json:"options"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Settings    Settings   `json:"settings"`
}

// StateAt derives the lifecycle state; it is never stored.
func (p *Poll) StateAt(now time.Time) State {
	if p.EndDate != nil && !now.Before(*p.EndDate) {
		return StateClosed
	}
	return StateOpen
}

// Option resolves ref against the poll's current options.
func (p *Poll) Option(ref OptionRef) (Option, bool) {
	if ref.Index != nil {
		i := *ref.Index
		if i < 0 || i >= len(p.Options) {
			return Option{}, false
		}
		return p.Options[i], true
	}
	if ref.ID == "" {
		return Option{}, false
	}
	for _, o := range p.Options {
		if o.ID == ref.ID {
			return o, true
		}
	}
	return Option{}, false
}

type Option struct {
	ID       string `json:"id"`
	PollID   string `json:"poll_id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// OptionRef points at an option either by id or by zero-based position. The
// zero value points at nothing.
type OptionRef struct {
	ID    string
	Index *int
}

func ByID(id string) OptionRef { return OptionRef{ID: id} }

func ByIndex(i int) OptionRef { return OptionRef{Index: &i} }

// Input is the raw creation request. Options stay untyped until validation.
type Input struct {
	Title       string
	Description *string
	Options     []any
	EndDate     *time.Time
	Settings    Settings
}

// Changes lists the fields an owner wants to modify; nil means unchanged.
type Changes struct {
	Title       *string
	Description *string
	Options     []any
	EndDate     *time.Time

	AllowMultipleVotes    *bool
	RequireAuthentication *bool
}

func (c Changes) applySettings(s Settings) Settings {
	if c.AllowMultipleVotes != nil {
		s.AllowMultipleVotes = *c.AllowMultipleVotes
	}
	if c.RequireAuthentication != nil {
		s.RequireAuthentication = *c.RequireAuthentication
	}
	return s
}

var ErrNotFound = errors.New("poll not found")

type Repository interface {
	// Create stores p together with its options, atomically where the store
	// supports it.
	Create(ctx context.Context, p *Poll) error
	InsertOption(ctx context.Context, o *Option) error
	GetByID(ctx context.Context, id string) (*Poll, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Poll, error)
	// Update writes p's mutable fields where id = p.ID and created_by =
	// p.CreatedBy, returning the number of rows changed.
	Update(ctx context.Context, p *Poll) (int64, error)
	UpdateOption(ctx context.Context, o *Option) error
	DeleteOption(ctx context.Context, pollID, optionID string) error
	// Delete removes the poll where id and created_by both match, together
	// with its options and votes. Children go first so a failed attempt can
	// be repeated until nothing is left.
	Delete(ctx context.Context, id, ownerID string) (int64, error)
}
