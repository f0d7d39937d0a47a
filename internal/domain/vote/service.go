package vote

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"pollhub/internal/domain/poll"
	"pollhub/internal/domain/user"
	"pollhub/internal/platform/apperr"
)

// Ballot is one voting request. Voter is nil for anonymous callers;
// VoterKey is an optional anonymous fingerprint supplied by the transport.
type Ballot struct {
	PollID   string
	Option   poll.OptionRef
	Voter    *user.Actor
	VoterKey string
}

type Service struct {
	repo   Repository
	polls  PollReader
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, polls PollReader) *Service {
	return &Service{
		repo:   repo,
		polls:  polls,
		logger: slog.Default(),
		now:    time.Now,
	}
}

func (s *Service) WithLogger(l *slog.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) Submit(ctx context.Context, b Ballot) error {
	p, err := s.polls.GetByID(ctx, b.PollID)
	if err != nil {
		return err
	}

	if p.StateAt(s.now()) == poll.StateClosed {
		return apperr.Conflict(apperr.CodeConflict, "poll closed", nil)
	}

	opt, ok := p.Option(b.Option)
	if !ok {
		return apperr.Validation("invalid option", nil)
	}

	if p.Settings.RequireAuthentication && b.Voter == nil {
		return apperr.Unauthorized(apperr.CodeUnauthorized, "authentication required", nil)
	}

	v := &Vote{
		ID:        uuid.NewString(),
		PollID:    p.ID,
		OptionID:  opt.ID,
		CreatedAt: s.now().UTC(),
	}
	if b.Voter != nil {
		id := b.Voter.ID
		v.UserID = &id
	}
	key, identified := voterKey(b)
	if identified {
		v.VoterKey = &key
	}

	if !p.Settings.AllowMultipleVotes && identified {
		v.DedupeKey = &key
		voted, err := s.repo.HasVoted(ctx, p.ID, key)
		if err != nil {
			s.logger.Error("vote lookup failed", "poll_id", p.ID, "error", err)
			return apperr.Store(err)
		}
		if voted {
			return errAlreadyVoted(nil)
		}
	}

	if err := s.repo.Insert(ctx, v); err != nil {
		if errors.Is(err, ErrDuplicateVote) {
			return errAlreadyVoted(err)
		}
		s.logger.Error("vote insert failed", "poll_id", p.ID, "error", err)
		return apperr.Store(err)
	}
	return nil
}

// Tally counts the stored votes of a poll. Every current option is listed,
// including those nobody picked.
func (s *Service) Tally(ctx context.Context, pollID string) (*Tally, error) {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByPoll(ctx, p.ID)
	if err != nil {
		s.logger.Error("vote count failed", "poll_id", p.ID, "error", err)
		return nil, apperr.Store(err)
	}

	t := &Tally{
		PollID:  p.ID,
		State:   p.StateAt(s.now()),
		Options: make([]OptionResult, 0, len(p.Options)),
	}
	for _, o := range p.Options {
		t.Total += counts[o.ID]
	}
	for _, o := range p.Options {
		c := counts[o.ID]
		t.Options = append(t.Options, OptionResult{
			OptionID:   o.ID,
			Text:       o.Text,
			Votes:      c,
			Percentage: percentage(c, t.Total),
		})
	}
	return t, nil
}

func voterKey(b Ballot) (string, bool) {
	switch {
	case b.Voter != nil:
		return "user:" + b.Voter.ID, true
	case b.VoterKey != "":
		return "anon:" + b.VoterKey, true
	}
	return "", false
}

func percentage(count, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}

func errAlreadyVoted(err error) error {
	return apperr.Conflict(apperr.CodeConflict, "already voted", err)
}
