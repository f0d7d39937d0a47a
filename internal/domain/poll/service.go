package poll

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"pollhub/internal/domain/user"
	"pollhub/internal/platform/apperr"
	"pollhub/internal/retry"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time

	cleanupAttempts int
	cleanupDelay    time.Duration
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:            repo,
		validate:        validator.New(),
		logger:          slog.Default(),
		now:             time.Now,
		cleanupAttempts: 3,
		cleanupDelay:    50 * time.Millisecond,
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

// Now is the clock lifecycle state is derived from.
func (s *Service) Now() time.Time {
	return s.now()
}

// Create validates in and stores the poll with its options. A failure part
// way through removes whatever was written before returning.
func (s *Service) Create(ctx context.Context, in Input, actor *user.Actor) (string, error) {
	if actor == nil {
		return "", errUnauthenticated()
	}

	d, err := s.normalize(in.Title, in.Description, in.Options, in.EndDate)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	p := &Poll{
		ID:          uuid.NewString(),
		Title:       d.Title,
		Description: d.Description,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
		EndDate:     utcPtr(in.EndDate),
		Settings:    in.Settings,
	}
	for i, text := range d.Options {
		p.Options = append(p.Options, Option{
			ID:       uuid.NewString(),
			PollID:   p.ID,
			Text:     text,
			Position: i,
		})
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("poll create failed", "poll_id", p.ID, "error", err)
		s.discard(ctx, p)
		return "", apperr.Store(err)
	}

	return p.ID, nil
}

// discard deletes a partially created poll. It runs on a context detached
// from ctx so a canceled request still cleans up.
func (s *Service) discard(ctx context.Context, p *Poll) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := retry.DoWithRetry(cleanupCtx, s.cleanupAttempts, s.cleanupDelay, func() error {
		_, err := s.repo.Delete(cleanupCtx, p.ID, p.CreatedBy)
		return err
	})
	if err != nil {
		s.logger.Error("orphaned poll left behind", "poll_id", p.ID, "error", err)
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*Poll, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeNotFound, "poll not found", err)
		}
		s.logger.Error("poll lookup failed", "poll_id", id, "error", err)
		return nil, apperr.Store(err)
	}
	return p, nil
}

// ListByOwner returns the user's polls, newest first. An empty userID
// yields an empty list.
func (s *Service) ListByOwner(ctx context.Context, userID string) ([]Poll, error) {
	if userID == "" {
		return []Poll{}, nil
	}
	polls, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		s.logger.Error("poll list failed", "error", err)
		return nil, apperr.Store(err)
	}
	if polls == nil {
		polls = []Poll{}
	}
	return polls, nil
}

func (s *Service) Update(ctx context.Context, id string, ch Changes, actor *user.Actor) error {
	if actor == nil {
		return errUnauthenticated()
	}

	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.CreatedBy != actor.ID {
		return apperr.Forbidden(apperr.CodeForbidden, "only the poll owner can change it", nil)
	}

	title := p.Title
	if ch.Title != nil {
		title = *ch.Title
	}
	description := p.Description
	if ch.Description != nil {
		description = ch.Description
	}
	rawOptions := optionTexts(p.Options)
	if ch.Options != nil {
		rawOptions = ch.Options
	}

	d, err := s.normalize(title, description, rawOptions, ch.EndDate)
	if err != nil {
		return err
	}

	p.Title = d.Title
	p.Description = d.Description
	if ch.EndDate != nil {
		p.EndDate = utcPtr(ch.EndDate)
	}
	p.Settings = ch.applySettings(p.Settings)
	p.UpdatedAt = s.now().UTC()

	n, err := s.repo.Update(ctx, p)
	if err != nil {
		s.logger.Error("poll update failed", "poll_id", p.ID, "error", err)
		return apperr.Store(err)
	}
	if n == 0 {
		// deleted between the read and the write
		return apperr.NotFound(apperr.CodeNotFound, "poll not found", ErrNotFound)
	}

	if ch.Options != nil {
		if err := s.syncOptions(ctx, p, d.Options); err != nil {
			s.logger.Error("poll options update failed", "poll_id", p.ID, "error", err)
			return apperr.Store(err)
		}
	}
	return nil
}

// syncOptions rewrites the option list. Options whose text survives keep
// their id so existing votes stay attached.
func (s *Service) syncOptions(ctx context.Context, p *Poll, texts []string) error {
	existing := make(map[string]Option, len(p.Options))
	for _, o := range p.Options {
		existing[strings.ToLower(o.Text)] = o
	}

	next := make([]Option, 0, len(texts))
	for i, text := range texts {
		key := strings.ToLower(text)
		if o, ok := existing[key]; ok {
			delete(existing, key)
			if o.Text != text || o.Position != i {
				o.Text, o.Position = text, i
				if err := s.repo.UpdateOption(ctx, &o); err != nil {
					return err
				}
			}
			next = append(next, o)
			continue
		}
		o := Option{ID: uuid.NewString(), PollID: p.ID, Text: text, Position: i}
		if err := s.repo.InsertOption(ctx, &o); err != nil {
			return err
		}
		next = append(next, o)
	}

	for _, o := range existing {
		if err := s.repo.DeleteOption(ctx, p.ID, o.ID); err != nil {
			return err
		}
	}
	p.Options = next
	return nil
}

// Delete removes the poll if actor owns it. The ownership condition travels
// with the delete itself; a missing or foreign poll is a silent no-op.
func (s *Service) Delete(ctx context.Context, id string, actor *user.Actor) error {
	if actor == nil {
		return errUnauthenticated()
	}
	n, err := s.repo.Delete(ctx, id, actor.ID)
	if err != nil {
		s.logger.Error("poll delete failed", "poll_id", id, "error", err)
		return apperr.Store(err)
	}
	s.logger.Debug("poll delete", "poll_id", id, "affected", n)
	return nil
}

func errUnauthenticated() error {
	return apperr.Unauthorized(apperr.CodeUnauthorized, "authentication required", nil)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
