package repository

import (
	"context"
	"fmt"

	"pollhub/internal/domain/poll"
	"pollhub/internal/gateway"
)

type PollRepo struct {
	gw gateway.Gateway
}

func NewPollRepo(gw gateway.Gateway) *PollRepo {
	return &PollRepo{gw: gw}
}

// Create writes the poll row and then its options. On gateways that support
// transactions both happen in one; elsewhere the caller cleans up after a
// partial failure.
func (r *PollRepo) Create(ctx context.Context, p *poll.Poll) error {
	if tx, ok := r.gw.(gateway.Transactor); ok {
		return tx.InTx(ctx, func(gw gateway.Gateway) error {
			return NewPollRepo(gw).create(ctx, p)
		})
	}
	return r.create(ctx, p)
}

func (r *PollRepo) create(ctx context.Context, p *poll.Poll) error {
	rec := gateway.Record{
		"id":         p.ID,
		"created_by": p.CreatedBy,
		"created_at": p.CreatedAt,
	}
	for k, v := range pollChanges(p) {
		rec[k] = v
	}
	if _, err := r.gw.Insert(ctx, gateway.TablePolls, rec); err != nil {
		return err
	}
	for i := range p.Options {
		if err := r.InsertOption(ctx, &p.Options[i]); err != nil {
			return fmt.Errorf("option %d: %w", i, err)
		}
	}
	return nil
}

func (r *PollRepo) InsertOption(ctx context.Context, o *poll.Option) error {
	_, err := r.gw.Insert(ctx, gateway.TablePollOptions, gateway.Record{
		"id":         o.ID,
		"poll_id":    o.PollID,
		"label":      o.Text,
		"sort_order": o.Position,
	})
	return err
}

func (r *PollRepo) GetByID(ctx context.Context, id string) (*poll.Poll, error) {
	rows, err := r.gw.Select(ctx, gateway.TablePolls, gateway.Query{
		Filter: gateway.Filter{"id": id},
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, poll.ErrNotFound
	}

	p, err := decodePoll(rows[0])
	if err != nil {
		return nil, err
	}
	if p.Options, err = r.options(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PollRepo) ListByOwner(ctx context.Context, ownerID string) ([]poll.Poll, error) {
	rows, err := r.gw.Select(ctx, gateway.TablePolls, gateway.Query{
		Filter: gateway.Filter{"created_by": ownerID},
		OrderBy: []gateway.Order{
			{Column: "created_at", Desc: true},
			{Column: "id"},
		},
	})
	if err != nil {
		return nil, err
	}

	polls := make([]poll.Poll, 0, len(rows))
	for _, row := range rows {
		p, err := decodePoll(row)
		if err != nil {
			return nil, err
		}
		if p.Options, err = r.options(ctx, p.ID); err != nil {
			return nil, err
		}
		polls = append(polls, *p)
	}
	return polls, nil
}

func (r *PollRepo) Update(ctx context.Context, p *poll.Poll) (int64, error) {
	return r.gw.Update(ctx, gateway.TablePolls,
		gateway.Filter{"id": p.ID, "created_by": p.CreatedBy},
		pollChanges(p),
	)
}

func (r *PollRepo) UpdateOption(ctx context.Context, o *poll.Option) error {
	_, err := r.gw.Update(ctx, gateway.TablePollOptions,
		gateway.Filter{"id": o.ID, "poll_id": o.PollID},
		gateway.Record{"label": o.Text, "sort_order": o.Position},
	)
	return err
}

// DeleteOption removes an option and the votes cast for it.
func (r *PollRepo) DeleteOption(ctx context.Context, pollID, optionID string) error {
	if _, err := r.gw.Delete(ctx, gateway.TableVotes, gateway.Filter{"poll_id": pollID, "option_id": optionID}); err != nil {
		return err
	}
	_, err := r.gw.Delete(ctx, gateway.TablePollOptions, gateway.Filter{"id": optionID, "poll_id": pollID})
	return err
}

// Delete removes the poll only where both id and owner match. Votes and
// options are removed before the poll row, so a delete that fails half way
// leaves the poll in place and can simply be repeated.
func (r *PollRepo) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	owned := gateway.Filter{"id": id, "created_by": ownerID}
	rows, err := r.gw.Select(ctx, gateway.TablePolls, gateway.Query{Filter: owned, Limit: 1})
	if err != nil || len(rows) == 0 {
		return 0, err
	}

	if _, err := r.gw.Delete(ctx, gateway.TableVotes, gateway.Filter{"poll_id": id}); err != nil {
		return 0, err
	}
	if _, err := r.gw.Delete(ctx, gateway.TablePollOptions, gateway.Filter{"poll_id": id}); err != nil {
		return 0, err
	}
	return r.gw.Delete(ctx, gateway.TablePolls, owned)
}

func (r *PollRepo) options(ctx context.Context, pollID string) ([]poll.Option, error) {
	rows, err := r.gw.Select(ctx, gateway.TablePollOptions, gateway.Query{
		Filter:  gateway.Filter{"poll_id": pollID},
		OrderBy: []gateway.Order{{Column: "sort_order"}},
	})
	if err != nil {
		return nil, err
	}
	opts := make([]poll.Option, 0, len(rows))
	for _, row := range rows {
		opts = append(opts, poll.Option{
			ID:       asString(row["id"]),
			PollID:   asString(row["poll_id"]),
			Text:     asString(row["label"]),
			Position: asInt(row["sort_order"]),
		})
	}
	return opts, nil
}

func pollChanges(p *poll.Poll) gateway.Record {
	return gateway.Record{
		"title":                  p.Title,
		"description":            nullable(p.Description),
		"updated_at":             p.UpdatedAt,
		"end_date":               nullable(p.EndDate),
		"allow_multiple_votes":   p.Settings.AllowMultipleVotes,
		"require_authentication": p.Settings.RequireAuthentication,
	}
}

func decodePoll(row gateway.Record) (*poll.Poll, error) {
	p := &poll.Poll{
		ID:          asString(row["id"]),
		Title:       asString(row["title"]),
		Description: asStringPtr(row["description"]),
		CreatedBy:   asString(row["created_by"]),
		Settings: poll.Settings{
			AllowMultipleVotes:    asBool(row["allow_multiple_votes"]),
			RequireAuthentication: asBool(row["require_authentication"]),
		},
	}
	var err error
	if p.CreatedAt, err = asTime(row["created_at"]); err != nil {
		return nil, fmt.Errorf("poll %s created_at: %w", p.ID, err)
	}
	if p.UpdatedAt, err = asTime(row["updated_at"]); err != nil {
		return nil, fmt.Errorf("poll %s updated_at: %w", p.ID, err)
	}
	if p.EndDate, err = asTimePtr(row["end_date"]); err != nil {
		return nil, fmt.Errorf("poll %s end_date: %w", p.ID, err)
	}
	return p, nil
}
