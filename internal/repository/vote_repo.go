package repository

import (
	"context"
	"errors"

	"pollhub/internal/domain/vote"
	"pollhub/internal/gateway"
)

type VoteRepo struct {
	gw gateway.Gateway
}

func NewVoteRepo(gw gateway.Gateway) *VoteRepo {
	return &VoteRepo{gw: gw}
}

func (r *VoteRepo) Insert(ctx context.Context, v *vote.Vote) error {
	_, err := r.gw.Insert(ctx, gateway.TableVotes, gateway.Record{
		"id":         v.ID,
		"poll_id":    v.PollID,
		"option_id":  v.OptionID,
		"user_id":    nullable(v.UserID),
		"voter_key":  nullable(v.VoterKey),
		"dedupe_key": nullable(v.DedupeKey),
		"created_at": v.CreatedAt,
	})
	if errors.Is(err, gateway.ErrUniqueViolation) {
		return vote.ErrDuplicateVote
	}
	return err
}

func (r *VoteRepo) HasVoted(ctx context.Context, pollID, voterKey string) (bool, error) {
	rows, err := r.gw.Select(ctx, gateway.TableVotes, gateway.Query{
		Filter: gateway.Filter{"poll_id": pollID, "voter_key": voterKey},
		Limit:  1,
	})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// CountByPoll groups in the store when the gateway supports it and falls
// back to counting the selected rows.
func (r *VoteRepo) CountByPoll(ctx context.Context, pollID string) (map[string]int64, error) {
	filter := gateway.Filter{"poll_id": pollID}
	if c, ok := r.gw.(gateway.Counter); ok {
		return c.CountBy(ctx, gateway.TableVotes, filter, "option_id")
	}

	rows, err := r.gw.Select(ctx, gateway.TableVotes, gateway.Query{Filter: filter})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, row := range rows {
		counts[asString(row["option_id"])]++
	}
	return counts, nil
}
