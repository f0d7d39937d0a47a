// Package gatewaytest holds the behaviour every gateway implementation is
// expected to share. Each implementation's tests run it against a fresh,
// empty store.
package gatewaytest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollhub/internal/gateway"
)

type Options struct {
	// Cascade is set when deleting a poll row also removes its options and
	// votes.
	Cascade bool
}

func seedPoll(t *testing.T, g gateway.Gateway, id, owner string, createdAt time.Time) error {
	t.Helper()
	_, err := g.Insert(context.Background(), gateway.TablePolls, gateway.Record{
		"id":                     id,
		"title":                  "Where to eat?",
		"description":            nil,
		"created_by":             owner,
		"created_at":             createdAt,
		"updated_at":             createdAt,
		"end_date":               nil,
		"allow_multiple_votes":   false,
		"require_authentication": true,
	})
	return err
}

func Run(t *testing.T, g gateway.Gateway, opts Options) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, seedPoll(t, g, "p1", "alice", base))
	require.NoError(t, seedPoll(t, g, "p2", "alice", base.Add(time.Hour)))
	require.NoError(t, seedPoll(t, g, "p3", "bob", base.Add(2*time.Hour)))
	assert.ErrorIs(t, seedPoll(t, g, "p3", "bob", base), gateway.ErrUniqueViolation, "duplicate id")

	rows, err := g.Select(ctx, gateway.TablePolls, gateway.Query{
		Filter:  gateway.Filter{"created_by": "alice"},
		OrderBy: []gateway.Order{{Column: "created_at", Desc: true}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "p2", rows[0]["id"])
	assert.Equal(t, "p1", rows[1]["id"])

	limited, err := g.Select(ctx, gateway.TablePolls, gateway.Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	n, err := g.Update(ctx, gateway.TablePolls, gateway.Filter{"id": "p1", "created_by": "bob"}, gateway.Record{"title": "hijacked"})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = g.Update(ctx, gateway.TablePolls, gateway.Filter{"id": "p1", "created_by": "alice"}, gateway.Record{"title": "Where to drink?"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err = g.Select(ctx, gateway.TablePolls, gateway.Query{Filter: gateway.Filter{"id": "p1"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Where to drink?", rows[0]["title"])
	assert.Equal(t, "alice", rows[0]["created_by"], "untouched columns survive an update")

	for i, opt := range []string{"o2", "o1"} {
		_, err := g.Insert(ctx, gateway.TablePollOptions, gateway.Record{"id": opt, "poll_id": "p1", "label": opt, "sort_order": 1 - i})
		require.NoError(t, err)
	}
	ordered, err := g.Select(ctx, gateway.TablePollOptions, gateway.Query{
		Filter:  gateway.Filter{"poll_id": "p1"},
		OrderBy: []gateway.Order{{Column: "sort_order"}},
	})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "o1", ordered[0]["id"])

	vote := func(id, option string, key any) error {
		_, err := g.Insert(ctx, gateway.TableVotes, gateway.Record{
			"id": id, "poll_id": "p1", "option_id": option,
			"user_id": nil, "voter_key": key, "dedupe_key": key, "created_at": base,
		})
		return err
	}
	require.NoError(t, vote("v1", "o1", "user:carol"))
	assert.ErrorIs(t, vote("v2", "o2", "user:carol"), gateway.ErrUniqueViolation)
	require.NoError(t, vote("v3", "o1", nil))
	require.NoError(t, vote("v4", "o2", nil))

	if c, ok := g.(gateway.Counter); ok {
		counts, err := c.CountBy(ctx, gateway.TableVotes, gateway.Filter{"poll_id": "p1"}, "option_id")
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"o1": 2, "o2": 1}, counts)
	}

	nullKeyed, err := g.Select(ctx, gateway.TableVotes, gateway.Query{Filter: gateway.Filter{"poll_id": "p1", "dedupe_key": nil}})
	require.NoError(t, err)
	assert.Len(t, nullKeyed, 2)

	// deleting a row releases its unique values
	n, err = g.Delete(ctx, gateway.TableVotes, gateway.Filter{"id": "v1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, vote("v5", "o2", "user:carol"))

	n, err = g.Delete(ctx, gateway.TablePolls, gateway.Filter{"id": "p1", "created_by": "bob"})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = g.Delete(ctx, gateway.TablePolls, gateway.Filter{"id": "p1", "created_by": "alice"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err = g.Select(ctx, gateway.TablePolls, gateway.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	if !opts.Cascade {
		return
	}
	options, err := g.Select(ctx, gateway.TablePollOptions, gateway.Query{Filter: gateway.Filter{"poll_id": "p1"}})
	require.NoError(t, err)
	assert.Empty(t, options)
	votes, err := g.Select(ctx, gateway.TableVotes, gateway.Query{Filter: gateway.Filter{"poll_id": "p1"}})
	require.NoError(t, err)
	assert.Empty(t, votes)
}
