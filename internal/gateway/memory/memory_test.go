package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollhub/internal/gateway"
	"pollhub/internal/gateway/gatewaytest"
)

func TestContract(t *testing.T) {
	gatewaytest.Run(t, New(gateway.Constraints...), gatewaytest.Options{})
}

func TestInsertSelectOrdered(t *testing.T) {
	g := New(gateway.Constraints...)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"p1", "p2", "p3"} {
		_, err := g.Insert(ctx, gateway.TablePolls, gateway.Record{
			"id":         id,
			"created_by": "alice",
			"created_at": base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := g.Insert(ctx, gateway.TablePolls, gateway.Record{"id": "p4", "created_by": "bob", "created_at": base})
	require.NoError(t, err)

	rows, err := g.Select(ctx, gateway.TablePolls, gateway.Query{
		Filter:  gateway.Filter{"created_by": "alice"},
		OrderBy: []gateway.Order{{Column: "created_at", Desc: true}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "p3", rows[0]["id"])
	assert.Equal(t, "p1", rows[2]["id"])

	limited, err := g.Select(ctx, gateway.TablePolls, gateway.Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSelectReturnsCopies(t *testing.T) {
	g := New()
	ctx := context.Background()

	_, err := g.Insert(ctx, "t", gateway.Record{"id": "a", "v": "original"})
	require.NoError(t, err)

	rows, err := g.Select(ctx, "t", gateway.Query{})
	require.NoError(t, err)
	rows[0]["v"] = "mutated"

	again, err := g.Select(ctx, "t", gateway.Query{})
	require.NoError(t, err)
	assert.Equal(t, "original", again[0]["v"])
}

func TestUniqueConstraintIgnoresNull(t *testing.T) {
	g := New(gateway.Constraints...)
	ctx := context.Background()

	vote := func(id string, key any) error {
		_, err := g.Insert(ctx, gateway.TableVotes, gateway.Record{"id": id, "poll_id": "p", "dedupe_key": key})
		return err
	}

	require.NoError(t, vote("v1", "user:u1"))
	assert.ErrorIs(t, vote("v2", "user:u1"), gateway.ErrUniqueViolation)
	require.NoError(t, vote("v3", nil))
	require.NoError(t, vote("v4", nil))
	assert.Equal(t, 3, g.Len(gateway.TableVotes))
}

func TestUpdateAndDeleteScopedByFilter(t *testing.T) {
	g := New(gateway.Constraints...)
	ctx := context.Background()

	_, err := g.Insert(ctx, gateway.TablePolls, gateway.Record{"id": "p1", "created_by": "alice", "title": "Lunch?"})
	require.NoError(t, err)

	n, err := g.Update(ctx, gateway.TablePolls, gateway.Filter{"id": "p1", "created_by": "bob"}, gateway.Record{"title": "hijacked"})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = g.Update(ctx, gateway.TablePolls, gateway.Filter{"id": "p1", "created_by": "alice"}, gateway.Record{"title": "Dinner?"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = g.Delete(ctx, gateway.TablePolls, gateway.Filter{"id": "p1", "created_by": "bob"})
	require.NoError(t, err)
	assert.Zero(t, n)

	rows, err := g.Select(ctx, gateway.TablePolls, gateway.Query{Filter: gateway.Filter{"id": "p1"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dinner?", rows[0]["title"])

	n, err = g.Delete(ctx, gateway.TablePolls, gateway.Filter{"id": "p1", "created_by": "alice"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Zero(t, g.Len(gateway.TablePolls))
}

func TestUpdateRejectsUniqueCollision(t *testing.T) {
	g := New(gateway.Constraints...)
	ctx := context.Background()

	_, err := g.Insert(ctx, gateway.TableUsers, gateway.Record{"id": "u1", "email": "a@example.com"})
	require.NoError(t, err)
	_, err = g.Insert(ctx, gateway.TableUsers, gateway.Record{"id": "u2", "email": "b@example.com"})
	require.NoError(t, err)

	_, err = g.Update(ctx, gateway.TableUsers, gateway.Filter{"id": "u2"}, gateway.Record{"email": "a@example.com"})
	assert.ErrorIs(t, err, gateway.ErrUniqueViolation)

	_, err = g.Update(ctx, gateway.TableUsers, gateway.Filter{"id": "u2"}, gateway.Record{"email": "b@example.com"})
	assert.NoError(t, err)
}

func TestFaultHook(t *testing.T) {
	g := New()
	ctx := context.Background()
	boom := errors.New("disk on fire")

	g.SetFault(func(op Op, table string) error {
		if op == OpInsert && table == "t" {
			return boom
		}
		return nil
	})
	_, err := g.Insert(ctx, "t", gateway.Record{"id": "x"})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, g.Len("t"))

	g.SetFault(nil)
	_, err = g.Insert(ctx, "t", gateway.Record{"id": "x"})
	assert.NoError(t, err)
}

func TestCanceledContext(t *testing.T) {
	g := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Insert(ctx, "t", gateway.Record{"id": "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
