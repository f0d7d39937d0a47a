package sqlgw

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollhub/internal/gateway"
	"pollhub/internal/gateway/gatewaytest"
	"pollhub/internal/platform/database"
)

func newSQLiteGateway(t *testing.T) *Gateway {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "polls.db")
	db, err := database.Open(ctx, database.SQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(ctx, db, database.SQLite))

	g, err := New(db, database.SQLite)
	require.NoError(t, err)
	return g
}

func TestSQLiteGateway(t *testing.T) {
	gatewaytest.Run(t, newSQLiteGateway(t), gatewaytest.Options{Cascade: true})
}

func TestInTx(t *testing.T) {
	g := newSQLiteGateway(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	poll := func(id string) gateway.Record {
		return gateway.Record{
			"id": id, "title": "Q", "description": nil, "created_by": "alice",
			"created_at": base, "updated_at": base, "end_date": nil,
			"allow_multiple_votes": false, "require_authentication": true,
		}
	}

	boom := errors.New("abort")
	err := g.InTx(ctx, func(tx gateway.Gateway) error {
		if _, err := tx.Insert(ctx, gateway.TablePolls, poll("p1")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	rows, err := g.Select(ctx, gateway.TablePolls, gateway.Query{})
	require.NoError(t, err)
	assert.Empty(t, rows, "rolled back")

	err = g.InTx(ctx, func(tx gateway.Gateway) error {
		if _, err := tx.Insert(ctx, gateway.TablePolls, poll("p2")); err != nil {
			return err
		}
		_, err := tx.Insert(ctx, gateway.TablePollOptions, gateway.Record{"id": "o1", "poll_id": "p2", "label": "A", "sort_order": 0})
		return err
	})
	require.NoError(t, err)
	rows, err = g.Select(ctx, gateway.TablePollOptions, gateway.Query{Filter: gateway.Filter{"poll_id": "p2"}})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestNewRejectsUnknownDialect(t *testing.T) {
	_, err := New(nil, "oracle")
	assert.Error(t, err)
}
