package firestoregw

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pollhub/internal/gateway"
)

func TestUniqueKeys(t *testing.T) {
	g := New(nil, gateway.Constraints...)

	a := g.uniqueKeys(gateway.TableVotes, map[string]any{"id": "v1", "poll_id": "p1", "dedupe_key": "user:u1"})
	b := g.uniqueKeys(gateway.TableVotes, map[string]any{"id": "v2", "poll_id": "p1", "dedupe_key": "user:u1"})
	c := g.uniqueKeys(gateway.TableVotes, map[string]any{"id": "v3", "poll_id": "p2", "dedupe_key": "user:u1"})

	assert.Len(t, a, 1)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	assert.Empty(t, g.uniqueKeys(gateway.TableVotes, map[string]any{"id": "v4", "poll_id": "p1", "dedupe_key": nil}))
	assert.Empty(t, g.uniqueKeys(gateway.TablePolls, map[string]any{"id": "p1"}))
	assert.Len(t, g.uniqueKeys(gateway.TableUsers, map[string]any{"id": "u1", "email": "a@example.com"}), 1)
}
