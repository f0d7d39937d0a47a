package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(votesTotal.WithLabelValues("anonymous"))
	IncVote("anonymous")
	IncVote("anonymous")
	assert.Equal(t, before+2, testutil.ToFloat64(votesTotal.WithLabelValues("anonymous")))

	created := testutil.ToFloat64(pollsCreatedTotal)
	IncPollCreated()
	assert.Equal(t, created+1, testutil.ToFloat64(pollsCreatedTotal))

	IncRequest("GET", "/health", 200)
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/health", "200")))
}
