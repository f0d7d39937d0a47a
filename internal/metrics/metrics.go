package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal *prometheus.CounterVec
	votesTotal        *prometheus.CounterVec
	pollsCreatedTotal prometheus.Counter
	registerOnce      sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polling",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the polling API.",
		}, []string{"method", "path", "status"})

		votesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polling",
			Name:      "votes_total",
			Help:      "Accepted votes by voter kind.",
		}, []string{"voter"})

		pollsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "polling",
			Name:      "polls_created_total",
			Help:      "Polls created.",
		})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// IncVote counts an accepted vote; voter is "user" or "anonymous".
func IncVote(voter string) {
	if votesTotal == nil {
		return
	}
	votesTotal.WithLabelValues(voter).Inc()
}

func IncPollCreated() {
	if pollsCreatedTotal == nil {
		return
	}
	pollsCreatedTotal.Inc()
}
