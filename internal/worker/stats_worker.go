package worker

import (
	"context"
	"log/slog"

	"pollhub/internal/metrics"
)

type VoteEvent struct {
	PollID    string
	OptionID  string
	Anonymous bool
}

type StatsWorker struct {
	Ch     <-chan VoteEvent
	logger *slog.Logger
}

func NewStatsWorker(ch <-chan VoteEvent, logger *slog.Logger) *StatsWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsWorker{Ch: ch, logger: logger}
}

// Run consumes vote events until ctx is done or the channel is closed.
func (w *StatsWorker) Run(ctx context.Context) {
	w.logger.Info("stats worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case ev, ok := <-w.Ch:
			if !ok {
				w.logger.Info("stats worker drained")
				return
			}
			voter := "user"
			if ev.Anonymous {
				voter = "anonymous"
			}
			metrics.IncVote(voter)
			w.logger.Debug("vote recorded", "poll_id", ev.PollID, "option_id", ev.OptionID, "voter", voter)
		}
	}
}

// Publish hands ev to the worker without blocking the request; a full
// buffer drops the event.
func Publish(ch chan<- VoteEvent, ev VoteEvent) bool {
	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}
