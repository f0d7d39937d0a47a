package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"pollhub/internal/domain/poll"
	"pollhub/internal/domain/user"
	"pollhub/internal/domain/vote"
	jwtpkg "pollhub/internal/platform/jwt"
	"pollhub/internal/worker"
)

// Verifier resolves a bearer token to an actor.
type Verifier interface {
	Verify(ctx context.Context, token string) (*user.Actor, error)
}

// ReadyFunc reports whether the backing store is reachable.
type ReadyFunc func(ctx context.Context) error

type Deps struct {
	Users    *user.Service
	Polls    *poll.Service
	Votes    *vote.Service
	Verifier Verifier
	// Tokens issues local tokens. Nil disables /auth/register and /auth/login.
	Tokens   *jwtpkg.Manager
	TokenTTL time.Duration
	VoteCh   chan<- worker.VoteEvent
	Ready    ReadyFunc

	VoteRatePerMinute int
	VoteBurst         int
}

type Handler struct {
	userSvc  *user.Service
	pollSvc  *poll.Service
	voteSvc  *vote.Service
	jwtMgr   *jwtpkg.Manager
	tokenTTL time.Duration
	voteCh   chan<- worker.VoteEvent
	ready    ReadyFunc
}

func NewRouter(d Deps) http.Handler {
	h := &Handler{
		userSvc:  d.Users,
		pollSvc:  d.Polls,
		voteSvc:  d.Votes,
		jwtMgr:   d.Tokens,
		tokenTTL: d.TokenTTL,
		voteCh:   d.VoteCh,
		ready:    d.Ready,
	}
	if h.tokenTTL <= 0 {
		h.tokenTTL = 24 * time.Hour
	}
	perMinute, burst := d.VoteRatePerMinute, d.VoteBurst
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 3
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		if h.jwtMgr != nil {
			r.Post("/auth/register", h.handleRegister)
			r.Post("/auth/login", h.handleLogin)
		}

		r.Group(func(r chi.Router) {
			r.Use(IdentityMiddleware(d.Verifier))

			r.Get("/me", h.handleMe)
			r.Get("/me/polls", h.handleListMyPolls)

			r.Post("/polls", h.handleCreatePoll)
			r.Get("/polls/{id}", h.handleGetPoll)
			r.Patch("/polls/{id}", h.handleUpdatePoll)
			r.Delete("/polls/{id}", h.handleDeletePoll)

			r.With(
				RateLimitVotes(rate.Every(time.Minute/time.Duration(perMinute)), burst),
				VoterFingerprint,
			).Post("/polls/{id}/votes", h.handleVote)
			r.Get("/polls/{id}/results", h.handlePollResults)
		})
	})

	return r
}

// envelope is the uniform response body: exactly one of data and error is
// meaningful.
type envelope struct {
	Data  any     `json:"data"`
	Error *string `json:"error"`
	Code  string  `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil {
		writeData(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.ready(ctx); err != nil {
		slogLogger.Warn("readiness check failed", "error", err)
		msg := "store not ready"
		writeJSON(w, http.StatusServiceUnavailable, envelope{Error: &msg, Code: "store_unavailable"})
		return
	}

	writeData(w, http.StatusOK, map[string]string{"status": "ready"})
}
