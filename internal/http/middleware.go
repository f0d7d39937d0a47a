package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"pollhub/internal/domain/user"
	"pollhub/internal/metrics"
	"pollhub/internal/platform/apperr"
)

type ctxKey string

const (
	ctxKeyActor ctxKey = "actor"
	ctxKeyVoter ctxKey = "voter_key"
)

const (
	voterHeader = "X-Voter-Token"
	voterCookie = "voter_id"
)

var slogLogger = slog.Default()

func SetLogger(l *slog.Logger) {
	if l != nil {
		slogLogger = l
	}
}

// IdentityMiddleware attaches the caller's actor when a bearer token is
// present. No header means an anonymous request; a bad token is rejected.
func IdentityMiddleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || v == nil {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				errorResponse(w, apperr.Unauthorized(apperr.CodeUnauthorized, "invalid authorization header", nil))
				return
			}

			actor, err := v.Verify(r.Context(), parts[1])
			if err != nil {
				errorResponse(w, apperr.Unauthorized(apperr.CodeUnauthorized, "invalid token", err))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyActor, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromCtx(r *http.Request) *user.Actor {
	if a, ok := r.Context().Value(ctxKeyActor).(*user.Actor); ok {
		return a
	}
	return nil
}

// VoterFingerprint gives anonymous voters a stable key: the X-Voter-Token
// header if sent, otherwise the voter_id cookie, issued on first contact.
func VoterFingerprint(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(voterHeader))
		if key == "" {
			if c, err := r.Cookie(voterCookie); err == nil {
				key = c.Value
			}
		}
		if key == "" {
			key = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     voterCookie,
				Value:    key,
				Path:     "/",
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		if len(key) > 128 {
			key = key[:128]
		}
		ctx := context.WithValue(r.Context(), ctxKeyVoter, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func voterKeyFromCtx(r *http.Request) string {
	key, _ := r.Context().Value(ctxKeyVoter).(string)
	return key
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, "+voterHeader)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RateLimitVotes(r rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := newIPRateLimiter(r, burst, 10*time.Minute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.allow(ip) {
				msg := "too many requests"
				writeJSON(w, http.StatusTooManyRequests, envelope{Error: &msg, Code: "rate_limited"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(rw, r)

		status := rw.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		metrics.IncRequest(r.Method, route, status)

		slogLogger.Info("request",
			"method", r.Method,
			"path", route,
			"status", status,
			"request_id", chimw.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	limit    rate.Limit
	burst    int
	entryTTL time.Duration
}

func newIPRateLimiter(limit rate.Limit, burst int, entryTTL time.Duration) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		limit:    limit,
		burst:    burst,
		entryTTL: entryTTL,
	}
}

func (l *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, ts := range l.lastSeen {
		if now.Sub(ts) > l.entryTTL {
			delete(l.limiters, key)
			delete(l.lastSeen, key)
		}
	}

	if limiter, ok := l.limiters[ip]; ok {
		l.lastSeen[ip] = now
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters[ip] = limiter
	l.lastSeen[ip] = now
	return limiter
}

func (l *ipRateLimiter) allow(ip string) bool {
	limiter := l.getLimiter(ip)
	return limiter.Allow()
}

// clientIP relies on chi's RealIP having already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
