package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollhub/internal/domain/poll"
	"pollhub/internal/domain/user"
	"pollhub/internal/domain/vote"
	"pollhub/internal/gateway"
	"pollhub/internal/gateway/memory"
	jwtpkg "pollhub/internal/platform/jwt"
	"pollhub/internal/repository"
	"pollhub/internal/worker"
)

type testEnv struct {
	t      *testing.T
	gw     *memory.Gateway
	router http.Handler
	voteCh chan worker.VoteEvent
}

type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *string         `json:"error"`
	Code  string          `json:"code"`
}

func newTestEnv(t *testing.T, tweak func(*Deps)) *testEnv {
	t.Helper()
	gw := memory.New(gateway.Constraints...)
	pollSvc := poll.NewService(repository.NewPollRepo(gw))
	jm := jwtpkg.NewManager("test-secret", "pollhub-test")
	voteCh := make(chan worker.VoteEvent, 16)

	d := Deps{
		Users:             user.NewService(repository.NewUserRepo(gw)),
		Polls:             pollSvc,
		Votes:             vote.NewService(repository.NewVoteRepo(gw), pollSvc),
		Verifier:          jm,
		Tokens:            jm,
		TokenTTL:          time.Hour,
		VoteCh:            voteCh,
		VoteRatePerMinute: 6000,
		VoteBurst:         100,
	}
	if tweak != nil {
		tweak(&d)
	}
	return &testEnv{t: t, gw: gw, router: NewRouter(d), voteCh: voteCh}
}

func (e *testEnv) do(method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, apiResponse) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func (e *testEnv) register(email string) string {
	e.t.Helper()
	rec, resp := e.do(http.MethodPost, "/api/v1/auth/register", "", authRequest{Email: email, Password: "s3cret-pass"})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(e.t, json.Unmarshal(resp.Data, &out))
	require.NotEmpty(e.t, out.Token)
	return out.Token
}

func (e *testEnv) createPoll(token string, body map[string]any) string {
	e.t.Helper()
	rec, resp := e.do(http.MethodPost, "/api/v1/polls", token, body)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out idResponse
	require.NoError(e.t, json.Unmarshal(resp.Data, &out))
	return out.ID
}

func (e *testEnv) tally(pollID string) vote.Tally {
	e.t.Helper()
	rec, resp := e.do(http.MethodGet, "/api/v1/polls/"+pollID+"/results", "", nil)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var t vote.Tally
	require.NoError(e.t, json.Unmarshal(resp.Data, &t))
	return t
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil)
	rec, resp := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, resp.Error)

	rec, _ = env.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestEnv(t, func(d *Deps) {
		d.Ready = func(ctx context.Context) error { return errors.New("dial tcp: connection refused") }
	})
	rec, resp = down.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "store not ready", *resp.Error)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register("jane@example.com")

	rec, resp := env.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me user.Actor
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.Equal(t, "jane@example.com", me.Email)

	rec, resp = env.do(http.MethodPost, "/api/v1/auth/register", "", authRequest{Email: "jane@example.com", Password: "s3cret-pass"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", resp.Code)

	rec, resp = env.do(http.MethodPost, "/api/v1/auth/login", "", authRequest{Email: "jane@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid credentials", *resp.Error)
	assert.Equal(t, "null", string(resp.Data))

	rec, _ = env.do(http.MethodPost, "/api/v1/auth/login", "", authRequest{Email: "jane@example.com", Password: "s3cret-pass"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = env.do(http.MethodGet, "/api/v1/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", *resp.Error)

	rec, _ = env.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPollLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := env.register("owner@example.com")
	other := env.register("other@example.com")

	rec, resp := env.do(http.MethodPost, "/api/v1/polls", "", map[string]any{"title": "Q", "options": []string{"A", "B"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", resp.Code)

	rec, resp = env.do(http.MethodPost, "/api/v1/polls", owner, map[string]any{"title": "Q", "options": []any{"A", "B", 7}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid option type", *resp.Error)

	id := env.createPoll(owner, map[string]any{
		"title":   "Where to eat?",
		"options": []string{"Pizza", "Sushi", "Tacos"},
	})

	rec, resp = env.do(http.MethodGet, "/api/v1/polls/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Title    string        `json:"title"`
		State    string        `json:"state"`
		Options  []poll.Option `json:"options"`
		Settings poll.Settings `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "Where to eat?", got.Title)
	assert.Equal(t, "open", got.State)
	assert.Len(t, got.Options, 3)
	assert.Equal(t, poll.DefaultSettings(), got.Settings)

	rec, resp = env.do(http.MethodPatch, "/api/v1/polls/"+id, other, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", resp.Code)

	rec, _ = env.do(http.MethodPatch, "/api/v1/polls/"+id, owner, map[string]any{
		"title":    "Where to dine?",
		"settings": map[string]any{"allow_multiple_votes": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, resp = env.do(http.MethodGet, "/api/v1/polls/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "Where to dine?", got.Title)
	assert.Equal(t, poll.Settings{AllowMultipleVotes: true, RequireAuthentication: true}, got.Settings)

	rec, resp = env.do(http.MethodPatch, "/api/v1/polls/"+id, other, map[string]any{
		"settings": map[string]any{"require_authentication": false},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", resp.Code)

	rec, resp = env.do(http.MethodPatch, "/api/v1/polls/"+id, owner, map[string]any{
		"settings": map[string]any{"require_authentication": false},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, poll.Settings{AllowMultipleVotes: true, RequireAuthentication: false}, got.Settings)

	rec, resp = env.do(http.MethodGet, "/api/v1/me/polls", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &mine))
	assert.Len(t, mine, 1)

	rec, resp = env.do(http.MethodGet, "/api/v1/me/polls", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(resp.Data))

	rec, _ = env.do(http.MethodDelete, "/api/v1/polls/"+id, other, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(http.MethodGet, "/api/v1/polls/"+id, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "non-owner delete must not remove the poll")

	rec, _ = env.do(http.MethodDelete, "/api/v1/polls/"+id, owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, resp = env.do(http.MethodGet, "/api/v1/polls/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "poll not found", *resp.Error)
}

func TestVoting(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := env.register("owner@example.com")
	voter := env.register("voter@example.com")
	id := env.createPoll(owner, map[string]any{"title": "Q", "options": []string{"A", "B", "C"}})

	rec, resp := env.do(http.MethodPost, "/api/v1/polls/"+id+"/votes", "", map[string]any{"option_index": 0})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication required", *resp.Error)

	rec, resp = env.do(http.MethodPost, "/api/v1/polls/"+id+"/votes", voter, map[string]any{"option_index": 0, "option_id": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid option", *resp.Error)

	rec, _ = env.do(http.MethodPost, "/api/v1/polls/"+id+"/votes", voter, map[string]any{"option_index": 0})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, resp = env.do(http.MethodPost, "/api/v1/polls/"+id+"/votes", voter, map[string]any{"option_index": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already voted", *resp.Error)

	rec, _ = env.do(http.MethodPost, "/api/v1/polls/"+id+"/votes", owner, map[string]any{"option_index": 0})
	require.Equal(t, http.StatusCreated, rec.Code)

	tally := env.tally(id)
	assert.EqualValues(t, 2, tally.Total)
	assert.EqualValues(t, 2, tally.Options[0].Votes)
	assert.Equal(t, 100, tally.Options[0].Percentage)
	assert.Zero(t, tally.Options[2].Votes)

	select {
	case ev := <-env.voteCh:
		assert.Equal(t, id, ev.PollID)
		assert.False(t, ev.Anonymous)
	default:
		t.Fatal("expected a vote event")
	}

	rec, resp = env.do(http.MethodPost, "/api/v1/polls/missing/votes", voter, map[string]any{"option_index": 0})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", resp.Code)

	// the poll lookup comes before option checks
	for _, body := range []map[string]any{{}, {"option_index": 0, "option_id": "x"}} {
		rec, resp = env.do(http.MethodPost, "/api/v1/polls/missing/votes", voter, body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%v", body)
		assert.Equal(t, "not_found", resp.Code)
	}
	rec, resp = env.do(http.MethodPost, "/api/v1/polls/"+id+"/votes", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid option", *resp.Error)
}

func TestAnonymousVoting(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := env.register("owner@example.com")
	id := env.createPoll(owner, map[string]any{
		"title":    "Q",
		"options":  []string{"A", "B"},
		"settings": map[string]any{"require_authentication": false},
	})

	path := "/api/v1/polls/" + id + "/votes"
	rec, _ := env.do(http.MethodPost, path, "", map[string]any{"option_index": 1}, voterHeader, "device-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, resp := env.do(http.MethodPost, path, "", map[string]any{"option_index": 0}, voterHeader, "device-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already voted", *resp.Error)

	rec, _ = env.do(http.MethodPost, path, "", map[string]any{"option_index": 0})
	require.Equal(t, http.StatusCreated, rec.Code)
	var issued *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == voterCookie {
			issued = c
		}
	}
	require.NotNil(t, issued, "first anonymous vote gets a voter cookie")

	rec, _ = env.do(http.MethodPost, path, "", map[string]any{"option_index": 0}, "Cookie", voterCookie+"="+issued.Value)
	assert.Equal(t, http.StatusConflict, rec.Code)

	tally := env.tally(id)
	assert.EqualValues(t, 2, tally.Total)
}

func TestClosedPoll(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := env.register("owner@example.com")

	rec, resp := env.do(http.MethodPost, "/api/v1/polls", owner, map[string]any{
		"title":    "Q",
		"options":  []string{"A", "B"},
		"end_date": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "end date must be in the future", *resp.Error)

	id := env.createPoll(owner, map[string]any{
		"title":    "Q",
		"options":  []string{"A", "B"},
		"end_date": time.Now().Add(150 * time.Millisecond).Format(time.RFC3339Nano),
	})
	time.Sleep(200 * time.Millisecond)

	rec, resp = env.do(http.MethodPost, "/api/v1/polls/"+id+"/votes", owner, map[string]any{"option_index": 0})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "poll closed", *resp.Error)
	assert.Equal(t, poll.StateClosed, env.tally(id).State)
}

func TestVoteRateLimit(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.VoteRatePerMinute = 1
		d.VoteBurst = 1
	})

	rec, _ := env.do(http.MethodPost, "/api/v1/polls/p/votes", "", map[string]any{"option_index": 0})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp := env.do(http.MethodPost, "/api/v1/polls/p/votes", "", map[string]any{"option_index": 0})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", resp.Code)
}

func TestStoreErrorsAreHidden(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := env.register("owner@example.com")
	id := env.createPoll(owner, map[string]any{"title": "Q", "options": []string{"A", "B"}})

	env.gw.SetFault(func(op memory.Op, table string) error {
		return errors.New(`pq: relation "polls" does not exist`)
	})

	rec, resp := env.do(http.MethodGet, "/api/v1/polls/"+id, "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "store_error", resp.Code)
	assert.Equal(t, "storage unavailable", *resp.Error)
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestLocalAuthRoutesDisabledWithoutTokens(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Tokens = nil })
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
