package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pollhub/internal/domain/poll"
	"pollhub/internal/metrics"
	"pollhub/internal/platform/apperr"
)

type settingsRequest struct {
	AllowMultipleVotes    *bool `json:"allow_multiple_votes"`
	RequireAuthentication *bool `json:"require_authentication"`
}

func (s *settingsRequest) apply(base poll.Settings) poll.Settings {
	if s.AllowMultipleVotes != nil {
		base.AllowMultipleVotes = *s.AllowMultipleVotes
	}
	if s.RequireAuthentication != nil {
		base.RequireAuthentication = *s.RequireAuthentication
	}
	return base
}

// Options stay untyped here; the poll service rejects non-text entries.
type createPollRequest struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Options     []any            `json:"options"`
	EndDate     *time.Time       `json:"end_date"`
	Settings    *settingsRequest `json:"settings"`
}

type updatePollRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Options     []any            `json:"options"`
	EndDate     *time.Time       `json:"end_date"`
	Settings    *settingsRequest `json:"settings"`
}

type pollResponse struct {
	*poll.Poll
	State poll.State `json:"state"`
}

func newPollResponse(p *poll.Poll, now time.Time) pollResponse {
	return pollResponse{Poll: p, State: p.StateAt(now)}
}

type idResponse struct {
	ID string `json:"id"`
}

// @Summary     Create poll
// @Tags        polls
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      createPollRequest  true  "Poll"
// @Success     201      {object}  idResponse
// @Failure     400      {object}  envelope  "validation_error"
// @Failure     401      {object}  envelope  "unauthorized"
// @Failure     500      {object}  envelope  "storage unavailable"
// @Router      /api/v1/polls [post]
func (h *Handler) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.Validation("invalid body", err))
		return
	}

	settings := poll.DefaultSettings()
	if req.Settings != nil {
		settings = req.Settings.apply(settings)
	}

	id, err := h.pollSvc.Create(r.Context(), poll.Input{
		Title:       req.Title,
		Description: req.Description,
		Options:     req.Options,
		EndDate:     req.EndDate,
		Settings:    settings,
	}, actorFromCtx(r))
	if err != nil {
		errorResponse(w, err)
		return
	}

	metrics.IncPollCreated()
	writeData(w, http.StatusCreated, idResponse{ID: id})
}

// @Summary     Get poll
// @Tags        polls
// @Produce     json
// @Param       id   path      string  true  "Poll ID"
// @Success     200  {object}  pollResponse
// @Failure     404  {object}  envelope  "poll not found"
// @Router      /api/v1/polls/{id} [get]
func (h *Handler) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	p, err := h.pollSvc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeData(w, http.StatusOK, newPollResponse(p, h.pollSvc.Now()))
}

// @Summary     Update poll
// @Tags        polls
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      string             true  "Poll ID"
// @Param       request  body      updatePollRequest  true  "Fields to change"
// @Success     200      {object}  pollResponse
// @Failure     400      {object}  envelope  "validation_error"
// @Failure     401      {object}  envelope  "unauthorized"
// @Failure     403      {object}  envelope  "forbidden"
// @Failure     404      {object}  envelope  "poll not found"
// @Router      /api/v1/polls/{id} [patch]
func (h *Handler) handleUpdatePoll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.Validation("invalid body", err))
		return
	}

	changes := poll.Changes{
		Title:       req.Title,
		Description: req.Description,
		Options:     req.Options,
		EndDate:     req.EndDate,
	}
	if req.Settings != nil {
		changes.AllowMultipleVotes = req.Settings.AllowMultipleVotes
		changes.RequireAuthentication = req.Settings.RequireAuthentication
	}

	if err := h.pollSvc.Update(r.Context(), id, changes, actorFromCtx(r)); err != nil {
		errorResponse(w, err)
		return
	}

	p, err := h.pollSvc.GetByID(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeData(w, http.StatusOK, newPollResponse(p, h.pollSvc.Now()))
}

// @Summary     Delete poll
// @Description Succeeds without effect when the poll is missing or owned by someone else.
// @Tags        polls
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      string  true  "Poll ID"
// @Success     200  {object}  idResponse
// @Failure     401  {object}  envelope  "unauthorized"
// @Router      /api/v1/polls/{id} [delete]
func (h *Handler) handleDeletePoll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.pollSvc.Delete(r.Context(), id, actorFromCtx(r)); err != nil {
		errorResponse(w, err)
		return
	}
	writeData(w, http.StatusOK, idResponse{ID: id})
}
