package api

import (
	"net/http"

	"pollhub/internal/platform/apperr"
)

// @Summary     Current identity
// @Tags        users
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  user.Actor
// @Failure     401  {object}  envelope  "unauthorized"
// @Router      /api/v1/me [get]
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := actorFromCtx(r)
	if actor == nil {
		errorResponse(w, apperr.Unauthorized(apperr.CodeUnauthorized, "authentication required", nil))
		return
	}
	writeData(w, http.StatusOK, actor)
}

// @Summary     Polls owned by the caller
// @Tags        polls
// @Security    BearerAuth
// @Produce     json
// @Success     200  {array}   poll.Poll
// @Failure     500  {object}  envelope  "storage unavailable"
// @Router      /api/v1/me/polls [get]
func (h *Handler) handleListMyPolls(w http.ResponseWriter, r *http.Request) {
	var userID string
	if actor := actorFromCtx(r); actor != nil {
		userID = actor.ID
	}

	polls, err := h.pollSvc.ListByOwner(r.Context(), userID)
	if err != nil {
		errorResponse(w, err)
		return
	}

	now := h.pollSvc.Now()
	out := make([]pollResponse, 0, len(polls))
	for i := range polls {
		out = append(out, newPollResponse(&polls[i], now))
	}
	writeData(w, http.StatusOK, out)
}
