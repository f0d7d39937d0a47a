package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pollhub/internal/domain/poll"
	"pollhub/internal/domain/vote"
	"pollhub/internal/platform/apperr"
	"pollhub/internal/worker"
)

// voteRequest names the option by id or by zero-based index, not both.
type voteRequest struct {
	OptionID    *string `json:"option_id"`
	OptionIndex *int    `json:"option_index"`
}

// ref returns the zero OptionRef, which matches no option, unless exactly
// one of the fields is set.
func (v voteRequest) ref() poll.OptionRef {
	switch {
	case v.OptionID != nil && v.OptionIndex == nil:
		return poll.ByID(*v.OptionID)
	case v.OptionIndex != nil && v.OptionID == nil:
		return poll.ByIndex(*v.OptionIndex)
	}
	return poll.OptionRef{}
}

// @Summary     Vote for an option
// @Description Anonymous voters are identified by the X-Voter-Token header or the voter_id cookie.
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id             path      string       true   "Poll ID"
// @Param       X-Voter-Token  header    string       false  "Anonymous voter fingerprint"
// @Param       request        body      voteRequest  true   "Vote payload"
// @Success     201            {object}  idResponse
// @Failure     400            {object}  envelope  "invalid option"
// @Failure     401            {object}  envelope  "authentication required"
// @Failure     404            {object}  envelope  "poll not found"
// @Failure     409            {object}  envelope  "poll closed or already voted"
// @Failure     429            {object}  envelope  "rate limited"
// @Failure     500            {object}  envelope  "storage unavailable"
// @Router      /api/v1/polls/{id}/votes [post]
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "id")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.Validation("invalid body", err))
		return
	}
	actor := actorFromCtx(r)
	err := h.voteSvc.Submit(r.Context(), vote.Ballot{
		PollID:   pollID,
		Option:   req.ref(),
		Voter:    actor,
		VoterKey: voterKeyFromCtx(r),
	})
	if err != nil {
		errorResponse(w, err)
		return
	}

	if h.voteCh != nil {
		ev := worker.VoteEvent{PollID: pollID, Anonymous: actor == nil}
		if req.OptionID != nil {
			ev.OptionID = *req.OptionID
		}
		if !worker.Publish(h.voteCh, ev) {
			slogLogger.Warn("vote event dropped", "poll_id", pollID)
		}
	}

	writeData(w, http.StatusCreated, idResponse{ID: pollID})
}

// @Summary     Poll results
// @Tags        votes
// @Produce     json
// @Param       id   path      string  true  "Poll ID"
// @Success     200  {object}  vote.Tally
// @Failure     404  {object}  envelope  "poll not found"
// @Failure     500  {object}  envelope  "storage unavailable"
// @Router      /api/v1/polls/{id}/results [get]
func (h *Handler) handlePollResults(w http.ResponseWriter, r *http.Request) {
	tally, err := h.voteSvc.Tally(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeData(w, http.StatusOK, tally)
}
