package api

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"pollhub/internal/domain/poll"
	"pollhub/internal/domain/user"
	"pollhub/internal/domain/vote"
	"pollhub/internal/platform/apperr"
)

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		slogLogger.Error("request failed", "code", appErr.Code, "error", appErr.Unwrap())
	}
	msg := appErr.Message
	writeJSON(w, appErr.StatusCode(), envelope{Error: &msg, Code: appErr.Code})
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal(apperr.CodeInternal, "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return apperr.Unauthorized(apperr.CodeUnauthorized, "invalid credentials", err)
	case errors.Is(err, user.ErrEmailTaken):
		return apperr.Conflict(apperr.CodeConflict, "email already taken", err)
	case errors.Is(err, poll.ErrNotFound):
		return apperr.NotFound(apperr.CodeNotFound, "poll not found", err)
	case errors.Is(err, vote.ErrDuplicateVote):
		return apperr.Conflict(apperr.CodeConflict, "already voted", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Unauthorized(apperr.CodeUnauthorized, "token expired", err)
	default:
		return apperr.Internal(apperr.CodeInternal, http.StatusText(http.StatusInternalServerError), err)
	}
}
