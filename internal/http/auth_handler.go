package api

import (
	"encoding/json"
	"net/http"

	"pollhub/internal/domain/user"
	"pollhub/internal/platform/apperr"
)

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

// @Summary     Register a local account
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request  body      authRequest   true  "Credentials"
// @Success     201      {object}  authResponse
// @Failure     400      {object}  envelope  "validation_error"
// @Failure     409      {object}  envelope  "email already taken"
// @Router      /api/v1/auth/register [post]
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.Validation("invalid body", err))
		return
	}

	u, err := h.userSvc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		errorResponse(w, err)
		return
	}

	h.writeSession(w, http.StatusCreated, u)
}

// @Summary     Log in with a local account
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request  body      authRequest   true  "Credentials"
// @Success     200      {object}  authResponse
// @Failure     401      {object}  envelope  "invalid credentials"
// @Router      /api/v1/auth/login [post]
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.Validation("invalid body", err))
		return
	}

	u, err := h.userSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		errorResponse(w, err)
		return
	}

	h.writeSession(w, http.StatusOK, u)
}

func (h *Handler) writeSession(w http.ResponseWriter, status int, u *user.User) {
	token, err := h.jwtMgr.Generate(u.Actor(), h.tokenTTL)
	if err != nil {
		errorResponse(w, apperr.Internal(apperr.CodeInternal, "could not issue token", err))
		return
	}
	writeData(w, status, authResponse{User: u, Token: token})
}
