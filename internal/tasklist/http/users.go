package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opentally/tasklist/internal/tasklist/service"
	"github.com/opentally/tasklist/pkg/httpx"
	"github.com/opentally/tasklist/pkg/slogx"
)

type UsersHandler struct {
	AuthService *service.AuthService
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup creates an account and starts its first session. The issued
// token travels in the X-Auth response header, never the body; the body is
// the user representation with the password hash stripped.
func (h *UsersHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	user, token, err := h.AuthService.Signup(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email or password failed validation")
		case errors.Is(err, service.ErrDuplicateEmail):
			httpx.WriteError(w, http.StatusBadRequest, "duplicate_email", "email is already registered")
		case errors.Is(err, service.ErrStoreUnavailable):
			log.Error("signup store fault", "err", err)
			httpx.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "try again later")
		default:
			log.Error("signup failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "failed to create user")
		}
		return
	}

	httpx.NoCache(w)
	w.Header().Set(AuthHeader, token)
	httpx.WriteJSON(w, http.StatusCreated, user)
}

// HandleMe echoes the authenticated identity.
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := identityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, user)
}
