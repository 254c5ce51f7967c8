package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opentally/tasklist/internal/tasklist/service"
	"github.com/opentally/tasklist/pkg/httpx"
	"github.com/opentally/tasklist/pkg/slogx"
)

type SessionsHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and opens a new session alongside any
// existing ones. The response shape mirrors signup: token in the X-Auth
// header, sanitized user in the body.
func (h *SessionsHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	user, token, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			// One response for unknown email and wrong password.
			httpx.WriteError(w, http.StatusBadRequest, "invalid_credentials", "email or password is incorrect")
		case errors.Is(err, service.ErrStoreUnavailable):
			log.Error("login store fault", "err", err)
			httpx.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "try again later")
		default:
			log.Error("login failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "failed to log in")
		}
		return
	}

	httpx.NoCache(w)
	w.Header().Set(AuthHeader, token)
	httpx.WriteJSON(w, http.StatusOK, user)
}

// HandleLogout revokes the session the request authenticated with. The
// token's signature stays valid; it simply stops being accepted.
func (h *SessionsHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := identityFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.AuthService.Logout(ctx, user.ID, tokenFromRequest(r)); err != nil {
		log.Error("logout store fault", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "try again later")
		return
	}

	w.WriteHeader(http.StatusOK)
}
