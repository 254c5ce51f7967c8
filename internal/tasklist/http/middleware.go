package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/opentally/tasklist/internal/tasklist/domain"
	"github.com/opentally/tasklist/internal/tasklist/service"
	"github.com/opentally/tasklist/pkg/httpx"
	"github.com/opentally/tasklist/pkg/slogx"
)

// AuthHeader is the request header carrying the session token, and the
// response header carrying a freshly issued one.
const AuthHeader = "X-Auth"

// AuthnMiddleware resolves the X-Auth token to a user and attaches the
// identity to the request context. A missing header or failed verification
// rejects the request with 401 and an empty body; a persistence fault is a
// 503 so clients can tell "retry later" apart from "re-authenticate".
func AuthnMiddleware(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			token := r.Header.Get(AuthHeader)
			if token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			user, err := auth.Verify(ctx, token)
			if err != nil {
				if errors.Is(err, service.ErrStoreUnavailable) {
					log.Error("authn store fault", "err", err)
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				log.Info("authn rejected", "err", err)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, httpx.CtxKeyUserID, user.ID)
			ctx = context.WithValue(ctx, httpx.CtxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFromContext returns the user attached by AuthnMiddleware.
func identityFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(httpx.CtxKeyUser).(domain.User)
	return user, ok
}

// tokenFromRequest returns the raw session token the request authenticated
// with. Logout needs it to know which session to revoke.
func tokenFromRequest(r *http.Request) string {
	return r.Header.Get(AuthHeader)
}
