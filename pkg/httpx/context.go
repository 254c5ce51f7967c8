package httpx

import "context"

type ctxKey string

const (
	// CtxKeyUserID holds the authenticated user's id (string).
	CtxKeyUserID ctxKey = "user_id"
	// CtxKeyUser holds the full resolved identity for handlers that need
	// more than the id. Stored as the caller's own user type.
	CtxKeyUser ctxKey = "user"
)

// UserIDFromContext extracts the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(string)
	return id, ok && id != ""
}
