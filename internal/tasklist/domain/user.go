package domain

import "time"

// User is an account record. PasswordHash is a bcrypt-encoded value and is
// never serialized into responses.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionToken is one concurrently-valid session for a user. The raw token
// string doubles as the revocation handle: a signed token that is absent
// from the user's session rows is rejected even though its signature still
// verifies.
type SessionToken struct {
	UserID    string
	Token     string
	Purpose   string
	CreatedAt time.Time
}
