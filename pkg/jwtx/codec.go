package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/opentally/tasklist/pkg/idx"

	"github.com/golang-jwt/jwt/v5"
)

// PurposeAuth is the token purpose minted for login sessions. Tokens carrying
// any other purpose must not be accepted as proof of identity.
const PurposeAuth = "auth"

var (
	// ErrInvalidToken covers every decode failure: malformed compact form,
	// signature mismatch, expired token, or missing claims. Callers get a
	// single error so rejection reasons never leak to the outside.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	// ErrNoSecret reports a Codec constructed without key material.
	ErrNoSecret = errors.New("jwtx: signing secret must not be empty")
)

// SessionClaims is the payload signed into a session token: the subject
// (user id) from the registered claims plus a purpose discriminator so a
// token minted for one use can't be replayed for another.
type SessionClaims struct {
	jwt.RegisteredClaims

	Purpose string `json:"purpose"`
}

// Codec signs and verifies compact session tokens with a process-wide HMAC
// secret. The payload is readable by anyone holding a token (it is encoding,
// not encryption) but cannot be forged or altered without the secret; the
// HMAC comparison inside the JWT library is constant-time.
//
// The secret is injected explicitly so tests can pin a fixed key.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithTTL sets a token lifetime. The zero duration (the default) issues
// non-expiring tokens; revocation then rests entirely on the session list.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) { c.ttl = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a Codec around the given HMAC secret.
func NewCodec(secret []byte, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}

	c := &Codec{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token binding subjectID to the given purpose. Every call
// mints a distinct token: iat has whole-second resolution, so without a
// unique jti two issuances inside one second would be byte-identical and
// collide in the session list.
func (c *Codec) Issue(subjectID, purpose string) (string, error) {
	now := c.now().UTC()

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       idx.New().String(),
			Subject:  subjectID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Purpose: purpose,
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign token: %w", err)
	}
	return token, nil
}

// Decode verifies the signature and returns the embedded subject and purpose.
// It is a purely cryptographic check and consults no store; callers own the
// revocation-list lookup.
func (c *Codec) Decode(token string) (subjectID, purpose string, err error) {
	var claims SessionClaims
	_, err = jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, claims.Purpose, nil
}
