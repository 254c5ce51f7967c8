package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/opentally/tasklist/internal/tasklist/domain"
	"github.com/opentally/tasklist/internal/tasklist/store"
	"github.com/opentally/tasklist/pkg/cryptox"
	"github.com/opentally/tasklist/pkg/idx"
	"github.com/opentally/tasklist/pkg/jwtx"
	"github.com/opentally/tasklist/pkg/slogx"
)

// DefaultMinPasswordLen applies when the service is configured with a zero
// minimum.
const DefaultMinPasswordLen = 6

var (
	// ErrValidation reports malformed signup input. Nothing was persisted.
	ErrValidation = errors.New("service: invalid input")

	// ErrDuplicateEmail reports a signup for an already-registered email.
	ErrDuplicateEmail = errors.New("service: email already registered")

	// ErrInvalidCredentials reports a failed login. Unknown email and wrong
	// password both map here; callers must not be able to probe which
	// emails are registered.
	ErrInvalidCredentials = errors.New("service: invalid credentials")

	// ErrInvalidToken reports a token that failed verification for any
	// reason: bad signature, wrong purpose, unknown subject, or a token
	// that was logged out. The causes are unified on purpose.
	ErrInvalidToken = errors.New("service: invalid token")

	// ErrStoreUnavailable reports a persistence fault. Retryable, and never
	// conflated with a credential or token rejection.
	ErrStoreUnavailable = errors.New("service: store unavailable")
)

// dummyHash is a bcrypt hash of an unguessable throwaway value. Login burns
// a verification against it when the email is unknown so both failure paths
// cost roughly the same.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService owns signup, login, token verification and logout. A session
// token is only accepted when its signature verifies and the exact token is
// still recorded on the user, so logout is effective immediately even though
// the signature stays cryptographically valid.
type AuthService struct {
	Store store.Store
	Codec *jwtx.Codec

	// BcryptCost defaults to cryptox.DefaultCost when zero.
	BcryptCost int
	// MinPasswordLen defaults to DefaultMinPasswordLen when zero.
	MinPasswordLen int
}

// Signup validates the input, then creates the user and its first session
// in one transaction. Validation failures leave no partial state behind.
func (s *AuthService) Signup(ctx context.Context, email, password string) (domain.User, string, error) {
	l := slogx.FromContext(ctx)

	if err := s.validateSignup(email, password); err != nil {
		return domain.User{}, "", err
	}

	cost := s.BcryptCost
	if cost == 0 {
		cost = cryptox.DefaultCost
	}
	hash, err := cryptox.HashPasswordCost(password, cost)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	token, err := s.Codec.Issue(user.ID, jwtx.PurposeAuth)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.SessionTokens().Add(ctx, domain.SessionToken{
			UserID:    user.ID,
			Token:     token,
			Purpose:   jwtx.PurposeAuth,
			CreatedAt: now,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, "", ErrDuplicateEmail
		}
		return domain.User{}, "", storeFault(err)
	}

	l.Info("user signed up", "user_id", user.ID)
	return user, token, nil
}

// Login verifies the credentials and appends a fresh session token. Earlier
// sessions stay valid, so each device holds its own token.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a compare anyway; see dummyHash.
			_ = cryptox.VerifyPassword(password, dummyHash)
			return domain.User{}, "", ErrInvalidCredentials
		}
		return domain.User{}, "", storeFault(err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login rejected", "user_id", user.ID)
		return domain.User{}, "", ErrInvalidCredentials
	}

	token, err := s.Codec.Issue(user.ID, jwtx.PurposeAuth)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	if err := s.Store.SessionTokens().Add(ctx, domain.SessionToken{
		UserID:    user.ID,
		Token:     token,
		Purpose:   jwtx.PurposeAuth,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return domain.User{}, "", storeFault(err)
	}

	return user, token, nil
}

// Verify resolves a session token to its user. The token must decode, carry
// the auth purpose, name an existing user, and still be present in that
// user's session list. All rejections surface as ErrInvalidToken.
func (s *AuthService) Verify(ctx context.Context, token string) (domain.User, error) {
	subject, purpose, err := s.Codec.Decode(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if purpose != jwtx.PurposeAuth {
		return domain.User{}, fmt.Errorf("%w: wrong purpose", ErrInvalidToken)
	}

	user, err := s.Store.Users().GetUserByID(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
		}
		return domain.User{}, storeFault(err)
	}

	ok, err := s.Store.SessionTokens().Has(ctx, user.ID, token)
	if err != nil {
		return domain.User{}, storeFault(err)
	}
	if !ok {
		return domain.User{}, fmt.Errorf("%w: session revoked", ErrInvalidToken)
	}

	return user, nil
}

// Logout removes the token from the user's session list. Removing a token
// that is already gone succeeds.
func (s *AuthService) Logout(ctx context.Context, userID, token string) error {
	if err := s.Store.SessionTokens().Remove(ctx, userID, token); err != nil {
		return storeFault(err)
	}
	return nil
}

func (s *AuthService) validateSignup(email, password string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: malformed email", ErrValidation)
	}

	minLen := s.MinPasswordLen
	if minLen == 0 {
		minLen = DefaultMinPasswordLen
	}
	if len(password) < minLen {
		return fmt.Errorf("%w: password shorter than %d characters", ErrValidation, minLen)
	}
	return nil
}

func storeFault(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
