package store

import (
	"context"
	"errors"
	"time"

	"github.com/opentally/tasklist/internal/tasklist/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this; it exposes sub-repositories to keep concerns separated
// and individually mockable.
type Store interface {
	Users() Users
	SessionTokens() SessionTokens
	Tasks() Tasks

	// ApplyMigrations brings the schema up to date from the embedded
	// migration files. Called once at startup.
	ApplyMigrations() error

	// WithTx executes fn within a transaction: rolled back when fn returns
	// an error, committed otherwise. Used for multi-step writes that must
	// land together (signup creates the user and its first session token).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping verifies the database is reachable, for readiness probes.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id assigned by the caller via ULID).
	// Returns ErrAlreadyExists when the email is already registered; the
	// uniqueness check rides on the email unique index, so concurrent
	// signups for the same address cannot both succeed.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

type SessionTokens interface {
	// Add appends one session token for a user. This is a single-row
	// insert, never read-modify-write, so concurrent logins for the same
	// user cannot lose each other's tokens.
	Add(ctx context.Context, t domain.SessionToken) error

	// Remove deletes a token by value. Removing an absent token is a
	// no-op, which makes logout idempotent.
	Remove(ctx context.Context, userID, token string) error

	// Has reports whether the exact token is recorded for the user. This
	// is the revocation membership check and is an indexed lookup on the
	// (user_id, token) key, not a scan.
	Has(ctx context.Context, userID, token string) (bool, error)

	// ListByUser returns a user's tokens in issuance order.
	ListByUser(ctx context.Context, userID string) ([]domain.SessionToken, error)

	// DeleteCreatedBefore removes every session row issued before cutoff,
	// across all users, and reports how many were deleted. Housekeeping
	// uses it to drop rows whose tokens have already expired.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Tasks interface {
	CreateTask(ctx context.Context, t domain.Task) error

	// GetTaskByID fetches a task owned by creatorID. A task belonging to
	// someone else is ErrNotFound, not a permission error, so ids don't
	// leak across accounts.
	GetTaskByID(ctx context.Context, creatorID, id string) (domain.Task, error)

	// ListTasksByCreator returns the user's tasks, oldest first.
	ListTasksByCreator(ctx context.Context, creatorID string) ([]domain.Task, error)

	// UpdateTask persists text/completed/completed_at and bumps updated_at.
	UpdateTask(ctx context.Context, t domain.Task) error

	DeleteTask(ctx context.Context, creatorID, id string) error
}
