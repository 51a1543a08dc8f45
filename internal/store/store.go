package store

import (
	"context"
	"errors"
	"time"

	"github.com/adlume/authd/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep the surface tidy and make it obvious
// which operations belong together in a transaction.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	ResetTokens() ResetTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit() or Rollback() the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rolled back when fn errors,
	// committed otherwise. Preferred over Tx for multi-step operations that
	// must be atomic, like replace-then-insert token issuance.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store view with Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login and reset requests.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used for registration uniqueness checks.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists if username or email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// SetUserEnabled flips the account's enabled flag (admin lockout).
	SetUserEnabled(ctx context.Context, userID string, enabled bool) error

	// DeleteUser cascades to both token tables (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the record for a token fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes a single record by fingerprint.
	DeleteRefreshToken(ctx context.Context, hash string) error

	// DeleteAllForUser removes every refresh token for a user. Run inside a
	// transaction together with CreateRefreshToken to keep the
	// one-active-token-per-user invariant under concurrent logins.
	DeleteAllForUser(ctx context.Context, userID string) error

	// RevokeAllForUser flips revoked=1 for a user's tokens. Idempotent.
	RevokeAllForUser(ctx context.Context, userID string) error

	// DeleteExpired removes records whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) error
}

type ResetTokens interface {
	// CreateResetToken stores a new password-reset token record.
	CreateResetToken(ctx context.Context, t domain.PasswordResetToken) error

	// GetResetTokenByHash returns the record for a token fingerprint.
	GetResetTokenByHash(ctx context.Context, hash string) (domain.PasswordResetToken, error)

	// DeleteResetToken removes a single record by fingerprint.
	DeleteResetToken(ctx context.Context, hash string) error

	// DeleteAllForUser removes every reset token for a user, closing the
	// single-use window when one of them is consumed.
	DeleteAllForUser(ctx context.Context, userID string) error

	// DeleteExpired removes records whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) error
}
