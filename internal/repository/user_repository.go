package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/guru-1432/workout-app/internal/model"
)

var (
	ErrEmailExists  = errors.New("email already exists")
	ErrUserNotFound = errors.New("user not found")
	// ErrResetTokenInvalid covers unknown, already consumed and expired reset
	// tokens alike.
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
)

const userColumns = `id, email, password_hash, is_active, reset_token_hash, reset_token_issued_at, created_at, updated_at`

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns the stored row.  passwordHash is NULL for
// federated accounts.
func (r *UserRepo) Create(ctx context.Context, email string, passwordHash sql.NullString) (model.User, error) {
	email = normalizeEmail(email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash) VALUES (?,?)",
		email, passwordHash)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1",
		id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// SetResetToken stores the hash of a freshly issued reset token, replacing
// any token that was still outstanding for the user.
func (r *UserRepo) SetResetToken(ctx context.Context, userID uint64, tokenHash string, issuedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=?, reset_token_issued_at=? WHERE id=?",
		tokenHash, issuedAt.UTC(), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ConsumeResetToken swaps the password of the user holding tokenHash and
// clears the token in the same transaction.  The row is locked while it is
// checked, so two concurrent consumers cannot both succeed.  Tokens issued
// before notBefore are treated as expired and cleared.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, notBefore time.Time) (u model.User, err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE reset_token_hash=? LIMIT 1 FOR UPDATE",
		tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrResetTokenInvalid
	}
	if err != nil {
		return model.User{}, err
	}

	if !u.ResetTokenIssuedAt.Valid || u.ResetTokenIssuedAt.Time.Before(notBefore) {
		if _, err = tx.ExecContext(ctx,
			"UPDATE users SET reset_token_hash=NULL, reset_token_issued_at=NULL WHERE id=?",
			u.ID); err != nil {
			return model.User{}, err
		}
		if err = tx.Commit(); err != nil {
			return model.User{}, err
		}
		return model.User{}, ErrResetTokenInvalid
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE users SET password_hash=?, reset_token_hash=NULL, reset_token_issued_at=NULL WHERE id=?",
		newPasswordHash, u.ID); err != nil {
		return model.User{}, err
	}
	if err = tx.Commit(); err != nil {
		return model.User{}, err
	}

	u.PasswordHash = sql.NullString{String: newPasswordHash, Valid: true}
	u.ResetTokenHash = sql.NullString{}
	u.ResetTokenIssuedAt = sql.NullTime{}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
