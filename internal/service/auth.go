// Package service holds the credential and session manager.  It owns password
// hashing, session tokens, federated login and the password reset flow, and
// talks to storage, the identity issuer and the mail relay only through the
// interfaces declared here.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/guru-1432/workout-app/internal/model"
	"github.com/guru-1432/workout-app/internal/repository"
	"github.com/guru-1432/workout-app/internal/utils"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("incorrect username or password")
	ErrUnauthenticated       = errors.New("could not validate credentials")
	ErrInvalidFederatedToken = errors.New("invalid federated token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUpstream              = errors.New("upstream service failed")
)

// UserStore is the persistence the auth module needs.  *repository.UserRepo
// satisfies it.
type UserStore interface {
	Create(ctx context.Context, email string, passwordHash sql.NullString) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetResetToken(ctx context.Context, userID uint64, tokenHash string, issuedAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, notBefore time.Time) (model.User, error)
}

// IdentityVerifier checks an identity token from an external issuer and
// returns the verified email address it asserts.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Mailer delivers the password reset link.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// AuthConfig carries the secrets and lifetimes used by Auth.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	BcryptCost    int
	ResetTokenTTL time.Duration // zero disables expiry
	ResetURL      string        // page receiving ?token=<raw>
}

type AuthOption func(*Auth)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) AuthOption {
	return func(a *Auth) { a.now = now }
}

// Auth is the credential and session manager.
type Auth struct {
	cfg      AuthConfig
	users    UserStore
	identity IdentityVerifier
	mailer   Mailer
	now      func() time.Time
}

// NewAuth builds an Auth.  identity and mailer may be nil, in which case
// federated login and reset mail fail cleanly.
func NewAuth(cfg AuthConfig, users UserStore, identity IdentityVerifier, mailer Mailer, opts ...AuthOption) *Auth {
	a := &Auth{
		cfg:      cfg,
		users:    users,
		identity: identity,
		mailer:   mailer,
		now:      time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Register creates a password account.  The email is normalised and must be
// a plain address; the password must be non-empty.
func (a *Auth) Register(ctx context.Context, email, password string) (model.User, error) {
	email, err := normaliseEmail(email)
	if err != nil {
		return model.User{}, err
	}
	if password == "" {
		return model.User{}, fmt.Errorf("%w: password required", ErrValidation)
	}

	hash, err := utils.HashPassword(password, a.cfg.BcryptCost)
	if err != nil {
		if utils.IsHashTooLong(err) {
			return model.User{}, fmt.Errorf("%w: password too long", ErrValidation)
		}
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := a.users.Create(ctx, email, sql.NullString{String: hash, Valid: true})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	log.WithField("user_id", u.ID).Info("auth: user registered")
	return u, nil
}

// VerifyCredentials checks an email/password pair.  Every failure mode
// returns ErrInvalidCredentials and costs one bcrypt comparison.
func (a *Auth) VerifyCredentials(ctx context.Context, email, password string) (model.User, error) {
	u, err := a.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		utils.BurnPasswordCheck(password)
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !u.HasPassword() {
		utils.BurnPasswordCheck(password)
		return model.User{}, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(u.PasswordHash.String, password) || !u.IsActive {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// IssueSessionToken signs a bearer token for u valid for TokenTTL.
func (a *Auth) IssueSessionToken(u model.User) (utils.AccessToken, error) {
	return utils.NewAccessToken(a.cfg.JWTSecret, u.ID, u.Email, a.cfg.TokenTTL, a.now())
}

// ResolveSessionToken maps a bearer token back to its active user.
func (a *Auth) ResolveSessionToken(ctx context.Context, token string) (model.User, error) {
	claims, err := utils.ParseAccessToken(a.cfg.JWTSecret, token, a.now())
	if err != nil {
		log.WithError(err).Debug("auth: session token rejected")
		return model.User{}, ErrUnauthenticated
	}
	u, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, ErrUnauthenticated
		}
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !u.IsActive {
		return model.User{}, ErrUnauthenticated
	}
	return u, nil
}

// FederatedLogin verifies an identity token and returns the user holding the
// asserted email, creating a password-less account on first login.
func (a *Auth) FederatedLogin(ctx context.Context, identityToken string) (model.User, error) {
	if a.identity == nil || strings.TrimSpace(identityToken) == "" {
		return model.User{}, ErrInvalidFederatedToken
	}
	email, err := a.identity.Verify(ctx, identityToken)
	if err != nil {
		log.WithError(err).Warn("auth: federated token verification failed")
		return model.User{}, ErrInvalidFederatedToken
	}
	email, err = normaliseEmail(email)
	if err != nil {
		return model.User{}, ErrInvalidFederatedToken
	}

	u, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		u, err = a.users.Create(ctx, email, sql.NullString{})
		if errors.Is(err, repository.ErrEmailExists) {
			// lost a race with a concurrent first login
			u, err = a.users.GetByEmail(ctx, email)
		} else if err == nil {
			log.WithField("user_id", u.ID).Info("auth: federated user created")
		}
	}
	if err != nil {
		return model.User{}, fmt.Errorf("federated user: %w", err)
	}
	if !u.IsActive {
		return model.User{}, ErrInvalidFederatedToken
	}
	return u, nil
}

// IssuePasswordResetToken creates a new reset token for u and returns the raw
// value.  Any token issued earlier stops working.
func (a *Auth) IssuePasswordResetToken(ctx context.Context, u model.User) (string, error) {
	raw, err := utils.NewResetToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	if err := a.users.SetResetToken(ctx, u.ID, utils.HashToken(raw), a.now().UTC()); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return raw, nil
}

// RequestPasswordReset mails a reset link to email.  Unknown addresses are
// silently ignored so callers cannot probe for accounts.  Without a mailer
// every address fails the same way.
func (a *Auth) RequestPasswordReset(ctx context.Context, email string) error {
	if a.mailer == nil {
		return fmt.Errorf("%w: mail not configured", ErrUpstream)
	}

	u, err := a.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !u.IsActive {
		return nil
	}

	raw, err := a.IssuePasswordResetToken(ctx, u)
	if err != nil {
		return err
	}
	if err := a.mailer.SendPasswordReset(ctx, u.Email, a.resetLink(raw)); err != nil {
		log.WithError(err).WithField("user_id", u.ID).Error("auth: reset mail failed")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	log.WithField("user_id", u.ID).Info("auth: reset mail sent")
	return nil
}

// ConsumePasswordResetToken sets a new password for the holder of token and
// invalidates the token.
func (a *Auth) ConsumePasswordResetToken(ctx context.Context, token, newPassword string) (model.User, error) {
	if newPassword == "" {
		return model.User{}, fmt.Errorf("%w: new password required", ErrValidation)
	}
	if token == "" {
		return model.User{}, ErrInvalidOrExpiredToken
	}
	hash, err := utils.HashPassword(newPassword, a.cfg.BcryptCost)
	if err != nil {
		if utils.IsHashTooLong(err) {
			return model.User{}, fmt.Errorf("%w: password too long", ErrValidation)
		}
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	var notBefore time.Time
	if a.cfg.ResetTokenTTL > 0 {
		notBefore = a.now().UTC().Add(-a.cfg.ResetTokenTTL)
	}
	u, err := a.users.ConsumeResetToken(ctx, utils.HashToken(token), hash, notBefore)
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenInvalid) {
			return model.User{}, ErrInvalidOrExpiredToken
		}
		return model.User{}, fmt.Errorf("consume reset token: %w", err)
	}
	log.WithField("user_id", u.ID).Info("auth: password reset")
	return u, nil
}

func (a *Auth) resetLink(raw string) string {
	return a.cfg.ResetURL + "?token=" + url.QueryEscape(raw)
}

func normaliseEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return email, nil
}
