package handler

import (
	"context"
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/guru-1432/workout-app/internal/metrics"
	"github.com/guru-1432/workout-app/internal/model"
	"github.com/guru-1432/workout-app/internal/utils" // token types
)

// Authenticator is the part of service.Auth the HTTP layer uses.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (model.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (model.User, error)
	IssueSessionToken(u model.User) (utils.AccessToken, error)
	FederatedLogin(ctx context.Context, identityToken string) (model.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConsumePasswordResetToken(ctx context.Context, token, newPassword string) (model.User, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth    Authenticator
	Metrics *metrics.Manager
}

func NewAuthHandler(a Authenticator, m *metrics.Manager) *AuthHandler {
	return &AuthHandler{Auth: a, Metrics: m}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type federatedReq struct {
	Token string `json:"token"`
}
type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
type meResp struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

const forgotPasswordMsg = "If the email is registered, a password reset link has been sent"

// Register: create user and return a session token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	h.Metrics.CounterRegistrations.Inc()
	return h.issue(c, u, "register")
}

// Token: OAuth2 password flow.  The form field "username" carries the email.
func (h *AuthHandler) Token(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if email == "" || password == "" {
		return badRequest(c, "username and password required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Auth.VerifyCredentials(ctx, email, password)
	if err != nil {
		return respondError(c, err)
	}
	return h.issue(c, u, "password")
}

// Federated: exchange an identity issuer token for a session token.
func (h *AuthHandler) Federated(c echo.Context) error {
	var req federatedReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	// verification may fetch signing keys, so it is not bound by dbTimeout
	u, err := h.Auth.FederatedLogin(c.Request().Context(), req.Token)
	if err != nil {
		return respondError(c, err)
	}
	return h.issue(c, u, "federated")
}

// ForgotPassword answers identically whether or not the email exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return badRequest(c, "email required")
	}

	if err := h.Auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": forgotPasswordMsg})
}

// ResetPassword consumes a reset token and sets the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := h.Auth.ConsumePasswordResetToken(ctx, req.Token, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Password updated successfully"})
}

// Me returns the authenticated caller.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	return c.JSON(http.StatusOK, meResp{ID: u.ID, Email: u.Email, IsActive: u.IsActive})
}

func (h *AuthHandler) issue(c echo.Context, u model.User, method string) error {
	tok, err := h.Auth.IssueSessionToken(u)
	if err != nil {
		return respondError(c, err)
	}
	h.Metrics.CounterLogins.WithLabelValues(method).Inc()
	return c.JSON(http.StatusOK, tokenResp{AccessToken: tok.Token, TokenType: "bearer"})
}
