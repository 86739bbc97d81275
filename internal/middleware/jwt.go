package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
	log "github.com/sirupsen/logrus"

	"github.com/guru-1432/workout-app/internal/model"
	"github.com/guru-1432/workout-app/internal/service"
)

// SessionResolver turns a bearer token into the user it was issued to.
// *service.Auth satisfies it.
type SessionResolver interface {
	ResolveSessionToken(ctx context.Context, token string) (model.User, error)
}

// BearerAuth returns an Echo middleware that validates the Bearer session
// token of each request and stores the resolved user in the context under
// userKey.  Handlers read it back with CurrentUser.  Any missing, malformed
// or expired token is answered with 401 and a WWW-Authenticate challenge.
func BearerAuth(resolver SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " (scheme is
			// case-insensitive) followed by the JWT.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
				return unauthorized(c)
			}
			raw := strings.TrimSpace(auth[7:])
			if raw == "" {
				return unauthorized(c)
			}

			u, err := resolver.ResolveSessionToken(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					return unauthorized(c)
				}
				log.WithError(err).Error("auth middleware: resolve session")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}

			c.Set(userKey, u)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
}
