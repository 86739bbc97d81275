package middleware

// identity.go holds the helpers that read the authenticated user placed in
// the Echo context by BearerAuth.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/guru-1432/workout-app/internal/model"
)

const userKey = "user"

// CurrentUser returns the user authenticated by BearerAuth.  ok is false on
// routes that are not behind it.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}

// SetCurrentUser stores u as the authenticated user of the request.
func SetCurrentUser(c echo.Context, u model.User) {
	c.Set(userKey, u)
}

// userID returns the authenticated user id for log lines, or "guest".
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok {
		return strconv.FormatUint(u.ID, 10)
	}
	return "guest"
}
