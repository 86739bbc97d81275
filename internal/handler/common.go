package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv" // strconv converts path parameters to numeric ids
	"time"

	"github.com/labstack/echo/v4" // echo defines request context types
	log "github.com/sirupsen/logrus"

	"github.com/guru-1432/workout-app/internal/middleware"
	"github.com/guru-1432/workout-app/internal/model"
	"github.com/guru-1432/workout-app/internal/repository"
	"github.com/guru-1432/workout-app/internal/service"
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// currentUser returns the caller placed in the context by BearerAuth.
func currentUser(c echo.Context) (model.User, bool) {
	return middleware.CurrentUser(c)
}

func isUnknownReference(err error) bool {
	return errors.Is(err, repository.ErrUnknownReference)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// respondError maps domain errors onto HTTP responses.  Anything unknown
// becomes a 500 whose details only go to the log.
func respondError(c echo.Context, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrDuplicateEmail):
		status, msg = http.StatusBadRequest, "email already registered"
	case errors.Is(err, repository.ErrDuplicate):
		status, msg = http.StatusBadRequest, "already exists"
	case errors.Is(err, repository.ErrUnknownReference):
		status, msg = http.StatusBadRequest, "unknown reference"
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		status, msg = http.StatusBadRequest, "invalid or expired token"
	case errors.Is(err, service.ErrInvalidCredentials):
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		status, msg = http.StatusUnauthorized, "incorrect username or password"
	case errors.Is(err, service.ErrUnauthenticated):
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		status, msg = http.StatusUnauthorized, "could not validate credentials"
	case errors.Is(err, service.ErrInvalidFederatedToken):
		status, msg = http.StatusUnauthorized, "invalid federated token"
	case errors.Is(err, repository.ErrMuscleNotFound):
		status, msg = http.StatusNotFound, "muscle not found"
	case errors.Is(err, repository.ErrExerciseNotFound):
		status, msg = http.StatusNotFound, "exercise not found"
	case errors.Is(err, repository.ErrNoHistory):
		status, msg = http.StatusNotFound, "No history found"
	case errors.Is(err, repository.ErrConflict):
		status, msg = http.StatusConflict, "resource is still referenced"
	case errors.Is(err, service.ErrUpstream):
		msg = "upstream service unavailable"
	}
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("handler: request failed")
	}
	return c.JSON(status, echo.Map{"error": msg})
}
