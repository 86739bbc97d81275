package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// LogRequest logs method, path, status and latency of every request.
func LogRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			status := statusOf(c, err)
			entry := log.WithFields(log.Fields{
				"method":  req.Method,
				"path":    req.URL.Path,
				"status":  status,
				"latency": time.Since(start).String(),
				"user":    userID(c),
			})
			switch {
			case status >= http.StatusInternalServerError:
				entry.Error("request")
			case status >= http.StatusBadRequest:
				entry.Info("request")
			default:
				entry.Debug("request")
			}
			return err
		}
	}
}

// statusOf reports the status a request ends with, including errors that
// Echo's error handler has not rendered yet.
func statusOf(c echo.Context, err error) int {
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he.Code
		}
		return http.StatusInternalServerError
	}
	return c.Response().Status
}
