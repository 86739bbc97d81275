package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/guru-1432/workout-app/internal/metrics"
)

func RequestMetrics(m *metrics.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func(begin time.Time) {
				m.HistRequestDuration.Observe(time.Since(begin).Seconds())
			}(time.Now())

			// handler call
			err := next(c)

			m.CounterRequests.With(
				prometheus.Labels{
					"method": c.Request().Method,
					"status": strconv.Itoa(statusOf(c, err)),
				},
			).Inc()
			return err
		}
	}
}
