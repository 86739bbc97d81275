package router // package router defines how HTTP routes are registered for the API

import (
	"os"

	"github.com/labstack/echo/v4"                  // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // stock Echo middleware: recover, CORS, static
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/guru-1432/workout-app/internal/handler"    // import the handlers that implement business logic
	"github.com/guru-1432/workout-app/internal/metrics"
	"github.com/guru-1432/workout-app/internal/middleware" // bearer authentication, request logging and metrics
)

// Deps is everything New needs to build the HTTP surface.
type Deps struct {
	Auth      *handler.AuthHandler
	Catalogue *handler.CatalogueHandler
	Workouts  *handler.WorkoutHandler
	Sessions  middleware.SessionResolver

	DB       handler.Pinger
	Metrics  *metrics.Manager
	Gatherer prometheus.Gatherer

	CORSOrigins []string
	StaticDir   string // optional front end build served at /
}

// New returns a fully wired Echo instance.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestMetrics(d.Metrics))
	e.Use(middleware.LogRequest())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderOrigin},
	}))

	RegisterRoutes(e, d.DB, d.Gatherer)
	RegisterAuth(e, d.Auth)
	RegisterAPI(e, d.Sessions, d.Auth, d.Catalogue, d.Workouts)

	if d.StaticDir != "" {
		if fi, err := os.Stat(d.StaticDir); err == nil && fi.IsDir() {
			// unmatched paths fall through to the API routes
			e.Use(echomw.StaticWithConfig(echomw.StaticConfig{Root: d.StaticDir, Index: "index.html"}))
			log.WithField("dir", d.StaticDir).Info("serving static front end")
		} else {
			log.WithField("dir", d.StaticDir).Warn("static dir not found, front end not served")
		}
	}
	return e
}

// RegisterRoutes registers routes that do not require authentication and do
// not touch user data: liveness, readiness and the Prometheus scrape
// endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, gatherer prometheus.Gatherer) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// RegisterAuth registers the endpoints that create or recover a session.
// None of them require an existing session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	e.POST("/register", a.Register)
	e.POST("/token", a.Token)
	e.POST("/auth/federated", a.Federated)
	// kept for front ends that call the provider-specific path
	e.POST("/auth/google", a.Federated)
	e.POST("/forgot-password", a.ForgotPassword)
	e.POST("/reset-password", a.ResetPassword)
}
