package router

import (
	"github.com/labstack/echo/v4"

	"github.com/guru-1432/workout-app/internal/handler"
	"github.com/guru-1432/workout-app/internal/middleware"
)

// RegisterAPI registers the /api endpoints.  All routes require a valid
// bearer session token.  Muscles and exercises are shared reference data;
// workout routes only ever see the caller's own sessions.
func RegisterAPI(e *echo.Echo, sessions middleware.SessionResolver, a *handler.AuthHandler, c *handler.CatalogueHandler, w *handler.WorkoutHandler) {
	g := e.Group("/api", middleware.BearerAuth(sessions))

	g.GET("/me", a.Me)

	g.GET("/muscles", c.ListMuscles)
	g.POST("/muscles", c.CreateMuscle)
	g.DELETE("/muscles/:id", c.DeleteMuscle)

	g.GET("/exercises", c.ListExercises)
	g.POST("/exercises", c.CreateExercise)
	// :id is the muscle id on GET and the exercise id on DELETE
	g.GET("/exercises/:id", c.ListExercisesByMuscle)
	g.DELETE("/exercises/:id", c.DeleteExercise)

	g.POST("/log", w.Log)
	g.GET("/history", w.History)
	g.GET("/last-log/:exerciseId", w.LastLog)
}
