package handler

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/guru-1432/workout-app/internal/metrics"
	"github.com/guru-1432/workout-app/internal/model"
)

// WorkoutStore is implemented by *repository.WorkoutRepo.  Every call is
// scoped to userID.
type WorkoutStore interface {
	CreateSession(ctx context.Context, userID uint64, date time.Time, sets []model.NewWorkoutSet) (model.WorkoutSession, error)
	History(ctx context.Context, userID uint64) ([]model.WorkoutSession, error)
	LastSetForExercise(ctx context.Context, userID, exerciseID uint64) (model.WorkoutSet, error)
}

// WorkoutHandler serves the caller's own training log.
type WorkoutHandler struct {
	Store   WorkoutStore
	Metrics *metrics.Manager
	Now     func() time.Time
}

func NewWorkoutHandler(s WorkoutStore, m *metrics.Manager) *WorkoutHandler {
	return &WorkoutHandler{Store: s, Metrics: m, Now: time.Now}
}

// maxSetWeight caps a single set's load; reps are capped by the INT column.
const maxSetWeight = 100000

func validSet(s model.NewWorkoutSet) bool {
	if s.ExerciseID == 0 || s.Reps <= 0 || s.Reps > math.MaxInt32 {
		return false
	}
	return !math.IsNaN(s.Weight) && s.Weight >= 0 && s.Weight <= maxSetWeight
}

type logReq struct {
	Date string                `json:"date"`
	Sets []model.NewWorkoutSet `json:"sets"`
}

// sessionDateLayouts are tried in order; browsers send datetime-local values
// without a zone, which are read as UTC.
var sessionDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range sessionDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// Log handles POST /api/log: one session with all of its sets, stored
// atomically.
func (h *WorkoutHandler) Log(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}

	var req logReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if len(req.Sets) == 0 {
		return badRequest(c, "at least one set required")
	}
	for i, s := range req.Sets {
		if !validSet(s) {
			return badRequest(c, fmt.Sprintf("invalid set %d", i))
		}
	}

	date := h.Now().UTC()
	if d := strings.TrimSpace(req.Date); d != "" {
		parsed, err := parseSessionDate(d)
		if err != nil {
			return badRequest(c, err.Error())
		}
		date = parsed
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.Store.CreateSession(ctx, u.ID, date, req.Sets)
	if err != nil {
		if isUnknownReference(err) {
			return badRequest(c, "unknown exercise")
		}
		return respondError(c, err)
	}
	h.Metrics.CounterWorkoutSessions.Inc()
	h.Metrics.CounterWorkoutSets.Add(float64(len(sess.Sets)))
	return c.JSON(http.StatusCreated, sess)
}

// History handles GET /api/history: the caller's sessions, newest first.
func (h *WorkoutHandler) History(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.Store.History(ctx, u.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// LastLog handles GET /api/last-log/:exerciseId.
func (h *WorkoutHandler) LastLog(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}
	exerciseID, err := parseID(c, "exerciseId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	set, err := h.Store.LastSetForExercise(ctx, u.ID, exerciseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, set)
}
