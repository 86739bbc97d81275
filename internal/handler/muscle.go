package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/guru-1432/workout-app/internal/model"
)

// MuscleStore is implemented by *repository.MuscleRepo.
type MuscleStore interface {
	List(ctx context.Context) ([]model.Muscle, error)
	Create(ctx context.Context, name string) (model.Muscle, error)
	Delete(ctx context.Context, id uint64) error
}

// ExerciseStore is implemented by *repository.ExerciseRepo.
type ExerciseStore interface {
	List(ctx context.Context) ([]model.Exercise, error)
	ListByMuscle(ctx context.Context, muscleID uint64) ([]model.Exercise, error)
	Create(ctx context.Context, name string, muscleID uint64) (model.Exercise, error)
	Delete(ctx context.Context, id uint64) error
}

// CatalogueHandler serves the muscle and exercise reference data.  Both are
// shared by every user.
type CatalogueHandler struct {
	Muscles   MuscleStore
	Exercises ExerciseStore
}

func NewCatalogueHandler(m MuscleStore, e ExerciseStore) *CatalogueHandler {
	if m == nil || e == nil {
		panic("nil store passed to NewCatalogueHandler")
	}
	return &CatalogueHandler{Muscles: m, Exercises: e}
}

type muscleReq struct {
	Name string `json:"name"`
}

type exerciseReq struct {
	Name     string `json:"name"`
	MuscleID uint64 `json:"muscle_id"`
}

// ListMuscles handles GET /api/muscles.
func (h *CatalogueHandler) ListMuscles(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.Muscles.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateMuscle handles POST /api/muscles.
func (h *CatalogueHandler) CreateMuscle(c echo.Context) error {
	var req muscleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return badRequest(c, "name required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	m, err := h.Muscles.Create(ctx, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// DeleteMuscle handles DELETE /api/muscles/:id.  A muscle that still owns
// exercises is kept and 409 is returned.
func (h *CatalogueHandler) DeleteMuscle(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Muscles.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// ListExercises handles GET /api/exercises.
func (h *CatalogueHandler) ListExercises(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.Exercises.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ListExercisesByMuscle handles GET /api/exercises/:id where id names the
// muscle.  The parameter shares its name with DELETE /api/exercises/:id.
func (h *CatalogueHandler) ListExercisesByMuscle(c echo.Context) error {
	muscleID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, "invalid muscle id")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.Exercises.ListByMuscle(ctx, muscleID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateExercise handles POST /api/exercises.
func (h *CatalogueHandler) CreateExercise(c echo.Context) error {
	var req exerciseReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Name) == "" || req.MuscleID == 0 {
		return badRequest(c, "name and muscle_id required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	e, err := h.Exercises.Create(ctx, req.Name, req.MuscleID)
	if err != nil {
		if isUnknownReference(err) {
			return badRequest(c, "unknown muscle")
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// DeleteExercise handles DELETE /api/exercises/:id.  Exercises with logged
// sets are kept and 409 is returned.
func (h *CatalogueHandler) DeleteExercise(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Exercises.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
