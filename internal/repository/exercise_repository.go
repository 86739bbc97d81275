package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/guru-1432/workout-app/internal/model"
)

// ErrExerciseNotFound is returned when an exercise cannot be found in the DB.
var ErrExerciseNotFound = errors.New("exercise not found")

// ExerciseRepo encapsulates all database queries related to exercises.
type ExerciseRepo struct {
	db *sqlx.DB
}

func NewExerciseRepo(db *sqlx.DB) *ExerciseRepo {
	return &ExerciseRepo{db: db}
}

// List returns all exercises ordered by id.
func (r *ExerciseRepo) List(ctx context.Context) ([]model.Exercise, error) {
	out := []model.Exercise{}
	if err := r.db.SelectContext(ctx, &out, "SELECT id, name, muscle_id FROM exercises ORDER BY id"); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByMuscle returns the exercises of one muscle group.  An unknown muscle
// simply yields an empty list.
func (r *ExerciseRepo) ListByMuscle(ctx context.Context, muscleID uint64) ([]model.Exercise, error) {
	out := []model.Exercise{}
	if err := r.db.SelectContext(ctx, &out,
		"SELECT id, name, muscle_id FROM exercises WHERE muscle_id = ? ORDER BY id", muscleID); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts an exercise under muscleID.  It returns ErrUnknownReference
// if the muscle does not exist and ErrDuplicate if the muscle already has an
// exercise with that name.
func (r *ExerciseRepo) Create(ctx context.Context, name string, muscleID uint64) (model.Exercise, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx, "INSERT INTO exercises (name, muscle_id) VALUES (?, ?)", name, muscleID)
	if err != nil {
		switch {
		case isMissingParent(err):
			return model.Exercise{}, ErrUnknownReference
		case isDuplicate(err):
			return model.Exercise{}, ErrDuplicate
		}
		return model.Exercise{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Exercise{}, err
	}
	return model.Exercise{ID: uint64(id), Name: name, MuscleID: muscleID}, nil
}

// Ensure returns the exercise named name under muscleID, creating it when
// missing.  The bool reports whether a row was created.
func (r *ExerciseRepo) Ensure(ctx context.Context, name string, muscleID uint64) (model.Exercise, bool, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO exercises (name, muscle_id) VALUES (?, ?) ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)",
		name, muscleID)
	if err != nil {
		if isMissingParent(err) {
			return model.Exercise{}, false, ErrUnknownReference
		}
		return model.Exercise{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Exercise{}, false, err
	}
	n, _ := res.RowsAffected()
	return model.Exercise{ID: uint64(id), Name: name, MuscleID: muscleID}, n == 1, nil
}

// Delete removes an exercise.  Exercises with logged sets are kept and
// ErrConflict is returned.
func (r *ExerciseRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM exercises WHERE id = ?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExerciseNotFound
	}
	return nil
}
