package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/guru-1432/workout-app/internal/model"
)

// ErrMuscleNotFound is returned when a muscle cannot be found in the DB.
var ErrMuscleNotFound = errors.New("muscle not found")

// MuscleRepo encapsulates all database queries related to muscle groups.
type MuscleRepo struct {
	db *sqlx.DB
}

func NewMuscleRepo(db *sqlx.DB) *MuscleRepo {
	return &MuscleRepo{db: db}
}

// List returns every muscle ordered by id.
func (r *MuscleRepo) List(ctx context.Context) ([]model.Muscle, error) {
	out := []model.Muscle{}
	if err := r.db.SelectContext(ctx, &out, "SELECT id, name FROM muscles ORDER BY id"); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new muscle.  A name that already exists yields
// ErrDuplicate.
func (r *MuscleRepo) Create(ctx context.Context, name string) (model.Muscle, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx, "INSERT INTO muscles (name) VALUES (?)", name)
	if err != nil {
		if isDuplicate(err) {
			return model.Muscle{}, ErrDuplicate
		}
		return model.Muscle{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Muscle{}, err
	}
	return model.Muscle{ID: uint64(id), Name: name}, nil
}

// Ensure returns the muscle with the given name, creating it first when it
// does not exist yet.
func (r *MuscleRepo) Ensure(ctx context.Context, name string) (model.Muscle, bool, error) {
	name = strings.TrimSpace(name)
	// LAST_INSERT_ID(id) makes LastInsertId report the existing row on a duplicate.
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO muscles (name) VALUES (?) ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)",
		name)
	if err != nil {
		return model.Muscle{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Muscle{}, false, err
	}
	n, _ := res.RowsAffected()
	return model.Muscle{ID: uint64(id), Name: name}, n == 1, nil
}

// Delete removes a muscle.  Muscles that still own exercises are not removed
// and ErrConflict is returned instead.
func (r *MuscleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM muscles WHERE id = ?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMuscleNotFound
	}
	return nil
}
