package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/guru-1432/workout-app/internal/model"
)

// ErrNoHistory is returned when the user never logged the requested exercise.
var ErrNoHistory = errors.New("no history found")

// WorkoutRepo stores workout sessions and their sets.  Every read and write
// is scoped to the owning user.
type WorkoutRepo struct {
	db *sqlx.DB
}

func NewWorkoutRepo(db *sqlx.DB) *WorkoutRepo { return &WorkoutRepo{db: db} }

// CreateSession inserts a session for userID together with all of its sets in
// a single transaction.  Either the session and every set are persisted or
// nothing is.  The returned session carries the stored sets with their
// exercises attached.  A set pointing at an unknown exercise yields
// ErrUnknownReference.
func (r *WorkoutRepo) CreateSession(ctx context.Context, userID uint64, date time.Time, sets []model.NewWorkoutSet) (_ model.WorkoutSession, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.WorkoutSession{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO workout_sessions (user_id, session_date) VALUES (?, ?)",
		userID, date.UTC())
	if err != nil {
		if isMissingParent(err) {
			return model.WorkoutSession{}, ErrUnknownReference
		}
		return model.WorkoutSession{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.WorkoutSession{}, err
	}
	sessionID := uint64(id)

	if err = insertSetsTx(ctx, tx, sessionID, sets); err != nil {
		return model.WorkoutSession{}, err
	}

	sessions, err := querySessions(ctx, tx, userID, sessionID)
	if err != nil {
		return model.WorkoutSession{}, err
	}
	if len(sessions) != 1 {
		err = fmt.Errorf("session %d not readable after insert", sessionID)
		return model.WorkoutSession{}, err
	}

	if err = tx.Commit(); err != nil {
		return model.WorkoutSession{}, err
	}
	return sessions[0], nil
}

// insertSetsTx writes all sets of a session in one multi-row INSERT.
// Passing an empty slice has no effect.
func insertSetsTx(ctx context.Context, tx *sqlx.Tx, sessionID uint64, sets []model.NewWorkoutSet) error {
	if len(sets) == 0 {
		return nil
	}
	b := sq.Insert("workout_sets").Columns("session_id", "exercise_id", "weight", "reps")
	for _, s := range sets {
		b = b.Values(sessionID, s.ExerciseID, s.Weight, s.Reps)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isMissingParent(err) {
			return ErrUnknownReference
		}
		return err
	}
	return nil
}

// History returns all sessions of userID, newest first, each with its sets
// (in creation order) and every set's exercise.  One query is issued no
// matter how many sets there are.
func (r *WorkoutRepo) History(ctx context.Context, userID uint64) ([]model.WorkoutSession, error) {
	return querySessions(ctx, r.db, userID, 0)
}

// LastSetForExercise returns the most recently logged set of exerciseID by
// userID, with the exercise attached.  ErrNoHistory is returned when there is
// none.
func (r *WorkoutRepo) LastSetForExercise(ctx context.Context, userID, exerciseID uint64) (model.WorkoutSet, error) {
	query, args, err := sq.Select(
		"ws.id", "ws.session_id", "ws.exercise_id", "ws.weight", "ws.reps",
		"e.name", "e.muscle_id",
	).
		From("workout_sets ws").
		Join("workout_sessions s ON s.id = ws.session_id").
		Join("exercises e ON e.id = ws.exercise_id").
		Where(sq.Eq{"s.user_id": userID}).
		Where(sq.Eq{"ws.exercise_id": exerciseID}).
		OrderBy("s.session_date DESC", "ws.id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return model.WorkoutSet{}, err
	}

	var (
		set model.WorkoutSet
		ex  model.Exercise
	)
	err = r.db.QueryRowxContext(ctx, query, args...).Scan(
		&set.ID, &set.SessionID, &set.ExerciseID, &set.Weight, &set.Reps,
		&ex.Name, &ex.MuscleID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.WorkoutSet{}, ErrNoHistory
	}
	if err != nil {
		return model.WorkoutSet{}, err
	}
	ex.ID = set.ExerciseID
	set.Exercise = &ex
	return set, nil
}

// querySessions loads sessions of userID with their sets and exercises using
// a single LEFT JOIN.  sessionID 0 means all sessions.
func querySessions(ctx context.Context, q sqlx.QueryerContext, userID, sessionID uint64) ([]model.WorkoutSession, error) {
	b := sq.Select(
		"s.id", "s.session_date",
		"ws.id", "ws.exercise_id", "ws.weight", "ws.reps",
		"e.name", "e.muscle_id",
	).
		From("workout_sessions s").
		LeftJoin("workout_sets ws ON ws.session_id = s.id").
		LeftJoin("exercises e ON e.id = ws.exercise_id").
		Where(sq.Eq{"s.user_id": userID})
	if sessionID != 0 {
		b = b.Where(sq.Eq{"s.id": sessionID})
	}
	query, args, err := b.OrderBy("s.session_date DESC", "s.id DESC", "ws.id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WorkoutSession{}
	for rows.Next() {
		var (
			sid        uint64
			date       time.Time
			setID      sql.NullInt64
			exerciseID sql.NullInt64
			weight     sql.NullFloat64
			reps       sql.NullInt64
			exName     sql.NullString
			muscleID   sql.NullInt64
		)
		if err := rows.Scan(&sid, &date, &setID, &exerciseID, &weight, &reps, &exName, &muscleID); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].ID != sid {
			out = append(out, model.WorkoutSession{
				ID:     sid,
				UserID: userID,
				Date:   date,
				Sets:   []model.WorkoutSet{},
			})
		}
		if !setID.Valid {
			continue // session without sets
		}
		cur := &out[len(out)-1]
		cur.Sets = append(cur.Sets, model.WorkoutSet{
			ID:         uint64(setID.Int64),
			SessionID:  sid,
			ExerciseID: uint64(exerciseID.Int64),
			Weight:     weight.Float64,
			Reps:       int(reps.Int64),
			Exercise: &model.Exercise{
				ID:       uint64(exerciseID.Int64),
				Name:     exName.String,
				MuscleID: uint64(muscleID.Int64),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
