package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guru-1432/workout-app/internal/model"
)

var sessionCols = []string{"s.id", "s.session_date", "ws.id", "ws.exercise_id", "ws.weight", "ws.reps", "e.name", "e.muscle_id"}

func TestWorkoutRepo_CreateSession(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sets := []model.NewWorkoutSet{
		{ExerciseID: 1, Weight: 60, Reps: 8},
		{ExerciseID: 2, Weight: 40, Reps: 10},
	}

	t.Run("session and sets in one transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO workout_sessions \(user_id, session_date\)`).
			WithArgs(7, date).
			WillReturnResult(sqlmock.NewResult(10, 1))
		mock.ExpectExec(`INSERT INTO workout_sets \(session_id,exercise_id,weight,reps\) VALUES \(\?,\?,\?,\?\),\(\?,\?,\?,\?\)`).
			WithArgs(10, 1, 60.0, 8, 10, 2, 40.0, 10).
			WillReturnResult(sqlmock.NewResult(100, 2))
		mock.ExpectQuery(`FROM workout_sessions s LEFT JOIN workout_sets ws .* WHERE s.user_id = \? AND s.id = \?`).
			WithArgs(7, 10).
			WillReturnRows(sqlmock.NewRows(sessionCols).
				AddRow(10, date, 100, 1, 60.0, 8, "Flat press", 1).
				AddRow(10, date, 101, 2, 40.0, 10, "Fly", 1))
		mock.ExpectCommit()

		s, err := NewWorkoutRepo(db).CreateSession(ctx, 7, date, sets)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), s.ID)
		assert.Equal(t, uint64(7), s.UserID)
		require.Len(t, s.Sets, 2)
		assert.Equal(t, uint64(100), s.Sets[0].ID)
		assert.Equal(t, 60.0, s.Sets[0].Weight)
		assert.Equal(t, 8, s.Sets[0].Reps)
		require.NotNil(t, s.Sets[1].Exercise)
		assert.Equal(t, "Fly", s.Sets[1].Exercise.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown exercise rolls everything back", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO workout_sessions`).
			WillReturnResult(sqlmock.NewResult(11, 1))
		mock.ExpectExec(`INSERT INTO workout_sets`).
			WillReturnError(mysqlErr(1452))
		mock.ExpectRollback()

		_, err := NewWorkoutRepo(db).CreateSession(ctx, 7, date, sets)
		assert.ErrorIs(t, err, ErrUnknownReference)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mid-write failure rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO workout_sessions`).
			WillReturnResult(sqlmock.NewResult(12, 1))
		mock.ExpectExec(`INSERT INTO workout_sets`).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := NewWorkoutRepo(db).CreateSession(ctx, 7, date, sets)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no sets skips the set insert", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO workout_sessions`).
			WillReturnResult(sqlmock.NewResult(13, 1))
		mock.ExpectQuery(`FROM workout_sessions s`).
			WithArgs(7, 13).
			WillReturnRows(sqlmock.NewRows(sessionCols).
				AddRow(13, date, nil, nil, nil, nil, nil, nil))
		mock.ExpectCommit()

		s, err := NewWorkoutRepo(db).CreateSession(ctx, 7, date, nil)
		require.NoError(t, err)
		assert.NotNil(t, s.Sets)
		assert.Empty(t, s.Sets)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWorkoutRepo_History(t *testing.T) {
	ctx := context.Background()
	newer := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("groups rows into sessions", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`WHERE s.user_id = \? ORDER BY s.session_date DESC, s.id DESC, ws.id ASC`).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows(sessionCols).
				AddRow(2, newer, 5, 1, 62.5, 6, "Flat press", 1).
				AddRow(2, newer, 6, 3, 20.0, 12, "Planks", 6).
				AddRow(1, older, 1, 1, 60.0, 8, "Flat press", 1))

		out, err := NewWorkoutRepo(db).History(ctx, 7)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, uint64(2), out[0].ID)
		assert.True(t, out[0].Date.Equal(newer))
		require.Len(t, out[0].Sets, 2)
		assert.Equal(t, "Planks", out[0].Sets[1].Exercise.Name)
		assert.Equal(t, uint64(6), out[0].Sets[1].Exercise.MuscleID)
		require.Len(t, out[1].Sets, 1)
		assert.Equal(t, 60.0, out[1].Sets[0].Weight)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty history", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM workout_sessions s`).
			WithArgs(8).
			WillReturnRows(sqlmock.NewRows(sessionCols))

		out, err := NewWorkoutRepo(db).History(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, []model.WorkoutSession{}, out)
	})
}

func TestWorkoutRepo_LastSetForExercise(t *testing.T) {
	ctx := context.Background()
	cols := []string{"ws.id", "ws.session_id", "ws.exercise_id", "ws.weight", "ws.reps", "e.name", "e.muscle_id"}

	t.Run("latest set", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM workout_sets ws JOIN workout_sessions s .* WHERE s.user_id = \? AND ws.exercise_id = \? ORDER BY s.session_date DESC, ws.id DESC LIMIT 1`).
			WithArgs(7, 1).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(5, 2, 1, 62.5, 6, "Flat press", 1))

		set, err := NewWorkoutRepo(db).LastSetForExercise(ctx, 7, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), set.ID)
		assert.Equal(t, 62.5, set.Weight)
		require.NotNil(t, set.Exercise)
		assert.Equal(t, uint64(1), set.Exercise.ID)
		assert.Equal(t, "Flat press", set.Exercise.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no history", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM workout_sets ws`).
			WithArgs(7, 9).
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := NewWorkoutRepo(db).LastSetForExercise(ctx, 7, 9)
		assert.ErrorIs(t, err, ErrNoHistory)
	})
}
