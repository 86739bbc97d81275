package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guru-1432/workout-app/internal/model"
)

func TestMuscleRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("list empty is not nil", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT id, name FROM muscles ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

		out, err := NewMuscleRepo(db).List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, out)
		assert.Empty(t, out)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT id, name FROM muscles`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Chest").AddRow(2, "Core"))

		out, err := NewMuscleRepo(db).List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.Muscle{{ID: 1, Name: "Chest"}, {ID: 2, Name: "Core"}}, out)
	})

	t.Run("create", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO muscles \(name\) VALUES \(\?\)`).
			WithArgs("Chest").
			WillReturnResult(sqlmock.NewResult(4, 1))

		m, err := NewMuscleRepo(db).Create(ctx, " Chest ")
		require.NoError(t, err)
		assert.Equal(t, model.Muscle{ID: 4, Name: "Chest"}, m)
	})

	t.Run("create duplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO muscles`).WillReturnError(mysqlErr(1062))

		_, err := NewMuscleRepo(db).Create(ctx, "Chest")
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("ensure reports creation", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID\(id\)`).
			WithArgs("Chest").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`ON DUPLICATE KEY UPDATE`).
			WithArgs("Chest").
			WillReturnResult(sqlmock.NewResult(1, 0))

		repo := NewMuscleRepo(db)
		m, created, err := repo.Ensure(ctx, "Chest")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, uint64(1), m.ID)

		m, created, err = repo.Ensure(ctx, "Chest")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, uint64(1), m.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete referenced", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM muscles WHERE id = \?`).
			WithArgs(1).
			WillReturnError(mysqlErr(1451))

		assert.ErrorIs(t, NewMuscleRepo(db).Delete(ctx, 1), ErrConflict)
	})

	t.Run("delete missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM muscles`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, NewMuscleRepo(db).Delete(ctx, 42), ErrMuscleNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM muscles`).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewMuscleRepo(db).Delete(ctx, 2))
	})
}

func TestExerciseRepo(t *testing.T) {
	ctx := context.Background()
	cols := []string{"id", "name", "muscle_id"}

	t.Run("list by muscle", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT id, name, muscle_id FROM exercises WHERE muscle_id = \?`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Fly", 1).AddRow(2, "Flat press", 1))

		out, err := NewExerciseRepo(db).ListByMuscle(ctx, 1)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "Flat press", out[1].Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list by unknown muscle is empty", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM exercises WHERE muscle_id`).
			WithArgs(99).
			WillReturnRows(sqlmock.NewRows(cols))

		out, err := NewExerciseRepo(db).ListByMuscle(ctx, 99)
		require.NoError(t, err)
		assert.Equal(t, []model.Exercise{}, out)
	})

	t.Run("create", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO exercises \(name, muscle_id\)`).
			WithArgs("Fly", 1).
			WillReturnResult(sqlmock.NewResult(3, 1))

		e, err := NewExerciseRepo(db).Create(ctx, "Fly", 1)
		require.NoError(t, err)
		assert.Equal(t, model.Exercise{ID: 3, Name: "Fly", MuscleID: 1}, e)
	})

	t.Run("create under unknown muscle", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO exercises`).WillReturnError(mysqlErr(1452))

		_, err := NewExerciseRepo(db).Create(ctx, "Fly", 99)
		assert.ErrorIs(t, err, ErrUnknownReference)
	})

	t.Run("create duplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO exercises`).WillReturnError(mysqlErr(1062))

		_, err := NewExerciseRepo(db).Create(ctx, "Fly", 1)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("delete with logged sets", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM exercises WHERE id = \?`).
			WithArgs(3).
			WillReturnError(mysqlErr(1451))

		assert.ErrorIs(t, NewExerciseRepo(db).Delete(ctx, 3), ErrConflict)
	})

	t.Run("delete missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM exercises`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, NewExerciseRepo(db).Delete(ctx, 3), ErrExerciseNotFound)
	})
}
