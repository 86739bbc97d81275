package model

import "time"

// WorkoutSession is one training day of a single user.  Sets are kept in
// creation order.
type WorkoutSession struct {
	ID     uint64       `db:"id" json:"id"`
	UserID uint64       `db:"user_id" json:"-"`
	Date   time.Time    `db:"session_date" json:"date"`
	Sets   []WorkoutSet `db:"-" json:"sets"`
}

// WorkoutSet is a single logged set (weight x reps) of an exercise.  Sets are
// immutable once written.
type WorkoutSet struct {
	ID         uint64    `db:"id" json:"id"`
	SessionID  uint64    `db:"session_id" json:"session_id"`
	ExerciseID uint64    `db:"exercise_id" json:"exercise_id"`
	Weight     float64   `db:"weight" json:"weight"`
	Reps       int       `db:"reps" json:"reps"`
	Exercise   *Exercise `db:"-" json:"exercise,omitempty"`
}

// NewWorkoutSet is the input for a set that has not been stored yet.
type NewWorkoutSet struct {
	ExerciseID uint64  `json:"exercise_id"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
}
