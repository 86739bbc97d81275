package model

// Exercise belongs to exactly one Muscle.  Like muscles, exercises are not
// scoped to a user.
type Exercise struct {
	ID       uint64 `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	MuscleID uint64 `db:"muscle_id" json:"muscle_id"`
}
