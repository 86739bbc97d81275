package model

// Muscle is a muscle group, e.g. "Chest".  Muscles are global reference
// data shared by all users.
type Muscle struct {
	ID   uint64 `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
