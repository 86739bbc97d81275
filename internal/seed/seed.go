// Package seed loads the default muscle and exercise catalogue.
package seed

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/guru-1432/workout-app/internal/model"
)

// Group is one muscle together with the exercises that train it.
type Group struct {
	Muscle    string
	Exercises []string
}

// Catalogue is the default reference data.
var Catalogue = []Group{
	{Muscle: "Chest", Exercises: []string{"Declined press", "Inclined press", "Fly", "Flat press"}},
	{Muscle: "Shoulder", Exercises: []string{"Shoulder press", "Lateral fly", "Front raises"}},
	{Muscle: "Biceps", Exercises: []string{"Dumbbell curl", "Preacher curl", "Barbell curl"}},
	{Muscle: "Triceps", Exercises: []string{"Cable pulldown", "Overhead dips", "Single overhead dips"}},
	{Muscle: "Lat", Exercises: []string{"Lat pulldown", "Lat row"}},
	{Muscle: "Core", Exercises: []string{"Planks", "Russian twist", "Crunches"}},
}

type MuscleEnsurer interface {
	Ensure(ctx context.Context, name string) (model.Muscle, bool, error)
}

type ExerciseEnsurer interface {
	Ensure(ctx context.Context, name string, muscleID uint64) (model.Exercise, bool, error)
}

// Result counts the rows created by Run.
type Result struct {
	Muscles   int
	Exercises int
}

// Run inserts every group of groups that is not present yet.  Running it
// twice creates nothing the second time.
func Run(ctx context.Context, muscles MuscleEnsurer, exercises ExerciseEnsurer, groups []Group) (Result, error) {
	var res Result
	for _, g := range groups {
		m, created, err := muscles.Ensure(ctx, g.Muscle)
		if err != nil {
			return res, fmt.Errorf("seed muscle %q: %w", g.Muscle, err)
		}
		if created {
			res.Muscles++
		}
		for _, name := range g.Exercises {
			_, created, err := exercises.Ensure(ctx, name, m.ID)
			if err != nil {
				return res, fmt.Errorf("seed exercise %q: %w", name, err)
			}
			if created {
				res.Exercises++
			}
		}
	}
	log.WithFields(log.Fields{
		"muscles":   res.Muscles,
		"exercises": res.Exercises,
	}).Info("seed: catalogue loaded")
	return res, nil
}
