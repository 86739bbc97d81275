package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/guru-1432/workout-app/internal/database"
	"github.com/guru-1432/workout-app/internal/repository"
	"github.com/guru-1432/workout-app/internal/seed"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded schema and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		log.Info("schema up to date")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default muscles and exercises and exit",
	Long:  `Existing rows are left untouched, so running seed twice is safe.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := seed.Run(cmd.Context(), repository.NewMuscleRepo(db), repository.NewExerciseRepo(db), seed.Catalogue)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"muscles": res.Muscles, "exercises": res.Exercises}).Info("catalogue seeded")
		return nil
	},
}
