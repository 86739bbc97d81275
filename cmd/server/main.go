package main // Entry point package

import (
	"fmt"
	"os"

	"github.com/spf13/cobra" // command line: serve, migrate, seed
)

var rootCmd = &cobra.Command{
	Use:   "workout-app",
	Short: "Workout tracker API server",
	Long: `HTTP API for logging workout sessions against a shared catalogue of
muscles and exercises.

Without a subcommand the server is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
