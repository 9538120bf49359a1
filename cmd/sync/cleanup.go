package main

import (
	"github.com/spf13/cobra"

	"simpeg-sync/internal/app"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Deactivate file records no riwayat row references anymore",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(runOptions())
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Cleanup()
	},
}
