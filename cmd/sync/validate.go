package main

import (
	"github.com/spf13/cobra"

	"simpeg-sync/internal/app"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Read-only integrity report: duplicates, orphans, missing artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(runOptions())
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Validate()
	},
}
