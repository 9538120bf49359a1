package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"simpeg-sync/internal/app"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Re-download referenced files whose artifact is missing on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagDataset == "" {
			return fmt.Errorf("restore requires --dataset (it holds the document URIs)")
		}

		a, err := app.New(runOptions())
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Restore(cmd.Context())
	},
}
