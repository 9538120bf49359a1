package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"simpeg-sync/internal/app"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Resolve duplicate riwayat-jabatan rows and release orphaned files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagDataset == "" {
			return fmt.Errorf("reconcile requires --dataset (it decides which rows the export still vouches for)")
		}

		a, err := app.New(runOptions())
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Reconcile()
	},
}
