package main

import (
	"github.com/spf13/cobra"

	"simpeg-sync/internal/app"
)

var (
	flagFetchOut  string
	flagFetchDocs bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Stage per-employee career-history JSON from the BKN API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(runOptions())
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Fetch(cmd.Context(), flagFetchOut, flagFetchDocs)
	},
}

func init() {
	fetchCmd.Flags().StringVar(&flagFetchOut, "out", "staging", "directory for fetched JSON files")
	fetchCmd.Flags().BoolVar(&flagFetchDocs, "docs", false, "also download the referenced documents")
}
