package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"simpeg-sync/internal/app"
	"simpeg-sync/internal/logging"
)

var (
	flagDataset     string
	flagNIPs        []string
	flagExclude     string
	flagCommit      bool
	flagDeleteFiles bool
	flagVerbose     bool
	flagWorkers     int
)

var rootCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconciles the local riwayat-jabatan database against the BKN export",
	Long: `sync consolidates the old one-off maintenance scripts: duplicate-row
reconciliation, orphaned-file cleanup, missing-artifact restoration and
staging fetches. Every mutating command defaults to dry-run; pass --commit
to apply and --delete-files to also remove artifacts from disk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(flagVerbose)
	},
}

func runOptions() app.Options {
	return app.Options{
		DatasetPath: flagDataset,
		NIPs:        flagNIPs,
		ExcludeFile: flagExclude,
		Commit:      flagCommit,
		DeleteFiles: flagDeleteFiles,
		Workers:     flagWorkers,
	}
}

func main() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDataset, "dataset", "", "path to the bulk riwayat-jabatan JSON export")
	pf.StringSliceVar(&flagNIPs, "nip", nil, "restrict the run to these NIPs (repeatable)")
	pf.StringVar(&flagExclude, "exclude-file", "", "file with NIPs to skip, one per line")
	pf.BoolVar(&flagCommit, "commit", false, "apply changes (default is dry-run)")
	pf.BoolVar(&flagDeleteFiles, "delete-files", false, "also delete released artifacts from disk")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	pf.IntVar(&flagWorkers, "workers", 4, "parallel download workers")

	rootCmd.AddCommand(reconcileCmd, restoreCmd, cleanupCmd, validateCmd, fetchCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
