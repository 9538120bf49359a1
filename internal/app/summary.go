package app

import (
	log "github.com/sirupsen/logrus"
)

// Summary is the run-end report. It is always printed, regardless of how
// many groups failed individually.
type Summary struct {
	GroupsScanned      int
	DuplicatesResolved int
	RowsDeleted        int
	FilesMerged        int
	FilesScanned       int
	FilesDeactivated   int
	ArtifactsDeleted   int
	FilesRestored      int
	RestoresSkipped    int
	UnimportedKeys     int
	Errors             int
}

func (s *Summary) Print(dryRun bool) {
	mode := "commit"
	if dryRun {
		mode = "dry-run"
	}
	log.Infof("summary (%s): groups=%d duplicates=%d rows-deleted=%d merges=%d files-scanned=%d deactivated=%d artifacts-deleted=%d restored=%d skipped=%d unimported-keys=%d errors=%d",
		mode, s.GroupsScanned, s.DuplicatesResolved, s.RowsDeleted, s.FilesMerged,
		s.FilesScanned, s.FilesDeactivated, s.ArtifactsDeleted, s.FilesRestored,
		s.RestoresSkipped, s.UnimportedKeys, s.Errors)
}
