package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"simpeg-sync/internal/dataset"
	"simpeg-sync/internal/models"
	"simpeg-sync/internal/repositories"
	"simpeg-sync/internal/utils"
)

// Reconciler resolves duplicate riwayat-jabatan groups: one keep row per
// (pns_id, tmt_jabatan), salvageable file references merged onto it, the rest
// deleted and their files released. Groups are processed sequentially; each
// group's mutations run in one transaction and a failed group rolls back and
// is counted without aborting the run.
type Reconciler struct {
	store           Datastore
	index           *dataset.Index
	actions         *ActionLog
	filter          *Filter
	fileRoot        string
	deleteArtifacts bool
}

func NewReconciler(store Datastore, index *dataset.Index, actions *ActionLog, filter *Filter, fileRoot string, deleteArtifacts bool) *Reconciler {
	return &Reconciler{
		store:           store,
		index:           index,
		actions:         actions,
		filter:          filter,
		fileRoot:        fileRoot,
		deleteArtifacts: deleteArtifacts,
	}
}

type ReconcileResult struct {
	GroupsScanned      int
	DuplicatesResolved int
	RowsDeleted        int
	FilesMerged        int
	FilesDeactivated   int
	ArtifactsDeleted   int
	Errors             int
}

func (rc *Reconciler) inDataset(row *models.RiwayatJabatan) bool {
	return rc.index != nil && rc.index.HasID(row.IDRiwayat)
}

// Run reconciles every duplicate group passing the filter. The returned error
// is fatal-only (the duplicate scan itself failed); per-group failures are
// counted in the result.
func (rc *Reconciler) Run() (ReconcileResult, error) {
	var res ReconcileResult

	keys, err := rc.store.DuplicateKeys()
	if err != nil {
		return res, fmt.Errorf("reconcile: scanning duplicate keys: %w", err)
	}

	for _, key := range keys {
		if !rc.filter.Allows(key.Nip) {
			continue
		}
		res.GroupsScanned++

		if err := rc.processGroup(key, &res); err != nil {
			res.Errors++
			log.Errorf("reconcile: group nip=%s tmt=%s: %v", key.Nip, utils.TanggalOf(key.Tmt), err)
		}
	}

	return res, nil
}

type releasedFile struct {
	id   uint
	path string
}

func (rc *Reconciler) processGroup(key repositories.GroupKey, res *ReconcileResult) error {
	rows, err := rc.store.RowsByKey(key.PnsID, key.Tmt)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		// Already reconciled by an earlier run.
		return nil
	}

	plan := PlanGroup(rows, rc.inDataset)
	tmt := utils.TanggalOf(key.Tmt)

	var groupActions []string
	rc.actions.Note(ActionKeepRow, "nip=%s tmt=%s keep row=%d of %d", key.Nip, tmt, plan.KeepID, len(rows))
	for _, m := range plan.Merges {
		rc.actions.Note(ActionMergeFile, "nip=%s tmt=%s row=%d %s <- file=%d", key.Nip, tmt, plan.KeepID, m.Category, m.FileID)
		groupActions = append(groupActions, fmt.Sprintf("merge %s file=%d", m.Category, m.FileID))
	}
	for _, id := range plan.DeleteIDs {
		rc.actions.Note(ActionDeleteRow, "nip=%s tmt=%s row=%d", key.Nip, tmt, id)
		groupActions = append(groupActions, fmt.Sprintf("delete row=%d", id))
	}

	if rc.actions.DryRun {
		rc.previewReleases(key, plan, res)
		res.DuplicatesResolved++
		res.RowsDeleted += len(plan.DeleteIDs)
		res.FilesMerged += len(plan.Merges)
		return nil
	}

	var released []releasedFile
	err = rc.store.InTransaction(func(tx Datastore) error {
		for _, m := range plan.Merges {
			fileID := m.FileID
			if err := tx.SetFileColumn(plan.KeepID, m.Category, &fileID); err != nil {
				return fmt.Errorf("merging %s onto row %d: %w", m.Category, plan.KeepID, err)
			}
		}
		for _, id := range plan.DeleteIDs {
			if err := tx.DeleteRow(id); err != nil {
				return fmt.Errorf("deleting row %d: %w", id, err)
			}
		}

		// The rows are gone inside this transaction, so the count reflects
		// exactly the references that survive the commit.
		for _, fileID := range plan.FreedFiles {
			refs, err := tx.CountFileRefs(fileID, nil)
			if err != nil {
				return fmt.Errorf("counting refs of file %d: %w", fileID, err)
			}
			if refs > 0 {
				continue
			}
			berkas, err := tx.FileByID(fileID)
			if err != nil {
				return fmt.Errorf("loading file %d: %w", fileID, err)
			}
			rc.actions.Note(ActionDeactivateFile, "file=%d path=%s", fileID, berkas.Path)
			if err := tx.DeactivateFile(fileID); err != nil {
				return fmt.Errorf("deactivating file %d: %w", fileID, err)
			}
			groupActions = append(groupActions, fmt.Sprintf("deactivate file=%d", fileID))
			released = append(released, releasedFile{id: fileID, path: berkas.Path})
		}

		return tx.CreateLog(&models.ReconcileLog{
			PnsID:      key.PnsID,
			TmtJabatan: key.Tmt,
			KeptRowID:  plan.KeepID,
			Actions:    pq.StringArray(groupActions),
		})
	})
	if err != nil {
		// The transaction rolled back, so the failure is audited in its own
		// statement.
		audit := &models.ReconcileLog{
			PnsID:      key.PnsID,
			TmtJabatan: key.Tmt,
			KeptRowID:  plan.KeepID,
			Error:      err.Error(),
		}
		if logErr := rc.store.CreateLog(audit); logErr != nil {
			log.Warnf("reconcile: recording failure for nip=%s tmt=%s: %v", key.Nip, tmt, logErr)
		}
		return err
	}

	res.DuplicatesResolved++
	res.RowsDeleted += len(plan.DeleteIDs)
	res.FilesMerged += len(plan.Merges)
	res.FilesDeactivated += len(released)

	// Artifact removal happens after commit and is independent of the
	// deactivation: a failed remove leaves an inactive record behind, which
	// cleanup can revisit.
	if rc.deleteArtifacts {
		for _, rel := range released {
			full := artifactPath(rc.fileRoot, rel.path)
			if rc.actions.Note(ActionDeleteArtifact, "file=%d path=%s", rel.id, full) {
				if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
					log.Warnf("reconcile: removing artifact of file %d: %v", rel.id, err)
					continue
				}
				res.ArtifactsDeleted++
			}
		}
	}

	return nil
}

// previewReleases mirrors the in-transaction orphan check for dry-run mode by
// excluding the rows the plan would delete from the reference count. The
// action order matches commit mode: every deactivation first, artifact
// removals after.
func (rc *Reconciler) previewReleases(key repositories.GroupKey, plan GroupPlan, res *ReconcileResult) {
	var released []releasedFile
	for _, fileID := range plan.FreedFiles {
		refs, err := rc.store.CountFileRefs(fileID, plan.DeleteIDs)
		if err != nil {
			log.Warnf("reconcile: previewing refs of file %d: %v", fileID, err)
			continue
		}
		if refs > 0 {
			continue
		}
		path := ""
		if berkas, err := rc.store.FileByID(fileID); err == nil {
			path = berkas.Path
		}
		rc.actions.Note(ActionDeactivateFile, "file=%d path=%s", fileID, path)
		res.FilesDeactivated++
		released = append(released, releasedFile{id: fileID, path: path})
	}
	if rc.deleteArtifacts {
		for _, rel := range released {
			rc.actions.Note(ActionDeleteArtifact, "file=%d path=%s", rel.id, artifactPath(rc.fileRoot, rel.path))
			res.ArtifactsDeleted++
		}
	}
}

func artifactPath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
