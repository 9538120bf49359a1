package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"simpeg-sync/internal/dataset"
	"simpeg-sync/internal/filemap"
	"simpeg-sync/internal/models"
	"simpeg-sync/internal/utils"
	"simpeg-sync/pkg/syncErrors"
)

// DocumentClient streams one document from the BKN side. Token handling and
// the single 401 retry live behind this interface.
type DocumentClient interface {
	OpenDocument(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Lifecycle owns the file-record side effects: releasing orphaned records,
// deleting artifacts on explicit opt-in, and restoring artifacts that are
// referenced but missing from disk.
type Lifecycle struct {
	store           Datastore
	index           *dataset.Index
	client          DocumentClient
	actions         *ActionLog
	filter          *Filter
	fileRoot        string
	deleteArtifacts bool
	workers         int
}

func NewLifecycle(store Datastore, index *dataset.Index, client DocumentClient, actions *ActionLog, filter *Filter, fileRoot string, deleteArtifacts bool, workers int) *Lifecycle {
	if workers < 1 {
		workers = 1
	}
	return &Lifecycle{
		store:           store,
		index:           index,
		client:          client,
		actions:         actions,
		filter:          filter,
		fileRoot:        fileRoot,
		deleteArtifacts: deleteArtifacts,
		workers:         workers,
	}
}

type CleanupResult struct {
	FilesScanned     int
	FilesDeactivated int
	ArtifactsDeleted int
	Errors           int
}

// CleanupOrphans deactivates every active file record no longer referenced by
// any riwayat row. The reference count runs inside the same transaction as
// the deactivation so a concurrent pass cannot double-release a shared file.
func (lc *Lifecycle) CleanupOrphans() (CleanupResult, error) {
	var res CleanupResult

	files, err := lc.store.ActiveFiles(lc.filter.IncludeList())
	if err != nil {
		return res, fmt.Errorf("cleanup: listing active files: %w", err)
	}

	for _, f := range files {
		if !lc.filter.Allows(f.Nip) {
			continue
		}
		res.FilesScanned++

		if lc.actions.DryRun {
			refs, err := lc.store.CountFileRefs(f.ID, nil)
			if err != nil {
				res.Errors++
				log.Errorf("cleanup: counting refs of file %d: %v", f.ID, err)
				continue
			}
			if refs > 0 {
				continue
			}
			lc.actions.Note(ActionDeactivateFile, "file=%d path=%s", f.ID, f.Path)
			res.FilesDeactivated++
			if lc.deleteArtifacts {
				lc.actions.Note(ActionDeleteArtifact, "file=%d path=%s", f.ID, artifactPath(lc.fileRoot, f.Path))
				res.ArtifactsDeleted++
			}
			continue
		}

		deactivated := false
		err := lc.store.InTransaction(func(tx Datastore) error {
			refs, err := tx.CountFileRefs(f.ID, nil)
			if err != nil {
				return err
			}
			if refs > 0 {
				return nil
			}
			lc.actions.Note(ActionDeactivateFile, "file=%d path=%s", f.ID, f.Path)
			if err := tx.DeactivateFile(f.ID); err != nil {
				return err
			}
			deactivated = true
			return nil
		})
		if err != nil {
			res.Errors++
			log.Errorf("cleanup: file %d: %v", f.ID, err)
			continue
		}
		if !deactivated {
			continue
		}
		res.FilesDeactivated++

		if lc.deleteArtifacts {
			full := artifactPath(lc.fileRoot, f.Path)
			if lc.actions.Note(ActionDeleteArtifact, "file=%d path=%s", f.ID, full) {
				if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
					log.Warnf("cleanup: removing artifact of file %d: %v", f.ID, err)
					continue
				}
				res.ArtifactsDeleted++
			}
		}
	}

	return res, nil
}

type RestoreResult struct {
	FilesScanned int
	Missing      int
	Restored     int
	Skipped      int
	Errors       int
}

type restoreJob struct {
	file models.BerkasPegawai
	uri  string
	dest string
}

type restoreOutcome struct {
	size int64
	err  error
}

// RestoreMissing re-downloads artifacts that are referenced and active but
// absent on disk, using the document URI the dataset records for the owning
// (nip, tmt, category) slot. Files with no matching dataset URI are skipped
// and reported, never fabricated.
func (lc *Lifecycle) RestoreMissing(ctx context.Context) (RestoreResult, error) {
	var res RestoreResult

	files, err := lc.store.ActiveFiles(lc.filter.IncludeList())
	if err != nil {
		return res, fmt.Errorf("restore: listing active files: %w", err)
	}

	var jobs []restoreJob
	for _, f := range files {
		if !lc.filter.Allows(f.Nip) {
			continue
		}
		res.FilesScanned++

		dest := artifactPath(lc.fileRoot, f.Path)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		res.Missing++

		uri, err := lc.datasetURI(f.ID)
		if err != nil {
			lc.actions.Note(ActionSkip, "file=%d path=%s: %v", f.ID, f.Path, err)
			res.Skipped++
			continue
		}

		if !lc.actions.Note(ActionRestoreFile, "file=%d path=%s uri=%s", f.ID, dest, uri) {
			res.Restored++
			continue
		}
		jobs = append(jobs, restoreJob{file: f, uri: uri, dest: dest})
	}

	if len(jobs) == 0 {
		return res, nil
	}

	// Downloads fan out over a bounded worker pool; database writes stay on
	// this goroutine.
	outcomes := make([]restoreOutcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(lc.workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			size, err := SaveDocument(ctx, lc.client, jobs[i].uri, jobs[i].dest)
			outcomes[i] = restoreOutcome{size: size, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, job := range jobs {
		if outcomes[i].err != nil {
			res.Errors++
			log.Errorf("restore: file %d from %s: %v", job.file.ID, job.uri, outcomes[i].err)
			continue
		}
		if err := lc.store.UpdateFileSize(job.file.ID, outcomes[i].size); err != nil {
			res.Errors++
			log.Errorf("restore: recording size of file %d: %v", job.file.ID, err)
			continue
		}
		res.Restored++
	}

	return res, nil
}

// datasetURI finds the download URI for a file id by walking the rows that
// reference it, mapping each referencing column to its category, and probing
// the dataset group of the row's (nip, tmt) key.
func (lc *Lifecycle) datasetURI(fileID uint) (string, error) {
	rows, err := lc.store.RowsReferencingFile(fileID)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", syncErrors.ErrFileUnreferenced
	}

	if lc.index == nil {
		return "", syncErrors.ErrNoDatasetEntry
	}

	for i := range rows {
		row := &rows[i]
		for _, cat := range filemap.Categories() {
			id := row.FileID(cat)
			if id == nil || *id != fileID {
				continue
			}
			key := dataset.Key{NIP: row.Nip, Tmt: utils.TanggalOf(row.TmtJabatan)}
			for _, rec := range lc.index.Get(key) {
				if ref, ok := rec.DocRefFor(cat); ok {
					return ref.URI, nil
				}
			}
		}
	}

	return "", syncErrors.ErrNoDocumentURI
}

// SaveDocument streams a download to a temporary path, verifies the PDF
// signature and a non-zero length, then atomically renames over the final
// path. The destination is never left holding a partial stream.
func SaveDocument(ctx context.Context, client DocumentClient, uri, dest string) (int64, error) {
	body, err := client.OpenDocument(ctx, uri)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := body.Close(); err != nil {
			log.Warnf("restore: closing download body: %v", err)
		}
	}()

	header := make([]byte, 2)
	if _, err := io.ReadFull(body, header); err != nil {
		return 0, syncErrors.ErrEmptyDownload
	}
	if !bytes.Equal(header, []byte("%P")) {
		return 0, syncErrors.ErrNotPDF
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}

	if _, err := out.Write(header); err != nil {
		out.Close()
		os.Remove(tmp)
		return 0, err
	}
	n, err := io.Copy(out, body)
	if err != nil {
		out.Close()
		os.Remove(tmp)
		return 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return 0, err
	}

	size := n + int64(len(header))
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return size, nil
}
