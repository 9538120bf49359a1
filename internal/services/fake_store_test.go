package services

import (
	"fmt"
	"sort"
	"time"

	"simpeg-sync/internal/filemap"
	"simpeg-sync/internal/models"
	"simpeg-sync/internal/repositories"
	"simpeg-sync/pkg/syncErrors"
)

// fakeStore is an in-memory Datastore for engine tests. Writes are counted so
// dry-run purity can be asserted directly.
type fakeStore struct {
	rows   map[uint]*models.RiwayatJabatan
	files  map[uint]*models.BerkasPegawai
	logs   []*models.ReconcileLog
	writes int

	deleteRowErr map[uint]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:  make(map[uint]*models.RiwayatJabatan),
		files: make(map[uint]*models.BerkasPegawai),
	}
}

func (f *fakeStore) addRow(r models.RiwayatJabatan) {
	row := r
	f.rows[r.ID] = &row
}

func (f *fakeStore) addFile(b models.BerkasPegawai) {
	berkas := b
	f.files[b.ID] = &berkas
}

func (f *fakeStore) failDeleteRow(id uint, err error) {
	if f.deleteRowErr == nil {
		f.deleteRowErr = make(map[uint]error)
	}
	f.deleteRowErr[id] = err
}

func (f *fakeStore) sortedRowIDs() []uint {
	ids := make([]uint, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f *fakeStore) RowsByKey(pnsID string, tmt time.Time) ([]models.RiwayatJabatan, error) {
	var out []models.RiwayatJabatan
	for _, id := range f.sortedRowIDs() {
		row := f.rows[id]
		if row.PnsID == pnsID && row.TmtJabatan.Equal(tmt) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeStore) DuplicateKeys() ([]repositories.GroupKey, error) {
	type bucket struct {
		key   repositories.GroupKey
		count int
	}
	buckets := make(map[string]*bucket)
	for _, id := range f.sortedRowIDs() {
		row := f.rows[id]
		k := fmt.Sprintf("%s|%s", row.PnsID, row.TmtJabatan.Format("2006-01-02"))
		b, ok := buckets[k]
		if !ok {
			b = &bucket{key: repositories.GroupKey{PnsID: row.PnsID, Nip: row.Nip, Tmt: row.TmtJabatan}}
			buckets[k] = b
		}
		if row.Nip < b.key.Nip {
			b.key.Nip = row.Nip
		}
		b.count++
	}

	var keys []repositories.GroupKey
	for _, b := range buckets {
		if b.count > 1 {
			keys = append(keys, b.key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PnsID != keys[j].PnsID {
			return keys[i].PnsID < keys[j].PnsID
		}
		return keys[i].Tmt.Before(keys[j].Tmt)
	})
	return keys, nil
}

func (f *fakeStore) SetFileColumn(rowID uint, cat filemap.Category, fileID *uint) error {
	row, ok := f.rows[rowID]
	if !ok {
		return syncErrors.ErrRowNotFound
	}
	f.writes++
	row.SetFileID(cat, fileID)
	return nil
}

func (f *fakeStore) DeleteRow(rowID uint) error {
	if err := f.deleteRowErr[rowID]; err != nil {
		return err
	}
	f.writes++
	delete(f.rows, rowID)
	return nil
}

func (f *fakeStore) CountFileRefs(fileID uint, exclude []uint) (int64, error) {
	excluded := make(map[uint]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	var count int64
	for _, row := range f.rows {
		if _, skip := excluded[row.ID]; skip {
			continue
		}
		for _, cat := range filemap.Categories() {
			if id := row.FileID(cat); id != nil && *id == fileID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (f *fakeStore) RowsReferencingFile(fileID uint) ([]models.RiwayatJabatan, error) {
	var out []models.RiwayatJabatan
	for _, id := range f.sortedRowIDs() {
		row := f.rows[id]
		for _, cat := range filemap.Categories() {
			if fid := row.FileID(cat); fid != nil && *fid == fileID {
				out = append(out, *row)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) HasKey(nip string, tmt time.Time) (bool, error) {
	for _, row := range f.rows {
		if row.Nip == nip && row.TmtJabatan.Equal(tmt) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateLog(entry *models.ReconcileLog) error {
	f.writes++
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeStore) FileByID(id uint) (*models.BerkasPegawai, error) {
	berkas, ok := f.files[id]
	if !ok {
		return nil, syncErrors.ErrFileNotFound
	}
	copied := *berkas
	return &copied, nil
}

func (f *fakeStore) ActiveFiles(nips []string) ([]models.BerkasPegawai, error) {
	allowed := make(map[string]struct{}, len(nips))
	for _, nip := range nips {
		allowed[nip] = struct{}{}
	}

	ids := make([]uint, 0, len(f.files))
	for id := range f.files {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.BerkasPegawai
	for _, id := range ids {
		berkas := f.files[id]
		if berkas.Status != models.FileStatusActive || berkas.Path == "" {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[berkas.Nip]; !ok {
				continue
			}
		}
		out = append(out, *berkas)
	}
	return out, nil
}

func (f *fakeStore) DeactivateFile(id uint) error {
	berkas, ok := f.files[id]
	if !ok {
		return syncErrors.ErrFileNotFound
	}
	f.writes++
	berkas.Status = models.FileStatusInactive
	return nil
}

func (f *fakeStore) UpdateFileSize(id uint, size int64) error {
	berkas, ok := f.files[id]
	if !ok {
		return syncErrors.ErrFileNotFound
	}
	f.writes++
	berkas.Ukuran = size
	return nil
}

// InTransaction snapshots the store and restores it when the callback fails,
// mirroring a database rollback.
func (f *fakeStore) InTransaction(fn func(tx Datastore) error) error {
	rows := make(map[uint]*models.RiwayatJabatan, len(f.rows))
	for id, row := range f.rows {
		copied := *row
		rows[id] = &copied
	}
	files := make(map[uint]*models.BerkasPegawai, len(f.files))
	for id, berkas := range f.files {
		copied := *berkas
		files[id] = &copied
	}
	logs := append([]*models.ReconcileLog(nil), f.logs...)
	writes := f.writes

	if err := fn(f); err != nil {
		f.rows = rows
		f.files = files
		f.logs = logs
		f.writes = writes
		return err
	}
	return nil
}
