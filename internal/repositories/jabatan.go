package repositories

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"simpeg-sync/internal/filemap"
	"simpeg-sync/internal/models"
	"simpeg-sync/pkg/syncErrors"
)

// GroupKey identifies one reconciliation group in the local database.
type GroupKey struct {
	PnsID string
	Nip   string
	Tmt   time.Time
}

type JabatanRepository struct {
	db *gorm.DB
}

func NewJabatanRepository(db *gorm.DB) *JabatanRepository {
	return &JabatanRepository{db: db}
}

// DuplicateKeys returns every (pns_id, tmt_jabatan) pair holding more than
// one row.
func (r *JabatanRepository) DuplicateKeys() ([]GroupKey, error) {
	var keys []GroupKey

	err := r.db.Raw(`
		SELECT pns_id, MIN(nip) AS nip, tmt_jabatan AS tmt
		FROM trx_riwayat_jabatan
		GROUP BY pns_id, tmt_jabatan
		HAVING COUNT(*) > 1
		ORDER BY pns_id, tmt_jabatan
	`).Scan(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch duplicate keys: %w", err)
	}

	return keys, nil
}

func (r *JabatanRepository) RowsByKey(pnsID string, tmt time.Time) ([]models.RiwayatJabatan, error) {
	var rows []models.RiwayatJabatan

	err := r.db.
		Where("pns_id = ? AND tmt_jabatan = ?", pnsID, tmt).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// SetFileColumn writes one of the three file-reference columns. The column
// name is validated against the filemap bindings before it reaches SQL.
func (r *JabatanRepository) SetFileColumn(rowID uint, cat filemap.Category, fileID *uint) error {
	b, ok := filemap.BindingFor(cat)
	if !ok {
		return syncErrors.ErrUnknownCategory
	}

	res := r.db.Exec(
		fmt.Sprintf(`UPDATE trx_riwayat_jabatan SET %s = ?, updated_at = NOW() WHERE id = ?`, b.Column),
		fileID, rowID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return syncErrors.ErrRowNotFound
	}
	return nil
}

func (r *JabatanRepository) Delete(rowID uint) error {
	return r.db.Exec(`DELETE FROM trx_riwayat_jabatan WHERE id = ?`, rowID).Error
}

// CountFileRefs counts rows still referencing a file id via any of the three
// columns, optionally excluding rows that are about to be deleted. The count
// is only trustworthy against current committed state or inside the mutating
// transaction itself.
func (r *JabatanRepository) CountFileRefs(fileID uint, exclude []uint) (int64, error) {
	q := r.db.Model(&models.RiwayatJabatan{}).
		Where("file_sk_jabatan_id = ? OR file_spmt_id = ? OR file_ba_jabatan_id = ?", fileID, fileID, fileID)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *JabatanRepository) RowsReferencingFile(fileID uint) ([]models.RiwayatJabatan, error) {
	var rows []models.RiwayatJabatan

	err := r.db.Raw(`
		SELECT *
		FROM trx_riwayat_jabatan
		WHERE file_sk_jabatan_id = ? OR file_spmt_id = ? OR file_ba_jabatan_id = ?
		ORDER BY id
	`, fileID, fileID, fileID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// HasKey reports whether any local row exists for a (nip, tmt) pair; used by
// the validate pass to spot dataset entries that were never imported.
func (r *JabatanRepository) HasKey(nip string, tmt time.Time) (bool, error) {
	var exists bool
	err := r.db.Raw(`
		SELECT EXISTS (
			SELECT 1 FROM trx_riwayat_jabatan WHERE nip = ? AND tmt_jabatan = ?
		)
	`, nip, tmt).Scan(&exists).Error
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *JabatanRepository) CreateLog(entry *models.ReconcileLog) error {
	return r.db.Create(entry).Error
}
