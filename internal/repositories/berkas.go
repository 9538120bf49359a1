package repositories

import (
	"errors"

	"gorm.io/gorm"

	"simpeg-sync/internal/models"
	"simpeg-sync/pkg/syncErrors"
)

type BerkasRepository struct {
	db *gorm.DB
}

func NewBerkasRepository(db *gorm.DB) *BerkasRepository {
	return &BerkasRepository{db: db}
}

func (r *BerkasRepository) ByID(id uint) (*models.BerkasPegawai, error) {
	var berkas models.BerkasPegawai

	err := r.db.First(&berkas, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, syncErrors.ErrFileNotFound
	} else if err != nil {
		return nil, err
	}

	return &berkas, nil
}

// Active returns all active file records with a recorded path, optionally
// filtered to a NIP set.
func (r *BerkasRepository) Active(nips []string) ([]models.BerkasPegawai, error) {
	q := r.db.
		Where("status = ? AND path <> ''", models.FileStatusActive).
		Order("id")
	if len(nips) > 0 {
		q = q.Where("nip IN ?", nips)
	}

	var files []models.BerkasPegawai
	if err := q.Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *BerkasRepository) Deactivate(id uint) error {
	res := r.db.Exec(`
		UPDATE trx_berkas_pegawai SET status = ?, updated_at = NOW() WHERE id = ?
	`, models.FileStatusInactive, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return syncErrors.ErrFileNotFound
	}
	return nil
}

func (r *BerkasRepository) UpdateSize(id uint, size int64) error {
	return r.db.Exec(`
		UPDATE trx_berkas_pegawai SET ukuran = ?, updated_at = NOW() WHERE id = ?
	`, size, id).Error
}
