package services

import (
	"time"

	"gorm.io/gorm"

	"simpeg-sync/internal/filemap"
	"simpeg-sync/internal/models"
	"simpeg-sync/internal/repositories"
)

// Datastore is the persistence surface the engine and the lifecycle manager
// work against. InTransaction hands the callback a Datastore bound to the
// open transaction; reference-count reads that gate a release must go through
// that bound store, never the outer one.
type Datastore interface {
	RowsByKey(pnsID string, tmt time.Time) ([]models.RiwayatJabatan, error)
	DuplicateKeys() ([]repositories.GroupKey, error)
	SetFileColumn(rowID uint, cat filemap.Category, fileID *uint) error
	DeleteRow(rowID uint) error
	CountFileRefs(fileID uint, exclude []uint) (int64, error)
	RowsReferencingFile(fileID uint) ([]models.RiwayatJabatan, error)
	HasKey(nip string, tmt time.Time) (bool, error)
	CreateLog(entry *models.ReconcileLog) error

	FileByID(id uint) (*models.BerkasPegawai, error)
	ActiveFiles(nips []string) ([]models.BerkasPegawai, error)
	DeactivateFile(id uint) error
	UpdateFileSize(id uint, size int64) error

	InTransaction(fn func(tx Datastore) error) error
}

type gormStore struct {
	db      *gorm.DB
	jabatan *repositories.JabatanRepository
	berkas  *repositories.BerkasRepository
}

func NewDatastore(db *gorm.DB) Datastore {
	return &gormStore{
		db:      db,
		jabatan: repositories.NewJabatanRepository(db),
		berkas:  repositories.NewBerkasRepository(db),
	}
}

func (s *gormStore) RowsByKey(pnsID string, tmt time.Time) ([]models.RiwayatJabatan, error) {
	return s.jabatan.RowsByKey(pnsID, tmt)
}

func (s *gormStore) DuplicateKeys() ([]repositories.GroupKey, error) {
	return s.jabatan.DuplicateKeys()
}

func (s *gormStore) SetFileColumn(rowID uint, cat filemap.Category, fileID *uint) error {
	return s.jabatan.SetFileColumn(rowID, cat, fileID)
}

func (s *gormStore) DeleteRow(rowID uint) error {
	return s.jabatan.Delete(rowID)
}

func (s *gormStore) CountFileRefs(fileID uint, exclude []uint) (int64, error) {
	return s.jabatan.CountFileRefs(fileID, exclude)
}

func (s *gormStore) RowsReferencingFile(fileID uint) ([]models.RiwayatJabatan, error) {
	return s.jabatan.RowsReferencingFile(fileID)
}

func (s *gormStore) HasKey(nip string, tmt time.Time) (bool, error) {
	return s.jabatan.HasKey(nip, tmt)
}

func (s *gormStore) CreateLog(entry *models.ReconcileLog) error {
	return s.jabatan.CreateLog(entry)
}

func (s *gormStore) FileByID(id uint) (*models.BerkasPegawai, error) {
	return s.berkas.ByID(id)
}

func (s *gormStore) ActiveFiles(nips []string) ([]models.BerkasPegawai, error) {
	return s.berkas.Active(nips)
}

func (s *gormStore) DeactivateFile(id uint) error {
	return s.berkas.Deactivate(id)
}

func (s *gormStore) UpdateFileSize(id uint, size int64) error {
	return s.berkas.UpdateSize(id, size)
}

func (s *gormStore) InTransaction(fn func(tx Datastore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewDatastore(tx))
	})
}
