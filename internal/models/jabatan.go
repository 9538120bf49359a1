package models

import (
	"time"

	"simpeg-sync/internal/filemap"
)

// RiwayatJabatan is one position-assignment row imported from BKN. Historical
// import bugs left multiple rows per (pns_id, tmt_jabatan); reconciliation
// restores the one-row-per-key invariant, so the index is deliberately not
// unique here.
type RiwayatJabatan struct {
	ID          uint      `gorm:"primaryKey"`
	PnsID       string    `gorm:"type:varchar(42);not null;index:idx_riwayat_pns_tmt"`
	Nip         string    `gorm:"type:varchar(20);index"`
	TmtJabatan  time.Time `gorm:"type:date;not null;index:idx_riwayat_pns_tmt"`
	NamaJabatan string
	NamaUnor    string
	NomorSk     string
	TanggalSk   *time.Time `gorm:"type:date"`

	// IDRiwayat is the BKN record id this row was imported from; it is the
	// correlation key against the bulk dataset.
	IDRiwayat string `gorm:"type:varchar(42);index"`

	FileSkJabatanID *uint `gorm:"column:file_sk_jabatan_id"`
	FileSpmtID      *uint `gorm:"column:file_spmt_id"`
	FileBaJabatanID *uint `gorm:"column:file_ba_jabatan_id"`

	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`
}

func (RiwayatJabatan) TableName() string {
	return "trx_riwayat_jabatan"
}

func (r *RiwayatJabatan) FileID(cat filemap.Category) *uint {
	switch cat {
	case filemap.SkJabatan:
		return r.FileSkJabatanID
	case filemap.Spmt:
		return r.FileSpmtID
	case filemap.BaJabatan:
		return r.FileBaJabatanID
	}
	return nil
}

func (r *RiwayatJabatan) SetFileID(cat filemap.Category, id *uint) {
	switch cat {
	case filemap.SkJabatan:
		r.FileSkJabatanID = id
	case filemap.Spmt:
		r.FileSpmtID = id
	case filemap.BaJabatan:
		r.FileBaJabatanID = id
	}
}

// FileCount is the number of non-null file columns on the row.
func (r *RiwayatJabatan) FileCount() int {
	n := 0
	for _, cat := range filemap.Categories() {
		if r.FileID(cat) != nil {
			n++
		}
	}
	return n
}

// LastTouched is the later of UpdatedAt and CreatedAt; rows with neither
// timestamp report the zero time and lose every recency comparison.
func (r *RiwayatJabatan) LastTouched() time.Time {
	var t time.Time
	if r.CreatedAt != nil {
		t = *r.CreatedAt
	}
	if r.UpdatedAt != nil && r.UpdatedAt.After(t) {
		t = *r.UpdatedAt
	}
	return t
}
