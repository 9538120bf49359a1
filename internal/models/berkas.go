package models

import "time"

const (
	FileStatusInactive = 0
	FileStatusActive   = 1
)

// BerkasPegawai describes one stored document. A record may be referenced by
// any number of riwayat rows across the three file columns; it is shared
// until a transactional reference count proves otherwise.
type BerkasPegawai struct {
	ID        uint   `gorm:"primaryKey"`
	PnsID     string `gorm:"type:varchar(42);not null;index"`
	Nip       string `gorm:"type:varchar(20);index"`
	JenisFile int    `gorm:"column:jenis_file;not null"`
	Path      string `gorm:"type:varchar(512);not null"`
	Ukuran    int64
	Status    int       `gorm:"default:1;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (BerkasPegawai) TableName() string {
	return "trx_berkas_pegawai"
}
