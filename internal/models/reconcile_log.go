package models

import (
	"time"

	"github.com/lib/pq"
)

// ReconcileLog is the audit row written for every group the reconciler
// mutated (commit mode only, inside the group transaction).
type ReconcileLog struct {
	ID         uint      `gorm:"primaryKey"`
	PnsID      string    `gorm:"type:varchar(42);index"`
	TmtJabatan time.Time `gorm:"type:date"`
	KeptRowID  uint
	Actions    pq.StringArray `gorm:"type:text[]"`
	Error      string
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (ReconcileLog) TableName() string {
	return "log_reconcile"
}
