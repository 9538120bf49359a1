package services

import (
	"sort"

	"simpeg-sync/internal/filemap"
	"simpeg-sync/internal/models"
)

// InDatasetFunc reports whether a row's source record id is present in the
// current bulk dataset.
type InDatasetFunc func(*models.RiwayatJabatan) bool

// Outranks is the ordered tie-break deciding which of two rows survives
// reconciliation. Each criterion applies only when every earlier one ties:
// dataset presence, file-column completeness, recency, then row id. The final
// id comparison makes the order total; no two distinct rows compare equal.
func Outranks(a, b *models.RiwayatJabatan, inDataset InDatasetFunc) bool {
	ap, bp := inDataset(a), inDataset(b)
	if ap != bp {
		return ap
	}

	af, bf := a.FileCount(), b.FileCount()
	if af != bf {
		return af > bf
	}

	at, bt := a.LastTouched(), b.LastTouched()
	if !at.Equal(bt) {
		return at.After(bt)
	}

	return a.ID > b.ID
}

// SelectKeep reduces a group pairwise to its canonical row.
func SelectKeep(rows []models.RiwayatJabatan, inDataset InDatasetFunc) *models.RiwayatJabatan {
	keep := &rows[0]
	for i := 1; i < len(rows); i++ {
		if Outranks(&rows[i], keep, inDataset) {
			keep = &rows[i]
		}
	}
	return keep
}

// MergeOp copies one file reference from a redundant row onto the keep row.
type MergeOp struct {
	Category filemap.Category
	FileID   uint
}

// GroupPlan is the full action set for one reconciliation group, computed
// up front so dry-run and commit mode describe the same work.
type GroupPlan struct {
	KeepID    uint
	Merges    []MergeOp
	DeleteIDs []uint

	// FreedFiles are file ids held only by deleted rows (not carried over to
	// the keep row by a merge); each needs the transactional orphan check.
	FreedFiles []uint
}

// PlanGroup computes keep/merge/delete/free for one group. Merging is
// first-non-null-wins: a column already set on the keep row is never
// overwritten, and redundant rows donate in rank order.
func PlanGroup(rows []models.RiwayatJabatan, inDataset InDatasetFunc) GroupPlan {
	keep := SelectKeep(rows, inDataset)
	plan := GroupPlan{KeepID: keep.ID}

	if len(rows) < 2 {
		return plan
	}

	var redundant []*models.RiwayatJabatan
	for i := range rows {
		if rows[i].ID != keep.ID {
			redundant = append(redundant, &rows[i])
		}
	}
	sort.SliceStable(redundant, func(i, j int) bool {
		return Outranks(redundant[i], redundant[j], inDataset)
	})

	// kept tracks what the keep row references after the merge.
	kept := make(map[filemap.Category]*uint, 3)
	for _, cat := range filemap.Categories() {
		kept[cat] = keep.FileID(cat)
	}

	for _, row := range redundant {
		for _, cat := range filemap.Categories() {
			id := row.FileID(cat)
			if id == nil || kept[cat] != nil {
				continue
			}
			plan.Merges = append(plan.Merges, MergeOp{Category: cat, FileID: *id})
			kept[cat] = id
		}
	}

	keptIDs := make(map[uint]struct{}, 3)
	for _, id := range kept {
		if id != nil {
			keptIDs[*id] = struct{}{}
		}
	}

	seen := make(map[uint]struct{})
	for _, row := range redundant {
		plan.DeleteIDs = append(plan.DeleteIDs, row.ID)
		for _, cat := range filemap.Categories() {
			id := row.FileID(cat)
			if id == nil {
				continue
			}
			if _, held := keptIDs[*id]; held {
				continue
			}
			if _, dup := seen[*id]; dup {
				continue
			}
			seen[*id] = struct{}{}
			plan.FreedFiles = append(plan.FreedFiles, *id)
		}
	}
	sort.Slice(plan.FreedFiles, func(i, j int) bool { return plan.FreedFiles[i] < plan.FreedFiles[j] })

	return plan
}
