package dataset

import (
	log "github.com/sirupsen/logrus"

	"simpeg-sync/internal/utils"
)

// Key identifies one logical assignment: an employee at an effective date.
type Key struct {
	NIP string
	Tmt utils.Tanggal
}

// DroppedRecord is a dataset entry that could not be indexed. Dropped entries
// are reported and skipped, never merged under a guessed key.
type DroppedRecord struct {
	Record *ExternalRecord
	Reason string
}

type IndexStats struct {
	Total   int
	Indexed int
	Dropped int
	Keys    int
}

// Index groups dataset records by (NIP, TMT). Group iteration order is the
// insertion order of each key's first occurrence, so a given input file
// always replays identically.
type Index struct {
	groups  map[Key][]*ExternalRecord
	keys    []Key
	ids     map[string]struct{}
	Dropped []DroppedRecord
	Stats   IndexStats
}

func BuildIndex(records []ExternalRecord) *Index {
	ix := &Index{
		groups: make(map[Key][]*ExternalRecord, len(records)),
		ids:    make(map[string]struct{}, len(records)),
	}

	for i := range records {
		rec := &records[i]

		nip := rec.ResolveNIP()
		if nip == "" {
			ix.Dropped = append(ix.Dropped, DroppedRecord{Record: rec, Reason: "no resolvable NIP"})
			continue
		}

		tmt, ok := rec.Tmt()
		if !ok {
			ix.Dropped = append(ix.Dropped, DroppedRecord{Record: rec, Reason: "unparseable tmtJabatan: " + rec.TmtJabatan})
			continue
		}

		key := Key{NIP: nip, Tmt: tmt}
		if _, seen := ix.groups[key]; !seen {
			ix.keys = append(ix.keys, key)
		}
		ix.groups[key] = append(ix.groups[key], rec)
		if rec.ID != "" {
			ix.ids[rec.ID] = struct{}{}
		}
	}

	ix.Stats = IndexStats{
		Total:   len(records),
		Indexed: len(records) - len(ix.Dropped),
		Dropped: len(ix.Dropped),
		Keys:    len(ix.keys),
	}

	for _, d := range ix.Dropped {
		log.Warnf("dataset: dropped record id=%s: %s", d.Record.ID, d.Reason)
	}

	return ix
}

func (ix *Index) Get(key Key) []*ExternalRecord {
	return ix.groups[key]
}

func (ix *Index) Has(key Key) bool {
	_, ok := ix.groups[key]
	return ok
}

// HasID reports whether a BKN record id appears anywhere in the indexed
// dataset. Rows whose source id is absent come from stale imports.
func (ix *Index) HasID(id string) bool {
	if id == "" {
		return false
	}
	_, ok := ix.ids[id]
	return ok
}

func (ix *Index) Keys() []Key {
	return ix.keys
}
