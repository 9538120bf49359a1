package services

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"simpeg-sync/internal/dataset"
)

// Validator is the read-only integrity pass: it reports what the mutating
// commands would have to fix, and never writes.
type Validator struct {
	store    Datastore
	index    *dataset.Index
	filter   *Filter
	fileRoot string
}

func NewValidator(store Datastore, index *dataset.Index, filter *Filter, fileRoot string) *Validator {
	return &Validator{store: store, index: index, filter: filter, fileRoot: fileRoot}
}

type ValidateResult struct {
	DuplicateGroups  int
	OrphanFiles      int
	MissingArtifacts int
	UnimportedKeys   int
	Errors           int
}

func (v *Validator) Run() (ValidateResult, error) {
	var res ValidateResult

	keys, err := v.store.DuplicateKeys()
	if err != nil {
		return res, fmt.Errorf("validate: scanning duplicate keys: %w", err)
	}
	for _, key := range keys {
		if !v.filter.Allows(key.Nip) {
			continue
		}
		res.DuplicateGroups++
		log.Warnf("validate: duplicate group nip=%s pns_id=%s", key.Nip, key.PnsID)
	}

	files, err := v.store.ActiveFiles(v.filter.IncludeList())
	if err != nil {
		return res, fmt.Errorf("validate: listing active files: %w", err)
	}
	for _, f := range files {
		if !v.filter.Allows(f.Nip) {
			continue
		}

		refs, err := v.store.CountFileRefs(f.ID, nil)
		if err != nil {
			res.Errors++
			log.Errorf("validate: counting refs of file %d: %v", f.ID, err)
			continue
		}
		if refs == 0 {
			res.OrphanFiles++
			log.Warnf("validate: orphan file id=%d path=%s", f.ID, f.Path)
			continue
		}

		if _, err := os.Stat(artifactPath(v.fileRoot, f.Path)); err != nil {
			res.MissingArtifacts++
			log.Warnf("validate: missing artifact file id=%d path=%s", f.ID, f.Path)
		}
	}

	if v.index != nil {
		for _, key := range v.index.Keys() {
			if !v.filter.Allows(key.NIP) {
				continue
			}
			ok, err := v.store.HasKey(key.NIP, key.Tmt.Time())
			if err != nil {
				res.Errors++
				log.Errorf("validate: probing key nip=%s tmt=%s: %v", key.NIP, key.Tmt, err)
				continue
			}
			if !ok {
				res.UnimportedKeys++
				log.Warnf("validate: dataset key nip=%s tmt=%s has no local row", key.NIP, key.Tmt)
			}
		}
	}

	return res, nil
}
