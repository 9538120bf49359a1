package filemap

import (
	"fmt"
	"path"
	"strings"

	"simpeg-sync/pkg/syncErrors"
)

// Category identifies one of the document slots on a riwayat jabatan row.
type Category string

const (
	SkJabatan Category = "skJabatan"
	Spmt      Category = "spmt"
	BaJabatan Category = "baJabatan"
)

// Binding ties a category to its BKN document-type id, the column holding the
// file reference and the internal jenis_file classification code.
type Binding struct {
	DocID    string
	Column   string
	FileType int
}

// baJabatan has a document-type id in the current BKN schema even though most
// datasets carry zero instances of it. Treat an empty category as normal.
var bindings = map[Category]Binding{
	SkJabatan: {DocID: "872", Column: "file_sk_jabatan_id", FileType: 71},
	Spmt:      {DocID: "873", Column: "file_spmt_id", FileType: 72},
	BaJabatan: {DocID: "874", Column: "file_ba_jabatan_id", FileType: 73},
}

var byDocID = func() map[string]Category {
	m := make(map[string]Category, len(bindings))
	for cat, b := range bindings {
		m[b.DocID] = cat
	}
	return m
}()

// Categories returns all categories in a fixed order, sk first. Iteration
// over the map would make reconciliation output order vary between runs.
func Categories() []Category {
	return []Category{SkJabatan, Spmt, BaJabatan}
}

// CategoryForDocID maps a BKN document-type id to the internal category.
// Unknown ids are expected (BKN adds types without notice) and must be
// skipped by the caller, not treated as an error.
func CategoryForDocID(docID string) (Category, bool) {
	cat, ok := byDocID[docID]
	return cat, ok
}

func BindingFor(cat Category) (Binding, bool) {
	b, ok := bindings[cat]
	return b, ok
}

// StagingFilename derives the deterministic on-disk name for a downloaded
// document: "{recordID}_{category}_{basename of the source uri}".
func StagingFilename(recordID string, cat Category, sourceURI string) (string, error) {
	uri := strings.TrimSpace(sourceURI)
	if uri == "" || strings.HasSuffix(uri, "/") {
		return "", syncErrors.ErrNoBasename
	}
	base := path.Base(uri)
	if base == "." || base == "/" {
		return "", syncErrors.ErrNoBasename
	}
	return fmt.Sprintf("%s_%s_%s", recordID, cat, base), nil
}
