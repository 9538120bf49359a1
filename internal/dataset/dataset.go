package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"simpeg-sync/internal/filemap"
	"simpeg-sync/internal/utils"
)

// DocRef points at one document on the BKN side.
type DocRef struct {
	URI  string `json:"dok_uri"`
	Name string `json:"dok_nama"`
}

// ExternalRecord is one entry of the bulk riwayat-jabatan export. The NIP
// field has been renamed across dataset versions, so every historical variant
// is declared and resolved through the extractor chain below.
type ExternalRecord struct {
	ID          string `json:"id"`
	PnsID       string `json:"idPns"`
	NipBaru     any    `json:"nipBaru"`
	Nip         any    `json:"nip"`
	NipLama     any    `json:"nipLama"`
	PnsNip      any    `json:"pnsNip"`
	TmtJabatan  string `json:"tmtJabatan"`
	NamaJabatan string `json:"namaJabatan"`
	NamaUnor    string `json:"unorNama"`
	NomorSk     string `json:"nomorSk"`
	TanggalSk   string `json:"tanggalSk"`

	// Path maps a BKN document-type id to its document reference.
	Path map[string]DocRef `json:"path"`
}

// nipFields is the priority order for resolving an employee NIP out of the
// legacy field variants. First non-empty value wins. Kept in one place so the
// fallback rule is auditable instead of being re-inlined at call sites.
var nipFields = []struct {
	name string
	get  func(*ExternalRecord) any
}{
	{"nipBaru", func(r *ExternalRecord) any { return r.NipBaru }},
	{"nip", func(r *ExternalRecord) any { return r.Nip }},
	{"nipLama", func(r *ExternalRecord) any { return r.NipLama }},
	{"pnsNip", func(r *ExternalRecord) any { return r.PnsNip }},
}

// ResolveNIP walks the fallback chain and returns "" when no variant is set.
func (r *ExternalRecord) ResolveNIP() string {
	for _, f := range nipFields {
		if v := utils.NormalizeNIP(f.get(r)); v != "" {
			return v
		}
	}
	return ""
}

func (r *ExternalRecord) Tmt() (utils.Tanggal, bool) {
	return utils.ParseTanggal(r.TmtJabatan)
}

// DocRefFor returns the document reference for a category, if the record
// carries one.
func (r *ExternalRecord) DocRefFor(cat filemap.Category) (DocRef, bool) {
	b, ok := filemap.BindingFor(cat)
	if !ok {
		return DocRef{}, false
	}
	ref, ok := r.Path[b.DocID]
	if !ok || strings.TrimSpace(ref.URI) == "" {
		return DocRef{}, false
	}
	return ref, true
}

type envelope struct {
	Data []ExternalRecord `json:"data"`
}

// Sanitize strips U+FFFD replacement characters. Some exports arrive with
// corrupt byte sequences already replaced, and they break json.Unmarshal
// inside string values that should compare equal.
func Sanitize(raw []byte) []byte {
	if !strings.ContainsRune(string(raw), '�') {
		return raw
	}
	return []byte(strings.ReplaceAll(string(raw), "�", ""))
}

// Parse accepts either a bare JSON array of records or an object wrapping it
// in a "data" field. Anything else, including a literal null, is fatal for
// the run.
func Parse(raw []byte) ([]ExternalRecord, error) {
	raw = Sanitize(raw)

	var records []ExternalRecord
	if err := decode(raw, &records); err == nil && records != nil {
		return records, nil
	}

	var env envelope
	if err := decode(raw, &env); err != nil {
		return nil, fmt.Errorf("dataset: not a record array and not a data envelope: %w", err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("dataset: object form has no data array")
	}
	return env.Data, nil
}

// decode unmarshals with UseNumber so numeric NIP variants keep all their
// digits instead of rounding through float64.
func decode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func Load(path string) ([]ExternalRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	return Parse(raw)
}
