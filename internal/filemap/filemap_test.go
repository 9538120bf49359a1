package filemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simpeg-sync/pkg/syncErrors"
)

func TestCategoryForDocID(t *testing.T) {
	cat, ok := CategoryForDocID("872")
	require.True(t, ok)
	assert.Equal(t, SkJabatan, cat)

	cat, ok = CategoryForDocID("873")
	require.True(t, ok)
	assert.Equal(t, Spmt, cat)

	cat, ok = CategoryForDocID("874")
	require.True(t, ok)
	assert.Equal(t, BaJabatan, cat)

	// Vendor adds document types without notice; unknown ids are skipped,
	// never an error.
	_, ok = CategoryForDocID("999")
	assert.False(t, ok)
}

func TestBindingFor(t *testing.T) {
	b, ok := BindingFor(SkJabatan)
	require.True(t, ok)
	assert.Equal(t, "file_sk_jabatan_id", b.Column)
	assert.Equal(t, 71, b.FileType)

	_, ok = BindingFor(Category("bogus"))
	assert.False(t, ok)
}

func TestCategoriesOrderIsStable(t *testing.T) {
	assert.Equal(t, []Category{SkJabatan, Spmt, BaJabatan}, Categories())
}

func TestStagingFilename(t *testing.T) {
	name, err := StagingFilename("rec9", SkJabatan, "peta/dok/sk_final.pdf")
	require.NoError(t, err)
	assert.Equal(t, "rec9_skJabatan_sk_final.pdf", name)

	_, err = StagingFilename("rec9", SkJabatan, "")
	assert.ErrorIs(t, err, syncErrors.ErrNoBasename)

	_, err = StagingFilename("rec9", SkJabatan, "peta/dok/")
	assert.ErrorIs(t, err, syncErrors.ErrNoBasename)
}
