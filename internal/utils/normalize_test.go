package utils

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNIP(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"plain string", "196801011990031001", "196801011990031001"},
		{"padded string", "  196801011990031001 ", "196801011990031001"},
		{"empty string", "", ""},
		{"whitespace only", "   ", ""},
		{"json number", json.Number("196801011990031001"), "196801011990031001"},
		{"float64", float64(12345), "12345"},
		{"int", 42, "42"},
		{"int64", int64(42), "42"},
		{"nil", nil, ""},
		{"unexpected type", []string{"x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeNIP(tt.in))
		})
	}
}

func TestParseTanggal(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want Tanggal
	}{
		{"01-03-2020", true, Tanggal{2020, 3, 1}},
		{"31-12-1999", true, Tanggal{1999, 12, 31}},
		{"29-02-2020", true, Tanggal{2020, 2, 29}}, // leap year
		{"29-02-2021", false, Tanggal{}},           // not a leap year
		{"31-02-2020", false, Tanggal{}},           // must not roll forward
		{"00-01-2020", false, Tanggal{}},
		{"01-13-2020", false, Tanggal{}},
		{"32-01-2020", false, Tanggal{}},
		{"1-3-2020", false, Tanggal{}},   // segment widths are strict
		{"01-03-20", false, Tanggal{}},   // four-digit year
		{"01/03/2020", false, Tanggal{}}, // wrong separator
		{"aa-03-2020", false, Tanggal{}},
		{"01-03", false, Tanggal{}},
		{"", false, Tanggal{}},
		{" 01-03-2020 ", true, Tanggal{2020, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTanggal(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTanggalRoundTrip(t *testing.T) {
	tg, ok := ParseTanggal("17-08-1945")
	require.True(t, ok)
	assert.Equal(t, "17-08-1945", tg.String())
	assert.Equal(t, time.Date(1945, time.August, 17, 0, 0, 0, 0, time.UTC), tg.Time())
	assert.Equal(t, tg, TanggalOf(tg.Time()))
}

func TestTanggalIsZero(t *testing.T) {
	assert.True(t, Tanggal{}.IsZero())
	assert.False(t, Tanggal{2020, 1, 1}.IsZero())
}
