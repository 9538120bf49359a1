package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NormalizeNIP canonicalizes the loosely-typed NIP values the BKN exports
// carry: sometimes a string, sometimes a JSON number. Absence is a valid
// outcome and is signaled by "", never by an error.
func NormalizeNIP(v any) string {
	switch n := v.(type) {
	case string:
		return strings.TrimSpace(n)
	case json.Number:
		// 18-digit NIPs exceed float64 precision; the decoder keeps them as
		// literals.
		return n.String()
	case float64:
		// Reached only for payloads decoded without UseNumber.
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case nil:
		return ""
	}
	return ""
}

// Tanggal is a calendar date with no time-of-day component, compared only by
// (year, month, day).
type Tanggal struct {
	Year  int
	Month int
	Day   int
}

func (t Tanggal) String() string {
	return fmt.Sprintf("%02d-%02d-%04d", t.Day, t.Month, t.Year)
}

// Time returns midnight UTC, the form date columns come back from postgres in.
func (t Tanggal) Time() time.Time {
	return time.Date(t.Year, time.Month(t.Month), t.Day, 0, 0, 0, 0, time.UTC)
}

func (t Tanggal) IsZero() bool {
	return t == Tanggal{}
}

func TanggalOf(tm time.Time) Tanggal {
	return Tanggal{Year: tm.Year(), Month: int(tm.Month()), Day: tm.Day()}
}

// ParseTanggal parses the strict DD-MM-YYYY form the BKN dataset uses.
// time.Date rolls invalid dates forward ("31-02-2020" becomes 02-03-2020),
// so after constructing the date we require it to round-trip to the same
// day/month/year.
func ParseTanggal(s string) (Tanggal, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || len(parts[0]) != 2 || len(parts[1]) != 2 || len(parts[2]) != 4 {
		return Tanggal{}, false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return Tanggal{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Tanggal{}, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return Tanggal{}, false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Tanggal{}, false
	}

	check := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if check.Year() != year || int(check.Month()) != month || check.Day() != day {
		return Tanggal{}, false
	}

	return Tanggal{Year: year, Month: month, Day: day}, true
}
