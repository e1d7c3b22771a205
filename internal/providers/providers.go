// Package providers contains one adapter per upstream data source. Each
// adapter translates domain parameters into the exact query its upstream
// expects, fetches the raw payload, and parses it into a preliminary table
// with canonical column names and decimal scaling already applied. Date
// range filtering, deduplication, and sorting happen downstream in the
// dispatcher's normalization step.
package providers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidyfin/findata/table"
)

// ErrUnknownDataset is returned when a dataset, series, or index identifier
// is not part of the upstream catalog. The dispatcher maps it to a
// parameter-validation error.
var ErrUnknownDataset = errors.New("unknown dataset")

// readCSV parses raw CSV bytes into records. Rows may have varying field
// counts; leading whitespace in fields is trimmed.
func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// parseNumber parses a numeric field, tolerating thousands separators and
// surrounding whitespace. Empty fields, ".", and "NA" parse as missing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." || strings.EqualFold(s, "na") || strings.EqualFold(s, "nan") {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// numberCell parses a numeric field into a float cell, NA on failure.
func numberCell(s string) table.Cell {
	f, ok := parseNumber(s)
	if !ok {
		return table.NA(table.Float)
	}
	return table.FloatCell(f)
}

// parseCompactDate parses the date formats the factor files use: YYYYMMDD
// (daily/weekly), YYYYMM (monthly, mapped to the first of the month), and
// YYYY (annual, mapped to January 1).
func parseCompactDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 8:
		t, err := time.Parse("20060102", s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case 6:
		t, err := time.Parse("200601", s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case 4:
		t, err := time.Parse("2006", s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// parseISODate parses a YYYY-MM-DD date.
func parseISODate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// monthStart returns midnight UTC on the first day of the given month.
func monthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// snakeCase converts an upstream column name to snake_case: inserts
// underscores at lower-to-upper transitions, lowercases, and replaces
// spaces, slashes, and dashes.
func snakeCase(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			prevLower = false
		case r == ' ' || r == '/' || r == '-' || r == '.':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
		}
	}
	return strings.Trim(b.String(), "_")
}
