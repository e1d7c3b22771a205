package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const osapCSV = `date,BM,AssetGrowth,ReturnSkew
2020-01-31,0.012,-0.003,0.021
2020-02-29,0.018,,0.016
not-a-date,1,2,3
`

func TestOSAPFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, osapCSV)
	}))
	defer srv.Close()

	p := NewOSAP(testFetchClient(), srv.URL+"/uc?export=download", "sheet-id")
	tbl, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if gotQuery != "export=download&id=sheet-id" {
		t.Errorf("query = %q", gotQuery)
	}

	// Column names are snake_cased, date first.
	wantCols := []string{"date", "bm", "asset_growth", "return_skew"}
	gotCols := tbl.ColumnNames()
	for i, w := range wantCols {
		if gotCols[i] != w {
			t.Errorf("column %d = %q, want %q", i, gotCols[i], w)
		}
	}

	// The unparseable date row is dropped.
	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows = %d, want 2", tbl.NumRows())
	}
	d, _ := tbl.Time(0, "date")
	if !d.Equal(time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date[0] = %v, want 2020-01-31", d)
	}
	if _, ok := tbl.Float(1, "asset_growth"); ok {
		t.Error("empty field should parse as NA")
	}
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AssetGrowth", "asset_growth"},
		{"BM", "bm"},
		{"date", "date"},
		{"Book/Market", "book_market"},
		{"Return Skew 12", "return_skew_12"},
		{"b/m", "b_m"},
	}
	for _, tt := range tests {
		if got := snakeCase(tt.in); got != tt.want {
			t.Errorf("snakeCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
