package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// Three months of inputs in the upstream sheet layout. Values are chosen so
// the derived predictors are easy to verify by hand.
const macroMonthlyCSV = `yyyymm,Index,D12,E12,b/m,tbl,AAA,BAA,lty,ntis,Rfree,infl,ltr,svar
200001,"1,394.46",16.48,48.17,0.2646,0.0541,0.0778,0.0821,0.0665,0.0155,0.0041,0.0022,0.0112,0.0015
200002,"1,366.42",16.55,49.33,0.2713,0.0558,0.0768,0.0817,0.0648,0.0173,0.0043,0.0051,0.0221,0.0018
200003,"1,498.58",16.62,50.01,0.2565,0.0571,0.0783,0.0830,0.0620,0.0182,0.0047,0.0082,0.0165,0.0021
`

func TestMacroPredictorsFetchMonthly(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		fmt.Fprint(w, macroMonthlyCSV)
	}))
	defer srv.Close()

	p := NewMacroPredictors(testFetchClient(), srv.URL, "sheet-id")
	tbl, err := p.Fetch(context.Background(), "monthly")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if gotPath != "/sheet-id/gviz/tq?tqx=out:csv&sheet=Monthly" {
		t.Errorf("request path = %q", gotPath)
	}

	wantCols := []string{"date", "rp_div", "dp", "dy", "ep", "de", "svar", "bm",
		"ntis", "tbl", "lty", "ltr", "tms", "dfy", "infl"}
	gotCols := tbl.ColumnNames()
	if len(gotCols) != len(wantCols) {
		t.Fatalf("columns = %v, want %v", gotCols, wantCols)
	}
	for i, w := range wantCols {
		if gotCols[i] != w {
			t.Errorf("column %d = %q, want %q", i, gotCols[i], w)
		}
	}

	// Row 1 (February) is the only complete row: January lacks dy and the
	// shifted rp_div, March lacks rp_div (no April log return).
	if tbl.NumRows() != 1 {
		t.Fatalf("NumRows = %d, want 1", tbl.NumRows())
	}
	d, _ := tbl.Time(0, "date")
	if !d.Equal(time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date[0] = %v, want 2000-02-01", d)
	}

	approx := func(name string, want float64) {
		t.Helper()
		got, ok := tbl.Float(0, name)
		if !ok {
			t.Fatalf("%s missing", name)
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}

	// tms = lty - tbl, dfy = BAA - AAA for February.
	approx("tms", 0.0648-0.0558)
	approx("dfy", 0.0817-0.0768)
	// dp = log(D12) - log(Index).
	approx("dp", math.Log(16.55)-math.Log(1366.42))
	// dy uses the prior month's index level.
	approx("dy", math.Log(16.55)-math.Log(1394.46))
	// rp_div = next month's log total return minus this month's Rfree.
	wantLogret := math.Log(1498.58+16.62) - math.Log(1366.42+16.55)
	approx("rp_div", wantLogret-0.0043)
	// Pass-through columns keep their upstream values.
	approx("bm", 0.2713)
	approx("ntis", 0.0173)
	approx("infl", 0.0051)
}

func TestMacroPredictorsDropsRowsMissingNTIS(t *testing.T) {
	// February has no ntis observation, so only its completeness changes:
	// the single complete row disappears.
	csv := `yyyymm,Index,D12,E12,b/m,tbl,AAA,BAA,lty,ntis,Rfree,infl,ltr,svar
200001,"1,394.46",16.48,48.17,0.2646,0.0541,0.0778,0.0821,0.0665,0.0155,0.0041,0.0022,0.0112,0.0015
200002,"1,366.42",16.55,49.33,0.2713,0.0558,0.0768,0.0817,0.0648,,0.0043,0.0051,0.0221,0.0018
200003,"1,498.58",16.62,50.01,0.2565,0.0571,0.0783,0.0830,0.0620,0.0182,0.0047,0.0082,0.0165,0.0021
`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, csv)
	}))
	defer srv.Close()

	p := NewMacroPredictors(testFetchClient(), srv.URL, "sheet-id")
	tbl, err := p.Fetch(context.Background(), "monthly")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if tbl.NumRows() != 0 {
		t.Errorf("NumRows = %d, want 0 when ntis is missing", tbl.NumRows())
	}
}

func TestMacroPredictorsQuarterlyPeriods(t *testing.T) {
	csv := `yyyyq,Index,D12,E12,b/m,tbl,AAA,BAA,lty,ntis,Rfree,infl,ltr,svar
20001,100,1,2,0.3,0.05,0.07,0.08,0.06,0.01,0.004,0.002,0.01,0.001
20002,101,1,2,0.3,0.05,0.07,0.08,0.06,0.01,0.004,0.002,0.01,0.001
20003,102,1,2,0.3,0.05,0.07,0.08,0.06,0.01,0.004,0.002,0.01,0.001
`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, csv)
	}))
	defer srv.Close()

	p := NewMacroPredictors(testFetchClient(), srv.URL, "sheet-id")
	tbl, err := p.Fetch(context.Background(), "quarterly")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if tbl.NumRows() != 1 {
		t.Fatalf("NumRows = %d, want 1", tbl.NumRows())
	}
	// Q2 maps to April 1.
	d, _ := tbl.Time(0, "date")
	if !d.Equal(time.Date(2000, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date[0] = %v, want 2000-04-01", d)
	}
}
