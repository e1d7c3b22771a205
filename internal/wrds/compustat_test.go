package wrds

import (
	"math"
	"strings"
	"testing"
	"time"
)

func tm(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAnnualFundamentalsQuery(t *testing.T) {
	query, args, err := annualFundamentalsQuery(tm(2019, 1, 1), tm(2021, 12, 31))
	if err != nil {
		t.Fatalf("annualFundamentalsQuery failed: %v", err)
	}
	for _, want := range []string{
		"FROM comp.funda",
		"indfmt =",
		"datafmt =",
		"consol =",
		"datadate BETWEEN",
		"seq", "ceq", "txditc", "pstkrv", "sale", "xsga",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query missing %q:\n%s", want, query)
		}
	}
	// Three format screens plus two date bounds.
	if len(args) != 5 {
		t.Errorf("len(args) = %d, want 5", len(args))
	}
}

func TestQuarterlyFundamentalsQuery(t *testing.T) {
	query, _, err := quarterlyFundamentalsQuery(tm(2019, 1, 1), tm(2021, 12, 31))
	if err != nil {
		t.Fatalf("quarterlyFundamentalsQuery failed: %v", err)
	}
	for _, want := range []string{"FROM comp.fundq", "rdq", "fyearq", "atq", "ceqq"} {
		if !strings.Contains(query, want) {
			t.Errorf("query missing %q:\n%s", want, query)
		}
	}
}

func TestBookEquity(t *testing.T) {
	tests := []struct {
		name  string
		row   annualRow
		want  float64
		valid bool
	}{
		{
			name:  "from stockholders equity",
			row:   annualRow{SEQ: f(100), TXDITC: f(10), PSTKRV: f(5)},
			want:  105,
			valid: true,
		},
		{
			name:  "fallback to ceq plus pstk",
			row:   annualRow{CEQ: f(90), PSTK: f(10)},
			want:  90, // 90+10 seq, minus pstk fallback 10
			valid: true,
		},
		{
			name:  "fallback to assets minus liabilities",
			row:   annualRow{AT: f(200), LT: f(120)},
			want:  80,
			valid: true,
		},
		{
			name:  "deferred tax fallback",
			row:   annualRow{SEQ: f(100), TXDB: f(6), ITCB: f(4)},
			want:  110,
			valid: true,
		},
		{
			name:  "non-positive is missing",
			row:   annualRow{SEQ: f(3), PSTKRV: f(10)},
			valid: false,
		},
		{
			name:  "no equity source",
			row:   annualRow{TXDITC: f(10)},
			valid: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bookEquity(tt.row)
			if ok != tt.valid {
				t.Fatalf("valid = %v, want %v", ok, tt.valid)
			}
			if ok && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("be = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransformAnnual(t *testing.T) {
	rows := []annualRow{
		// Two fiscal 2020 reports; the later one wins.
		{GVKey: "001690", DataDate: tm(2020, 6, 30), SEQ: f(50), AT: f(400), Sale: f(100)},
		{GVKey: "001690", DataDate: tm(2020, 9, 30), SEQ: f(60), AT: f(500), Sale: f(120), COGS: f(40), XSGA: f(20)},
		{GVKey: "001690", DataDate: tm(2021, 9, 30), SEQ: f(70), AT: f(550), Sale: f(130)},
	}

	tbl := transformAnnual(rows)
	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows = %d, want 2", tbl.NumRows())
	}

	// 2020 row: latest report kept, no prior year so inv is missing.
	if d, _ := tbl.Time(0, "datadate"); !d.Equal(tm(2020, 9, 30)) {
		t.Errorf("datadate[0] = %v, want 2020-09-30", d)
	}
	if v, _ := tbl.Float(0, "be"); v != 60 {
		t.Errorf("be[0] = %v, want 60", v)
	}
	if v, _ := tbl.Float(0, "op"); v != 1 {
		t.Errorf("op[0] = %v, want (120-40-20)/60 = 1", v)
	}
	if _, ok := tbl.Float(0, "inv"); ok {
		t.Error("inv[0] should be missing without a lagged total assets")
	}

	// 2021 row: inv = 550/500 - 1.
	if v, _ := tbl.Float(1, "inv"); math.Abs(v-0.1) > 1e-12 {
		t.Errorf("inv[1] = %v, want 0.1", v)
	}
}

func TestTransformQuarterly(t *testing.T) {
	q1 := int64(1)
	q2 := int64(2)
	fy := int64(2020)
	rows := []quarterlyRow{
		// Restated Q1 report; the later datadate wins per fiscal quarter.
		{GVKey: "001690", DataDate: tm(2020, 3, 25), RDQ: ptrTime(tm(2020, 4, 20)), FQtr: &q1, FYearQ: &fy, ATQ: f(90)},
		{GVKey: "001690", DataDate: tm(2020, 3, 31), RDQ: ptrTime(tm(2020, 4, 20)), FQtr: &q1, FYearQ: &fy, ATQ: f(100), CEQQ: f(40)},
		{GVKey: "001690", DataDate: tm(2020, 6, 30), RDQ: ptrTime(tm(2020, 7, 21)), FQtr: &q2, FYearQ: &fy, ATQ: f(110), CEQQ: f(45)},
		// Announced before the statement month ends; dropped.
		{GVKey: "002000", DataDate: tm(2020, 6, 30), RDQ: ptrTime(tm(2020, 5, 1)), FQtr: &q2, FYearQ: &fy, ATQ: f(10)},
		// Missing fiscal quarter; dropped.
		{GVKey: "003000", DataDate: tm(2020, 6, 30), FYearQ: &fy, ATQ: f(10)},
	}

	tbl := transformQuarterly(rows)
	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows = %d, want 2", tbl.NumRows())
	}
	if d, _ := tbl.Time(0, "date"); !d.Equal(tm(2020, 3, 1)) {
		t.Errorf("date[0] = %v, want month start 2020-03-01", d)
	}
	if v, _ := tbl.Float(0, "atq"); v != 100 {
		t.Errorf("atq[0] = %v, want restated 100", v)
	}
	if d, _ := tbl.Time(1, "datadate"); !d.Equal(tm(2020, 6, 30)) {
		t.Errorf("datadate[1] = %v, want 2020-06-30", d)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
