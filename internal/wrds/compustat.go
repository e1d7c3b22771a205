package wrds

import (
	"context"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tidyfin/findata/table"
)

var annualColumns = []string{
	"gvkey", "datadate", "seq", "ceq", "at", "lt", "txditc", "txdb", "itcb",
	"pstkrv", "pstkl", "pstk", "capx", "oancf", "sale", "cogs", "xint", "xsga",
}

// Standard Compustat screens: industrial format, standardized data,
// consolidated statements.
var compustatFilters = sq.Eq{
	"indfmt":  "INDL",
	"datafmt": "STD",
	"consol":  "C",
}

func annualFundamentalsQuery(start, end time.Time) (string, []any, error) {
	return psql.
		Select(annualColumns...).
		From("comp.funda").
		Where(compustatFilters).
		Where(sq.Expr("datadate BETWEEN ? AND ?", start, end)).
		ToSql()
}

func quarterlyFundamentalsQuery(start, end time.Time) (string, []any, error) {
	return psql.
		Select("gvkey", "datadate", "rdq", "fqtr", "fyearq", "atq", "ceqq").
		From("comp.fundq").
		Where(compustatFilters).
		Where(sq.Expr("datadate BETWEEN ? AND ?", start, end)).
		ToSql()
}

type annualRow struct {
	GVKey    string
	DataDate time.Time
	SEQ      *float64
	CEQ      *float64
	AT       *float64
	LT       *float64
	TXDITC   *float64
	TXDB     *float64
	ITCB     *float64
	PSTKRV   *float64
	PSTKL    *float64
	PSTK     *float64
	CAPX     *float64
	OANCF    *float64
	Sale     *float64
	COGS     *float64
	XInt     *float64
	XSGA     *float64
}

type quarterlyRow struct {
	GVKey    string
	DataDate time.Time
	RDQ      *time.Time
	FQtr     *int64
	FYearQ   *int64
	ATQ      *float64
	CEQQ     *float64
}

func firstNonNil(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func addPtr(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	s := *a + *b
	return &s
}

func subPtr(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := *a - *b
	return &d
}

func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// bookEquity follows the Fama-French definition: stockholders' equity
// (falling back to common equity plus preferred stock, then assets minus
// liabilities) plus deferred taxes minus preferred stock value. Non-positive
// book equity counts as missing.
func bookEquity(r annualRow) (float64, bool) {
	se := firstNonNil(r.SEQ, addPtr(r.CEQ, r.PSTK), subPtr(r.AT, r.LT))
	if se == nil {
		return 0, false
	}
	be := *se + orZero(firstNonNil(r.TXDITC, addPtr(r.TXDB, r.ITCB))) -
		orZero(firstNonNil(r.PSTKRV, r.PSTKL, r.PSTK))
	if be <= 0 {
		return 0, false
	}
	return be, true
}

// operatingProfitability is revenue minus costs of goods sold, SG&A, and
// interest expense, scaled by book equity.
func operatingProfitability(r annualRow, be float64) (float64, bool) {
	if r.Sale == nil {
		return 0, false
	}
	return (*r.Sale - orZero(r.COGS) - orZero(r.XSGA) - orZero(r.XInt)) / be, true
}

func newAnnualTable() *table.Table {
	cols := []table.Column{
		{Name: "gvkey", Kind: table.String},
		{Name: "datadate", Kind: table.Time},
	}
	for _, name := range annualColumns[2:] {
		cols = append(cols, table.Column{Name: name, Kind: table.Float})
	}
	cols = append(cols,
		table.Column{Name: "be", Kind: table.Float},
		table.Column{Name: "op", Kind: table.Float},
		table.Column{Name: "inv", Kind: table.Float},
	)
	return table.New(cols...)
}

type firmYear struct {
	gvkey string
	year  int
}

// transformAnnual keeps the latest report per firm and fiscal year and
// derives book equity, operating profitability, and asset growth.
func transformAnnual(rows []annualRow) *table.Table {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DataDate.Before(rows[j].DataDate)
	})
	latest := make(map[firmYear]annualRow, len(rows))
	for _, r := range rows {
		latest[firmYear{r.GVKey, r.DataDate.Year()}] = r
	}

	kept := make([]annualRow, 0, len(latest))
	for _, r := range latest {
		kept = append(kept, r)
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].GVKey != kept[j].GVKey {
			return kept[i].GVKey < kept[j].GVKey
		}
		return kept[i].DataDate.Before(kept[j].DataDate)
	})

	assets := make(map[firmYear]*float64, len(kept))
	for _, r := range kept {
		assets[firmYear{r.GVKey, r.DataDate.Year()}] = r.AT
	}

	out := newAnnualTable()
	for _, r := range kept {
		cells := []table.Cell{
			table.StringCell(r.GVKey),
			table.TimeCell(r.DataDate),
		}
		for _, p := range []*float64{
			r.SEQ, r.CEQ, r.AT, r.LT, r.TXDITC, r.TXDB, r.ITCB,
			r.PSTKRV, r.PSTKL, r.PSTK, r.CAPX, r.OANCF, r.Sale,
			r.COGS, r.XInt, r.XSGA,
		} {
			cells = append(cells, floatOrNA(p))
		}

		beCell, opCell := table.NA(table.Float), table.NA(table.Float)
		if be, ok := bookEquity(r); ok {
			beCell = table.FloatCell(be)
			if op, ok := operatingProfitability(r, be); ok {
				opCell = table.FloatCell(op)
			}
		}

		invCell := table.NA(table.Float)
		atLag := assets[firmYear{r.GVKey, r.DataDate.Year() - 1}]
		if r.AT != nil && atLag != nil && *atLag > 0 {
			invCell = table.FloatCell(*r.AT / *atLag - 1)
		}

		out.MustAppend(append(cells, beCell, opCell, invCell)...)
	}
	return out
}

func floatOrNA(p *float64) table.Cell {
	if p == nil {
		return table.NA(table.Float)
	}
	return table.FloatCell(*p)
}

type firmQuarter struct {
	gvkey  string
	fyearq int64
	fqtr   int64
}

type firmMonth struct {
	gvkey string
	date  time.Time
}

// transformQuarterly keeps the latest report per firm-fiscal-quarter, then
// the earliest-announced report per firm-month, and drops reports whose
// announcement date is not after the statement month.
func transformQuarterly(rows []quarterlyRow) *table.Table {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DataDate.Before(rows[j].DataDate)
	})
	latest := make(map[firmQuarter]quarterlyRow, len(rows))
	for _, r := range rows {
		if r.GVKey == "" || r.DataDate.IsZero() || r.FYearQ == nil || r.FQtr == nil {
			continue
		}
		latest[firmQuarter{r.GVKey, *r.FYearQ, *r.FQtr}] = r
	}

	kept := make([]quarterlyRow, 0, len(latest))
	for _, r := range latest {
		kept = append(kept, r)
	}
	// Announced-first ordering within a firm-month; unknown announcement
	// dates sort last.
	sort.Slice(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.GVKey != b.GVKey {
			return a.GVKey < b.GVKey
		}
		am, bm := monthOf(a.DataDate), monthOf(b.DataDate)
		if !am.Equal(bm) {
			return am.Before(bm)
		}
		switch {
		case a.RDQ == nil:
			return false
		case b.RDQ == nil:
			return true
		default:
			return a.RDQ.Before(*b.RDQ)
		}
	})

	out := table.New(
		table.Column{Name: "gvkey", Kind: table.String},
		table.Column{Name: "date", Kind: table.Time},
		table.Column{Name: "datadate", Kind: table.Time},
		table.Column{Name: "atq", Kind: table.Float},
		table.Column{Name: "ceqq", Kind: table.Float},
	)
	seen := make(map[firmMonth]bool, len(kept))
	for _, r := range kept {
		month := monthOf(r.DataDate)
		key := firmMonth{r.GVKey, month}
		if seen[key] {
			continue
		}
		seen[key] = true
		if r.RDQ != nil && !month.Before(*r.RDQ) {
			continue
		}
		out.MustAppend(
			table.StringCell(r.GVKey),
			table.TimeCell(month),
			table.TimeCell(r.DataDate),
			floatOrNA(r.ATQ),
			floatOrNA(r.CEQQ),
		)
	}
	return out
}

// CompustatAnnual fetches annual fundamentals from comp.funda for
// [start, end] with derived be, op, and inv columns.
func (c *Client) CompustatAnnual(ctx context.Context, start, end time.Time) (*table.Table, error) {
	query, args, err := annualFundamentalsQuery(start, end)
	if err != nil {
		return nil, fmt.Errorf("build compustat query: %w", err)
	}
	c.logger.Debug("querying compustat annual", "start", start, "end", end)

	pgRows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comp.funda: %w", err)
	}
	defer pgRows.Close()

	var rows []annualRow
	for pgRows.Next() {
		var r annualRow
		if err := pgRows.Scan(
			&r.GVKey, &r.DataDate, &r.SEQ, &r.CEQ, &r.AT, &r.LT,
			&r.TXDITC, &r.TXDB, &r.ITCB, &r.PSTKRV, &r.PSTKL, &r.PSTK,
			&r.CAPX, &r.OANCF, &r.Sale, &r.COGS, &r.XInt, &r.XSGA,
		); err != nil {
			return nil, fmt.Errorf("scan compustat row: %w", err)
		}
		rows = append(rows, r)
	}
	if err := pgRows.Err(); err != nil {
		return nil, fmt.Errorf("read compustat rows: %w", err)
	}

	return transformAnnual(rows), nil
}

// CompustatQuarterly fetches quarterly fundamentals from comp.fundq for
// [start, end], deduplicated to one report per firm-month.
func (c *Client) CompustatQuarterly(ctx context.Context, start, end time.Time) (*table.Table, error) {
	query, args, err := quarterlyFundamentalsQuery(start, end)
	if err != nil {
		return nil, fmt.Errorf("build compustat query: %w", err)
	}
	c.logger.Debug("querying compustat quarterly", "start", start, "end", end)

	pgRows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comp.fundq: %w", err)
	}
	defer pgRows.Close()

	var rows []quarterlyRow
	for pgRows.Next() {
		var r quarterlyRow
		if err := pgRows.Scan(&r.GVKey, &r.DataDate, &r.RDQ, &r.FQtr, &r.FYearQ, &r.ATQ, &r.CEQQ); err != nil {
			return nil, fmt.Errorf("scan compustat row: %w", err)
		}
		rows = append(rows, r)
	}
	if err := pgRows.Err(); err != nil {
		return nil, fmt.Errorf("read compustat rows: %w", err)
	}

	return transformQuarterly(rows), nil
}
