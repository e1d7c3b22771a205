package wrds

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tidyfin/findata/table"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Security filters for the CRSP v2 monthly file: US common shares on
// NYSE, AMEX, or NASDAQ, actively trading.
var crspShareFilters = sq.Eq{
	"ssih.sharetype":        "NS",
	"ssih.securitytype":     "EQTY",
	"ssih.securitysubtype":  "COM",
	"ssih.usincflg":         "Y",
	"ssih.issuertype":       []string{"ACOR", "CORP"},
	"ssih.primaryexch":      []string{"N", "A", "Q"},
	"ssih.conditionaltype":  []string{"RW", "NW"},
	"ssih.tradingstatusflg": "A",
}

func monthlyReturnsQuery(start, end time.Time) (string, []any, error) {
	return psql.
		Select(
			"msf.permno",
			"date_trunc('month', msf.mthcaldt)::date AS date",
			"msf.mthret AS ret",
			"msf.shrout",
			"msf.mthprc AS altprc",
			"ssih.primaryexch",
			"ssih.siccd",
		).
		From("crsp.msf_v2 AS msf").
		Join("crsp.stksecurityinfohist AS ssih ON msf.permno = ssih.permno" +
			" AND ssih.secinfostartdt <= msf.mthcaldt" +
			" AND msf.mthcaldt <= ssih.secinfoenddt").
		Where(sq.Expr("msf.mthcaldt BETWEEN ? AND ?", start, end)).
		Where(crspShareFilters).
		ToSql()
}

type monthlyRow struct {
	PermNo      int64
	Date        time.Time
	Ret         *float64
	ShrOut      *float64
	AltPrc      *float64
	PrimaryExch string
	SICCD       int64
}

func newMonthlyTable() *table.Table {
	return table.New(
		table.Column{Name: "permno", Kind: table.Float},
		table.Column{Name: "date", Kind: table.Time},
		table.Column{Name: "ret", Kind: table.Float},
		table.Column{Name: "shrout", Kind: table.Float},
		table.Column{Name: "altprc", Kind: table.Float},
		table.Column{Name: "primaryexch", Kind: table.String},
		table.Column{Name: "siccd", Kind: table.Float},
		table.Column{Name: "mktcap", Kind: table.Float},
		table.Column{Name: "mktcap_lag", Kind: table.Float},
		table.Column{Name: "exchange", Kind: table.String},
		table.Column{Name: "industry", Kind: table.String},
		table.Column{Name: "ret_excess", Kind: table.Float},
	)
}

type lagKey struct {
	permno int64
	date   time.Time
}

// transformMonthly derives market caps, lagged market caps, exchange and
// industry labels, and delisting-adjusted excess returns. Rows without a
// return, market cap, lag, or risk-free match are dropped. riskFree maps
// the first day of a month to that month's risk-free rate in decimals.
func transformMonthly(rows []monthlyRow, riskFree map[time.Time]float64) *table.Table {
	mktcaps := make(map[lagKey]float64, len(rows))
	for _, r := range rows {
		if mcap, ok := marketCap(r); ok {
			mktcaps[lagKey{r.PermNo, monthOf(r.Date)}] = mcap
		}
	}

	out := newMonthlyTable()
	for _, r := range rows {
		if r.Ret == nil {
			continue
		}
		mcap, ok := marketCap(r)
		if !ok {
			continue
		}
		month := monthOf(r.Date)
		capLag, ok := mktcaps[lagKey{r.PermNo, month.AddDate(0, -1, 0)}]
		if !ok {
			continue
		}
		rf, ok := riskFree[month]
		if !ok {
			continue
		}
		retExcess := *r.Ret - rf
		if retExcess < -1 {
			retExcess = -1
		}
		out.MustAppend(
			table.FloatCell(float64(r.PermNo)),
			table.TimeCell(month),
			table.FloatCell(*r.Ret),
			table.FloatCell(*r.ShrOut*1000),
			table.FloatCell(*r.AltPrc),
			table.StringCell(r.PrimaryExch),
			table.FloatCell(float64(r.SICCD)),
			table.FloatCell(mcap),
			table.FloatCell(capLag),
			table.StringCell(AssignExchange(r.PrimaryExch)),
			table.StringCell(AssignIndustry(r.SICCD)),
			table.FloatCell(retExcess),
		)
	}
	return out
}

// marketCap computes market capitalization in millions from shares
// outstanding (thousands) and price. A zero cap counts as missing.
func marketCap(r monthlyRow) (float64, bool) {
	if r.ShrOut == nil || r.AltPrc == nil {
		return 0, false
	}
	mcap := *r.ShrOut * 1000 * *r.AltPrc / 1e6
	if mcap == 0 {
		return 0, false
	}
	return mcap, true
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// CRSPMonthly fetches the CRSP v2 monthly stock file for [start, end] and
// derives excess returns against the supplied risk-free series.
func (c *Client) CRSPMonthly(ctx context.Context, start, end time.Time, riskFree map[time.Time]float64) (*table.Table, error) {
	query, args, err := monthlyReturnsQuery(start, end)
	if err != nil {
		return nil, fmt.Errorf("build crsp query: %w", err)
	}
	c.logger.Debug("querying crsp monthly", "start", start, "end", end)

	pgRows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query crsp.msf_v2: %w", err)
	}
	defer pgRows.Close()

	var rows []monthlyRow
	for pgRows.Next() {
		var r monthlyRow
		if err := pgRows.Scan(&r.PermNo, &r.Date, &r.Ret, &r.ShrOut, &r.AltPrc, &r.PrimaryExch, &r.SICCD); err != nil {
			return nil, fmt.Errorf("scan crsp row: %w", err)
		}
		rows = append(rows, r)
	}
	if err := pgRows.Err(); err != nil {
		return nil, fmt.Errorf("read crsp rows: %w", err)
	}

	return transformMonthly(rows, riskFree), nil
}
