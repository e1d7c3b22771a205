package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidyfin/findata/internal/fetch"
	"github.com/tidyfin/findata/table"
)

// DefaultQFactorsBaseURL is the directory serving the global-q.org factor
// CSV files.
const DefaultQFactorsBaseURL = "https://global-q.org/uploads/1/2/2/6/122679606/"

// QFactors downloads the Hou-Xue-Zhang q-factor datasets. File names carry
// both the frequency and a reference year (the last complete calendar
// year), e.g. q5_factors_monthly_2023.
type QFactors struct {
	client  *fetch.Client
	baseURL string
	now     func() time.Time
}

// NewQFactors creates a q-factors adapter. An empty baseURL falls back to
// the production endpoint.
func NewQFactors(client *fetch.Client, baseURL string) *QFactors {
	if baseURL == "" {
		baseURL = DefaultQFactorsBaseURL
	}
	return &QFactors{client: client, baseURL: baseURL, now: time.Now}
}

// Datasets returns the dataset names currently published upstream.
func (p *QFactors) Datasets() []string {
	refYear := p.now().Year() - 1
	freqs := []string{"daily", "weekly", "weekly_w2w", "monthly", "quarterly", "annual"}
	names := make([]string, len(freqs))
	for i, f := range freqs {
		names[i] = fmt.Sprintf("q5_factors_%s_%d", f, refYear)
	}
	return names
}

// Fetch downloads and parses one q-factor dataset. Values arrive in percent
// and are scaled to decimals.
func (p *QFactors) Fetch(ctx context.Context, dataset string) (*table.Table, error) {
	known := p.Datasets()
	found := false
	for _, name := range known {
		if name == dataset {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q, choose one of %s",
			ErrUnknownDataset, dataset, strings.Join(known, ", "))
	}

	body, err := p.client.Get(ctx, p.baseURL+dataset+".csv")
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", dataset, err)
	}

	tbl, err := parseQFactorCSV(body)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dataset, err)
	}
	return tbl, nil
}

// parseQFactorCSV parses a q-factor CSV. Daily and weekly files carry a
// DATE column; monthly files carry (year, month), quarterly files (year,
// quarter), annual files just year. All are mapped to calendar dates:
// months and years to their first day, quarter q to month 3q-2.
func parseQFactorCSV(data []byte) (*table.Table, error) {
	records, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	header := records[0]
	yearIdx, monthIdx, quarterIdx, dateIdx := -1, -1, -1, -1
	var factors []string
	var factorIdx []int
	for j, name := range header {
		switch canonicalQName(name) {
		case "year":
			yearIdx = j
		case "month":
			monthIdx = j
		case "quarter":
			quarterIdx = j
		case "date":
			dateIdx = j
		default:
			factors = append(factors, canonicalQName(name))
			factorIdx = append(factorIdx, j)
		}
	}
	if dateIdx < 0 && yearIdx < 0 {
		return nil, fmt.Errorf("no date or year column in header %v", header)
	}

	cols := []table.Column{{Name: "date", Kind: table.Time}}
	for _, name := range factors {
		cols = append(cols, table.Column{Name: name, Kind: table.Float})
	}
	tbl := table.New(cols...)

	for _, rec := range records[1:] {
		date, ok := qRowDate(rec, dateIdx, yearIdx, monthIdx, quarterIdx)
		if !ok {
			continue
		}
		cells := make([]table.Cell, 0, len(cols))
		cells = append(cells, table.TimeCell(date))
		for _, j := range factorIdx {
			f, ok := parseNumber(field(rec, j))
			if !ok {
				cells = append(cells, table.NA(table.Float))
				continue
			}
			cells = append(cells, table.FloatCell(f/100))
		}
		if err := tbl.Append(cells...); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func qRowDate(rec []string, dateIdx, yearIdx, monthIdx, quarterIdx int) (time.Time, bool) {
	if dateIdx >= 0 {
		return parseCompactDate(field(rec, dateIdx))
	}
	year, ok := parseNumber(field(rec, yearIdx))
	if !ok {
		return time.Time{}, false
	}
	switch {
	case monthIdx >= 0:
		month, ok := parseNumber(field(rec, monthIdx))
		if !ok {
			return time.Time{}, false
		}
		return monthStart(int(year), int(month)), true
	case quarterIdx >= 0:
		quarter, ok := parseNumber(field(rec, quarterIdx))
		if !ok {
			return time.Time{}, false
		}
		return monthStart(int(year), 3*int(quarter)-2), true
	default:
		return monthStart(int(year), 1), true
	}
}

// canonicalQName maps upstream headers (R_F, R_MKT, R_ME, R_IA, R_ROE,
// R_EG) to the book's column names.
func canonicalQName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.TrimPrefix(lower, "r_")
	switch lower {
	case "f":
		return "risk_free"
	case "mkt":
		return "mkt_excess"
	}
	return lower
}
