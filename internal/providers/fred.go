package providers

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tidyfin/findata/internal/fetch"
	"github.com/tidyfin/findata/table"
)

// DefaultFREDBaseURL is the FRED website base URL serving per-series CSV
// downloads.
const DefaultFREDBaseURL = "https://fred.stlouisfed.org"

// FRED downloads observation series from the St. Louis Fed via the public
// per-series CSV endpoint (no API key required).
type FRED struct {
	client  *fetch.Client
	baseURL string
}

// NewFRED creates a FRED adapter. An empty baseURL falls back to the
// production endpoint.
func NewFRED(client *fetch.Client, baseURL string) *FRED {
	if baseURL == "" {
		baseURL = DefaultFREDBaseURL
	}
	return &FRED{client: client, baseURL: baseURL}
}

// Fetch downloads one or more series concurrently and merges them row-wise
// into a long table (date, value, series). A failure on any series fails
// the whole call.
func (p *FRED) Fetch(ctx context.Context, seriesIDs []string) (*table.Table, error) {
	results := make([]*table.Table, len(seriesIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range seriesIDs {
		g.Go(func() error {
			tbl, err := p.fetchSeries(gctx, id)
			if err != nil {
				return fmt.Errorf("series %s: %w", id, err)
			}
			results[i] = tbl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := newFREDTable()
	for _, tbl := range results {
		for i := 0; i < tbl.NumRows(); i++ {
			d, _ := tbl.Time(i, "date")
			v, _ := tbl.Cell(i, "value")
			s, _ := tbl.Cell(i, "series")
			out.MustAppend(table.TimeCell(d), v, s)
		}
	}
	return out, nil
}

func newFREDTable() *table.Table {
	return table.New(
		table.Column{Name: "date", Kind: table.Time},
		table.Column{Name: "value", Kind: table.Float},
		table.Column{Name: "series", Kind: table.String},
	)
}

func (p *FRED) fetchSeries(ctx context.Context, id string) (*table.Table, error) {
	url := fmt.Sprintf("%s/series/%s/downloaddata/%s.csv", p.baseURL, id, id)
	body, err := p.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	records, err := readCSV(body)
	if err != nil {
		return nil, err
	}

	// Header is DATE,VALUE; missing observations are ".".
	tbl := newFREDTable()
	for _, rec := range records {
		date, ok := parseISODate(field(rec, 0))
		if !ok {
			continue
		}
		tbl.MustAppend(table.TimeCell(date), numberCell(field(rec, 1)), table.StringCell(id))
	}
	return tbl, nil
}
