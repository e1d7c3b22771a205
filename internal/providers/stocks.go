package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tidyfin/findata/internal/fetch"
	"github.com/tidyfin/findata/table"
)

// DefaultYahooBaseURL is the Yahoo Finance chart API base URL.
const DefaultYahooBaseURL = "https://query2.finance.yahoo.com"

// StockPrices downloads daily OHLCV price histories from the Yahoo Finance
// v8 chart endpoint, one request per symbol.
type StockPrices struct {
	client  *fetch.Client
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

// NewStockPrices creates a stock price adapter. An empty baseURL falls back
// to the production endpoint.
func NewStockPrices(client *fetch.Client, baseURL string, logger *slog.Logger) *StockPrices {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StockPrices{client: client, baseURL: baseURL, logger: logger, now: time.Now}
}

// chartResponse mirrors the Yahoo v8 chart payload. Pointer slices keep
// nulls distinguishable from zeros.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

func newPriceTable() *table.Table {
	return table.New(
		table.Column{Name: "date", Kind: table.Time},
		table.Column{Name: "symbol", Kind: table.String},
		table.Column{Name: "volume", Kind: table.Float},
		table.Column{Name: "open", Kind: table.Float},
		table.Column{Name: "low", Kind: table.Float},
		table.Column{Name: "high", Kind: table.Float},
		table.Column{Name: "close", Kind: table.Float},
		table.Column{Name: "adjusted_close", Kind: table.Float},
	)
}

// Fetch downloads daily prices for the given symbols concurrently and
// merges them row-wise. Unbounded sides of the date range default to two
// years back and today. A symbol for which Yahoo returns no data is skipped
// with a warning; transport failures fail the whole call.
func (p *StockPrices) Fetch(ctx context.Context, symbols []string, start, end time.Time) (*table.Table, error) {
	if start.IsZero() {
		start = p.now().AddDate(-2, 0, 0)
	}
	if end.IsZero() {
		end = p.now()
	}

	results := make([]*table.Table, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		g.Go(func() error {
			tbl, err := p.fetchSymbol(gctx, symbol, start, end)
			if err != nil {
				return fmt.Errorf("symbol %s: %w", symbol, err)
			}
			results[i] = tbl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := newPriceTable()
	for _, tbl := range results {
		if tbl == nil {
			continue
		}
		for i := 0; i < tbl.NumRows(); i++ {
			row := make([]table.Cell, 0, out.NumCols())
			for _, name := range out.ColumnNames() {
				c, _ := tbl.Cell(i, name)
				row = append(row, c)
			}
			out.MustAppend(row...)
		}
	}
	return out, nil
}

func (p *StockPrices) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) (*table.Table, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		p.baseURL, symbol, start.Unix(), end.Unix())

	var resp chartResponse
	if err := p.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Timestamp) == 0 {
		p.logger.Warn("no price data for symbol", "symbol", symbol)
		return nil, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.AdjClose) == 0 {
		p.logger.Warn("incomplete chart payload for symbol", "symbol", symbol)
		return nil, nil
	}
	quote := result.Indicators.Quote[0]
	adjClose := result.Indicators.AdjClose[0].AdjClose

	tbl := newPriceTable()
	for i, ts := range result.Timestamp {
		open := at(quote.Open, i)
		high := at(quote.High, i)
		low := at(quote.Low, i)
		closePx := at(quote.Close, i)
		adj := at(adjClose, i)
		volume := at(quote.Volume, i)
		if open == nil || high == nil || low == nil || closePx == nil || adj == nil || volume == nil {
			continue
		}
		day := time.Unix(ts, 0).UTC()
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		tbl.MustAppend(
			table.TimeCell(day),
			table.StringCell(symbol),
			table.FloatCell(float64(*volume)),
			table.FloatCell(*open),
			table.FloatCell(*low),
			table.FloatCell(*high),
			table.FloatCell(*closePx),
			table.FloatCell(*adj),
		)
	}
	return tbl, nil
}

func at[T any](s []*T, i int) *T {
	if i >= len(s) {
		return nil
	}
	return s[i]
}
