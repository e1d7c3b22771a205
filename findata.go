// Package findata is a unified data-acquisition layer for empirical
// finance research. One call downloads and normalizes datasets from
// heterogeneous upstream sources: Fama-French and q-factor files,
// Goyal-Welch macro predictors, Open Source Asset Pricing signals, FRED
// series, Yahoo Finance stock prices, iShares index constituents, and
// WRDS (CRSP, Compustat, CCM links).
//
// Every domain returns a *table.Table with canonical column names, values
// in decimals, dates filtered to the requested range, deduplicated on the
// domain key, and sorted ascending.
package findata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tidyfin/findata/internal/config"
	"github.com/tidyfin/findata/internal/fetch"
	"github.com/tidyfin/findata/internal/providers"
	"github.com/tidyfin/findata/internal/wrds"
	"github.com/tidyfin/findata/table"
)

// CRSP v2 coverage starts well before this, but the standard research
// window does not.
var defaultWRDSStart = time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)

// Client dispatches download requests to provider adapters.
type Client struct {
	logger *slog.Logger
	cfg    *config.Config

	ff     *providers.FamaFrench
	qf     *providers.QFactors
	macro  *providers.MacroPredictors
	osap   *providers.OSAP
	fred   *providers.FRED
	stocks *providers.StockPrices
	cons   *providers.Constituents

	mu   sync.Mutex
	wrds *wrds.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for dispatch and provider logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithConfig overrides the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(c *Client) {
		c.cfg = cfg
	}
}

// New creates a Client with default configuration unless overridden.
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.cfg == nil {
		c.cfg = config.Defaults()
	}

	fc := fetch.NewClient(
		fetch.WithTimeout(c.cfg.HTTP.Timeout),
		fetch.WithRetries(c.cfg.HTTP.MaxRetries, c.cfg.HTTP.RetryBackoff),
		fetch.WithLogger(c.logger),
	)

	ep := c.cfg.Endpoints
	c.ff = providers.NewFamaFrench(fc, ep.FamaFrenchBaseURL, ep.FamaFrenchLibraryURL)
	c.qf = providers.NewQFactors(fc, ep.QFactorsBaseURL)
	c.macro = providers.NewMacroPredictors(fc, ep.MacroBaseURL, ep.MacroSheetID)
	c.osap = providers.NewOSAP(fc, ep.OSAPBaseURL, ep.OSAPSheetID)
	c.fred = providers.NewFRED(fc, ep.FREDBaseURL)
	c.stocks = providers.NewStockPrices(fc, ep.YahooBaseURL, c.logger)
	if ep.ConstituentsURL != "" {
		c.cons = providers.NewConstituentsWithURL(fc, ep.ConstituentsURL)
	} else {
		c.cons = providers.NewConstituents(fc)
	}

	return c
}

// Close releases held resources, currently the WRDS connection pool.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wrds != nil {
		c.wrds.Close()
		c.wrds = nil
	}
}

// Download validates the request, fetches the raw data from the domain's
// provider, and returns the normalized table. Validation failures surface
// before any I/O; upstream failures are wrapped in a *FetchError.
func (c *Client) Download(ctx context.Context, req Request) (*table.Table, error) {
	callID := uuid.NewString()
	c.logger.Info("download requested",
		"call_id", callID,
		"domain", req.Domain,
		"dataset", req.Dataset,
	)

	if err := req.Validate(); err != nil {
		c.logger.Warn("request rejected", "call_id", callID, "error", err)
		return nil, err
	}

	raw, err := c.fetchRaw(ctx, req)
	if err != nil {
		if errors.Is(err, providers.ErrUnknownDataset) {
			param := "dataset"
			value := req.Dataset
			if req.Domain == Constituents {
				param, value = "index", req.Index
			}
			return nil, &InvalidParameterError{
				Domain: req.Domain,
				Param:  param,
				Value:  value,
				Reason: err.Error(),
			}
		}
		c.logger.Error("fetch failed", "call_id", callID, "domain", req.Domain, "error", err)
		return nil, &FetchError{Domain: req.Domain, Err: err}
	}

	out := normalize(raw, req)
	c.logger.Info("download complete", "call_id", callID, "rows", out.NumRows())
	return out, nil
}

func (c *Client) fetchRaw(ctx context.Context, req Request) (*table.Table, error) {
	switch req.Domain {
	case FactorsFF:
		return c.ff.Fetch(ctx, req.Dataset)
	case FactorsQ:
		return c.qf.Fetch(ctx, req.Dataset)
	case MacroPredictors:
		return c.macro.Fetch(ctx, string(req.Frequency))
	case OSAP:
		return c.osap.Fetch(ctx)
	case FRED:
		return c.fred.Fetch(ctx, req.Series)
	case StockPrices:
		return c.stocks.Fetch(ctx, req.Symbols, req.Start, req.End)
	case Constituents:
		return c.cons.Fetch(ctx, req.Index)
	case WRDSCRSP:
		return c.fetchCRSP(ctx, req)
	case WRDSCompustat:
		return c.fetchCompustat(ctx, req)
	case WRDSCCMLinks:
		w, err := c.wrdsClient(ctx)
		if err != nil {
			return nil, err
		}
		return w.CCMLinks(ctx)
	default:
		// Validate keeps unknown domains out of here.
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, string(req.Domain))
	}
}

func (c *Client) fetchCRSP(ctx context.Context, req Request) (*table.Table, error) {
	if req.Dataset != "crsp_monthly" {
		return nil, fmt.Errorf("%w %q: only crsp_monthly is supported", providers.ErrUnknownDataset, req.Dataset)
	}
	w, err := c.wrdsClient(ctx)
	if err != nil {
		return nil, err
	}
	riskFree, err := c.ff.RiskFree(ctx)
	if err != nil {
		return nil, fmt.Errorf("risk-free series: %w", err)
	}
	start, end := wrdsWindow(req)
	return w.CRSPMonthly(ctx, start, end, riskFree)
}

func (c *Client) fetchCompustat(ctx context.Context, req Request) (*table.Table, error) {
	w, err := c.wrdsClient(ctx)
	if err != nil {
		return nil, err
	}
	start, end := wrdsWindow(req)
	switch req.Dataset {
	case "compustat_annual":
		return w.CompustatAnnual(ctx, start, end)
	case "compustat_quarterly":
		return w.CompustatQuarterly(ctx, start, end)
	default:
		return nil, fmt.Errorf("%w %q: use compustat_annual or compustat_quarterly", providers.ErrUnknownDataset, req.Dataset)
	}
}

// wrdsWindow fills unbounded sides of the request window; WRDS queries
// always run with concrete bounds.
func wrdsWindow(req Request) (time.Time, time.Time) {
	start, end := req.Start, req.End
	if start.IsZero() {
		start = defaultWRDSStart
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return start, end
}

func (c *Client) wrdsClient(ctx context.Context) (*wrds.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wrds == nil {
		w, err := wrds.Connect(ctx, c.cfg.WRDS, c.logger)
		if err != nil {
			return nil, err
		}
		c.wrds = w
	}
	return c.wrds, nil
}

// Datasets lists the known dataset identifiers for a factor domain.
func (c *Client) Datasets(ctx context.Context, domain Domain) ([]string, error) {
	switch domain {
	case FactorsFF:
		return c.ff.Datasets(ctx)
	case FactorsQ:
		return c.qf.Datasets(), nil
	default:
		return nil, fmt.Errorf("domain %s has no dataset catalog", domain)
	}
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Download dispatches a request on a lazily created default client.
func Download(ctx context.Context, req Request) (*table.Table, error) {
	defaultOnce.Do(func() { defaultClient = New() })
	return defaultClient.Download(ctx, req)
}
