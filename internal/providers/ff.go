package providers

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tidyfin/findata/internal/fetch"
	"github.com/tidyfin/findata/table"
)

// Default endpoints for the Ken French data library.
const (
	DefaultFamaFrenchBaseURL    = "https://mba.tuck.dartmouth.edu/pages/faculty/ken.french/ftp/"
	DefaultFamaFrenchLibraryURL = "https://mba.tuck.dartmouth.edu/pages/faculty/ken.french/data_library.html"
)

// Factor files mark missing observations with these sentinels (in percent,
// before scaling).
var ffSentinels = map[float64]bool{-99.99: true, -999: true}

// FamaFrench downloads factor datasets from the Ken French data library.
// Datasets ship as zipped CSVs with free-text preamble rows before the
// header and secondary (annual) sections after the main block.
type FamaFrench struct {
	client     *fetch.Client
	baseURL    string
	libraryURL string

	// Catalog of available dataset names, scraped lazily from the data
	// library page. A failed scrape is retried on the next call.
	mu      sync.Mutex
	catalog map[string]bool
}

// NewFamaFrench creates a Fama-French adapter. Empty URLs fall back to the
// production endpoints.
func NewFamaFrench(client *fetch.Client, baseURL, libraryURL string) *FamaFrench {
	if baseURL == "" {
		baseURL = DefaultFamaFrenchBaseURL
	}
	if libraryURL == "" {
		libraryURL = DefaultFamaFrenchLibraryURL
	}
	return &FamaFrench{client: client, baseURL: baseURL, libraryURL: libraryURL}
}

// Datasets returns the names of all datasets the library currently offers.
func (p *FamaFrench) Datasets(ctx context.Context) ([]string, error) {
	if err := p.loadCatalog(ctx); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(p.catalog))
	for name := range p.catalog {
		names = append(names, name)
	}
	return names, nil
}

func (p *FamaFrench) loadCatalog(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.catalog != nil {
		return nil
	}
	body, err := p.client.Get(ctx, p.libraryURL)
	if err != nil {
		return fmt.Errorf("fetch data library page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse data library page: %w", err)
	}
	catalog := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		base := path.Base(href)
		if name, ok := strings.CutSuffix(base, "_CSV.zip"); ok {
			catalog[name] = true
		}
	})
	p.catalog = catalog
	return nil
}

// Fetch downloads and parses one factor dataset. Values arrive in percent
// and are scaled to decimals; sentinel values become NA.
func (p *FamaFrench) Fetch(ctx context.Context, dataset string) (*table.Table, error) {
	if err := p.loadCatalog(ctx); err != nil {
		return nil, err
	}
	if !p.catalog[dataset] {
		return nil, fmt.Errorf("%w: %q is not in the Ken French data library", ErrUnknownDataset, dataset)
	}

	body, err := p.client.Get(ctx, p.baseURL+dataset+"_CSV.zip")
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", dataset, err)
	}

	csvData, err := extractZipCSV(body)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dataset, err)
	}

	tbl, err := parseFactorCSV(csvData)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dataset, err)
	}
	return tbl, nil
}

// extractZipCSV returns the contents of the first CSV member of a zip
// archive.
func extractZipCSV(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		if !strings.EqualFold(path.Ext(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip member %s: %w", f.Name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("no csv member in archive")
}

// parseFactorCSV parses a Ken French CSV: skips the preamble until the
// header row (first field empty, factor names following), then reads data
// rows until the first row whose leading field is not a date. Monthly files
// append an annual section after a break, which is ignored.
func parseFactorCSV(data []byte) (*table.Table, error) {
	records, err := readCSV(data)
	if err != nil {
		return nil, err
	}

	header := -1
	for i, rec := range records {
		if len(rec) > 1 && strings.TrimSpace(rec[0]) == "" {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, fmt.Errorf("no header row found")
	}

	factors := make([]string, 0, len(records[header])-1)
	cols := []table.Column{{Name: "date", Kind: table.Time}}
	for _, name := range records[header][1:] {
		canonical := canonicalFactorName(name)
		factors = append(factors, canonical)
		cols = append(cols, table.Column{Name: canonical, Kind: table.Float})
	}

	tbl := table.New(cols...)
	for _, rec := range records[header+1:] {
		if len(rec) == 0 {
			break
		}
		date, ok := parseCompactDate(rec[0])
		if !ok {
			// End of the main block (annual section or footer follows).
			break
		}
		cells := make([]table.Cell, 0, len(cols))
		cells = append(cells, table.TimeCell(date))
		for j := range factors {
			cells = append(cells, factorCell(field(rec, j+1)))
		}
		if err := tbl.Append(cells...); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// canonicalFactorName maps upstream factor headers to the book's column
// names: Mkt-RF becomes mkt_excess, RF becomes risk_free, everything else
// is lowercased (smb, hml, rmw, cma, mom).
func canonicalFactorName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.ReplaceAll(lower, "-rf", "_excess")
	if lower == "rf" {
		return "risk_free"
	}
	return lower
}

// factorCell parses one factor value: sentinel handling first, then the
// percent-to-decimal scaling.
func factorCell(s string) table.Cell {
	f, ok := parseNumber(s)
	if !ok || ffSentinels[f] {
		return table.NA(table.Float)
	}
	return table.FloatCell(f / 100)
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// RiskFree fetches the monthly risk-free rate series from the three-factor
// dataset, keyed by month start. The WRDS CRSP adapter uses it to compute
// excess returns.
func (p *FamaFrench) RiskFree(ctx context.Context) (map[time.Time]float64, error) {
	tbl, err := p.Fetch(ctx, "F-F_Research_Data_Factors")
	if err != nil {
		return nil, err
	}
	out := make(map[time.Time]float64, tbl.NumRows())
	for i := 0; i < tbl.NumRows(); i++ {
		d, ok := tbl.Time(i, "date")
		if !ok {
			continue
		}
		if rf, ok := tbl.Float(i, "risk_free"); ok {
			out[monthStart(d.Year(), int(d.Month()))] = rf
		}
	}
	return out, nil
}
