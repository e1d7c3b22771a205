package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidyfin/findata/internal/fetch"
	"github.com/tidyfin/findata/table"
)

// indexSpec describes one supported index: the ETF holdings file that
// proxies its constituent list and the number of metadata lines before the
// CSV header.
type indexSpec struct {
	name string
	url  string
	skip int
}

// Supported indexes, each resolved through an iShares ETF holdings file.
// The skip counts come from the layout of each provider's download.
var supportedIndexes = []indexSpec{
	{"DAX", "https://www.ishares.com/de/privatanleger/de/produkte/251464/ishares-dax-ucits-etf-de-fund/1478358465952.ajax?fileType=csv&fileName=DAXEX_holdings&dataType=fund", 2},
	{"EURO STOXX 50", "https://www.ishares.com/de/privatanleger/de/produkte/251783/ishares-euro-stoxx-50-ucits-etf-de-fund/1478358465952.ajax?fileType=csv&fileName=EXW1_holdings&dataType=fund", 2},
	{"Dow Jones Industrial Average", "https://www.ishares.com/de/privatanleger/de/produkte/251770/ishares-dow-jones-industrial-average-ucits-etf-de-fund/1478358465952.ajax?fileType=csv&fileName=EXI3_holdings&dataType=fund", 2},
	{"Russell 1000", "https://www.ishares.com/ch/professionelle-anleger/de/produkte/239707/ishares-russell-1000-etf/1495092304805.ajax?fileType=csv&fileName=IWB_holdings&dataType=fund", 9},
	{"Russell 2000", "https://www.ishares.com/ch/professionelle-anleger/de/produkte/239710/ishares-russell-2000-etf/1495092304805.ajax?fileType=csv&fileName=IWM_holdings&dataType=fund", 9},
	{"Russell 3000", "https://www.ishares.com/ch/professionelle-anleger/de/produkte/239714/ishares-russell-3000-etf/1495092304805.ajax?fileType=csv&fileName=IWV_holdings&dataType=fund", 9},
	{"S&P 100", "https://www.ishares.com/ch/professionelle-anleger/de/produkte/239723/ishares-sp-100-etf/1495092304805.ajax?fileType=csv&fileName=OEF_holdings&dataType=fund", 9},
	{"S&P 500", "https://www.ishares.com/de/privatanleger/de/produkte/253743/ishares-sp-500-b-ucits-etf-acc-fund/1478358465952.ajax?fileType=csv&fileName=SXR8_holdings&dataType=fund", 2},
	{"Nasdaq 100", "https://www.ishares.com/de/privatanleger/de/produkte/251896/ishares-nasdaq100-ucits-etf-de-fund/1478358465952.ajax?fileType=csv&fileName=EXXT_holdings&dataType=fund", 2},
	{"FTSE 100", "https://www.ishares.com/de/privatanleger/de/produkte/251795/ishares-ftse-100-ucits-etf-inc-fund/1478358465952.ajax?fileType=csv&fileName=IUSZ_holdings&dataType=fund", 2},
	{"MSCI World", "https://www.ishares.com/de/privatanleger/de/produkte/251882/ishares-msci-world-ucits-etf-acc-fund/1478358465952.ajax?fileType=csv&fileName=EUNL_holdings&dataType=fund", 2},
	{"Nikkei 225", "https://www.ishares.com/ch/professionelle-anleger/de/produkte/253742/ishares-nikkei-225-ucits-etf/1495092304805.ajax?fileType=csv&fileName=CSNKY_holdings&dataType=fund", 2},
	{"TOPIX", "https://www.blackrock.com/jp/individual-en/en/products/279438/fund/1480664184455.ajax?fileType=csv&fileName=1475_holdings&dataType=fund", 2},
}

// SupportedIndexes returns the names of all supported indexes.
func SupportedIndexes() []string {
	names := make([]string, len(supportedIndexes))
	for i, spec := range supportedIndexes {
		names[i] = spec.name
	}
	return names
}

// Constituents resolves an index name to its current constituent list via
// the ETF holdings lookup. Output rows are one security each: ticker, name,
// and decimal portfolio weight. Holdings files are localized (English or
// German headers, comma decimal separators) and carry cash and derivative
// positions that are filtered out.
type Constituents struct {
	client *fetch.Client
	// urlOverride, when set, replaces every index URL. Used by tests.
	urlOverride string
}

// NewConstituents creates a constituents adapter.
func NewConstituents(client *fetch.Client) *Constituents {
	return &Constituents{client: client}
}

// NewConstituentsWithURL creates an adapter that fetches every index from
// the given URL instead of the registry entries.
func NewConstituentsWithURL(client *fetch.Client, url string) *Constituents {
	return &Constituents{client: client, urlOverride: url}
}

// Fetch downloads the holdings file for the named index and parses the
// constituent rows.
func (p *Constituents) Fetch(ctx context.Context, index string) (*table.Table, error) {
	spec, ok := lookupIndex(index)
	if !ok {
		return nil, fmt.Errorf("%w: index %q, choose one of %s",
			ErrUnknownDataset, index, strings.Join(SupportedIndexes(), ", "))
	}

	url := spec.url
	if p.urlOverride != "" {
		url = p.urlOverride
	}
	body, err := p.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch holdings for %s: %w", spec.name, err)
	}

	tbl, err := parseHoldingsCSV(body, spec.skip)
	if err != nil {
		return nil, fmt.Errorf("holdings for %s: %w", spec.name, err)
	}
	return tbl, nil
}

func lookupIndex(name string) (indexSpec, bool) {
	for _, spec := range supportedIndexes {
		if strings.EqualFold(spec.name, name) {
			return spec, true
		}
	}
	return indexSpec{}, false
}

// Header aliases across the localized holdings files.
var (
	tickerHeaders = []string{"Ticker", "Issuer Ticker", "Emittententicker"}
	nameHeaders   = []string{"Name"}
	weightHeaders = []string{"Weight (%)", "Gewichtung (%)"}
	classHeaders  = []string{"Asset Class", "Anlageklasse"}
)

// equityClasses are the asset class labels kept when the file carries an
// asset class column.
var equityClasses = map[string]bool{"equity": true, "aktien": true}

func parseHoldingsCSV(data []byte, skip int) (*table.Table, error) {
	lines := strings.Split(string(data), "\n")
	if skip < len(lines) {
		lines = lines[skip:]
	}
	records, err := readCSV([]byte(strings.Join(lines, "\n")))
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("empty holdings file")
	}

	header := records[0]
	tickerIdx := findHeader(header, tickerHeaders)
	nameIdx := findHeader(header, nameHeaders)
	weightIdx := findHeader(header, weightHeaders)
	classIdx := findHeader(header, classHeaders)
	if tickerIdx < 0 || nameIdx < 0 || weightIdx < 0 {
		return nil, fmt.Errorf("unrecognized holdings header %v", header)
	}

	tbl := table.New(
		table.Column{Name: "ticker", Kind: table.String},
		table.Column{Name: "name", Kind: table.String},
		table.Column{Name: "weight", Kind: table.Float},
	)
	for _, rec := range records[1:] {
		ticker := strings.TrimSpace(field(rec, tickerIdx))
		name := strings.TrimSpace(field(rec, nameIdx))
		if !isSecurityRow(ticker, name, field(rec, classIdx), classIdx >= 0) {
			continue
		}
		weight := parseLocalizedWeight(field(rec, weightIdx))
		tbl.MustAppend(table.StringCell(ticker), table.StringCell(name), weight)
	}
	return tbl, nil
}

func findHeader(header []string, aliases []string) int {
	for j, name := range header {
		for _, alias := range aliases {
			if strings.EqualFold(strings.TrimSpace(name), alias) {
				return j
			}
		}
	}
	return -1
}

// isSecurityRow filters out cash, margin, and placeholder rows.
func isSecurityRow(ticker, name, class string, hasClass bool) bool {
	if ticker == "" || ticker == "-" || ticker == "--" {
		return false
	}
	if hasClass {
		return equityClasses[strings.ToLower(strings.TrimSpace(class))]
	}
	return !strings.Contains(strings.ToUpper(name), "CASH")
}

// parseLocalizedWeight parses a percent weight that may use a comma as the
// decimal separator ("6,41") and scales it to a decimal fraction.
func parseLocalizedWeight(s string) table.Cell {
	s = strings.TrimSpace(s)
	// German files use "." for thousands and "," for decimals.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, ok := parseNumber(s)
	if !ok {
		return table.NA(table.Float)
	}
	return table.FloatCell(f / 100)
}
