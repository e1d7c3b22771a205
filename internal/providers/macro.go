package providers

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidyfin/findata/internal/fetch"
	"github.com/tidyfin/findata/table"
)

// Defaults for the Goyal-Welch macro predictor sheet.
const (
	DefaultMacroBaseURL = "https://docs.google.com/spreadsheets/d"
	DefaultMacroSheetID = "1bM7vCWd3WOt95Sf9qjLPZjoiafgF_8EG"
)

// macroColumns is the canonical output order.
var macroColumns = []string{
	"rp_div", "dp", "dy", "ep", "de", "svar", "bm",
	"ntis", "tbl", "lty", "ltr", "tms", "dfy", "infl",
}

// MacroPredictors downloads the Goyal-Welch macroeconomic predictor sheets
// and derives the predictor variables used throughout the book (dividend
// yield, earnings-price ratio, term and default spreads, and so on).
type MacroPredictors struct {
	client  *fetch.Client
	baseURL string
	sheetID string
}

// NewMacroPredictors creates a macro predictor adapter. Empty arguments
// fall back to the production sheet.
func NewMacroPredictors(client *fetch.Client, baseURL, sheetID string) *MacroPredictors {
	if baseURL == "" {
		baseURL = DefaultMacroBaseURL
	}
	if sheetID == "" {
		sheetID = DefaultMacroSheetID
	}
	return &MacroPredictors{client: client, baseURL: baseURL, sheetID: sheetID}
}

// Fetch downloads the sheet for the given frequency ("monthly",
// "quarterly", or "annual") and computes the derived predictors.
func (p *MacroPredictors) Fetch(ctx context.Context, frequency string) (*table.Table, error) {
	sheet := strings.ToUpper(frequency[:1]) + strings.ToLower(frequency[1:])
	sheetURL := fmt.Sprintf("%s/%s/gviz/tq?tqx=out:csv&sheet=%s",
		p.baseURL, p.sheetID, url.QueryEscape(sheet))

	body, err := p.client.Get(ctx, sheetURL)
	if err != nil {
		return nil, fmt.Errorf("fetch macro sheet %s: %w", sheet, err)
	}

	tbl, err := parseMacroCSV(body, strings.ToLower(frequency))
	if err != nil {
		return nil, fmt.Errorf("macro sheet %s: %w", sheet, err)
	}
	return tbl, nil
}

// parseMacroCSV parses the raw sheet and derives the predictor columns.
// Rows with any missing derived value are dropped, matching the upstream
// series which only starts once all inputs are populated.
func parseMacroCSV(data []byte, frequency string) (*table.Table, error) {
	records, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for j, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = j
	}
	periodIdx, ok := macroPeriodColumn(col, frequency)
	if !ok {
		return nil, fmt.Errorf("no period column for frequency %s in header %v", frequency, header)
	}

	n := len(records) - 1
	dates := make([]time.Time, 0, n)
	series := func(name string) []float64 {
		vals := make([]float64, 0, n)
		j, ok := col[name]
		for _, rec := range records[1:] {
			if !ok {
				vals = append(vals, math.NaN())
				continue
			}
			f, parsed := parseNumber(field(rec, j))
			if !parsed {
				f = math.NaN()
			}
			vals = append(vals, f)
		}
		return vals
	}

	for _, rec := range records[1:] {
		d, ok := parseMacroPeriod(field(rec, periodIdx), frequency)
		if !ok {
			d = time.Time{}
		}
		dates = append(dates, d)
	}

	index := series("index")
	d12 := series("d12")
	e12 := series("e12")
	rfree := series("rfree")
	bm := series("b/m")
	tbl := series("tbl")
	aaa := series("aaa")
	baa := series("baa")
	lty := series("lty")
	ntis := series("ntis")
	infl := series("infl")
	ltr := series("ltr")
	svar := series("svar")

	derived := map[string][]float64{
		"svar": svar, "bm": bm, "ntis": ntis, "tbl": tbl,
		"lty": lty, "ltr": ltr, "infl": infl,
	}

	logret := make([]float64, n)
	logD12 := make([]float64, n)
	logE12 := make([]float64, n)
	logIndex := make([]float64, n)
	for i := 0; i < n; i++ {
		logD12[i] = math.Log(d12[i])
		logE12[i] = math.Log(e12[i])
		logIndex[i] = math.Log(index[i])
		if i == 0 {
			logret[i] = math.NaN()
			continue
		}
		logret[i] = math.Log(index[i]+d12[i]) - math.Log(index[i-1]+d12[i-1])
	}

	rpDiv := make([]float64, n)
	dp := make([]float64, n)
	dy := make([]float64, n)
	ep := make([]float64, n)
	de := make([]float64, n)
	tms := make([]float64, n)
	dfy := make([]float64, n)
	for i := 0; i < n; i++ {
		if i+1 < n {
			rpDiv[i] = logret[i+1] - rfree[i]
		} else {
			rpDiv[i] = math.NaN()
		}
		dp[i] = logD12[i] - logIndex[i]
		if i > 0 {
			dy[i] = logD12[i] - logIndex[i-1]
		} else {
			dy[i] = math.NaN()
		}
		ep[i] = logE12[i] - logIndex[i]
		de[i] = logD12[i] - logE12[i]
		tms[i] = lty[i] - tbl[i]
		dfy[i] = baa[i] - aaa[i]
	}
	derived["rp_div"] = rpDiv
	derived["dp"] = dp
	derived["dy"] = dy
	derived["ep"] = ep
	derived["de"] = de
	derived["tms"] = tms
	derived["dfy"] = dfy

	cols := []table.Column{{Name: "date", Kind: table.Time}}
	for _, name := range macroColumns {
		cols = append(cols, table.Column{Name: name, Kind: table.Float})
	}
	out := table.New(cols...)

	for i := 0; i < n; i++ {
		if dates[i].IsZero() {
			continue
		}
		cells := make([]table.Cell, 0, len(cols))
		cells = append(cells, table.TimeCell(dates[i]))
		complete := true
		for _, name := range macroColumns {
			v := derived[name][i]
			if math.IsNaN(v) {
				complete = false
				break
			}
			cells = append(cells, table.FloatCell(v))
		}
		if !complete {
			continue
		}
		if err := out.Append(cells...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func macroPeriodColumn(col map[string]int, frequency string) (int, bool) {
	switch frequency {
	case "monthly":
		j, ok := col["yyyymm"]
		return j, ok
	case "quarterly":
		j, ok := col["yyyyq"]
		return j, ok
	case "annual":
		j, ok := col["yyyy"]
		return j, ok
	}
	return 0, false
}

// parseMacroPeriod parses the sheet's period stamps: YYYYMM for monthly,
// YYYYQ for quarterly (quarter q maps to month 3q-2), YYYY for annual.
func parseMacroPeriod(s, frequency string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	switch frequency {
	case "monthly":
		if len(s) != 6 {
			return time.Time{}, false
		}
		t, err := time.Parse("200601", s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case "quarterly":
		if len(s) != 5 {
			return time.Time{}, false
		}
		year, err := strconv.Atoi(s[:4])
		if err != nil {
			return time.Time{}, false
		}
		quarter, err := strconv.Atoi(s[4:])
		if err != nil || quarter < 1 || quarter > 4 {
			return time.Time{}, false
		}
		return monthStart(year, 3*quarter-2), true
	case "annual":
		if len(s) != 4 {
			return time.Time{}, false
		}
		year, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, false
		}
		return monthStart(year, 1), true
	}
	return time.Time{}, false
}
