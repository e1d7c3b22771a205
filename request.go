package findata

import (
	"fmt"
	"time"
)

// Domain selects the upstream dataset family.
type Domain string

const (
	FactorsFF       Domain = "factors_ff"
	FactorsQ        Domain = "factors_q"
	MacroPredictors Domain = "macro_predictors"
	OSAP            Domain = "osap"
	FRED            Domain = "fred"
	StockPrices     Domain = "stock_prices"
	Constituents    Domain = "constituents"
	WRDSCRSP        Domain = "wrds_crsp"
	WRDSCompustat   Domain = "wrds_compustat"
	WRDSCCMLinks    Domain = "wrds_ccm_links"
)

// Frequency is a sampling frequency for domains that distinguish one.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Annual    Frequency = "annual"
)

// Request describes one download. Domain is always required; the other
// fields are domain-dependent. Zero Start/End mean unbounded on that side.
type Request struct {
	Domain    Domain
	Dataset   string
	Frequency Frequency
	Series    []string
	Symbols   []string
	Index     string
	Start     time.Time
	End       time.Time
}

// rule declares what a domain requires and how its output is keyed.
type rule struct {
	needDataset bool
	needSeries  bool
	needSymbols bool
	needIndex   bool
	// non-nil means frequency is required and restricted to this set
	frequencies []Frequency
	dateCol     string
	key         []string
}

var domainRules = map[Domain]rule{
	FactorsFF:       {needDataset: true, dateCol: "date", key: []string{"date"}},
	FactorsQ:        {needDataset: true, dateCol: "date", key: []string{"date"}},
	MacroPredictors: {frequencies: []Frequency{Monthly, Quarterly, Annual}, dateCol: "date", key: []string{"date"}},
	OSAP:            {dateCol: "date", key: []string{"date"}},
	FRED:            {needSeries: true, dateCol: "date", key: []string{"date", "series"}},
	StockPrices:     {needSymbols: true, dateCol: "date", key: []string{"date", "symbol"}},
	Constituents:    {needIndex: true, key: []string{"ticker"}},
	WRDSCRSP:        {needDataset: true, dateCol: "date", key: []string{"date", "permno"}},
	WRDSCompustat:   {needDataset: true},
	WRDSCCMLinks:    {key: []string{"permno", "gvkey", "linkdt"}},
}

// normalizeKeys resolves the date column and dedup/sort key for a request.
// Compustat keys depend on the dataset: annual reports are keyed on the
// statement date, quarterly reports on the statement month.
func (r rule) normalizeKeys(req Request) (dateCol string, key []string) {
	if req.Domain == WRDSCompustat {
		if req.Dataset == "compustat_quarterly" {
			return "date", []string{"gvkey", "date"}
		}
		return "datadate", []string{"gvkey", "datadate"}
	}
	return r.dateCol, r.key
}

// Validate checks the request against its domain's rules. It never
// performs I/O.
func (req Request) Validate() error {
	r, ok := domainRules[req.Domain]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, string(req.Domain))
	}

	if r.needDataset && req.Dataset == "" {
		return &MissingParameterError{Domain: req.Domain, Param: "dataset"}
	}
	if r.needSeries && len(req.Series) == 0 {
		return &MissingParameterError{Domain: req.Domain, Param: "series"}
	}
	if r.needSymbols && len(req.Symbols) == 0 {
		return &MissingParameterError{Domain: req.Domain, Param: "symbols"}
	}
	if r.needIndex && req.Index == "" {
		return &MissingParameterError{Domain: req.Domain, Param: "index"}
	}

	if r.frequencies == nil {
		if req.Frequency != "" {
			return &InvalidParameterError{
				Domain: req.Domain,
				Param:  "frequency",
				Value:  string(req.Frequency),
				Reason: "domain does not take a frequency",
			}
		}
	} else {
		if req.Frequency == "" {
			return &MissingParameterError{Domain: req.Domain, Param: "frequency"}
		}
		legal := false
		for _, f := range r.frequencies {
			if req.Frequency == f {
				legal = true
				break
			}
		}
		if !legal {
			return &InvalidParameterError{
				Domain: req.Domain,
				Param:  "frequency",
				Value:  string(req.Frequency),
				Reason: fmt.Sprintf("must be one of %v", r.frequencies),
			}
		}
	}

	if !req.Start.IsZero() && !req.End.IsZero() && req.Start.After(req.End) {
		return &InvalidParameterError{
			Domain: req.Domain,
			Param:  "start_date",
			Value:  req.Start.Format("2006-01-02"),
			Reason: fmt.Sprintf("after end_date %s", req.End.Format("2006-01-02")),
		}
	}

	return nil
}

// Domains lists the recognized domain tags.
func Domains() []Domain {
	return []Domain{
		FactorsFF, FactorsQ, MacroPredictors, OSAP, FRED,
		StockPrices, Constituents, WRDSCRSP, WRDSCompustat, WRDSCCMLinks,
	}
}
