package providers

import (
	"context"
	"fmt"

	"github.com/tidyfin/findata/internal/fetch"
	"github.com/tidyfin/findata/table"
)

// Defaults for the Open Source Asset Pricing dataset mirror.
const (
	DefaultOSAPBaseURL = "https://drive.google.com/uc?export=download"
	DefaultOSAPSheetID = "1JyhcF5PRKHcputlioxlu5j5GyLo4JYyY"
)

// OSAP downloads the Open Source Asset Pricing signal dataset: one date
// column plus a wide set of signal columns, renamed to snake_case.
type OSAP struct {
	client  *fetch.Client
	baseURL string
	sheetID string
}

// NewOSAP creates an OSAP adapter. Empty arguments fall back to the
// production mirror.
func NewOSAP(client *fetch.Client, baseURL, sheetID string) *OSAP {
	if baseURL == "" {
		baseURL = DefaultOSAPBaseURL
	}
	if sheetID == "" {
		sheetID = DefaultOSAPSheetID
	}
	return &OSAP{client: client, baseURL: baseURL, sheetID: sheetID}
}

// Fetch downloads and parses the dataset.
func (p *OSAP) Fetch(ctx context.Context) (*table.Table, error) {
	body, err := p.client.Get(ctx, fmt.Sprintf("%s&id=%s", p.baseURL, p.sheetID))
	if err != nil {
		return nil, fmt.Errorf("fetch osap data: %w", err)
	}

	tbl, err := parseOSAPCSV(body)
	if err != nil {
		return nil, fmt.Errorf("osap data: %w", err)
	}
	return tbl, nil
}

func parseOSAPCSV(data []byte) (*table.Table, error) {
	records, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("empty csv")
	}

	header := records[0]
	dateIdx := -1
	cols := make([]table.Column, 0, len(header))
	valueIdx := make([]int, 0, len(header))
	for j, name := range header {
		canonical := snakeCase(name)
		if canonical == "date" {
			dateIdx = j
			continue
		}
		cols = append(cols, table.Column{Name: canonical, Kind: table.Float})
		valueIdx = append(valueIdx, j)
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("no date column in header %v", header)
	}
	cols = append([]table.Column{{Name: "date", Kind: table.Time}}, cols...)

	tbl := table.New(cols...)
	for _, rec := range records[1:] {
		date, ok := parseISODate(field(rec, dateIdx))
		if !ok {
			continue
		}
		cells := make([]table.Cell, 0, len(cols))
		cells = append(cells, table.TimeCell(date))
		for _, j := range valueIdx {
			cells = append(cells, numberCell(field(rec, j)))
		}
		if err := tbl.Append(cells...); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}
