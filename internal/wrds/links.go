package wrds

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tidyfin/findata/table"
)

// Default link screens: standard and research-complete links, primary
// issues only.
var (
	DefaultLinkTypes = []string{"LU", "LC"}
	DefaultLinkPrims = []string{"P", "C"}
)

func ccmLinksQuery(linkTypes, linkPrims []string) (string, []any, error) {
	return psql.
		Select("lpermno AS permno", "gvkey", "linkdt", "linkenddt").
		From("crsp.ccmxpf_lnkhist").
		Where(sq.Eq{"linktype": linkTypes, "linkprim": linkPrims}).
		ToSql()
}

type linkRow struct {
	PermNo    int64
	GVKey     string
	LinkDt    time.Time
	LinkEndDt *time.Time
}

// transformLinks replaces open-ended links with the supplied as-of date.
func transformLinks(rows []linkRow, asOf time.Time) *table.Table {
	out := table.New(
		table.Column{Name: "permno", Kind: table.Float},
		table.Column{Name: "gvkey", Kind: table.String},
		table.Column{Name: "linkdt", Kind: table.Time},
		table.Column{Name: "linkenddt", Kind: table.Time},
	)
	for _, r := range rows {
		end := asOf
		if r.LinkEndDt != nil {
			end = *r.LinkEndDt
		}
		out.MustAppend(
			table.FloatCell(float64(r.PermNo)),
			table.StringCell(r.GVKey),
			table.TimeCell(r.LinkDt),
			table.TimeCell(end),
		)
	}
	return out
}

// CCMLinks fetches the CRSP/Compustat Merged link history. Links that are
// still active carry today's date as their end date.
func (c *Client) CCMLinks(ctx context.Context) (*table.Table, error) {
	query, args, err := ccmLinksQuery(DefaultLinkTypes, DefaultLinkPrims)
	if err != nil {
		return nil, fmt.Errorf("build ccm links query: %w", err)
	}
	c.logger.Debug("querying ccm link history")

	pgRows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query crsp.ccmxpf_lnkhist: %w", err)
	}
	defer pgRows.Close()

	var rows []linkRow
	for pgRows.Next() {
		var r linkRow
		if err := pgRows.Scan(&r.PermNo, &r.GVKey, &r.LinkDt, &r.LinkEndDt); err != nil {
			return nil, fmt.Errorf("scan link row: %w", err)
		}
		rows = append(rows, r)
	}
	if err := pgRows.Err(); err != nil {
		return nil, fmt.Errorf("read link rows: %w", err)
	}

	return transformLinks(rows, time.Now().UTC().Truncate(24*time.Hour)), nil
}
