package findata

import "github.com/tidyfin/findata/table"

// normalize applies the canonical output contract: inclusive date-range
// filtering, dedup on the domain key (last write wins), and a stable
// ascending sort on the key. The input table is never mutated.
func normalize(raw *table.Table, req Request) *table.Table {
	dateCol, key := domainRules[req.Domain].normalizeKeys(req)

	out := raw
	if dateCol != "" && out.HasColumn(dateCol) {
		out = out.FilterRange(dateCol, req.Start, req.End)
	}
	if len(key) > 0 {
		out = out.DedupBy(key...).SortBy(key...)
	}
	if out == raw {
		out = raw.Clone()
	}
	return out
}
