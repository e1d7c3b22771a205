package table

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// DataFrame converts the table into a gota DataFrame for interop with
// dataframe-based analysis code. Float NAs become NaN, time columns become
// YYYY-MM-DD strings.
func (t *Table) DataFrame() dataframe.DataFrame {
	ss := make([]series.Series, 0, len(t.cols))
	for j, col := range t.cols {
		switch col.Kind {
		case Float:
			vals := make([]float64, len(t.rows))
			for i, r := range t.rows {
				if f, ok := r[j].Float(); ok {
					vals[i] = f
				} else {
					vals[i] = math.NaN()
				}
			}
			ss = append(ss, series.New(vals, series.Float, col.Name))
		default:
			vals := make([]string, len(t.rows))
			for i, r := range t.rows {
				vals[i] = r[j].Format()
			}
			ss = append(ss, series.New(vals, series.String, col.Name))
		}
	}
	return dataframe.New(ss...)
}
