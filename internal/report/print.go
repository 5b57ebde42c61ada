// Package report renders a dataset fingerprint: the fixed textual summary,
// two-column mapping exports, encoded summaries and the series handed to an
// external graph renderer.
package report

import (
	"fmt"
	"io"

	"github.com/soltixdb/dbstats/internal/stats"
)

// line is one entry of the printed summary
type line struct {
	label string
	value func(s *stats.Stats) (interface{}, error)
}

func always[T any](fn func() T) (interface{}, error) {
	return fn(), nil
}

func fallible[T any](v T, err error) (interface{}, error) {
	return v, err
}

var summaryLines = []line{
	{"Database size", func(s *stats.Stats) (interface{}, error) { return always(s.DatabaseSize) }},
	{"Number of items", func(s *stats.Stats) (interface{}, error) { return always(s.TotalNumberOfItems) }},
	{"Minimum Transaction Size", func(s *stats.Stats) (interface{}, error) { return fallible(s.MinimumTransactionLength()) }},
	{"Average Transaction Size", func(s *stats.Stats) (interface{}, error) { return fallible(s.AverageTransactionLength()) }},
	{"Maximum Transaction Size", func(s *stats.Stats) (interface{}, error) { return fallible(s.MaximumTransactionLength()) }},
	{"Standard Deviation Transaction Size", func(s *stats.Stats) (interface{}, error) {
		return fallible(s.StandardDeviationTransactionLength())
	}},
	{"Variance", func(s *stats.Stats) (interface{}, error) { return fallible(s.VarianceTransactionLength()) }},
	{"Minimum Inter Arrival Period", func(s *stats.Stats) (interface{}, error) { return fallible(s.MinimumInterArrivalPeriod()) }},
	{"Average Inter Arrival Period", func(s *stats.Stats) (interface{}, error) { return fallible(s.AverageInterArrivalPeriod()) }},
	{"Maximum Inter Arrival Period", func(s *stats.Stats) (interface{}, error) { return fallible(s.MaximumInterArrivalPeriod()) }},
	{"Minimum periodicity", func(s *stats.Stats) (interface{}, error) { return fallible(s.MinimumPeriodOfItem()) }},
	{"Average periodicity", func(s *stats.Stats) (interface{}, error) { return fallible(s.AveragePeriodOfItem()) }},
	{"Maximum periodicity", func(s *stats.Stats) (interface{}, error) { return fallible(s.MaximumPeriodOfItem()) }},
	{"Sparsity", func(s *stats.Stats) (interface{}, error) { return fallible(s.Sparsity()) }},
}

// Print writes the fixed summary as "Label : value" lines. A statistic that
// cannot be computed prints as undefined together with its error; the
// remaining lines are still written. Only write errors are returned.
func Print(w io.Writer, s *stats.Stats) error {
	for _, l := range summaryLines {
		v, err := l.value(s)
		if err != nil {
			if _, werr := fmt.Fprintf(w, "%s : undefined (%v)\n", l.label, err); werr != nil {
				return werr
			}
			continue
		}
		if _, werr := fmt.Fprintf(w, "%s : %v\n", l.label, v); werr != nil {
			return werr
		}
	}
	return nil
}
