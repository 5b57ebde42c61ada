// Package periodicity derives the temporal shape of a dataset: the gaps
// between consecutive transactions and, per item, the worst-case gap between
// two of its occurrences.
package periodicity

import (
	"sort"

	"github.com/soltixdb/dbstats/internal/analytics"
	"github.com/soltixdb/dbstats/internal/dataset"
)

// InterArrival returns the gaps between consecutive sorted keys. The first gap
// is measured from an implicit origin of 0, so the result has one entry per key.
func InterArrival(keys []dataset.TransactionIndex) []int64 {
	sorted := make([]dataset.TransactionIndex, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	periods := make([]int64, len(sorted))
	var prev dataset.TransactionIndex
	for i, k := range sorted {
		periods[i] = int64(k - prev)
		prev = k
	}
	return periods
}

// itemState tracks one item during the scan
type itemState struct {
	maxGap   int64
	lastSeen int64
}

// ItemPeriods computes the periodicity of every item: the largest gap between
// two consecutive occurrences, including the tail gap from the last occurrence
// to the dataset size.
//
// Transactions are visited in ascending key order. The result lists items in
// the order they were first seen during that scan.
func ItemPeriods(db *dataset.Database) *dataset.OrderedMap[string, int64] {
	states := dataset.NewOrderedMap[string, *itemState](0)

	for _, tx := range db.SortedTransactions() {
		key := int64(tx.Index)
		for _, item := range tx.Items {
			st, seen := states.Get(item)
			if !seen {
				states.Set(item, &itemState{maxGap: key, lastSeen: key})
				continue
			}
			st.maxGap = max(st.maxGap, key-st.lastSeen)
			st.lastSeen = key
		}
	}

	size := int64(db.Size())
	periods := dataset.NewOrderedMap[string, int64](states.Len())
	states.Range(func(item string, st *itemState) bool {
		tail := size - st.lastSeen
		if tail < 0 {
			tail = -tail
		}
		periods.Set(item, max(st.maxGap, tail))
		return true
	})
	return periods
}

// Summary holds the min/avg/max/population-stddev of a period sequence.
type Summary struct {
	analytics.Range
	StdDev float64 `json:"stddev"`
}

// Summarize describes a period sequence. An empty sequence is an error.
func Summarize(periods []int64) (Summary, error) {
	values := analytics.Floats(periods)
	r, err := analytics.Describe(values)
	if err != nil {
		return Summary{}, err
	}
	std, _ := analytics.PStdDev(values)
	return Summary{Range: r, StdDev: std}, nil
}
