// Package distribution builds the frequency tables and coarse histograms of a
// dataset: item frequencies, transaction length distribution, binned ranges
// and transactions per timestamp.
package distribution

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/soltixdb/dbstats/internal/analytics"
	"github.com/soltixdb/dbstats/internal/dataset"
)

// BinCount is the number of boundaries produced by Binned
const BinCount = 5

// binDivisor splits the value range into sixths
const binDivisor = 6

// ItemFrequencies counts, per item, the transactions containing it and
// returns them sorted by descending frequency. Ties keep first-seen order.
func ItemFrequencies(db *dataset.Database) *dataset.OrderedMap[string, int64] {
	freq := dataset.NewOrderedMap[string, int64](0)
	for _, tx := range db.Transactions() {
		seen := make(map[string]struct{}, len(tx.Items))
		for _, item := range tx.Items {
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			n, _ := freq.Get(item)
			freq.Set(item, n+1)
		}
	}
	SortDescending(freq)
	return freq
}

// SortDescending orders entries by value, largest first (stable)
func SortDescending[K cmp.Ordered](m *dataset.OrderedMap[K, int64]) {
	m.SortStableBy(func(a, b K) bool {
		va, _ := m.Get(a)
		vb, _ := m.Get(b)
		return va > vb
	})
}

// SortAscending orders entries by value, smallest first (stable)
func SortAscending[K cmp.Ordered](m *dataset.OrderedMap[K, int64]) {
	m.SortStableBy(func(a, b K) bool {
		va, _ := m.Get(a)
		vb, _ := m.Get(b)
		return va < vb
	})
}

// LengthDistribution maps each transaction length to the number of
// transactions of that length, ascending by length.
func LengthDistribution(lengths []int) *dataset.OrderedMap[int, int64] {
	dist := dataset.NewOrderedMap[int, int64](0)
	for _, l := range lengths {
		n, _ := dist.Get(l)
		dist.Set(l, n+1)
	}
	dist.SortByKey()
	return dist
}

// Boundaries returns floor(i*maximum/6) for i in 1..5
func Boundaries(maximum int64) [BinCount]int64 {
	var bounds [BinCount]int64
	for i := 1; i <= BinCount; i++ {
		bounds[i-1] = int64(i) * maximum / binDivisor
	}
	return bounds
}

// Binned builds a five bucket histogram of values. For every boundary it counts
// the entries strictly between the previous boundary (0 for the first bin) and
// this one, and stores boundary under that count.
//
// The result is keyed count -> boundary, the shape the line-graph renderer
// expects. Bins with the same count collapse into one entry holding the later
// boundary. Values equal to a boundary fall in no bin.
func Binned[K cmp.Ordered](values *dataset.OrderedMap[K, int64]) (*dataset.OrderedMap[int, int64], error) {
	if values.Len() == 0 {
		return nil, analytics.ErrEmptyDataset
	}

	vals := values.Values()
	maximum := vals[0]
	for _, v := range vals[1:] {
		maximum = max(maximum, v)
	}

	bounds := Boundaries(maximum)
	binned := dataset.NewOrderedMap[int, int64](BinCount)
	var lower int64
	for _, upper := range bounds {
		count := 0
		for _, v := range vals {
			if v > lower && v < upper {
				count++
			}
		}
		binned.Set(count, upper)
		lower = upper
	}
	return binned, nil
}

// FrequenciesInRange bins the item frequency table of db
func FrequenciesInRange(db *dataset.Database) (*dataset.OrderedMap[int, int64], error) {
	return Binned(ItemFrequencies(db))
}

// PeriodsInRange bins item periods after sorting them ascending by value
func PeriodsInRange(periods *dataset.OrderedMap[string, int64]) (*dataset.OrderedMap[int, int64], error) {
	sorted := periods.Clone()
	SortAscending(sorted)
	return Binned(sorted)
}

// DefaultMaxTimestampSpan bounds the zero-filled range of
// TransactionsPerTimestamp when no other limit is configured
const DefaultMaxTimestampSpan int64 = 1_000_000

// ErrSpanTooLarge is returned when the zero-filled timestamp range exceeds
// the configured limit
var ErrSpanTooLarge = errors.New("timestamp span too large")

// SpanError reports a timestamp range wider than Limit
type SpanError struct {
	Max   dataset.RawTimestamp
	Limit int64
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("timestamps span 1..%d, more than the limit of %d", e.Max, e.Limit)
}

func (e *SpanError) Unwrap() error {
	return ErrSpanTooLarge
}

// TransactionsPerTimestamp expands the timestamp count map over 1..max(ts),
// filling timestamps without transactions with 0. A maximum timestamp above
// maxSpan yields a *SpanError; maxSpan <= 0 disables the limit.
func TransactionsPerTimestamp(counts *dataset.OrderedMap[dataset.RawTimestamp, int], maxSpan int64) (*dataset.OrderedMap[dataset.RawTimestamp, int], error) {
	if counts.Len() == 0 {
		return nil, analytics.ErrEmptyDataset
	}

	var maxTS dataset.RawTimestamp
	for _, ts := range counts.Keys() {
		maxTS = max(maxTS, ts)
	}
	if maxSpan > 0 && int64(maxTS) > maxSpan {
		return nil, &SpanError{Max: maxTS, Limit: maxSpan}
	}

	out := dataset.NewOrderedMap[dataset.RawTimestamp, int](int(min(maxTS, 1<<16)))
	// stop before maxTS so the counter never passes the largest value
	for ts := dataset.RawTimestamp(1); ts < maxTS; ts++ {
		n, _ := counts.Get(ts)
		out.Set(ts, n)
	}
	n, _ := counts.Get(maxTS)
	out.Set(maxTS, n)
	return out, nil
}
