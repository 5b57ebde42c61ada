// Package stats computes the statistical fingerprint of a temporal
// transactional dataset. A Stats value wraps one loaded Database; the length
// list, period list and item periods are derived once when it is built, every
// other metric is recomputed on each call.
//
// A Stats value is not safe for concurrent use.
package stats

import (
	"github.com/soltixdb/dbstats/internal/analytics"
	"github.com/soltixdb/dbstats/internal/analytics/distribution"
	"github.com/soltixdb/dbstats/internal/analytics/occurrence"
	"github.com/soltixdb/dbstats/internal/analytics/periodicity"
	"github.com/soltixdb/dbstats/internal/dataset"
	"github.com/soltixdb/dbstats/internal/logging"
)

// Stats holds a parsed dataset and the structures derived at load time
type Stats struct {
	db          *dataset.Database
	lengthList  []int
	periodList  []int64
	itemPeriods *dataset.OrderedMap[string, int64]
	maxSpan     int64
}

// New derives the load-time structures from db
func New(db *dataset.Database) *Stats {
	return &Stats{
		db:          db,
		lengthList:  db.Lengths(),
		periodList:  periodicity.InterArrival(db.Indices()),
		itemPeriods: periodicity.ItemPeriods(db),
		maxSpan:     distribution.DefaultMaxTimestampSpan,
	}
}

// WithMaxTimestampSpan sets the largest timestamp NumberOfTransactionsPerTimestamp
// expands to; n <= 0 removes the limit
func (s *Stats) WithMaxTimestampSpan(n int64) *Stats {
	s.maxSpan = n
	return s
}

// FromSource loads a local path or URL and builds Stats
func FromSource(source string, opts dataset.LoadOptions, logger *logging.Logger) (*Stats, error) {
	db, err := dataset.NewLoader(opts, logger).Load(source)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// FromTable builds Stats from a tabular input
func FromTable(t dataset.Table, logger *logging.Logger) (*Stats, error) {
	db, err := dataset.NewParser("", logger).FromTable(t)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Database returns the underlying dataset
func (s *Stats) Database() *dataset.Database {
	return s.db
}

// DatabaseSize returns the number of transactions
func (s *Stats) DatabaseSize() int {
	return s.db.Size()
}

// TotalNumberOfItems returns the number of distinct items
func (s *Stats) TotalNumberOfItems() int {
	return s.SortedItemFrequencies().Len()
}

// LengthList returns the size of every transaction in insertion order
func (s *Stats) LengthList() []int {
	return append([]int(nil), s.lengthList...)
}

// PeriodList returns the inter-arrival gaps over the sorted keys
func (s *Stats) PeriodList() []int64 {
	return append([]int64(nil), s.periodList...)
}

// ItemPeriods returns the periodicity of every item
func (s *Stats) ItemPeriods() *dataset.OrderedMap[string, int64] {
	return s.itemPeriods.Clone()
}

// MinimumTransactionLength returns the smallest transaction size
func (s *Stats) MinimumTransactionLength() (int, error) {
	v, err := analytics.Min(analytics.Floats(s.lengthList))
	return int(v), err
}

// AverageTransactionLength returns the total length divided by the database size
func (s *Stats) AverageTransactionLength() (float64, error) {
	if s.db.IsEmpty() {
		return 0, analytics.ErrEmptyDataset
	}
	total := analytics.Sum(analytics.Floats(s.lengthList))
	return total / float64(s.db.Size()), nil
}

// MaximumTransactionLength returns the largest transaction size
func (s *Stats) MaximumTransactionLength() (int, error) {
	v, err := analytics.Max(analytics.Floats(s.lengthList))
	return int(v), err
}

// StandardDeviationTransactionLength returns the population standard deviation of sizes
func (s *Stats) StandardDeviationTransactionLength() (float64, error) {
	return analytics.PStdDev(analytics.Floats(s.lengthList))
}

// VarianceTransactionLength returns the sample variance of sizes
func (s *Stats) VarianceTransactionLength() (float64, error) {
	return analytics.Variance(analytics.Floats(s.lengthList))
}

// MinimumInterArrivalPeriod returns the smallest gap between transactions
func (s *Stats) MinimumInterArrivalPeriod() (int64, error) {
	v, err := analytics.Min(analytics.Floats(s.periodList))
	return int64(v), err
}

// AverageInterArrivalPeriod returns the sum of periods divided by their count
func (s *Stats) AverageInterArrivalPeriod() (float64, error) {
	return analytics.Mean(analytics.Floats(s.periodList))
}

// MaximumInterArrivalPeriod returns the largest gap between transactions
func (s *Stats) MaximumInterArrivalPeriod() (int64, error) {
	v, err := analytics.Max(analytics.Floats(s.periodList))
	return int64(v), err
}

// StandardDeviationPeriod returns the population standard deviation of the period list
func (s *Stats) StandardDeviationPeriod() (float64, error) {
	return analytics.PStdDev(analytics.Floats(s.periodList))
}

// MinimumPeriodOfItem returns the smallest item periodicity
func (s *Stats) MinimumPeriodOfItem() (int64, error) {
	v, err := analytics.Min(analytics.Floats(s.itemPeriods.Values()))
	return int64(v), err
}

// AveragePeriodOfItem returns the mean item periodicity
func (s *Stats) AveragePeriodOfItem() (float64, error) {
	return analytics.Mean(analytics.Floats(s.itemPeriods.Values()))
}

// MaximumPeriodOfItem returns the largest item periodicity
func (s *Stats) MaximumPeriodOfItem() (int64, error) {
	v, err := analytics.Max(analytics.Floats(s.itemPeriods.Values()))
	return int64(v), err
}

// SortedItemFrequencies returns item -> transaction count, most frequent first
func (s *Stats) SortedItemFrequencies() *dataset.OrderedMap[string, int64] {
	return distribution.ItemFrequencies(s.db)
}

// TransactionLengthDistribution returns length -> number of transactions
func (s *Stats) TransactionLengthDistribution() *dataset.OrderedMap[int, int64] {
	return distribution.LengthDistribution(s.lengthList)
}

// FrequenciesInRange bins the item frequencies (count -> boundary)
func (s *Stats) FrequenciesInRange() (*dataset.OrderedMap[int, int64], error) {
	return distribution.FrequenciesInRange(s.db)
}

// PeriodsInRange bins the item periods (count -> boundary)
func (s *Stats) PeriodsInRange() (*dataset.OrderedMap[int, int64], error) {
	return distribution.PeriodsInRange(s.itemPeriods)
}

// NumberOfTransactionsPerTimestamp returns counts for every timestamp in
// 1..max. A maximum above the span limit yields a *distribution.SpanError.
func (s *Stats) NumberOfTransactionsPerTimestamp() (*dataset.OrderedMap[dataset.RawTimestamp, int], error) {
	return distribution.TransactionsPerTimestamp(s.db.TimestampCounts(), s.maxSpan)
}

// Matrix builds the item x transaction occurrence matrix
func (s *Stats) Matrix() *occurrence.Matrix {
	return occurrence.Build(s.db, s.SortedItemFrequencies().Keys())
}

// Sparsity returns the fraction of absent item/transaction incidences
func (s *Stats) Sparsity() (float64, error) {
	return s.Matrix().Sparsity()
}

// Density returns the fraction of present item/transaction incidences
func (s *Stats) Density() (float64, error) {
	return s.Matrix().Density()
}
