package stats

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soltixdb/dbstats/internal/analytics"
	"github.com/soltixdb/dbstats/internal/analytics/distribution"
	"github.com/soltixdb/dbstats/internal/dataset"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStats(t *testing.T) *Stats {
	t.Helper()
	s, err := FromTable(dataset.Table{
		TimestampColumn: dataset.ColumnTS,
		ItemsColumn:     dataset.ColumnTransactions,
		Rows: []dataset.Row{
			{Timestamp: 1, Items: []string{"a", "d", "e"}},
			{Timestamp: 3, Items: []string{"b", "a", "f", "g", "h"}},
			{Timestamp: 4, Items: []string{"b", "a", "d", "f"}},
			{Timestamp: 5, Items: []string{"b", "a", "c"}},
		},
	}, logging.NewDevelopment())
	require.NoError(t, err)
	return s
}

func TestStats_TransactionLengths(t *testing.T) {
	s := sampleStats(t)

	assert.Equal(t, 4, s.DatabaseSize())
	assert.Equal(t, 8, s.TotalNumberOfItems())
	assert.Equal(t, []int{3, 5, 4, 3}, s.LengthList())

	minLen, err := s.MinimumTransactionLength()
	require.NoError(t, err)
	assert.Equal(t, 3, minLen)

	maxLen, err := s.MaximumTransactionLength()
	require.NoError(t, err)
	assert.Equal(t, 5, maxLen)

	avg, err := s.AverageTransactionLength()
	require.NoError(t, err)
	assert.Equal(t, 3.75, avg)

	std, err := s.StandardDeviationTransactionLength()
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.6875), std, 1e-12)

	variance, err := s.VarianceTransactionLength()
	require.NoError(t, err)
	assert.InDelta(t, 2.75/3, variance, 1e-12)
}

func TestStats_AverageMatchesLengthList(t *testing.T) {
	s := sampleStats(t)

	total := 0
	for _, l := range s.LengthList() {
		total += l
	}
	avg, err := s.AverageTransactionLength()
	require.NoError(t, err)
	assert.InDelta(t, float64(total)/float64(s.DatabaseSize()), avg, 1e-12)

	minLen, _ := s.MinimumTransactionLength()
	maxLen, _ := s.MaximumTransactionLength()
	assert.LessOrEqual(t, float64(minLen), avg)
	assert.LessOrEqual(t, avg, float64(maxLen))
}

func TestStats_InterArrival(t *testing.T) {
	s := sampleStats(t)

	assert.Equal(t, []int64{1, 2, 1, 1}, s.PeriodList())

	minP, err := s.MinimumInterArrivalPeriod()
	require.NoError(t, err)
	assert.Equal(t, int64(1), minP)

	maxP, err := s.MaximumInterArrivalPeriod()
	require.NoError(t, err)
	assert.Equal(t, int64(2), maxP)

	avg, err := s.AverageInterArrivalPeriod()
	require.NoError(t, err)
	assert.Equal(t, 1.25, avg)

	std, err := s.StandardDeviationPeriod()
	require.NoError(t, err)
	assert.InDelta(t, 0.4330127, std, 1e-6)
}

func TestStats_ItemPeriodicity(t *testing.T) {
	s := sampleStats(t)

	a, ok := s.ItemPeriods().Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(2), a)

	minP, err := s.MinimumPeriodOfItem()
	require.NoError(t, err)
	assert.Equal(t, int64(2), minP)

	maxP, err := s.MaximumPeriodOfItem()
	require.NoError(t, err)
	assert.Equal(t, int64(5), maxP)

	avg, err := s.AveragePeriodOfItem()
	require.NoError(t, err)
	assert.Equal(t, 25.0/8.0, avg)
}

func TestStats_ReturnedCollectionsAreCopies(t *testing.T) {
	s := sampleStats(t)

	lengths := s.LengthList()
	lengths[0] = 99
	assert.Equal(t, 3, s.LengthList()[0])

	periods := s.ItemPeriods()
	periods.Set("a", 100)
	a, _ := s.ItemPeriods().Get("a")
	assert.Equal(t, int64(2), a)
}

func TestStats_Distributions(t *testing.T) {
	s := sampleStats(t)

	freq := s.SortedItemFrequencies()
	assert.Equal(t, "a", freq.Keys()[0])

	lengths := s.TransactionLengthDistribution()
	assert.Equal(t, []int{3, 4, 5}, lengths.Keys())
	assert.Equal(t, []int64{2, 1, 1}, lengths.Values())

	perTS, err := s.NumberOfTransactionsPerTimestamp()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1, 1, 1}, perTS.Values())

	_, err = s.FrequenciesInRange()
	require.NoError(t, err)
	_, err = s.PeriodsInRange()
	require.NoError(t, err)
}

func TestStats_SparsityAndDensity(t *testing.T) {
	s := sampleStats(t)

	sparsity, err := s.Sparsity()
	require.NoError(t, err)
	density, err := s.Density()
	require.NoError(t, err)

	assert.InDelta(t, 17.0/32.0, sparsity, 1e-12)
	assert.InDelta(t, 15.0/32.0, density, 1e-12)
}

func TestStats_EmptyDataset(t *testing.T) {
	s := New(dataset.NewDatabase())

	assert.Equal(t, 0, s.DatabaseSize())
	assert.Equal(t, 0, s.TotalNumberOfItems())

	_, err := s.MinimumTransactionLength()
	assert.ErrorIs(t, err, analytics.ErrEmptyDataset)
	_, err = s.AverageTransactionLength()
	assert.ErrorIs(t, err, analytics.ErrEmptyDataset)
	_, err = s.MaximumInterArrivalPeriod()
	assert.ErrorIs(t, err, analytics.ErrEmptyDataset)
	_, err = s.AveragePeriodOfItem()
	assert.ErrorIs(t, err, analytics.ErrEmptyDataset)
	_, err = s.Sparsity()
	assert.ErrorIs(t, err, analytics.ErrEmptyDataset)
	_, err = s.NumberOfTransactionsPerTimestamp()
	assert.ErrorIs(t, err, analytics.ErrEmptyDataset)
}

func TestStats_SingleTransactionVariance(t *testing.T) {
	s, err := FromTable(dataset.Table{
		TimestampColumn: dataset.ColumnTSLower,
		ItemsColumn:     dataset.ColumnPatterns,
		Rows:            []dataset.Row{{Timestamp: 2, Items: []string{"x", "y"}}},
	}, logging.NewDevelopment())
	require.NoError(t, err)

	_, err = s.VarianceTransactionLength()
	assert.ErrorIs(t, err, analytics.ErrInsufficientData)

	std, err := s.StandardDeviationTransactionLength()
	require.NoError(t, err)
	assert.Equal(t, 0.0, std)
}

func TestFromSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.tsv")
	require.NoError(t, os.WriteFile(path, []byte("1\ta\tb\n2\tb\n"), 0o644))

	s, err := FromSource(path, dataset.LoadOptions{Separator: "\t"}, logging.NewDevelopment())
	require.NoError(t, err)
	assert.Equal(t, 2, s.DatabaseSize())

	_, err = FromSource(filepath.Join(t.TempDir(), "missing.tsv"), dataset.LoadOptions{}, logging.NewDevelopment())
	assert.ErrorIs(t, err, dataset.ErrSourceUnavailable)
}

func TestSummarize(t *testing.T) {
	sum := sampleStats(t).Summarize()

	assert.Equal(t, 4, sum.DatabaseSize)
	assert.Equal(t, 8, sum.ItemCount)
	require.NotNil(t, sum.AvgTransactionLength)
	assert.Equal(t, 3.75, *sum.AvgTransactionLength)
	require.NotNil(t, sum.MaxPeriodicity)
	assert.Equal(t, int64(5), *sum.MaxPeriodicity)
	assert.Empty(t, sum.Errors)

	raw, err := json.Marshal(sum)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"database_size":4`)
	assert.NotContains(t, string(raw), `"errors"`)
}

func TestSummarize_Empty(t *testing.T) {
	sum := New(dataset.NewDatabase()).Summarize()

	assert.Nil(t, sum.MinTransactionLength)
	assert.Nil(t, sum.Density)
	assert.Contains(t, sum.Errors, "min_transaction_length")
	assert.Contains(t, sum.Errors, "density")

	fields := sum.Fields()
	assert.Equal(t, "database_size", fields[0].Name)
	assert.Equal(t, "min_transaction_length=undefined", fields[2].String())
}

func TestStats_TransactionsPerTimestampSpan(t *testing.T) {
	db, err := dataset.NewParser("", logging.NewNop()).ParseLines(strings.NewReader("1700000000\ta\tb\n1700000060\tb\n"))
	require.NoError(t, err)
	s := New(db)

	_, err = s.NumberOfTransactionsPerTimestamp()
	assert.ErrorIs(t, err, distribution.ErrSpanTooLarge)

	perTS, err := sampleStats(t).WithMaxTimestampSpan(5).NumberOfTransactionsPerTimestamp()
	require.NoError(t, err)
	assert.Equal(t, 5, perTS.Len())

	_, err = sampleStats(t).WithMaxTimestampSpan(4).NumberOfTransactionsPerTimestamp()
	assert.ErrorIs(t, err, distribution.ErrSpanTooLarge)
}
