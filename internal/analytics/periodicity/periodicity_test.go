package periodicity

import (
	"strings"
	"testing"

	"github.com/soltixdb/dbstats/internal/analytics"
	"github.com/soltixdb/dbstats/internal/dataset"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTable has keys 1,3,4,5 (table input keeps timestamps as keys)
func sampleTable(t *testing.T, rows ...dataset.Row) *dataset.Database {
	t.Helper()
	db, err := dataset.NewParser("", logging.NewDevelopment()).FromTable(dataset.Table{
		TimestampColumn: dataset.ColumnTS,
		ItemsColumn:     dataset.ColumnTransactions,
		Rows:            rows,
	})
	require.NoError(t, err)
	return db
}

func defaultRows() []dataset.Row {
	return []dataset.Row{
		{Timestamp: 1, Items: []string{"a", "d", "e"}},
		{Timestamp: 3, Items: []string{"b", "a", "f", "g", "h"}},
		{Timestamp: 4, Items: []string{"b", "a", "d", "f"}},
		{Timestamp: 5, Items: []string{"b", "a", "c"}},
	}
}

func TestInterArrival(t *testing.T) {
	db := sampleTable(t, defaultRows()...)

	periods := InterArrival(db.Indices())
	assert.Equal(t, []int64{1, 2, 1, 1}, periods)
	assert.Len(t, periods, db.Size())
	assert.Equal(t, int64(db.SortedIndices()[0]), periods[0])
}

func TestInterArrival_UnsortedInput(t *testing.T) {
	keys := []dataset.TransactionIndex{10, 2, 7}
	assert.Equal(t, []int64{2, 5, 3}, InterArrival(keys))
	// input untouched
	assert.Equal(t, []dataset.TransactionIndex{10, 2, 7}, keys)
}

func TestItemPeriods(t *testing.T) {
	db := sampleTable(t, defaultRows()...)
	periods := ItemPeriods(db)

	expected := map[string]int64{
		"a": 2, // 1,3,4,5: gaps 2,1,1 and tail |4-5|
		"d": 3, // 1,4: gap 3
		"e": 3, // 1: tail |4-1|
		"b": 3, // first sighting at 3
		"f": 3,
		"g": 3,
		"h": 3,
		"c": 5,
	}
	assert.Equal(t, len(expected), periods.Len())
	for item, want := range expected {
		got, ok := periods.Get(item)
		require.True(t, ok, item)
		assert.Equal(t, want, got, item)
	}

	assert.Equal(t, []string{"a", "d", "e", "b", "f", "g", "h", "c"}, periods.Keys())
}

func TestItemPeriods_ScanIsKeyOrdered(t *testing.T) {
	rows := defaultRows()
	shuffled := []dataset.Row{rows[3], rows[1], rows[0], rows[2]}

	inOrder := ItemPeriods(sampleTable(t, rows...))
	outOfOrder := ItemPeriods(sampleTable(t, shuffled...))

	for _, item := range inOrder.Keys() {
		want, _ := inOrder.Get(item)
		got, _ := outOfOrder.Get(item)
		assert.Equal(t, want, got, item)
	}
}

func TestItemPeriods_LineInput(t *testing.T) {
	input := "10\tx\n20\ty\n30\tx\n40\ty\n50\tx\n"
	db, err := dataset.NewParser("", logging.NewDevelopment()).ParseLines(strings.NewReader(input))
	require.NoError(t, err)

	periods := ItemPeriods(db)
	x, _ := periods.Get("x")
	y, _ := periods.Get("y")
	assert.Equal(t, int64(2), x) // keys 1,3,5
	assert.Equal(t, int64(2), y) // keys 2,4 with initial value 2

	for _, item := range periods.Keys() {
		v, _ := periods.Get(item)
		assert.GreaterOrEqual(t, v, int64(0))
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]int64{1, 2, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 1.25, s.Average)
	assert.Equal(t, 2.0, s.Max)
	assert.InDelta(t, 0.4330127, s.StdDev, 1e-6)

	_, err = Summarize(nil)
	assert.ErrorIs(t, err, analytics.ErrEmptyDataset)
}
