package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/snappy"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLines = "1\ta\td\te\n" +
	"3\tb\ta\tf\tg\th\n" +
	"4\tb\ta\td\tf\n" +
	"5\tb\ta\tc\n"

func newTestParser(sep string) *Parser {
	return NewParser(sep, logging.NewDevelopment())
}

func TestParseLines_KeysAreOrdinals(t *testing.T) {
	db, err := newTestParser("").ParseLines(strings.NewReader(sampleLines))
	require.NoError(t, err)

	assert.Equal(t, 4, db.Size())
	assert.Equal(t, []TransactionIndex{1, 2, 3, 4}, db.Indices())
	assert.Equal(t, []int{3, 5, 4, 3}, db.Lengths())

	items, ok := db.Items(2)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "f", "g", "h"}, items)

	counts := db.TimestampCounts()
	assert.Equal(t, []RawTimestamp{1, 3, 4, 5}, counts.Keys())
	assert.Equal(t, []int{1, 1, 1, 1}, counts.Values())
}

func TestParseLines_RepeatedTimestampsAreCounted(t *testing.T) {
	input := "7,a,b\n7,c\n9,a\n"
	db, err := newTestParser(",").ParseLines(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, db.Size())
	counts := db.TimestampCounts()
	n, _ := counts.Get(7)
	assert.Equal(t, 2, n)
	n, _ = counts.Get(9)
	assert.Equal(t, 1, n)
}

func TestParseLines_SkipsRecordsWithoutItems(t *testing.T) {
	input := "\n1\ta\n\t\t\n2\n3\tb\t\tc  \r\n"
	db, err := newTestParser("\t").ParseLines(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 2, db.Size())
	assert.Equal(t, []TransactionIndex{1, 2}, db.Indices())

	items, _ := db.Items(2)
	assert.Equal(t, []string{"b", "c"}, items)

	// the timestamp-only line is not counted either
	_, ok := db.TimestampCounts().Get(2)
	assert.False(t, ok)
}

func TestParseLines_InvalidTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{name: "not a number", input: "1\ta\nx\tb\n", line: 2},
		{name: "zero", input: "0\ta\n", line: 1},
		{name: "negative", input: "\n-4\ta\n", line: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestParser("").ParseLines(strings.NewReader(tt.input))
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestDatabase_AccessorsReturnCopies(t *testing.T) {
	db, err := newTestParser("").ParseLines(strings.NewReader(sampleLines))
	require.NoError(t, err)

	items, _ := db.Items(1)
	items[0] = "mutated"
	again, _ := db.Items(1)
	assert.Equal(t, "a", again[0])

	idx := db.Indices()
	idx[0] = 99
	assert.Equal(t, TransactionIndex(1), db.Indices()[0])
}

func TestFromTable(t *testing.T) {
	table := Table{
		TimestampColumn: ColumnTSLower,
		ItemsColumn:     ColumnTransactions,
		Rows: []Row{
			{Timestamp: 5, Items: []string{"b", "a", "c"}},
			{Timestamp: 1, Items: []string{"a", "d", "e"}},
			{Timestamp: 5, Items: []string{"x"}},
			{Timestamp: 3, Items: []string{"b", "", "a"}},
		},
	}

	db, err := newTestParser("").FromTable(table)
	require.NoError(t, err)

	assert.Equal(t, 3, db.Size())
	assert.Equal(t, []TransactionIndex{5, 1, 3}, db.Indices())
	assert.Equal(t, []TransactionIndex{1, 3, 5}, db.SortedIndices())

	items, _ := db.Items(5)
	assert.Equal(t, []string{"x"}, items)
	items, _ = db.Items(3)
	assert.Equal(t, []string{"b", "a"}, items)

	n, _ := db.TimestampCounts().Get(5)
	assert.Equal(t, 2, n)
}

func TestFromTable_Columns(t *testing.T) {
	p := newTestParser("")

	_, err := p.FromTable(Table{TimestampColumn: "time", ItemsColumn: ColumnTransactions})
	assert.ErrorIs(t, err, ErrUnknownColumns)

	_, err = p.FromTable(Table{TimestampColumn: ColumnTS, ItemsColumn: "items"})
	assert.ErrorIs(t, err, ErrUnknownColumns)

	db, err := p.FromTable(Table{TimestampColumn: ColumnTS, ItemsColumn: ColumnPatterns})
	require.NoError(t, err)
	assert.True(t, db.IsEmpty())
}

func TestLoader_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temporal.tsv")
	require.NoError(t, os.WriteFile(path, []byte(sampleLines), 0o644))

	db, err := NewLoader(LoadOptions{}, logging.NewDevelopment()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, db.Size())
}

func TestLoader_SnappyFile(t *testing.T) {
	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	_, err := w.Write([]byte(sampleLines))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "temporal.tsv.sz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	db, err := NewLoader(LoadOptions{}, logging.NewDevelopment()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 4, 3}, db.Lengths())
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(LoadOptions{}, logging.NewDevelopment()).
		Load(filepath.Join(t.TempDir(), "missing.tsv"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	var serr *SourceUnavailableError
	assert.ErrorAs(t, err, &serr)
}

func TestLoader_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/temporal.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, strings.ReplaceAll(sampleLines, "\t", ","))
	}))
	defer srv.Close()

	loader := NewLoader(LoadOptions{Separator: ","}, logging.NewDevelopment())

	db, err := loader.Load(srv.URL + "/temporal.csv")
	require.NoError(t, err)
	assert.Equal(t, 4, db.Size())

	_, err = loader.Load(srv.URL + "/missing.csv")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestLoader_UnreachableURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewLoader(LoadOptions{}, logging.NewDevelopment()).Load(addr + "/data.tsv")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestIsURLAndSnappy(t *testing.T) {
	assert.True(t, IsURL("https://example.com/data.tsv"))
	assert.True(t, IsURL("http://localhost:8080/x"))
	assert.False(t, IsURL("/tmp/data.tsv"))
	assert.False(t, IsURL("data.tsv"))
	assert.False(t, IsURL("ftp://example.com/data.tsv"))

	assert.True(t, IsSnappy("/tmp/data.tsv.sz"))
	assert.True(t, IsSnappy("https://example.com/data.snappy?rev=2"))
	assert.False(t, IsSnappy("/tmp/data.tsv"))
}

func TestOrderedMap(t *testing.T) {
	m := NewOrderedMap[string, int](0)
	m.Set("b", 2)
	m.Set("a", 1)
	m.Set("c", 3)
	m.Set("b", 20)

	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())
	assert.Equal(t, []int{20, 1, 3}, m.Values())

	m.SortByKey()
	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())

	m.SortStableBy(func(x, y string) bool {
		vx, _ := m.Get(x)
		vy, _ := m.Get(y)
		return vx > vy
	})
	assert.Equal(t, []string{"b", "c", "a"}, m.Keys())

	clone := m.Clone()
	clone.Set("z", 0)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 4, clone.Len())

	var visited []string
	m.Range(func(k string, _ int) bool {
		visited = append(visited, k)
		return len(visited) < 2
	})
	assert.Equal(t, []string{"b", "c"}, visited)
}

func TestSourcePolicy_Resolve(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "sample.tsv"), []byte(sampleLines), 0o644))
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.tsv"), []byte(sampleLines), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.tsv"), filepath.Join(root, "link.tsv")))

	policy := SourcePolicy{Root: root}

	tests := []struct {
		name    string
		source  string
		want    string
		allowed bool
	}{
		{"relative", "sample.tsv", filepath.Join(root, "sample.tsv"), true},
		{"absolute", filepath.Join(root, "sample.tsv"), filepath.Join(root, "sample.tsv"), true},
		{"missing file inside root", "nested/missing.tsv", filepath.Join(root, "nested", "missing.tsv"), true},
		{"system file", "/etc/passwd", "", false},
		{"dot dot", "../" + filepath.Base(outside) + "/secret.tsv", "", false},
		{"cleaned escape", filepath.Join(root, "a", "..", "..", "x.tsv"), "", false},
		{"root itself", root, "", false},
		{"symlink out of root", "link.tsv", "", false},
		{"url", "https://example.com/data.tsv", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.Resolve(tt.source)
			if !tt.allowed {
				assert.ErrorIs(t, err, ErrSourceNotAllowed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourcePolicy_URLsAndDisabledRoot(t *testing.T) {
	_, err := SourcePolicy{}.Resolve("data.tsv")
	assert.ErrorIs(t, err, ErrSourceNotAllowed)

	got, err := SourcePolicy{AllowURLs: true}.Resolve("https://example.com/data.tsv")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/data.tsv", got)

	_, err = SourcePolicy{AllowURLs: true}.Resolve("/etc/passwd")
	assert.ErrorIs(t, err, ErrSourceNotAllowed)
}
