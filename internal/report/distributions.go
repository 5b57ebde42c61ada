package report

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/soltixdb/dbstats/internal/dataset"
	"github.com/soltixdb/dbstats/internal/stats"
)

// Distribution names accepted by Distribution, WriteDistribution and the API
const (
	DistFrequencies     = "frequencies"
	DistLengths         = "lengths"
	DistFrequencyRanges = "frequency-ranges"
	DistPeriodRanges    = "period-ranges"
	DistPeriods         = "periods"
	DistTimestamps      = "timestamps"
)

// DistributionNames lists every exportable mapping
var DistributionNames = []string{
	DistFrequencies,
	DistLengths,
	DistFrequencyRanges,
	DistPeriodRanges,
	DistPeriods,
	DistTimestamps,
}

// ErrUnknownDistribution is returned for a name outside DistributionNames
var ErrUnknownDistribution = errors.New("unknown distribution")

// Entry is one key/value pair of an exported mapping
type Entry struct {
	Key   interface{} `json:"key"`
	Value interface{} `json:"value"`
}

func entries[K cmp.Ordered, V any](m *dataset.OrderedMap[K, V]) []Entry {
	out := make([]Entry, 0, m.Len())
	m.Range(func(k K, v V) bool {
		out = append(out, Entry{Key: k, Value: v})
		return true
	})
	return out
}

// mapping dispatches name to a typed visitor
type mapping struct {
	entries func() []Entry
	write   func(w io.Writer) error
	save    func(path string) error
}

func newMapping[K cmp.Ordered, V any](m *dataset.OrderedMap[K, V]) mapping {
	return mapping{
		entries: func() []Entry { return entries(m) },
		write:   func(w io.Writer) error { return WriteMapping(w, m) },
		save:    func(path string) error { return Save(path, m) },
	}
}

func lookup(s *stats.Stats, name string) (mapping, error) {
	switch name {
	case DistFrequencies:
		return newMapping(s.SortedItemFrequencies()), nil
	case DistLengths:
		return newMapping(s.TransactionLengthDistribution()), nil
	case DistPeriods:
		return newMapping(s.ItemPeriods()), nil
	case DistFrequencyRanges:
		m, err := s.FrequenciesInRange()
		if err != nil {
			return mapping{}, err
		}
		return newMapping(m), nil
	case DistPeriodRanges:
		m, err := s.PeriodsInRange()
		if err != nil {
			return mapping{}, err
		}
		return newMapping(m), nil
	case DistTimestamps:
		m, err := s.NumberOfTransactionsPerTimestamp()
		if err != nil {
			return mapping{}, err
		}
		return newMapping(m), nil
	default:
		return mapping{}, fmt.Errorf("%w: %q", ErrUnknownDistribution, name)
	}
}

// Distribution returns the named mapping as ordered entries
func Distribution(s *stats.Stats, name string) ([]Entry, error) {
	m, err := lookup(s, name)
	if err != nil {
		return nil, err
	}
	return m.entries(), nil
}

// WriteDistribution writes the named mapping as "key\tvalue" lines
func WriteDistribution(w io.Writer, s *stats.Stats, name string) error {
	m, err := lookup(s, name)
	if err != nil {
		return err
	}
	return m.write(w)
}

// SaveAll writes every mapping the dataset defines into dir as
// <name>.tsv (or .tsv.sz when compress is set). Mappings that are undefined
// for the dataset are skipped and reported in the returned error.
func SaveAll(s *stats.Stats, dir string, compress bool) ([]string, error) {
	var (
		written []string
		errs    []error
	)
	for _, name := range DistributionNames {
		m, err := lookup(s, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		path := filepath.Join(dir, name+".tsv")
		if compress {
			path += ".sz"
		}
		if err := m.save(path); err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, path)
	}
	return written, errors.Join(errs...)
}
