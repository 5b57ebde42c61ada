package report

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/snappy"
	"github.com/soltixdb/dbstats/internal/dataset"
)

// WriteMapping writes one "key\tvalue" line per entry in insertion order,
// without a header.
func WriteMapping[K cmp.Ordered, V any](w io.Writer, m *dataset.OrderedMap[K, V]) error {
	bw := bufio.NewWriter(w)
	var err error
	m.Range(func(k K, v V) bool {
		_, err = fmt.Fprintf(bw, "%v\t%v\n", k, v)
		return err == nil
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// Save writes the mapping to path, replacing any existing file. A path ending
// in ".sz" is written as a snappy framed stream.
func Save[K cmp.Ordered, V any](path string, m *dataset.OrderedMap[K, V]) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if !strings.HasSuffix(path, ".sz") {
		if err := WriteMapping(f, m); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	}

	sw := snappy.NewBufferedWriter(f)
	if err := WriteMapping(sw, m); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}
