package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/soltixdb/dbstats/internal/logging"
)

// DefaultSeparator separates fields of a line record
const DefaultSeparator = "\t"

// maxLineSize bounds a single record; very wide transactions exist in benchmark datasets.
const maxLineSize = 16 * 1024 * 1024

// Parser converts raw records into a Database
type Parser struct {
	sep    string
	logger *logging.Logger
}

// NewParser creates a parser. An empty separator selects DefaultSeparator.
func NewParser(sep string, logger *logging.Logger) *Parser {
	if sep == "" {
		sep = DefaultSeparator
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &Parser{sep: sep, logger: logger}
}

// Separator returns the field separator in use
func (p *Parser) Separator() string {
	return p.sep
}

// ParseLines reads one transaction per line. The first field is the raw
// timestamp, the remaining non-empty fields are the items. Lines without any
// item are skipped and do not advance the transaction index.
func (p *Parser) ParseLines(r io.Reader) (*Database, error) {
	db := NewDatabase()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		lineNo  int
		next    TransactionIndex
		skipped int
	)
	for scanner.Scan() {
		lineNo++
		fields := p.splitFields(scanner.Text())
		if len(fields) < 2 {
			skipped++
			continue
		}

		ts, err := parseTimestamp(fields[0])
		if err != nil {
			return nil, &ParseError{Line: lineNo, Field: fields[0], Err: err}
		}

		next++
		db.put(next, fields[1:])
		db.countTimestamp(ts)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	if skipped > 0 {
		p.logger.Debug("Skipped records without items", "skipped", skipped, "lines", lineNo)
	}
	p.logger.Debug("Parsed line records",
		"transactions", db.Size(),
		"timestamps", db.timestampCounts.Len(),
	)

	return db, nil
}

// splitFields splits a line on the separator, right-trims every field and
// drops the empty ones.
func (p *Parser) splitFields(line string) []string {
	raw := strings.Split(line, p.sep)
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		f = strings.TrimRightFunc(f, unicode.IsSpace)
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func parseTimestamp(field string) (RawTimestamp, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("timestamp must be positive, got %d", v)
	}
	return RawTimestamp(v), nil
}
