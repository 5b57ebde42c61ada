package dataset

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/snappy"
	"github.com/soltixdb/dbstats/internal/logging"
)

// LoadOptions configures Load
type LoadOptions struct {
	// Separator between fields; empty selects DefaultSeparator
	Separator string

	// FetchTimeout bounds a URL fetch; zero blocks until the server answers
	FetchTimeout time.Duration
}

// Loader resolves a source string (local path or http(s) URL) and parses it
type Loader struct {
	opts   LoadOptions
	parser *Parser
	logger *logging.Logger
}

// NewLoader creates a loader
func NewLoader(opts LoadOptions, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Global()
	}
	return &Loader{
		opts:   opts,
		parser: NewParser(opts.Separator, logger),
		logger: logger,
	}
}

// Load reads the whole source and returns the parsed Database. A missing
// file or an unreachable URL yields a *SourceUnavailableError.
func (l *Loader) Load(source string) (*Database, error) {
	start := time.Now()

	var (
		r   io.ReadCloser
		err error
	)
	if IsURL(source) {
		r, err = l.fetch(source)
	} else {
		r, err = l.open(source)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	var in io.Reader = r
	if IsSnappy(source) {
		in = snappy.NewReader(r)
	}

	db, err := l.parser.ParseLines(in)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	l.logger.Info("Dataset loaded",
		"source", source,
		"transactions", db.Size(),
		"duration", time.Since(start),
	)
	return db, nil
}

func (l *Loader) open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceUnavailableError{Source: path, Err: err}
	}
	return f, nil
}

func (l *Loader) fetch(rawURL string) (io.ReadCloser, error) {
	agent := fiber.Get(rawURL)
	if l.opts.FetchTimeout > 0 {
		agent.Timeout(l.opts.FetchTimeout)
	}
	if err := agent.Parse(); err != nil {
		return nil, &SourceUnavailableError{Source: rawURL, Err: err}
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, &SourceUnavailableError{Source: rawURL, Err: errs[0]}
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return nil, &SourceUnavailableError{
			Source: rawURL,
			Err:    fmt.Errorf("unexpected status %d", code),
		}
	}

	l.logger.Debug("Fetched remote dataset", "url", rawURL, "bytes", len(body))
	return io.NopCloser(bytes.NewReader(body)), nil
}

// IsURL reports whether source is an http or https URL
func IsURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsSnappy reports whether source names a snappy framed stream
func IsSnappy(source string) bool {
	if u, err := url.Parse(source); err == nil && IsURL(source) {
		source = u.Path
	}
	return strings.HasSuffix(source, ".sz") || strings.HasSuffix(source, ".snappy")
}
