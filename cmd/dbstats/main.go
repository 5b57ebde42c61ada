package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/dbstats/internal/config"
	"github.com/soltixdb/dbstats/internal/dataset"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/models"
	"github.com/soltixdb/dbstats/internal/queue"
	"github.com/soltixdb/dbstats/internal/report"
	"github.com/soltixdb/dbstats/internal/stats"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
)

// options are the command line settings layered over the config file
type options struct {
	input    string
	sep      string
	saveDir  string
	format   string
	compress bool
	publish  bool
}

func main() {
	var opts options
	configPath := flag.String("config", "", "Path to configuration file")
	flag.StringVar(&opts.input, "input", "", "Dataset path or http(s) URL (.sz for snappy)")
	flag.StringVar(&opts.sep, "sep", "", "Field separator (default from config, tab)")
	flag.StringVar(&opts.saveDir, "save-dir", "", "Write distributions, plot series and the summary into this directory")
	flag.StringVar(&opts.format, "format", "", "Summary file format: json or protobuf (default from config)")
	flag.BoolVar(&opts.compress, "compress", false, "Snappy compress saved mappings")
	flag.BoolVar(&opts.publish, "publish", false, "Publish the summary to the configured queue")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dbstats %s (%s)\n", Version, GitCommit)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the summary table
	if cfg.Logging.OutputPath == "" || cfg.Logging.OutputPath == "stdout" {
		cfg.Logging.OutputPath = "stderr"
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	if opts.input == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), cfg, opts, os.Stdout, logger); err != nil {
		logger.Fatal("dbstats failed", "input", opts.input, "error", err)
	}
}

// run loads the dataset, prints the summary table and performs the optional
// exports. Load failures abort, export failures are logged and returned
// together.
func run(ctx context.Context, cfg *config.Config, opts options, out io.Writer, logger *logging.Logger) error {
	sep := opts.sep
	if sep == "" {
		sep = cfg.Dataset.Separator
	}

	start := time.Now()
	st, err := stats.FromSource(opts.input, dataset.LoadOptions{
		Separator:    sep,
		FetchTimeout: cfg.Dataset.FetchTimeout,
	}, logger)
	if err != nil {
		return err
	}
	st.WithMaxTimestampSpan(cfg.Dataset.MaxTimestampSpan)
	logger.Info("Dataset loaded",
		"input", opts.input,
		"transactions", st.DatabaseSize(),
		"items", st.TotalNumberOfItems(),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if err := report.Print(out, st); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}

	sum := st.Summarize()

	if opts.saveDir != "" {
		if err := save(cfg, opts, st, sum, logger); err != nil {
			return err
		}
	}

	if opts.publish {
		if err := publish(ctx, cfg, opts.input, sum, logger); err != nil {
			return err
		}
	}
	return nil
}

func save(cfg *config.Config, opts options, st *stats.Stats, sum stats.Summary, logger *logging.Logger) error {
	if err := os.MkdirAll(opts.saveDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.saveDir, err)
	}

	compress := opts.compress || cfg.Report.Compress
	written, err := report.SaveAll(st, opts.saveDir, compress)
	for _, path := range written {
		logger.Info("Distribution saved", "path", path)
	}
	if err != nil {
		// undefined mappings of tiny datasets are expected
		logger.Warn("Some distributions were not saved", "error", err)
	}

	if err := report.PlotGraphs(report.SeriesDumper{Dir: opts.saveDir, Compress: compress, Logger: logger}, st); err != nil {
		logger.Warn("Plot series not saved", "error", err)
	}

	name := opts.format
	if name == "" {
		name = cfg.Report.Format
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		return err
	}
	data, err := report.Encode(sum, format)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	path := filepath.Join(opts.saveDir, "summary"+format.Extension())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	logger.Info("Summary saved", "path", path, "format", string(format))
	return nil
}

func publish(ctx context.Context, cfg *config.Config, input string, sum stats.Summary, logger *logging.Logger) error {
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}
	defer func() { _ = q.Close() }()

	msg := models.SummaryMessage{
		ID:          uuid.New().String(),
		Source:      input,
		Summary:     &sum,
		CompletedAt: time.Now().UTC(),
	}
	if err := report.Publish(ctx, q, cfg.Queue.SummarySubject(), msg); err != nil {
		return err
	}
	logger.Info("Summary published", "subject", cfg.Queue.SummarySubject(), "id", msg.ID)
	return nil
}
