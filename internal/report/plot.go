package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/soltixdb/dbstats/internal/dataset"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/stats"
)

// Series is a small integer-keyed mapping handed to a line-graph renderer
type Series struct {
	Title  string
	XLabel string
	YLabel string
	Scale  int
	Points *dataset.OrderedMap[int, int64]
}

// Plotter renders a series. Rendering happens outside this module.
type Plotter interface {
	Plot(series Series) error
}

// PlotGraphs feeds the frequency ranges and the transaction length
// distribution to p.
func PlotGraphs(p Plotter, s *stats.Stats) error {
	ranges, err := s.FrequenciesInRange()
	if err != nil {
		return fmt.Errorf("frequency ranges: %w", err)
	}
	if err := p.Plot(Series{
		Title:  "Frequency",
		XLabel: "no of items",
		YLabel: "frequency",
		Scale:  80,
		Points: ranges,
	}); err != nil {
		return err
	}

	return p.Plot(Series{
		Title:  "transaction length",
		XLabel: "transaction length",
		YLabel: "frequency",
		Scale:  100,
		Points: s.TransactionLengthDistribution(),
	})
}

// SeriesDumper is a Plotter that persists each series as a mapping file in
// Dir instead of drawing it.
type SeriesDumper struct {
	Dir      string
	Compress bool
	Logger   *logging.Logger
}

// Plot saves series to <Dir>/plot-<title>.tsv
func (d SeriesDumper) Plot(series Series) error {
	name := "plot-" + strings.ReplaceAll(strings.ToLower(series.Title), " ", "-") + ".tsv"
	if d.Compress {
		name += ".sz"
	}
	path := filepath.Join(d.Dir, name)
	if err := Save(path, series.Points); err != nil {
		return err
	}
	if d.Logger != nil {
		d.Logger.Debug("Series saved", "title", series.Title, "path", path, "points", series.Points.Len())
	}
	return nil
}
