// Package plot renders the series of a metrics log as a line plot
package plot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/rlsampler/metrics"
	"go.uber.org/zap"
)

// Renderer draws a set of series as an image
type Renderer interface {
	Render(w io.Writer, series ...metrics.Series) error
}

// Display shows a rendered image to the user
type Display interface {
	Show(path string) error
}

// Plotter loads a metrics log, renders the requested columns to Output
// and shows the result with Display
type Plotter struct {
	Renderer Renderer
	Display  Display
	Output   string
	Logger   *zap.Logger
}

// NewPlotter returns a Plotter which renders a Chart to output and
// optionally opens it in the platform image viewer
func NewPlotter(output string, display bool, logger *zap.Logger) *Plotter {
	var d Display = NoDisplay{}
	if display {
		d = Viewer{}
	}
	return &Plotter{
		Renderer: NewChart(),
		Display:  d,
		Output:   output,
		Logger:   logger,
	}
}

// Plot renders the named columns of the metrics log at path. The
// Renderer is called exactly once, with one series per column in the
// order given.
func (p *Plotter) Plot(path string, columns ...string) error {
	if len(columns) == 0 {
		return fmt.Errorf("plot: no columns to plot")
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	table, err := metrics.Load(path)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}

	series := make([]metrics.Series, len(columns))
	for i, column := range columns {
		series[i], err = table.Series(column)
		if err != nil {
			return fmt.Errorf("plot: %w", err)
		}
	}

	if dir := filepath.Dir(p.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
	}
	f, err := os.Create(p.Output)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if err := p.Renderer.Render(f, series...); err != nil {
		f.Close()
		return fmt.Errorf("plot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	logger.Info("rendered plot", zap.String("log", path),
		zap.Strings("columns", columns), zap.String("output", p.Output),
		zap.Int("iterations", table.Len()))

	if p.Display == nil {
		return nil
	}
	if err := p.Display.Show(p.Output); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	return nil
}
