package metrics

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// Iteration is one row of a progress log
type Iteration struct {
	Iteration              int     `csv:"Iteration"`
	CumSteps               int     `csv:"CumSteps"`
	CompletedEpisodes      int     `csv:"CompletedEpisodes"`
	GameScoreAverage       float64 `csv:"GameScore/Average"`
	GameScoreStd           float64 `csv:"GameScore/Std"`
	IntrinsicRewardAverage float64 `csv:"intrinsic_rewards/Average"`
	IntrinsicRewardStd     float64 `csv:"intrinsic_rewards/Std"`
}

// Summarize returns the mean and population standard deviation of
// values, or NaNs if values is empty
func Summarize(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	mean = stat.Mean(values, nil)
	return mean, math.Sqrt(stat.MomentAbout(2, values, mean, nil))
}

// Writer appends rows to a progress log. The header is written with
// the first rows.
type Writer struct {
	mu      sync.Mutex
	file    *os.File
	written bool
}

// NewWriter creates the progress log at path, truncating any existing
// file and creating parent directories as needed
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("newWriter: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("newWriter: %w", err)
	}
	return &Writer{file: file}, nil
}

// Write appends rows, a slice of structs with csv tags, to the log.
// All rows written to a Writer must have the same type.
func (w *Writer) Write(rows interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.written {
		err = gocsv.MarshalWithoutHeaders(rows, w.file)
	} else {
		err = gocsv.Marshal(rows, w.file)
	}
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	w.written = true
	return nil
}

// Close closes the log file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
