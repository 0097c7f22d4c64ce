// Package metrics reads and writes tabular training logs. A log is a
// delimited file with a header row and one row per training iteration,
// such as the progress.csv written by a Writer.
package metrics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cast"
)

// ErrMissingColumn is returned when a requested column is not in a
// Table
var ErrMissingColumn = errors.New("missing column")

// ErrDuplicateColumn is returned when a log names a column twice
var ErrDuplicateColumn = errors.New("duplicate column")

// StdSuffix and AverageSuffix name the columns of a statistic logged as
// a mean with a standard deviation
const (
	AverageSuffix = "/Average"
	StdSuffix     = "/Std"
)

// Series is a named sequence of samples indexed by iteration, with an
// optional standard deviation per sample
type Series struct {
	Name   string
	Values []float64
	Std    []float64
}

// Len returns the number of samples in the series
func (s Series) Len() int {
	return len(s.Values)
}

// HasBand returns whether the series carries a standard deviation
func (s Series) HasBand() bool {
	return s.Std != nil
}

// Table is a parsed metrics log
type Table struct {
	header  []string
	columns map[string][]float64
	rows    int
}

// Load reads the metrics log at path
func Load(path string) (*Table, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	t, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load: %v: %w", path, err)
	}
	return t, nil
}

// Read parses a metrics log. Empty or non-numeric cells become NaN. It
// is an error for two columns to share a name.
func Read(r io.Reader) (*Table, error) {
	records, err := gocsv.DefaultCSVReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read: no header row")
	}
	header, rows := records[0], records[1:]

	t := &Table{
		header:  make([]string, len(header)),
		columns: make(map[string][]float64, len(header)),
		rows:    len(rows),
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, ok := t.columns[name]; ok {
			return nil, fmt.Errorf("read: %w %q", ErrDuplicateColumn, name)
		}
		t.header[i] = name

		column := make([]float64, len(rows))
		for row, record := range rows {
			column[row] = parse(record[i])
		}
		t.columns[name] = column
	}

	return t, nil
}

func parse(cell string) float64 {
	v, err := cast.ToFloat64E(strings.TrimSpace(cell))
	if err != nil || strings.TrimSpace(cell) == "" {
		return math.NaN()
	}
	return v
}

// Header returns the column names in file order
func (t *Table) Header() []string {
	return append([]string{}, t.header...)
}

// Len returns the number of rows in the table
func (t *Table) Len() int {
	return t.rows
}

// Column returns a copy of the named column
func (t *Table) Column(name string) ([]float64, error) {
	column, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("column: %w %q", ErrMissingColumn, name)
	}
	return append([]float64{}, column...), nil
}

// Series returns the named column as a Series. If the column is the
// average of a statistic whose standard deviation is also logged, the
// standard deviation becomes the band of the series.
func (t *Table) Series(name string) (Series, error) {
	values, err := t.Column(name)
	if err != nil {
		return Series{}, fmt.Errorf("series: %w", err)
	}

	s := Series{Name: name, Values: values}
	if strings.HasSuffix(name, AverageSuffix) {
		stdName := strings.TrimSuffix(name, AverageSuffix) + StdSuffix
		if std, ok := t.columns[stdName]; ok {
			s.Std = append([]float64{}, std...)
		}
	}
	return s, nil
}
