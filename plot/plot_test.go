package plot

import (
	"bytes"
	"errors"
	"io"
	"io/ioutil"
	"math"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/rlsampler/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const progress = `Iteration,GameScore/Average,GameScore/Std,intrinsic_rewards/Average,intrinsic_rewards/Std
0,1.5,0.5,0.20,0.01
1,,,0.18,0.02
2,3.0,1.0,0.15,0.01
3,4.5,0.5,0.11,0.03
`

type recordingRenderer struct {
	calls  int
	series []metrics.Series
}

func (r *recordingRenderer) Render(w io.Writer, series ...metrics.Series) error {
	r.calls++
	r.series = series
	_, err := w.Write([]byte("image"))
	return err
}

type recordingDisplay struct {
	shown []string
}

func (d *recordingDisplay) Show(path string) error {
	d.shown = append(d.shown, path)
	return nil
}

func writeLog(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "progress.csv")
	require.NoError(t, ioutil.WriteFile(path, []byte(progress), 0o644))
	return path
}

func TestPlotRendersOnce(t *testing.T) {
	renderer := &recordingRenderer{}
	display := &recordingDisplay{}
	output := filepath.Join(t.TempDir(), "out", "progress.png")
	p := &Plotter{Renderer: renderer, Display: display, Output: output}

	err := p.Plot(writeLog(t), "GameScore/Average", "intrinsic_rewards/Average")
	require.NoError(t, err)

	assert.Equal(t, 1, renderer.calls)
	require.Len(t, renderer.series, 2)
	assert.Equal(t, "GameScore/Average", renderer.series[0].Name)
	assert.Equal(t, "intrinsic_rewards/Average", renderer.series[1].Name)
	assert.True(t, renderer.series[0].HasBand())
	assert.True(t, math.IsNaN(renderer.series[0].Values[1]))
	assert.Equal(t, []string{output}, display.shown)

	data, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "image", string(data))
}

func TestPlotMissingFile(t *testing.T) {
	renderer := &recordingRenderer{}
	p := &Plotter{Renderer: renderer, Display: NoDisplay{},
		Output: filepath.Join(t.TempDir(), "p.png")}

	err := p.Plot(filepath.Join(t.TempDir(), "nope.csv"), "GameScore/Average")
	require.Error(t, err)
	assert.Equal(t, 0, renderer.calls)
}

func TestPlotMissingColumn(t *testing.T) {
	renderer := &recordingRenderer{}
	p := &Plotter{Renderer: renderer, Display: NoDisplay{},
		Output: filepath.Join(t.TempDir(), "p.png")}

	err := p.Plot(writeLog(t), "GameScore/Average", "Loss")
	require.Error(t, err)
	assert.True(t, errors.Is(err, metrics.ErrMissingColumn))
	assert.Equal(t, 0, renderer.calls)
}

func TestBandSkipsNaN(t *testing.T) {
	s := metrics.Series{
		Name:   "x/Average",
		Values: []float64{1, math.NaN(), 3},
		Std:    []float64{0.5, math.NaN(), 1},
	}
	b := newBand(s, Palette[0])
	require.Equal(t, 2, b.Len())

	x, hi, lo := b.GetBoundedValues(1)
	assert.Equal(t, 2.0, x)
	assert.Equal(t, 4.0, hi)
	assert.Equal(t, 2.0, lo)
}

func TestChartRendersPNG(t *testing.T) {
	table, err := metrics.Read(bytes.NewBufferString(progress))
	require.NoError(t, err)
	score, err := table.Series("GameScore/Average")
	require.NoError(t, err)
	intrinsic, err := table.Series("intrinsic_rewards/Average")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewChart().Render(&buf, score, intrinsic))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestChartNoSamples(t *testing.T) {
	empty := metrics.Series{Name: "empty", Values: []float64{math.NaN()}}
	require.Error(t, NewChart().Render(ioutil.Discard, empty))
}
