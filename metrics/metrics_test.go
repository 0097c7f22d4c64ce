package metrics

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const progress = `Iteration,GameScore/Average,GameScore/Std,intrinsic_rewards/Average
0,1.5,0.5,0.1
1,2.5,,0.2
2,x,1.0,0.3
`

func TestReadSeries(t *testing.T) {
	table, err := Read(strings.NewReader(progress))
	require.NoError(t, err)

	assert.Equal(t, []string{"Iteration", "GameScore/Average", "GameScore/Std",
		"intrinsic_rewards/Average"}, table.Header())
	assert.Equal(t, 3, table.Len())

	score, err := table.Series("GameScore/Average")
	require.NoError(t, err)
	assert.True(t, score.HasBand())
	assert.Equal(t, 1.5, score.Values[0])
	assert.True(t, math.IsNaN(score.Values[2]))
	assert.Equal(t, 0.5, score.Std[0])
	assert.True(t, math.IsNaN(score.Std[1]))

	rInt, err := table.Series("intrinsic_rewards/Average")
	require.NoError(t, err)
	assert.False(t, rInt.HasBand())
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, rInt.Values)
}

func TestMissingColumn(t *testing.T) {
	table, err := Read(strings.NewReader(progress))
	require.NoError(t, err)

	_, err = table.Series("Loss/Average")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestDuplicateColumn(t *testing.T) {
	log := "Iteration,Loss,Loss\n0,1,2\n"
	_, err := Read(strings.NewReader(log))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateColumn))
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "progress.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_0", "progress.csv")
	w, err := NewWriter(path)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		mean, std := Summarize([]float64{float64(i), float64(i + 2)})
		require.NoError(t, w.Write([]Iteration{{
			Iteration:        i,
			GameScoreAverage: mean,
			GameScoreStd:     std,
		}}))
	}
	require.NoError(t, w.Close())

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	score, err := table.Series("GameScore/Average")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, score.Values)
	assert.Equal(t, []float64{1, 1, 1}, score.Std)
}

func TestSummarize(t *testing.T) {
	mean, std := Summarize(nil)
	assert.True(t, math.IsNaN(mean))
	assert.True(t, math.IsNaN(std))

	mean, std = Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 2.0, std, 1e-12)
}
