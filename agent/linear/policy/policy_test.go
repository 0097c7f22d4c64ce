package policy

import (
	"testing"

	"github.com/samuelfneumann/rlsampler/initwfn"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestCategoricalProbabilities(t *testing.T) {
	c := NewCategorical(3, 2, initwfn.NewZeroes(), 1)
	features := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	actions, probs := c.SelectActions(features)
	r, cols := actions.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, cols)

	for i := 0; i < 2; i++ {
		row := probs.RawRowView(i)
		assert.InDelta(t, 1.0, floats.Sum(row), 1e-12)
		for _, p := range row {
			assert.InDelta(t, 1.0/3.0, p, 1e-12)
		}

		a := actions.At(i, 0)
		assert.True(t, a == 0 || a == 1 || a == 2)
	}
}

func TestCategoricalGreedyWeights(t *testing.T) {
	c := NewCategorical(2, 1, initwfn.NewZeroes(), 1)
	c.Weights()[WeightsKey].Set(1, 0, 100)

	actions, _ := c.SelectActions(mat.NewDense(1, 1, []float64{1}))
	assert.Equal(t, 1.0, actions.At(0, 0))
}

func TestGaussianDistInfo(t *testing.T) {
	g := NewGaussian(2, 3, initwfn.NewZeroes(), 1)
	features := mat.NewDense(4, 3, nil)

	actions, distInfo := g.SelectActions(features)
	r, c := actions.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 2, c)

	r, c = distInfo.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
	assert.Equal(t, 0.0, distInfo.At(3, 0))
	assert.InDelta(t, 1+StdOffset, distInfo.At(3, 3), 1e-12)
}
