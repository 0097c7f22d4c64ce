package cartpole

import (
	"testing"

	"github.com/samuelfneumann/rlsampler/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func newTestCartpole(t *testing.T, steps int) *Cartpole {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := environment.NewUniformStarter([]r1.Interval{bounds, bounds, bounds,
		bounds}, 7)
	c, first, err := New(s, steps, 0.99)
	require.NoError(t, err)
	require.True(t, first.First())
	return c
}

func TestStepRequiresIntegerAction(t *testing.T) {
	c := newTestCartpole(t, 10)

	_, err := c.Step(environment.VecAction(mat.NewVecDense(1, []float64{1})))
	require.Error(t, err)

	_, err = c.Step(environment.IntAction(3))
	require.Error(t, err)

	step, err := c.Step(environment.IntAction(1))
	require.NoError(t, err)
	assert.Equal(t, 1, step.Number)
	assert.Equal(t, 1.0, step.Reward)
	assert.Equal(t, 4, step.Observation.Len())
}

func TestStepLimitTimesOut(t *testing.T) {
	c := newTestCartpole(t, 3)

	var done bool
	var info map[string]float64
	for i := 0; i < 3; i++ {
		step, err := c.Step(environment.IntAction(1))
		require.NoError(t, err)
		done = step.Last()
		info = step.Info
	}

	assert.True(t, done)
	assert.Equal(t, 1.0, info[environment.TimeoutInfo])
	assert.Equal(t, 3.0, info[environment.GameScoreInfo])

	_, err := c.Step(environment.IntAction(1))
	require.Error(t, err)

	first, err := c.Reset()
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.Info[environment.GameScoreInfo])
}

func TestActionSpaceIsScalar(t *testing.T) {
	c := newTestCartpole(t, 10)
	space := c.ActionSpace()
	assert.True(t, space.Shape().IsScalar())
	assert.Equal(t, 3, space.(environment.Discrete).N)
}
