package mountaincar

import (
	"testing"

	"github.com/samuelfneumann/rlsampler/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func newTestMountainCar(t *testing.T, position, speed float64,
	steps int) *MountainCar {
	s := environment.NewUniformStarter([]r1.Interval{
		{Min: position, Max: position},
		{Min: speed, Max: speed},
	}, 3)
	m, first, err := New(s, steps, 1.0)
	require.NoError(t, err)
	require.True(t, first.First())
	return m
}

func TestStepLimit(t *testing.T) {
	m := newTestMountainCar(t, -0.5, 0, 3)

	_, err := m.Step(environment.VecAction(mat.NewVecDense(1, nil)))
	require.Error(t, err)

	var info map[string]float64
	var done bool
	for i := 0; i < 3; i++ {
		step, err := m.Step(environment.IntAction(2))
		require.NoError(t, err)
		assert.Equal(t, -1.0, step.Reward)
		info, done = step.Info, step.Last()
	}
	assert.True(t, done)
	assert.Equal(t, 1.0, info[environment.TimeoutInfo])
	assert.Equal(t, -3.0, info[environment.GameScoreInfo])
}

func TestReachGoal(t *testing.T) {
	m := newTestMountainCar(t, 0.44, MaxSpeed, 10)

	step, err := m.Step(environment.IntAction(2))
	require.NoError(t, err)
	assert.True(t, step.Last())
	assert.Equal(t, 0.0, step.Reward)
	assert.Equal(t, 0.0, step.Info[environment.TimeoutInfo])
	assert.InDelta(t, 0.44+MaxSpeed, step.Observation.AtVec(0), 1e-12)
}

func TestResetRejectsIllegalStart(t *testing.T) {
	s := environment.NewUniformStarter([]r1.Interval{
		{Min: 1, Max: 1},
		{Min: 0, Max: 0},
	}, 3)
	_, _, err := New(s, 10, 1.0)
	require.Error(t, err)
}
