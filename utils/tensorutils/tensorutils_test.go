package tensorutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestFloat64s(t *testing.T) {
	f32 := tensor.New(tensor.WithShape(2), tensor.WithBacking([]float32{1, 2}))
	out, err := Float64s(f32)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, out)

	backing := []float64{3, 4}
	f64 := tensor.New(tensor.WithShape(2), tensor.WithBacking(backing))
	out, err = Float64s(f64)
	require.NoError(t, err)
	out[0] = 0
	assert.Equal(t, 3.0, backing[0])

	scalar := tensor.New(tensor.FromScalar(true))
	out, err = Float64s(scalar)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, out)

	_, err = Float64s(nil)
	assert.Error(t, err)
}
