package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesLength(t *testing.T) {
	_, err := New(Float32, []int{2, 3}, make([]byte, 10))
	require.Error(t, err)

	a, err := New(Float32, []int{2, 3}, AlignedBytes(24))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.Equal(t, 6, a.Size())
}

func TestSliceAliases(t *testing.T) {
	all := Zeros(Int64, 5, 2)
	current := all.Slice(1, 5)
	previous := all.Slice(0, 4)

	for i := 0; i < current.Len(); i++ {
		row := current.Index(i).Int64s()
		row[0] = int64(10 * (i + 1))
		row[1] = int64(10*(i+1) + 1)
	}

	for i := 1; i < previous.Len(); i++ {
		assert.Equal(t, current.Index(i-1).Int64s(), previous.Index(i).Int64s())
	}
	assert.Equal(t, []int64{0, 0}, previous.Index(0).Int64s())
}

func TestTensorAliases(t *testing.T) {
	a := Zeros(Float32, 3, 2)
	tt := a.Tensor()
	assert.Equal(t, []int{3, 2}, []int(tt.Shape()))

	a.Index(1).Float32s()[1] = 7
	v, err := tt.At(1, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(7), v)

	require.NoError(t, tt.SetAt(float32(3), 2, 0))
	assert.Equal(t, float32(3), a.Index(2).Float32s()[0])
}

func TestMatrixAliases(t *testing.T) {
	a := Zeros(Float64, 2, 3, 4)
	m := a.Matrix(1)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 4, c)

	m.Set(2, 3, 1.5)
	assert.Equal(t, 1.5, a.Index(1).Index(2).Float64s()[3])
}

func TestSetConverts(t *testing.T) {
	b := Zeros(Bool, 3)
	require.NoError(t, b.SetFloat64s([]float64{0, 1, 2}))
	assert.Equal(t, []bool{false, true, true}, b.Bools())

	i := Zeros(Int64, 2)
	i.Set(1, 4.0)
	assert.Equal(t, 4.0, i.At(1))

	require.Error(t, i.SetFloat64s([]float64{1}))
}

func TestCopyFrom(t *testing.T) {
	src := Zeros(Float32, 2)
	src.Fill(2.5)
	dst := Zeros(Float32, 2)
	require.NoError(t, dst.CopyFrom(src))
	assert.Equal(t, []float32{2.5, 2.5}, dst.Float32s())

	require.Error(t, dst.CopyFrom(Zeros(Float64, 2)))
}

func TestDTypeText(t *testing.T) {
	for _, d := range []DType{Float64, Float32, Int64, Bool} {
		text, err := d.MarshalText()
		require.NoError(t, err)

		var back DType
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, d, back)

		fromTensor, err := FromTensor(d.Tensor())
		require.NoError(t, err)
		assert.Equal(t, d, fromTensor)
	}
}
