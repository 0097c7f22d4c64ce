// Package array implements typed N-dimensional arrays over raw byte
// storage. Arrays never own their storage: slicing an Array along its
// leading dimension returns another Array aliasing the same bytes, and
// the gonum and gorgonia views an Array hands out alias the same bytes
// as well. Storage may come from the Go heap or from a shared memory
// mapping.
package array

import (
	"fmt"
	"unsafe"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Array is a row major N-dimensional array with a fixed element type
type Array struct {
	dtype DType
	shape []int
	data  []byte
}

// New returns a new Array of the given type and shape backed by data.
// The length of data must match the size of the array exactly.
func New(dtype DType, shape []int, data []byte) (*Array, error) {
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("new: illegal shape %v", shape)
		}
	}

	want := Size(shape) * dtype.Size()
	if len(data) != want {
		return nil, fmt.Errorf("new: illegal data length \n\twant(%v)"+
			"\n\thave(%v)", want, len(data))
	}

	s := make([]int, len(shape))
	copy(s, shape)
	return &Array{dtype: dtype, shape: s, data: data}, nil
}

// Zeros returns a new zeroed Array allocated on the Go heap
func Zeros(dtype DType, shape ...int) *Array {
	a, err := New(dtype, shape, AlignedBytes(Size(shape)*dtype.Size()))
	if err != nil {
		panic(fmt.Sprintf("zeros: %v", err))
	}
	return a
}

// AlignedBytes returns a zeroed byte slice of length n whose first
// element is 8-byte aligned so that it can back any DType.
func AlignedBytes(n int) []byte {
	if n == 0 {
		return []byte{}
	}
	words := make([]uint64, (n+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), n)
}

// Size returns the number of elements in an array of the given shape
func Size(shape []int) int {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return size
}

// DType returns the element type of the array
func (a *Array) DType() DType {
	return a.dtype
}

// Shape returns a copy of the shape of the array
func (a *Array) Shape() []int {
	s := make([]int, len(a.shape))
	copy(s, a.shape)
	return s
}

// Dims returns the number of dimensions of the array
func (a *Array) Dims() int {
	return len(a.shape)
}

// Len returns the length of the leading dimension. Zero dimensional
// arrays have length 1.
func (a *Array) Len() int {
	if len(a.shape) == 0 {
		return 1
	}
	return a.shape[0]
}

// Size returns the total number of elements in the array
func (a *Array) Size() int {
	return Size(a.shape)
}

// Bytes returns the raw storage of the array
func (a *Array) Bytes() []byte {
	return a.data
}

// stride returns the number of bytes between consecutive indices of the
// leading dimension
func (a *Array) stride() int {
	return Size(a.shape[1:]) * a.dtype.Size()
}

// Slice returns the elements [start, end) of the leading dimension. The
// returned Array aliases a.
func (a *Array) Slice(start, end int) *Array {
	if len(a.shape) == 0 {
		panic("slice: cannot slice a zero dimensional array")
	}
	if start < 0 || end > a.shape[0] || start > end {
		panic(fmt.Sprintf("slice: illegal range [%v:%v] for length %v",
			start, end, a.shape[0]))
	}

	stride := a.stride()
	shape := a.Shape()
	shape[0] = end - start

	return &Array{
		dtype: a.dtype,
		shape: shape,
		data:  a.data[start*stride : end*stride : end*stride],
	}
}

// Index returns the sub-array at index i of the leading dimension. The
// returned Array aliases a.
func (a *Array) Index(i int) *Array {
	if len(a.shape) == 0 {
		panic("index: cannot index a zero dimensional array")
	}
	if i < 0 || i >= a.shape[0] {
		panic(fmt.Sprintf("index: index %v out of range [0, %v)", i,
			a.shape[0]))
	}

	stride := a.stride()
	return &Array{
		dtype: a.dtype,
		shape: a.Shape()[1:],
		data:  a.data[i*stride : (i+1)*stride : (i+1)*stride],
	}
}

// Float64s returns the array storage as a []float64. It panics if the
// array does not hold float64s.
func (a *Array) Float64s() []float64 {
	a.mustBe(Float64)
	if len(a.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&a.data[0])), a.Size())
}

// Float32s returns the array storage as a []float32. It panics if the
// array does not hold float32s.
func (a *Array) Float32s() []float32 {
	a.mustBe(Float32)
	if len(a.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&a.data[0])), a.Size())
}

// Int64s returns the array storage as a []int64. It panics if the
// array does not hold int64s.
func (a *Array) Int64s() []int64 {
	a.mustBe(Int64)
	if len(a.data) == 0 {
		return nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&a.data[0])), a.Size())
}

// Bools returns the array storage as a []bool. It panics if the array
// does not hold bools.
func (a *Array) Bools() []bool {
	a.mustBe(Bool)
	if len(a.data) == 0 {
		return nil
	}
	return unsafe.Slice((*bool)(unsafe.Pointer(&a.data[0])), a.Size())
}

func (a *Array) mustBe(d DType) {
	if a.dtype != d {
		panic(fmt.Sprintf("array holds %v, not %v", a.dtype, d))
	}
}

// At returns the element at flat index i converted to a float64
func (a *Array) At(i int) float64 {
	switch a.dtype {
	case Float64:
		return a.Float64s()[i]
	case Float32:
		return float64(a.Float32s()[i])
	case Int64:
		return float64(a.Int64s()[i])
	default:
		if a.Bools()[i] {
			return 1
		}
		return 0
	}
}

// Set sets the element at flat index i, converting v to the array's
// DType
func (a *Array) Set(i int, v float64) {
	switch a.dtype {
	case Float64:
		a.Float64s()[i] = v
	case Float32:
		a.Float32s()[i] = float32(v)
	case Int64:
		a.Int64s()[i] = int64(v)
	default:
		a.Bools()[i] = v != 0
	}
}

// SetFloat64s sets every element of the array from values, which must
// have the same number of elements as the array
func (a *Array) SetFloat64s(values []float64) error {
	if len(values) != a.Size() {
		return fmt.Errorf("setFloat64s: illegal values length \n\twant(%v)"+
			"\n\thave(%v)", a.Size(), len(values))
	}

	if a.dtype == Float64 {
		copy(a.Float64s(), values)
		return nil
	}
	for i, v := range values {
		a.Set(i, v)
	}
	return nil
}

// CopyFrom copies the contents of src into a. Both arrays must have the
// same type and size.
func (a *Array) CopyFrom(src *Array) error {
	if a.dtype != src.dtype || len(a.data) != len(src.data) {
		return fmt.Errorf("copyFrom: cannot copy %v%v into %v%v",
			src.dtype, src.shape, a.dtype, a.shape)
	}
	copy(a.data, src.data)
	return nil
}

// Fill sets every element of the array to v
func (a *Array) Fill(v float64) {
	for i := 0; i < a.Size(); i++ {
		a.Set(i, v)
	}
}

// backing returns the typed storage of the array as an interface{}
// suitable for tensor.WithBacking
func (a *Array) backing() interface{} {
	switch a.dtype {
	case Float64:
		return a.Float64s()
	case Float32:
		return a.Float32s()
	case Int64:
		return a.Int64s()
	default:
		return a.Bools()
	}
}

// Tensor returns a gorgonia tensor aliasing the array's storage. Writes
// through either the tensor or the array are visible through the other.
func (a *Array) Tensor() *tensor.Dense {
	return tensor.New(
		tensor.Of(a.dtype.Tensor()),
		tensor.WithShape(a.shape...),
		tensor.WithBacking(a.backing()),
	)
}

// Matrix returns a gonum matrix aliasing the sub-array at index i of
// the leading dimension. The sub-array is viewed as one row per element
// of its own leading dimension. Only float64 arrays of at least two
// dimensions can be viewed as matrices.
func (a *Array) Matrix(i int) *mat.Dense {
	if len(a.shape) < 2 {
		panic("matrix: array must have at least two dimensions")
	}
	sub := a.Index(i)
	cols := 1
	if len(sub.shape) > 1 {
		cols = Size(sub.shape[1:])
	}
	return mat.NewDense(sub.shape[0], cols, sub.Float64s())
}

func (a *Array) String() string {
	return fmt.Sprintf("Array(%v%v)", a.dtype, a.shape)
}
