package array

import (
	"fmt"

	"gorgonia.org/tensor"
)

// DType is the element type of an Array
type DType int

const (
	Float64 DType = iota
	Float32
	Int64
	Bool
)

// Size returns the number of bytes a single element occupies
func (d DType) Size() int {
	switch d {
	case Float64, Int64:
		return 8
	case Float32:
		return 4
	case Bool:
		return 1
	}
	panic(fmt.Sprintf("size: no such dtype %d", int(d)))
}

func (d DType) String() string {
	switch d {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("DType(%d)", int(d))
}

// MarshalText implements the encoding.TextMarshaler interface
func (d DType) MarshalText() ([]byte, error) {
	switch d {
	case Float64, Float32, Int64, Bool:
		return []byte(d.String()), nil
	}
	return nil, fmt.Errorf("marshalText: no such dtype %d", int(d))
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (d *DType) UnmarshalText(text []byte) error {
	dtype, err := ParseDType(string(text))
	if err != nil {
		return err
	}
	*d = dtype
	return nil
}

// ParseDType returns the DType with the given name
func ParseDType(name string) (DType, error) {
	switch name {
	case "float64":
		return Float64, nil
	case "float32":
		return Float32, nil
	case "int64":
		return Int64, nil
	case "bool":
		return Bool, nil
	}
	return 0, fmt.Errorf("parseDType: no such dtype %q", name)
}

// Tensor returns the gorgonia dtype matching d
func (d DType) Tensor() tensor.Dtype {
	switch d {
	case Float64:
		return tensor.Float64
	case Float32:
		return tensor.Float32
	case Int64:
		return tensor.Int64
	case Bool:
		return tensor.Bool
	}
	panic(fmt.Sprintf("tensor: no such dtype %d", int(d)))
}

// FromTensor returns the DType matching a gorgonia dtype. Platform
// sized ints are widened to Int64.
func FromTensor(dt tensor.Dtype) (DType, error) {
	switch dt {
	case tensor.Float64:
		return Float64, nil
	case tensor.Float32:
		return Float32, nil
	case tensor.Int64, tensor.Int:
		return Int64, nil
	case tensor.Bool:
		return Bool, nil
	}
	return 0, fmt.Errorf("fromTensor: unsupported dtype %v", dt)
}
