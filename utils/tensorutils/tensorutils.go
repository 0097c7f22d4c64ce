// Package tensorutils implements utilities for working with
// gorgonia tensors
package tensorutils

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Float64s returns the elements of a tensor as float64s in row major
// order. Scalar tensors return a slice of length 1. The returned slice
// is always a copy. Views are materialized before conversion.
func Float64s(t tensor.Tensor) ([]float64, error) {
	if t == nil {
		return nil, fmt.Errorf("float64s: nil tensor")
	}

	if v, ok := t.(tensor.View); ok && v.IsView() {
		t = v.Materialize()
	}

	switch data := t.Data().(type) {
	case []float64:
		out := make([]float64, len(data))
		copy(out, data)
		return out, nil
	case []float32:
		out := make([]float64, len(data))
		for i := range data {
			out[i] = float64(data[i])
		}
		return out, nil
	case []int64:
		out := make([]float64, len(data))
		for i := range data {
			out[i] = float64(data[i])
		}
		return out, nil
	case []int:
		out := make([]float64, len(data))
		for i := range data {
			out[i] = float64(data[i])
		}
		return out, nil
	case []bool:
		out := make([]float64, len(data))
		for i := range data {
			if data[i] {
				out[i] = 1
			}
		}
		return out, nil
	case float64:
		return []float64{data}, nil
	case float32:
		return []float64{float64(data)}, nil
	case int64:
		return []float64{float64(data)}, nil
	case int:
		return []float64{float64(data)}, nil
	case bool:
		if data {
			return []float64{1}, nil
		}
		return []float64{0}, nil
	}

	return nil, fmt.Errorf("float64s: unsupported tensor dtype %v", t.Dtype())
}
