package environment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"
)

// Keys of TimeStep.Info reported by the environments in this module
const (
	TimeoutInfo   = "timeout"
	GameScoreInfo = "game_score"
)

// Space describes the set of legal actions or observations of an
// environment
type Space interface {
	// Sample draws a uniformly random element of the space
	Sample(rng *rand.Rand) *tensor.Dense

	// Shape returns the shape of a single element of the space.
	// Scalar spaces have an empty shape.
	Shape() tensor.Shape

	// Dtype returns the element type of the space
	Dtype() tensor.Dtype
}

// Discrete is the space of integers {0, 1, ..., N-1}. Elements are
// scalars.
type Discrete struct {
	N int
}

// NewDiscrete returns a new Discrete space with n elements
func NewDiscrete(n int) Discrete {
	if n < 1 {
		panic(fmt.Sprintf("newDiscrete: space must have at least one "+
			"element, got %v", n))
	}
	return Discrete{N: n}
}

// Sample returns a uniformly random 0-dimensional int64 tensor
func (d Discrete) Sample(rng *rand.Rand) *tensor.Dense {
	return tensor.New(tensor.FromScalar(int64(rng.Intn(d.N))))
}

// Shape implements the Space interface
func (d Discrete) Shape() tensor.Shape {
	return tensor.ScalarShape()
}

// Dtype implements the Space interface
func (d Discrete) Dtype() tensor.Dtype {
	return tensor.Int64
}

// Contains returns whether n is an element of the space
func (d Discrete) Contains(n int) bool {
	return n >= 0 && n < d.N
}

// Box is a bounded, continuous space of float64 vectors
type Box struct {
	Low  *mat.VecDense
	High *mat.VecDense
}

// NewBox returns a new Box space with the given per-dimension bounds
func NewBox(low, high *mat.VecDense) Box {
	if low.Len() != high.Len() {
		panic(fmt.Sprintf("newBox: lower bound length %v must match "+
			"upper bound length %v", low.Len(), high.Len()))
	}
	for i := 0; i < low.Len(); i++ {
		if low.AtVec(i) > high.AtVec(i) {
			panic(fmt.Sprintf("newBox: lower bound %v exceeds upper bound "+
				"%v at index %v", low.AtVec(i), high.AtVec(i), i))
		}
	}
	return Box{Low: low, High: high}
}

// Sample returns a float64 vector drawn uniformly from the box
func (b Box) Sample(rng *rand.Rand) *tensor.Dense {
	values := make([]float64, b.Low.Len())
	for i := range values {
		u := distuv.Uniform{Min: b.Low.AtVec(i), Max: b.High.AtVec(i),
			Src: rng}
		values[i] = u.Rand()
	}

	return tensor.New(tensor.WithShape(len(values)),
		tensor.WithBacking(values))
}

// Shape implements the Space interface
func (b Box) Shape() tensor.Shape {
	return tensor.Shape{b.Low.Len()}
}

// Dtype implements the Space interface
func (b Box) Dtype() tensor.Dtype {
	return tensor.Float64
}

// Contains returns whether v lies inside the box
func (b Box) Contains(v mat.Vector) bool {
	if v.Len() != b.Low.Len() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) < b.Low.AtVec(i) || v.AtVec(i) > b.High.AtVec(i) {
			return false
		}
	}
	return true
}
