package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/rlsampler/initwfn"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// Keys for weights map: map[string]*mat.Dense
	WeightsKey string = "weights"
)

// Categorical implements a softmax policy over discrete actions
// using linear function approximation. Actions are enumerated as
// (0, 1, ..., N-1). The distribution info of each row is the vector of
// action probabilities.
type Categorical struct {
	weights *mat.Dense // rows = actions, cols = features
	source  rand.Source
}

// NewCategorical returns a new Categorical policy over actions
// actions given feature vectors with features features
func NewCategorical(actions, features int, init *initwfn.InitWFn,
	seed uint64) *Categorical {
	if actions < 1 {
		panic(fmt.Sprintf("newCategorical: there must be at least one "+
			"action, got %v", actions))
	}

	return &Categorical{
		weights: init.Matrix(actions, features),
		source:  rand.NewSource(seed),
	}
}

// Probabilities returns the action probabilities of each row of
// features
func (c *Categorical) Probabilities(features *mat.Dense) *mat.Dense {
	var probs mat.Dense
	probs.Mul(features, c.weights.T())

	rows, _ := probs.Dims()
	for i := 0; i < rows; i++ {
		row := probs.RawRowView(i)
		max := floats.Max(row)
		for j := range row {
			row[j] = math.Exp(row[j] - max)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
	return &probs
}

// SelectActions implements the Policy interface. Actions are returned
// as a single column.
func (c *Categorical) SelectActions(features *mat.Dense) (*mat.Dense,
	*mat.Dense) {
	probs := c.Probabilities(features)
	rows, _ := probs.Dims()

	actions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		dist := distuv.NewCategorical(probs.RawRowView(i), c.source)
		actions.Set(i, 0, dist.Rand())
	}
	return actions, probs
}

// Weights implements the Policy interface
func (c *Categorical) Weights() map[string]*mat.Dense {
	return map[string]*mat.Dense{WeightsKey: c.weights}
}
