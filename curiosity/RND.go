// Package curiosity implements intrinsic reward modules
package curiosity

import (
	"fmt"

	"github.com/samuelfneumann/rlsampler/initwfn"
	"gonum.org/v1/gonum/mat"
)

// Available intrinsic reward algorithms
const (
	None = "none"
	RND  = "rnd"
)

// Curiosity computes the intrinsic reward of a batch of transitions
type Curiosity interface {
	// Reward returns one intrinsic reward per row of the arguments
	Reward(obs, action, nextObs *mat.Dense) []float64
}

// New returns the intrinsic reward module named by alg
func New(alg string, obsDims, featureSize int, scale float64,
	init *initwfn.InitWFn) (Curiosity, error) {
	switch alg {
	case RND:
		return NewRandomDistillation(obsDims, featureSize, scale, init)
	case None, "":
		return nil, fmt.Errorf("new: no curiosity module for algorithm %q",
			alg)
	}
	return nil, fmt.Errorf("new: unknown curiosity algorithm %q", alg)
}

// RandomDistillation implements random network distillation with linear
// networks. A fixed, randomly initialized target network maps the next
// observation to a feature vector and a predictor network tries to
// predict those features. The intrinsic reward is the scaled mean
// squared prediction error.
//
// Weights have one row per feature and one column per observation
// feature plus a bias column.
type RandomDistillation struct {
	target    *mat.Dense
	predictor *mat.Dense
	scale     float64
}

// NewRandomDistillation returns a new RandomDistillation module. If
// init is nil, both networks use Glorot uniform initialization.
func NewRandomDistillation(obsDims, featureSize int, scale float64,
	init *initwfn.InitWFn) (*RandomDistillation, error) {
	if obsDims < 1 {
		return nil, fmt.Errorf("newRandomDistillation: observations must "+
			"have at least one feature, got %v", obsDims)
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("newRandomDistillation: feature size must "+
			"be positive, got %v", featureSize)
	}
	if scale < 0 {
		return nil, fmt.Errorf("newRandomDistillation: scale must be "+
			"non-negative, got %v", scale)
	}

	if init == nil {
		init = initwfn.NewGlorotU(1.0)
	}

	return &RandomDistillation{
		target:    init.Matrix(featureSize, obsDims+1),
		predictor: init.Matrix(featureSize, obsDims+1),
		scale:     scale,
	}, nil
}

// Reward implements the Curiosity interface. Only nextObs is used.
func (r *RandomDistillation) Reward(_, _, nextObs *mat.Dense) []float64 {
	batch, cols := nextObs.Dims()
	_, inputs := r.target.Dims()
	if cols+1 != inputs {
		panic(fmt.Sprintf("reward: expected %v observation features, got %v",
			inputs-1, cols))
	}

	// Append the bias column
	x := mat.NewDense(batch, inputs, nil)
	x.Augment(nextObs, ones(batch))

	var target, prediction mat.Dense
	target.Mul(x, r.target.T())
	prediction.Mul(x, r.predictor.T())

	var diff mat.Dense
	diff.Sub(&prediction, &target)

	features := float64(diff.RawMatrix().Cols)
	rewards := make([]float64, batch)
	for i := range rewards {
		row := diff.RawRowView(i)
		sum := 0.0
		for _, d := range row {
			sum += d * d
		}
		rewards[i] = r.scale * sum / features
	}
	return rewards
}

func ones(rows int) *mat.Dense {
	data := make([]float64, rows)
	for i := range data {
		data[i] = 1.0
	}
	return mat.NewDense(rows, 1, data)
}
