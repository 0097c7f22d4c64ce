package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/rlsampler/initwfn"
	"github.com/samuelfneumann/rlsampler/utils/matutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

const StdOffset float64 = 1e-3

const (
	// Keys for weights map: map[string]*mat.Dense
	MeanWeightsKey string = "mean"
	StdWeightsKey  string = "standard deviation"
)

// Gaussian implements a multi-dimensional linear Gaussian policy with
// diagonal covariance. The policy uses linear function approximation
// to compute the mean and the log standard deviation of the policy.
//
// The distribution info of each row holds the mean followed by the
// standard deviation of each action dimension.
type Gaussian struct {
	meanWeights *mat.Dense
	stdWeights  *mat.Dense
	actionDims  int
	source      rand.Source
}

// NewGaussian creates a new Gaussian policy. Mean weights are drawn
// from init and standard deviation weights start at zero.
func NewGaussian(actionDims, features int, init *initwfn.InitWFn,
	seed uint64) *Gaussian {
	if actionDims < 1 {
		panic(fmt.Sprintf("newGaussian: actions must have at least one "+
			"dimension, got %v", actionDims))
	}

	return &Gaussian{
		meanWeights: init.Matrix(actionDims, features),
		stdWeights:  mat.NewDense(actionDims, features, nil),
		actionDims:  actionDims,
		source:      rand.NewSource(seed),
	}
}

// Mean returns the mean action of each row of features
func (g *Gaussian) Mean(features *mat.Dense) *mat.Dense {
	var mean mat.Dense
	mean.Mul(features, g.meanWeights.T())
	return &mean
}

// Std returns the standard deviation of each action dimension for
// each row of features
func (g *Gaussian) Std(features *mat.Dense) *mat.Dense {
	var std mat.Dense
	std.Mul(features, g.stdWeights.T())
	std.Apply(func(_, _ int, v float64) float64 {
		return math.Exp(v) + StdOffset
	}, &std)
	return &std
}

// SelectActions implements the Policy interface
func (g *Gaussian) SelectActions(features *mat.Dense) (*mat.Dense,
	*mat.Dense) {
	mean := g.Mean(features)
	std := g.Std(features)
	rows, _ := mean.Dims()

	actions := mat.NewDense(rows, g.actionDims, nil)
	for i := 0; i < rows; i++ {
		variance := make([]float64, g.actionDims)
		for j, s := range std.RawRowView(i) {
			variance[j] = s * s
		}
		cov := mat.NewDiagDense(g.actionDims, variance)

		dist, ok := distmv.NewNormal(mean.RawRowView(i), cov, g.source)
		if !ok {
			panic(fmt.Sprintf("selectActions: non-positive-definite "+
				"covariance %v", matutils.Format(cov)))
		}
		dist.Rand(actions.RawRowView(i))
	}

	distInfo := mat.NewDense(rows, 2*g.actionDims, nil)
	distInfo.Augment(mean, std)
	return actions, distInfo
}

// Weights implements the Policy interface
func (g *Gaussian) Weights() map[string]*mat.Dense {
	return map[string]*mat.Dense{
		MeanWeightsKey: g.meanWeights,
		StdWeightsKey:  g.stdWeights,
	}
}
