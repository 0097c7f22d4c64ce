package linear

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/rlsampler/initwfn"
	"gonum.org/v1/gonum/mat"
)

// recurrent implements a stack of tanh recurrent layers. Layer l
// computes
//
//	h_l' = tanh(W_l [x_l, h_l, 1])
//
// where x_0 is the input and x_l = h_{l-1}' for l > 0.
type recurrent struct {
	weights []*mat.Dense
	hidden  int
}

func newRecurrent(inputs, hidden, layers int,
	init *initwfn.InitWFn) *recurrent {
	weights := make([]*mat.Dense, layers)
	for l := range weights {
		in := hidden
		if l == 0 {
			in = inputs
		}
		weights[l] = init.Matrix(hidden, in+hidden+1)
	}
	return &recurrent{weights: weights, hidden: hidden}
}

// layers returns the number of recurrent layers
func (r *recurrent) layers() int {
	return len(r.weights)
}

// zeroState returns the initial state of batch rows
func (r *recurrent) zeroState(batch int) []*mat.Dense {
	state := make([]*mat.Dense, r.layers())
	for l := range state {
		state[l] = mat.NewDense(batch, r.hidden, nil)
	}
	return state
}

// step advances the state given a batch of inputs, returning the output
// of the last layer and the next state
func (r *recurrent) step(x *mat.Dense, state []*mat.Dense) (*mat.Dense,
	[]*mat.Dense) {
	if len(state) != r.layers() {
		panic(fmt.Sprintf("step: expected state of %v layers, got %v",
			r.layers(), len(state)))
	}

	next := make([]*mat.Dense, r.layers())
	in := x
	for l, w := range r.weights {
		input := withBias(augment(in, state[l]))

		h := &mat.Dense{}
		h.Mul(input, w.T())
		h.Apply(func(_, _ int, v float64) float64 {
			return math.Tanh(v)
		}, h)

		next[l] = h
		in = h
	}
	return in, next
}

// flatten returns the state as a row major [batch, layers, hidden]
// slice
func (r *recurrent) flatten(state []*mat.Dense) []float64 {
	batch, _ := state[0].Dims()
	out := make([]float64, 0, batch*r.layers()*r.hidden)
	for b := 0; b < batch; b++ {
		for _, layer := range state {
			out = append(out, layer.RawRowView(b)...)
		}
	}
	return out
}

// augment returns [a, b] joined along columns
func augment(a, b *mat.Dense) *mat.Dense {
	out := &mat.Dense{}
	out.Augment(a, b)
	return out
}

// withBias returns x with a trailing column of ones
func withBias(x *mat.Dense) *mat.Dense {
	rows, _ := x.Dims()
	ones := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		ones.Set(i, 0, 1.0)
	}
	return augment(x, ones)
}
