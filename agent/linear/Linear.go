// Package linear implements an actor-critic agent using linear function
// approximation, with optional tanh recurrent layers and an optional
// random network distillation intrinsic reward module.
package linear

import (
	"fmt"

	"github.com/samuelfneumann/rlsampler/agent"
	"github.com/samuelfneumann/rlsampler/agent/linear/policy"
	"github.com/samuelfneumann/rlsampler/curiosity"
	"github.com/samuelfneumann/rlsampler/environment"
	"github.com/samuelfneumann/rlsampler/utils/tensorutils"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Linear implements a linear actor-critic agent. For discrete action
// spaces the policy is a softmax over actions, for Box action spaces
// the policy is a diagonal Gaussian.
//
// The policy acts on the observation, the previous action (one-hot
// encoded for discrete actions), the previous reward and a bias unit.
// With recurrent layers, the policy acts on the output of the last
// recurrent layer instead. The critic acts on the observation only.
//
// Every input may be a single example or a batch with a leading batch
// dimension, and outputs follow the inputs. Recurrent agents report
// their state before each step under agent.PrevRNNStateInfo with shape
// [B, RNNLayers, HiddenSize], where B is 1 for single examples.
type Linear struct {
	config      agent.ModelConfig
	obsDims     int
	discrete    bool
	numActions  int // Discrete action spaces only
	actionDims  int // Columns of an action batch
	actionShape []int

	policy    policy.Policy
	critic    *mat.Dense
	rnn       *recurrent
	state     []*mat.Dense
	curiosity curiosity.Curiosity
}

// New creates a new Linear agent for the environment env
func New(env environment.Environment, c Config, seed uint64) (*Linear,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	obsShape := env.ObservationSpace().Shape()
	if obsShape.Dims() != 1 {
		return nil, fmt.Errorf("new: observations must be vectors, got "+
			"shape %v", obsShape)
	}

	l := &Linear{
		config:  c.modelConfig(),
		obsDims: obsShape[0],
	}
	winit := c.weightInit()

	var actionFeatures int
	switch space := env.ActionSpace().(type) {
	case environment.Discrete:
		l.discrete = true
		l.numActions = space.N
		l.actionDims = 1
		actionFeatures = space.N

	case environment.Box:
		l.actionDims = space.Low.Len()
		l.actionShape = []int{l.actionDims}
		actionFeatures = l.actionDims

	default:
		return nil, fmt.Errorf("new: unsupported action space %T",
			env.ActionSpace())
	}

	// Observation, previous action, previous reward and bias
	features := l.obsDims + actionFeatures + 2
	if c.RNNLayers > 0 {
		l.rnn = newRecurrent(features-1, c.HiddenSize, c.RNNLayers, winit)
		features = c.HiddenSize + 1
	}

	if l.discrete {
		l.policy = policy.NewCategorical(l.numActions, features, winit, seed)
	} else {
		l.policy = policy.NewGaussian(l.actionDims, features, winit, seed)
	}
	l.critic = mat.NewDense(1, l.obsDims+1, nil)

	if l.config.Curiosity.Enabled() {
		cfg := l.config.Curiosity
		module, err := curiosity.New(cfg.Alg, l.obsDims, cfg.FeatureSize,
			cfg.Scale, winit)
		if err != nil {
			return nil, fmt.Errorf("new: %w", err)
		}
		l.curiosity = module
	}

	return l, nil
}

// Reset clears the recurrent state
func (l *Linear) Reset() {
	l.state = nil
}

// ResetOne clears the recurrent state of index i of the batch
func (l *Linear) ResetOne(i int) {
	if l.state == nil || i < 0 || i >= stateRows(l.state) {
		return
	}
	for _, layer := range l.state {
		row := layer.RawRowView(i)
		for j := range row {
			row[j] = 0
		}
	}
}

// ModelConfig returns the model configuration of the agent
func (l *Linear) ModelConfig() agent.ModelConfig {
	return l.config
}

// Step implements the agent.Agent interface
func (l *Linear) Step(obs, prevAction, prevReward tensor.Tensor) (
	*tensor.Dense, agent.Info, error) {
	o, batched, err := l.observations(obs)
	if err != nil {
		return nil, nil, fmt.Errorf("step: %w", err)
	}
	batch, _ := o.Dims()

	a, err := l.actions(prevAction, batch)
	if err != nil {
		return nil, nil, fmt.Errorf("step: %w", err)
	}
	r, err := rows(prevReward, batch, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("step: previous reward: %w", err)
	}

	info := agent.Info{}
	features := augment(augment(o, l.actionFeatures(a)), r)
	if l.rnn != nil {
		if l.state == nil || stateRows(l.state) != batch {
			l.state = l.rnn.zeroState(batch)
		}
		info[agent.PrevRNNStateInfo] = tensor.New(
			tensor.WithShape(batch, l.rnn.layers(), l.rnn.hidden),
			tensor.WithBacking(l.rnn.flatten(l.state)),
		)

		features, l.state = l.rnn.step(features, l.state)
	}

	actions, distInfo := l.policy.SelectActions(withBias(features))

	_, distCols := distInfo.Dims()
	distShape := []int{distCols}
	if !l.discrete {
		distShape = []int{2, l.actionDims}
	}
	info[agent.DistInfo] = newTensor(distInfo.RawMatrix().Data, batched,
		batch, distShape...)
	info[agent.ValueInfo] = newTensor(l.values(o), batched, batch)

	if l.discrete {
		out := make([]int64, batch)
		for i := range out {
			out[i] = int64(actions.At(i, 0))
		}
		return newTensor(out, batched, batch), info, nil
	}
	return newTensor(actions.RawMatrix().Data, batched, batch,
		l.actionShape...), info, nil
}

// CuriosityStep implements the agent.Agent interface. The intrinsic
// rewards are returned as float32s.
func (l *Linear) CuriosityStep(obs, action, nextObs tensor.Tensor) (
	*tensor.Dense, agent.Info, error) {
	if l.curiosity == nil {
		return nil, nil, fmt.Errorf("curiosityStep: agent has no " +
			"curiosity module")
	}

	o, batched, err := l.observations(obs)
	if err != nil {
		return nil, nil, fmt.Errorf("curiosityStep: %w", err)
	}
	batch, _ := o.Dims()

	next, _, err := l.observations(nextObs)
	if err != nil {
		return nil, nil, fmt.Errorf("curiosityStep: next observation: %w",
			err)
	}
	if r, _ := next.Dims(); r != batch {
		return nil, nil, fmt.Errorf("curiosityStep: batch size mismatch "+
			"\n\tobservations(%v) \n\tnext observations(%v)", batch, r)
	}

	a, err := l.actions(action, batch)
	if err != nil {
		return nil, nil, fmt.Errorf("curiosityStep: %w", err)
	}

	rewards := l.curiosity.Reward(o, a, next)
	out := make([]float32, len(rewards))
	for i, r := range rewards {
		out[i] = float32(r)
	}
	return newTensor(out, batched, batch), agent.Info{}, nil
}

// Value implements the agent.Agent interface
func (l *Linear) Value(obs tensor.Tensor) (*tensor.Dense, error) {
	o, batched, err := l.observations(obs)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	batch, _ := o.Dims()
	return newTensor(l.values(o), batched, batch), nil
}

// Weights returns the weights of the agent keyed by name
func (l *Linear) Weights() map[string]*mat.Dense {
	weights := l.policy.Weights()
	weights["critic"] = l.critic
	if l.rnn != nil {
		for i, w := range l.rnn.weights {
			weights[fmt.Sprintf("rnn_%v", i)] = w
		}
	}
	return weights
}

func (l *Linear) values(o *mat.Dense) []float64 {
	var v mat.Dense
	v.Mul(withBias(o), l.critic.T())
	batch, _ := v.Dims()

	out := make([]float64, batch)
	for i := range out {
		out[i] = v.At(i, 0)
	}
	return out
}

// observations returns obs as a matrix with one row per example and
// whether obs was batched
func (l *Linear) observations(obs tensor.Tensor) (*mat.Dense, bool, error) {
	if obs == nil {
		return nil, false, fmt.Errorf("nil observation")
	}
	batched := obs.Shape().Dims() > 1
	batch := 1
	if batched {
		batch = obs.Shape()[0]
	}

	o, err := rows(obs, batch, l.obsDims)
	if err != nil {
		return nil, false, fmt.Errorf("observation: %w", err)
	}
	return o, batched, nil
}

// actions returns the actions as a matrix with one row per example
func (l *Linear) actions(a tensor.Tensor, batch int) (*mat.Dense, error) {
	m, err := rows(a, batch, l.actionDims)
	if err != nil {
		return nil, fmt.Errorf("action: %w", err)
	}
	return m, nil
}

// actionFeatures returns the policy input features of a batch of
// actions. Discrete actions are one-hot encoded and out of range
// actions encode to zeros.
func (l *Linear) actionFeatures(a *mat.Dense) *mat.Dense {
	if !l.discrete {
		return a
	}

	batch, _ := a.Dims()
	oneHot := mat.NewDense(batch, l.numActions, nil)
	for i := 0; i < batch; i++ {
		action := int(a.At(i, 0))
		if action >= 0 && action < l.numActions {
			oneHot.Set(i, action, 1.0)
		}
	}
	return oneHot
}

// rows returns t as a batch x cols matrix. Single examples are accepted
// when batch is 1. If cols is 0 each example is a scalar.
func rows(t tensor.Tensor, batch, cols int) (*mat.Dense, error) {
	if t == nil {
		return nil, fmt.Errorf("nil tensor")
	}
	if cols == 0 {
		cols = 1
	}

	data, err := tensorutils.Float64s(t)
	if err != nil {
		return nil, err
	}
	if len(data) != batch*cols {
		return nil, fmt.Errorf("expected %v examples of %v features, got "+
			"shape %v", batch, cols, t.Shape())
	}
	return mat.NewDense(batch, cols, data), nil
}

func stateRows(state []*mat.Dense) int {
	r, _ := state[0].Dims()
	return r
}

// newTensor returns a tensor over backing with the shape of a single
// example, or with a leading batch dimension if batched
func newTensor(backing interface{}, batched bool, batch int,
	example ...int) *tensor.Dense {
	shape := append([]int{}, example...)
	if batched {
		shape = append([]int{batch}, shape...)
	}

	if len(shape) == 0 {
		switch b := backing.(type) {
		case []float64:
			return tensor.New(tensor.FromScalar(b[0]))
		case []float32:
			return tensor.New(tensor.FromScalar(b[0]))
		case []int64:
			return tensor.New(tensor.FromScalar(b[0]))
		}
		panic(fmt.Sprintf("newTensor: unsupported backing %T", backing))
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing))
}
