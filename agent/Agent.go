// Package agent defines the agent interface used by samplers
package agent

import (
	"gorgonia.org/tensor"
)

// NoCuriosity is the curiosity algorithm of agents without an intrinsic
// reward module
const NoCuriosity = "none"

// Keys of Info reported by the agents in this module
const (
	ValueInfo        = "value"
	DistInfo         = "dist_info"
	PrevRNNStateInfo = "prev_rnn_state"
)

// Info holds the auxiliary outputs of an agent step, keyed by name
type Info map[string]*tensor.Dense

// CuriosityConfig configures the intrinsic reward module of an agent
type CuriosityConfig struct {
	Alg         string  `json:"curiosity_alg" mapstructure:"curiosity_alg" yaml:"curiosity_alg"`
	FeatureSize int     `json:"feature_size,omitempty" mapstructure:"feature_size" yaml:"feature_size,omitempty"`
	Scale       float64 `json:"scale,omitempty" mapstructure:"scale" yaml:"scale,omitempty"`
}

// Enabled returns whether the configuration describes an intrinsic
// reward module
func (c CuriosityConfig) Enabled() bool {
	return c.Alg != "" && c.Alg != NoCuriosity
}

// ModelConfig describes the model an agent was built with
type ModelConfig struct {
	Curiosity CuriosityConfig `json:"curiosity_kwargs" mapstructure:"curiosity_kwargs" yaml:"curiosity_kwargs"`
}

// Agent determines the implementation details of an agent which acts
// in a sampler.
//
// All inputs may either be a single example (e.g. an observation of
// shape [D]) or a batch of examples with a leading batch dimension
// (e.g. [B, D]). Outputs follow the inputs, except that recurrent
// agents always report their previous recurrent state under
// PrevRNNStateInfo with an explicit leading batch dimension.
type Agent interface {
	// Reset resets any per-episode state such as recurrent state
	Reset()

	// Step selects actions given the current observation together
	// with the previous action and reward, and advances recurrent
	// state
	Step(obs, prevAction, prevReward tensor.Tensor) (*tensor.Dense, Info,
		error)

	// CuriosityStep computes the intrinsic reward of a transition
	CuriosityStep(obs, action, nextObs tensor.Tensor) (*tensor.Dense, Info,
		error)

	// Value returns the value estimate of obs without advancing
	// recurrent state
	Value(obs tensor.Tensor) (*tensor.Dense, error)

	// ModelConfig returns the configuration of the agent's model
	ModelConfig() ModelConfig
}

// OneResetter is implemented by agents which can reset the per-episode
// state of a single environment instance of a batch
type OneResetter interface {
	ResetOne(i int)
}
