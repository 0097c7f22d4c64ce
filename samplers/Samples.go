// Package samplers builds the buffers that samplers write rollouts of
// T timesteps by B environment instances into, and implements a serial
// sampler which fills them.
package samplers

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/rlsampler/array"
	"github.com/samuelfneumann/rlsampler/shm"
	"go.uber.org/multierr"
	"gorgonia.org/tensor"
)

// ErrInvalidBatchSpec is returned when a BatchSpec has a non-positive
// dimension
var ErrInvalidBatchSpec = errors.New("invalid batch spec")

// BatchSpec describes the leading dimensions of a samples buffer: T
// timesteps by B environment instances
type BatchSpec struct {
	T int `json:"T" mapstructure:"T" yaml:"T"`
	B int `json:"B" mapstructure:"B" yaml:"B"`
}

// Validate returns an error if the BatchSpec is invalid
func (b BatchSpec) Validate() error {
	if b.T < 1 || b.B < 1 {
		return fmt.Errorf("validate: %w: T=%v, B=%v", ErrInvalidBatchSpec,
			b.T, b.B)
	}
	return nil
}

// Size returns the number of samples T*B
func (b BatchSpec) Size() int {
	return b.T * b.B
}

// AgentSamples holds the agent-side fields of a samples buffer.
//
// Action and PrevAction are views of a single (T+1, B, ...) allocation:
// Action is [1:] and PrevAction is [:-1], so writing Action at index t
// populates PrevAction at index t+1.
type AgentSamples struct {
	Action     *array.Array
	PrevAction *array.Array
	RewardInt  *array.Array
	AgentInfo  map[string]*array.Array

	// BootstrapValue has shape (1, B, ...) and is nil unless requested
	BootstrapValue *array.Array
}

// EnvSamples holds the environment-side fields of a samples buffer.
//
// Reward and PrevReward are views of a single (T+1, B) allocation in
// the same way as AgentSamples.Action and AgentSamples.PrevAction.
type EnvSamples struct {
	PrevObservation *array.Array
	Observation     *array.Array
	Reward          *array.Array
	PrevReward      *array.Array
	Done            *array.Array
	EnvInfo         map[string]*array.Array
}

// Samples is a samples buffer of native arrays
type Samples struct {
	Agent AgentSamples
	Env   EnvSamples

	BatchSpec  BatchSpec
	allocators []shm.Allocator
}

// Handles returns the names of the shared memory segments backing the
// buffer, which another process may open with shm.Open
func (s *Samples) Handles() []string {
	var handles []string
	for _, a := range s.allocators {
		if arena, ok := a.(*shm.Arena); ok {
			handles = append(handles, arena.Handles()...)
		}
	}
	return handles
}

// Close releases the storage of the buffer. Shared memory segments are
// unmapped and unlinked. The buffer and all views of it must not be
// used after Close.
func (s *Samples) Close() error {
	var err error
	for _, a := range s.allocators {
		err = multierr.Append(err, a.Close())
	}
	s.allocators = nil
	return err
}

// AgentTensors holds tensor views of AgentSamples
type AgentTensors struct {
	Action         *tensor.Dense
	PrevAction     *tensor.Dense
	RewardInt      *tensor.Dense
	AgentInfo      map[string]*tensor.Dense
	BootstrapValue *tensor.Dense
}

// EnvTensors holds tensor views of EnvSamples
type EnvTensors struct {
	PrevObservation *tensor.Dense
	Observation     *tensor.Dense
	Reward          *tensor.Dense
	PrevReward      *tensor.Dense
	Done            *tensor.Dense
	EnvInfo         map[string]*tensor.Dense
}

// TensorSamples is a samples buffer of tensors. Every tensor aliases
// the storage of the corresponding field of the Samples it was made
// from.
type TensorSamples struct {
	Agent AgentTensors
	Env   EnvTensors
}

// Tensorize returns tensor views of s
func Tensorize(s *Samples) *TensorSamples {
	t := &TensorSamples{
		Agent: AgentTensors{
			Action:     s.Agent.Action.Tensor(),
			PrevAction: s.Agent.PrevAction.Tensor(),
			RewardInt:  s.Agent.RewardInt.Tensor(),
			AgentInfo:  tensorizeInfo(s.Agent.AgentInfo),
		},
		Env: EnvTensors{
			PrevObservation: s.Env.PrevObservation.Tensor(),
			Observation:     s.Env.Observation.Tensor(),
			Reward:          s.Env.Reward.Tensor(),
			PrevReward:      s.Env.PrevReward.Tensor(),
			Done:            s.Env.Done.Tensor(),
			EnvInfo:         tensorizeInfo(s.Env.EnvInfo),
		},
	}
	if s.Agent.BootstrapValue != nil {
		t.Agent.BootstrapValue = s.Agent.BootstrapValue.Tensor()
	}
	return t
}

func tensorizeInfo(info map[string]*array.Array) map[string]*tensor.Dense {
	out := make(map[string]*tensor.Dense, len(info))
	for k, v := range info {
		out[k] = v.Tensor()
	}
	return out
}
