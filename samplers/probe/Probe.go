// Package probe determines the shape and element type of every output
// of one step of agent-environment interaction. Probing may run in the
// calling process or in a fresh worker process, so that global state
// configured by the first forward computation of an agent does not
// leak into the caller.
package probe

import (
	"fmt"

	"github.com/samuelfneumann/rlsampler/agent"
	"github.com/samuelfneumann/rlsampler/array"
	"github.com/samuelfneumann/rlsampler/environment"
	"github.com/samuelfneumann/rlsampler/utils/tensorutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// GetExampleOutputs takes a single step in env with a random action and
// a single step with ag, recording one example of every output.
//
// Scalar actions sampled from the action space are passed to the
// environment as integer actions. If the agent reports a previous
// recurrent state, its leading batch dimension is removed.
func GetExampleOutputs(ag agent.Agent, env environment.Environment,
	rng *rand.Rand) (Examples, error) {
	first, err := env.Reset()
	if err != nil {
		return Examples{}, fmt.Errorf("getExampleOutputs: reset: %w", err)
	}
	oReset := observation(first.Observation)

	a := env.ActionSpace().Sample(rng)
	action, err := toAction(a)
	if err != nil {
		return Examples{}, fmt.Errorf("getExampleOutputs: %w", err)
	}

	step, err := env.Step(action)
	if err != nil {
		return Examples{}, fmt.Errorf("getExampleOutputs: step: %w", err)
	}
	o := observation(step.Observation)
	r := tensor.New(tensor.FromScalar(float32(step.Reward)))

	ag.Reset()
	agentAction, agentInfo, err := ag.Step(o, a, r)
	if err != nil {
		return Examples{}, fmt.Errorf("getExampleOutputs: agent step: %w",
			err)
	}

	rInt := tensor.New(tensor.FromScalar(float32(0)))
	if ag.ModelConfig().Curiosity.Alg != agent.NoCuriosity {
		rInt, _, err = ag.CuriosityStep(oReset, a, o)
		if err != nil {
			return Examples{}, fmt.Errorf("getExampleOutputs: curiosity "+
				"step: %w", err)
		}
	}

	examples := Examples{
		AgentInfo: make(map[string]Example, len(agentInfo)),
		EnvInfo:   make(map[string]Example, len(step.Info)),
		Done:      Scalar(array.Bool, boolValue(step.Last())),
	}

	fields := []struct {
		dst *Example
		src tensor.Tensor
	}{
		{&examples.PrevObservation, oReset},
		{&examples.Observation, o},
		{&examples.Reward, r},
		{&examples.RewardInt, rInt},
		{&examples.Action, agentAction},
	}
	for _, f := range fields {
		if *f.dst, err = FromTensor(f.src); err != nil {
			return Examples{}, fmt.Errorf("getExampleOutputs: %w", err)
		}
	}

	for k, v := range agentInfo {
		example, err := FromTensor(v)
		if err != nil {
			return Examples{}, fmt.Errorf("getExampleOutputs: agent info "+
				"%q: %w", k, err)
		}
		if k == agent.PrevRNNStateInfo {
			// [B, N, H] -> [N, H]
			if example, err = example.Index(0); err != nil {
				return Examples{}, fmt.Errorf("getExampleOutputs: agent "+
					"info %q: %w", k, err)
			}
		}
		examples.AgentInfo[k] = example
	}

	for k, v := range step.Info {
		examples.EnvInfo[k] = Scalar(array.Float64, v)
	}

	return examples, nil
}

// toAction converts an action sampled from an action space into an
// environment action. Scalars become integer actions.
func toAction(a *tensor.Dense) (environment.Action, error) {
	values, err := tensorutils.Float64s(a)
	if err != nil {
		return environment.Action{}, fmt.Errorf("toAction: %w", err)
	}

	if a.Shape().IsScalar() {
		return environment.IntAction(int(values[0])), nil
	}
	return environment.VecAction(mat.NewVecDense(len(values), values)), nil
}

func observation(o *mat.VecDense) *tensor.Dense {
	backing := make([]float64, o.Len())
	copy(backing, o.RawVector().Data)
	return tensor.New(tensor.WithShape(o.Len()), tensor.WithBacking(backing))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
