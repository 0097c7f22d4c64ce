package probe

import (
	"fmt"

	"github.com/samuelfneumann/rlsampler/agent"
	"github.com/samuelfneumann/rlsampler/environment"
	"github.com/samuelfneumann/rlsampler/environment/envconfig"
	"golang.org/x/exp/rand"
)

// Target describes an agent-environment pair by configuration so that
// the pair can be rebuilt in a worker process. Agent config types must
// be registered with the agent package in the worker binary, which
// holds whenever the package registering them is linked in.
type Target struct {
	Env   envconfig.Config  `json:"env"`
	Agent agent.TypedConfig `json:"agent"`
	Seed  uint64            `json:"seed"`
}

// NewTarget returns a new Target
func NewTarget(env envconfig.Config, c agent.Config, seed uint64) Target {
	return Target{Env: env, Agent: agent.NewTypedConfig(c), Seed: seed}
}

// Validate returns an error describing whether or not the Target is
// valid
func (t Target) Validate() error {
	if err := t.Env.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if t.Agent.Config == nil {
		return fmt.Errorf("validate: no agent config")
	}
	if err := t.Agent.Config.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// Make creates the environment and the agent described by the Target
func (t Target) Make() (agent.Agent, environment.Environment, error) {
	if err := t.Validate(); err != nil {
		return nil, nil, fmt.Errorf("make: %w", err)
	}

	env, err := t.Env.Create(t.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("make: %w", err)
	}

	ag, err := t.Agent.Config.CreateAgent(env, t.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("make: %w", err)
	}
	return ag, env, nil
}

// Probe creates the agent and environment and records their example
// outputs in the calling process
func (t Target) Probe() (Examples, error) {
	ag, env, err := t.Make()
	if err != nil {
		return Examples{}, fmt.Errorf("probe: %w", err)
	}

	rng := rand.New(rand.NewSource(t.Seed))
	return GetExampleOutputs(ag, env, rng)
}
