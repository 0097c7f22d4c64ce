package linear

import (
	"fmt"

	"github.com/samuelfneumann/rlsampler/agent"
	"github.com/samuelfneumann/rlsampler/curiosity"
	"github.com/samuelfneumann/rlsampler/environment"
	"github.com/samuelfneumann/rlsampler/initwfn"
)

// AgentType is the agent.Type of Linear agents
const AgentType agent.Type = "Linear"

// Defaults used for unset curiosity fields
const (
	DefaultFeatureSize    = 16
	DefaultCuriosityScale = 1.0
)

func init() {
	// Register Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(AgentType, Config{})
}

// Config implements a configuration of a Linear agent
type Config struct {
	// Hidden units per recurrent layer. Ignored without recurrent
	// layers.
	HiddenSize int `json:"hidden_size" mapstructure:"hidden_size" yaml:"hidden_size"`
	RNNLayers  int `json:"rnn_layers" mapstructure:"rnn_layers" yaml:"rnn_layers"`

	Curiosity agent.CuriosityConfig `json:"curiosity_kwargs" mapstructure:"curiosity_kwargs" yaml:"curiosity_kwargs"`

	// Weight initializer, Glorot uniform when nil
	Init *initwfn.InitWFn `json:"init,omitempty" mapstructure:"-" yaml:"-"`
}

// CreateAgent creates a new Linear agent from the configuration
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	return New(env, c, seed)
}

// Validate checks a Config to ensure it is a valid configuration
func (c Config) Validate() error {
	if c.RNNLayers < 0 {
		return fmt.Errorf("validate: number of recurrent layers must be "+
			"non-negative, got %v", c.RNNLayers)
	}
	if c.RNNLayers > 0 && c.HiddenSize < 1 {
		return fmt.Errorf("validate: hidden size must be positive, got %v",
			c.HiddenSize)
	}

	switch c.Curiosity.Alg {
	case "", curiosity.None, curiosity.RND:
	default:
		return fmt.Errorf("validate: unknown curiosity algorithm %q",
			c.Curiosity.Alg)
	}
	if c.Curiosity.FeatureSize < 0 {
		return fmt.Errorf("validate: curiosity feature size must be "+
			"non-negative, got %v", c.Curiosity.FeatureSize)
	}
	if c.Curiosity.Scale < 0 {
		return fmt.Errorf("validate: curiosity scale must be "+
			"non-negative, got %v", c.Curiosity.Scale)
	}

	return nil
}

// Type returns the type of agent constructed by the Config
func (c Config) Type() agent.Type {
	return AgentType
}

// modelConfig returns the model configuration with defaults filled in
func (c Config) modelConfig() agent.ModelConfig {
	curiosityConfig := c.Curiosity
	if !curiosityConfig.Enabled() {
		return agent.ModelConfig{
			Curiosity: agent.CuriosityConfig{Alg: curiosity.None},
		}
	}

	if curiosityConfig.FeatureSize == 0 {
		curiosityConfig.FeatureSize = DefaultFeatureSize
	}
	if curiosityConfig.Scale == 0 {
		curiosityConfig.Scale = DefaultCuriosityScale
	}
	return agent.ModelConfig{Curiosity: curiosityConfig}
}

func (c Config) weightInit() *initwfn.InitWFn {
	if c.Init == nil {
		return initwfn.NewGlorotU(1.0)
	}
	return c.Init
}
