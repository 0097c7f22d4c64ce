// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable so that a worker
// process can rebuild the same environment from its configuration.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/rlsampler/environment"
	"github.com/samuelfneumann/rlsampler/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/rlsampler/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/rlsampler/environment/classiccontrol/pendulum"
	"gonum.org/v1/gonum/spatial/r1"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Cartpole    EnvName = "Cartpole"
	Pendulum    EnvName = "Pendulum"
	MountainCar EnvName = "MountainCar"
)

// Config implements a specific configuration of a specific environment
type Config struct {
	Environment   EnvName `json:"environment" mapstructure:"environment" yaml:"environment"`
	EpisodeCutoff uint    `json:"episode_cutoff" mapstructure:"episode_cutoff" yaml:"episode_cutoff"`
	Discount      float64 `json:"discount" mapstructure:"discount" yaml:"discount"`
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, episodeCutoff uint, discount float64) Config {
	return Config{
		Environment:   envName,
		EpisodeCutoff: episodeCutoff,
		Discount:      discount,
	}
}

// Validate returns an error describing whether or not the configuration
// is valid
func (c Config) Validate() error {
	switch c.Environment {
	case Cartpole, Pendulum, MountainCar:
	default:
		return fmt.Errorf("validate: no such environment %q", c.Environment)
	}
	if c.EpisodeCutoff == 0 {
		return fmt.Errorf("validate: episode cutoff must be positive")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount %v not in [0, 1]", c.Discount)
	}
	return nil
}

// Create returns the environment described by the Config
func (c Config) Create(seed uint64) (env.Environment, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	switch c.Environment {
	case Cartpole:
		return CreateCartpole(int(c.EpisodeCutoff), seed, c.Discount)
	case Pendulum:
		return CreatePendulum(int(c.EpisodeCutoff), seed, c.Discount)
	case MountainCar:
		return CreateMountainCar(int(c.EpisodeCutoff), seed, c.Discount)
	}
	panic(fmt.Sprintf("create: no such environment %q", c.Environment))
}

// CreateCartpole creates a Cartpole environment with starting states
// drawn uniformly from [-0.05, 0.05] for each state feature
func CreateCartpole(cutoff int, seed uint64, discount float64) (env.Environment,
	error) {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := env.NewUniformStarter([]r1.Interval{bounds, bounds, bounds, bounds},
		seed)

	c, _, err := cartpole.New(s, cutoff, discount)
	if err != nil {
		return nil, fmt.Errorf("createCartpole: %w", err)
	}
	return c, nil
}

// CreatePendulum creates a Pendulum environment with the starting angle
// drawn uniformly from [-π, π] and the starting angular velocity drawn
// uniformly from [-1, 1]
func CreatePendulum(cutoff int, seed uint64, discount float64) (env.Environment,
	error) {
	s := env.NewUniformStarter([]r1.Interval{
		{Min: -pendulum.AngleBound, Max: pendulum.AngleBound},
		{Min: -1, Max: 1},
	}, seed)

	p, _, err := pendulum.New(s, cutoff, discount)
	if err != nil {
		return nil, fmt.Errorf("createPendulum: %w", err)
	}
	return p, nil
}

// CreateMountainCar creates a MountainCar environment with the starting
// position drawn uniformly from [-0.6, -0.4] and zero starting speed
func CreateMountainCar(cutoff int, seed uint64, discount float64) (
	env.Environment, error) {
	s := env.NewUniformStarter([]r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}, seed)

	m, _, err := mountaincar.New(s, cutoff, discount)
	if err != nil {
		return nil, fmt.Errorf("createMountainCar: %w", err)
	}
	return m, nil
}
