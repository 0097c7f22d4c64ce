// Package config loads the configuration of the command line tools
// from rlsampler.yaml, environment variables and defaults
package config

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/samuelfneumann/rlsampler/agent"
	"github.com/samuelfneumann/rlsampler/agent/linear"
	"github.com/samuelfneumann/rlsampler/environment/envconfig"
	"github.com/samuelfneumann/rlsampler/samplers"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

var (
	EnvVarPrefix      string = "RLSAMPLER"
	DefaultConfigFile string = "rlsampler.yaml"
)

// Configuration is the configuration of the command line tools
type Configuration struct {
	Plot    PlotConfig       `json:"plot" mapstructure:"plot" yaml:"plot"`
	Env     envconfig.Config `json:"env" mapstructure:"env" yaml:"env"`
	Agent   linear.Config    `json:"agent" mapstructure:"agent" yaml:"agent"`
	Buffer  BufferConfig     `json:"buffer" mapstructure:"buffer" yaml:"buffer"`
	Collect CollectConfig    `json:"collect" mapstructure:"collect" yaml:"collect"`
	Seed    uint64           `json:"seed" mapstructure:"seed" yaml:"seed"`
}

// PlotConfig configures the plot command
type PlotConfig struct {
	Path    string   `json:"path" mapstructure:"path" yaml:"path"`
	Columns []string `json:"columns" mapstructure:"columns" yaml:"columns"`
	Output  string   `json:"output" mapstructure:"output" yaml:"output"`
	Display bool     `json:"display" mapstructure:"display" yaml:"display"`
}

// BufferConfig configures the samples buffer of the probe and collect
// commands
type BufferConfig struct {
	BatchSpec      samplers.BatchSpec `json:"batch_spec" mapstructure:"batch_spec" yaml:"batch_spec"`
	BootstrapValue bool               `json:"bootstrap_value" mapstructure:"bootstrap_value" yaml:"bootstrap_value"`
	AgentShared    bool               `json:"agent_shared" mapstructure:"agent_shared" yaml:"agent_shared"`
	EnvShared      bool               `json:"env_shared" mapstructure:"env_shared" yaml:"env_shared"`
	Subprocess     bool               `json:"subprocess" mapstructure:"subprocess" yaml:"subprocess"`
}

// CollectConfig configures the collect command
type CollectConfig struct {
	Iterations int     `json:"iterations" mapstructure:"iterations" yaml:"iterations"`
	Output     string  `json:"output" mapstructure:"output" yaml:"output"`
	LogDir     string  `json:"log_dir" mapstructure:"log_dir" yaml:"log_dir"`
	GAELambda  float64 `json:"gae_lambda" mapstructure:"gae_lambda" yaml:"gae_lambda"`
}

// LoadDefaultConfiguration returns the default configuration
func LoadDefaultConfiguration() *Configuration {
	return &Configuration{
		Plot: PlotConfig{
			Path: filepath.Join("results", "ppo_breakout", "run_2",
				"progress.csv"),
			Columns: []string{"GameScore/Average", "intrinsic_rewards/Average"},
			Output:  "progress.png",
			Display: true,
		},
		Env: envconfig.NewConfig(envconfig.Cartpole, 500, 0.99),
		Agent: linear.Config{
			HiddenSize: 16,
			RNNLayers:  1,
			Curiosity:  agent.CuriosityConfig{Alg: "rnd", FeatureSize: 16, Scale: 1},
		},
		Buffer: BufferConfig{
			BatchSpec:      samplers.BatchSpec{T: 128, B: 8},
			BootstrapValue: true,
			AgentShared:    true,
			EnvShared:      true,
			Subprocess:     true,
		},
		Collect: CollectConfig{
			Iterations: 10,
			Output:     filepath.Join("results", "rlsampler", "progress.csv"),
			LogDir:     ".rlsampler",
			GAELambda:  0.95,
		},
		Seed: 0,
	}
}

// LoadRuntimeConfiguration loads the configuration into v. Defaults are
// overridden by the config file at path, or rlsampler.yaml in the
// working directory if path is empty and the file exists, and then by
// RLSAMPLER_ prefixed environment variables such as
// RLSAMPLER_BUFFER_BATCH_SPEC_T.
func LoadRuntimeConfiguration(v *viper.Viper, path string) (*Configuration,
	error) {
	defaults, err := yaml.Marshal(LoadDefaultConfiguration())
	if err != nil {
		return nil, err
	}

	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("error reading default configuration: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		configBytes, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		if err := v.MergeConfig(bytes.NewReader(configBytes)); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// WriteDefaultConfiguration writes the default configuration to path
// as YAML. It is an error if path already exists.
func WriteDefaultConfiguration(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	marshalledConfig, err := yaml.Marshal(LoadDefaultConfiguration())
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error initializing %s: %w", path, err)
		}
	}
	if err := ioutil.WriteFile(path, marshalledConfig, 0o644); err != nil {
		return fmt.Errorf("error initializing %s: %w", path, err)
	}
	return nil
}
