package samplers

import (
	"context"
	"errors"
	"fmt"

	"github.com/samuelfneumann/rlsampler/agent"
	"github.com/samuelfneumann/rlsampler/array"
	"github.com/samuelfneumann/rlsampler/samplers/probe"
	"github.com/samuelfneumann/rlsampler/shm"
	"go.uber.org/zap"
)

// ErrNoValue is returned when a bootstrap value buffer is requested but
// the agent does not report a value
var ErrNoValue = errors.New("agent reports no value")

// BufferConfig configures BuildSamplesBuffer
type BufferConfig struct {
	BatchSpec BatchSpec

	// BootstrapValue adds a (1, B) value buffer to the agent samples
	BootstrapValue bool

	// AgentShared and EnvShared place the agent and environment
	// samples in shared memory instead of the process heap
	AgentShared bool
	EnvShared   bool

	// Subprocess probes the example outputs in a worker process
	Subprocess bool

	// Examples skips probing when non-nil
	Examples *probe.Examples

	Logger *zap.Logger
}

// DefaultBufferConfig returns a BufferConfig which places both sample
// bundles in shared memory and probes in a worker process
func DefaultBufferConfig(spec BatchSpec) BufferConfig {
	return BufferConfig{
		BatchSpec:   spec,
		AgentShared: true,
		EnvShared:   true,
		Subprocess:  true,
	}
}

// BuildSamplesBuffer allocates a samples buffer for the agent and
// environment described by target. Unless examples are given in cfg,
// one step of the agent and environment is probed first, in the calling
// process or in a worker process, to determine the shape and type of
// every field.
//
// Every field has leading dimensions (T, B), except that actions and
// rewards are each allocated once with leading dimensions (T+1, B) and
// viewed as current [1:] and previous [:-1]. The bootstrap value, if
// requested, has leading dimensions (1, B) and the shape of the agent's
// value.
//
// The returned tensors and native arrays alias the same storage. The
// examples used for allocation are returned as well. Close the returned
// Samples to release shared memory.
func BuildSamplesBuffer(ctx context.Context, target probe.Target,
	cfg BufferConfig) (*TensorSamples, *Samples, probe.Examples, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := cfg.BatchSpec.Validate(); err != nil {
		return nil, nil, probe.Examples{}, fmt.Errorf("buildSamplesBuffer: "+
			"%w", err)
	}

	var examples probe.Examples
	var err error
	switch {
	case cfg.Examples != nil:
		examples = *cfg.Examples
	case cfg.Subprocess:
		logger.Debug("probing example outputs in worker process")
		examples, err = probe.Run(ctx, target)
	default:
		logger.Debug("probing example outputs in process")
		examples, err = target.Probe()
	}
	if err != nil {
		return nil, nil, probe.Examples{}, fmt.Errorf("buildSamplesBuffer: "+
			"%w", err)
	}

	samples, err := Allocate(examples, cfg)
	if err != nil {
		return nil, nil, probe.Examples{}, fmt.Errorf("buildSamplesBuffer: "+
			"%w", err)
	}

	logger.Info("built samples buffer",
		zap.Int("T", cfg.BatchSpec.T),
		zap.Int("B", cfg.BatchSpec.B),
		zap.Bool("bootstrap_value", cfg.BootstrapValue),
		zap.Bool("agent_shared", cfg.AgentShared),
		zap.Bool("env_shared", cfg.EnvShared),
		zap.Strings("shared_segments", samples.Handles()),
	)

	return Tensorize(samples), samples, examples, nil
}

// Allocate allocates a samples buffer from examples
func Allocate(examples probe.Examples, cfg BufferConfig) (_ *Samples,
	err error) {
	if err := cfg.BatchSpec.Validate(); err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}
	T, B := cfg.BatchSpec.T, cfg.BatchSpec.B

	agentAlloc := newAllocator(cfg.AgentShared)
	envAlloc := newAllocator(cfg.EnvShared)
	s := &Samples{
		BatchSpec:  cfg.BatchSpec,
		allocators: []shm.Allocator{agentAlloc, envAlloc},
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	a := builder{alloc: agentAlloc, prefix: "agent"}
	allAction := a.build(probe.ActionField, examples.Action, T+1, B)
	s.Agent = AgentSamples{
		Action:     a.slice(allAction, 1, T+1),
		PrevAction: a.slice(allAction, 0, T),
		RewardInt:  a.build(probe.RewardIntField, examples.RewardInt, T, B),
		AgentInfo:  a.info(probe.AgentInfoField, examples.AgentInfo, T, B),
	}
	if cfg.BootstrapValue {
		value, ok := examples.AgentInfo[agent.ValueInfo]
		if !ok {
			return nil, fmt.Errorf("allocate: bootstrap value: %w", ErrNoValue)
		}
		s.Agent.BootstrapValue = a.build("bootstrap_value", value, 1, B)
	}
	if a.err != nil {
		return nil, fmt.Errorf("allocate: agent samples: %w", a.err)
	}

	e := builder{alloc: envAlloc, prefix: "env"}
	allReward := e.build(probe.RewardField, examples.Reward, T+1, B)
	s.Env = EnvSamples{
		PrevObservation: e.build(probe.PrevObservationField,
			examples.PrevObservation, T, B),
		Observation: e.build(probe.ObservationField, examples.Observation, T, B),
		Reward:      e.slice(allReward, 1, T+1),
		PrevReward:  e.slice(allReward, 0, T),
		Done:        e.build(probe.DoneField, examples.Done, T, B),
		EnvInfo:     e.info(probe.EnvInfoField, examples.EnvInfo, T, B),
	}
	if e.err != nil {
		return nil, fmt.Errorf("allocate: env samples: %w", e.err)
	}

	return s, nil
}

func newAllocator(shared bool) shm.Allocator {
	if shared {
		return shm.NewArena()
	}
	return shm.Local{}
}

// builder allocates the arrays of one bundle of samples, remembering
// the first error so that fields can be built in a single expression
type builder struct {
	alloc  shm.Allocator
	prefix string
	err    error
}

// build allocates an array with the given leading dimensions followed
// by the shape of example
func (b *builder) build(name string, example probe.Example,
	leading ...int) *array.Array {
	if b.err != nil {
		return nil
	}

	shape := append(append([]int{}, leading...), example.Shape...)
	n := array.Size(shape) * example.DType.Size()

	data, err := b.alloc.Allocate(b.prefix+"."+name, n)
	if err != nil {
		b.err = fmt.Errorf("%v: %w", name, err)
		return nil
	}

	a, err := array.New(example.DType, shape, data)
	if err != nil {
		b.err = fmt.Errorf("%v: %w", name, err)
		return nil
	}
	return a
}

// slice returns a[start:end] or nil if building a failed
func (b *builder) slice(a *array.Array, start, end int) *array.Array {
	if b.err != nil {
		return nil
	}
	return a.Slice(start, end)
}

// info builds one array per example
func (b *builder) info(name string, examples map[string]probe.Example,
	leading ...int) map[string]*array.Array {
	info := make(map[string]*array.Array, len(examples))
	for k, v := range examples {
		info[k] = b.build(name+"."+k, v, leading...)
	}
	return info
}
