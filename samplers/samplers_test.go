package samplers

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/rlsampler/agent"
	"github.com/samuelfneumann/rlsampler/agent/linear"
	"github.com/samuelfneumann/rlsampler/array"
	"github.com/samuelfneumann/rlsampler/curiosity"
	"github.com/samuelfneumann/rlsampler/environment/envconfig"
	"github.com/samuelfneumann/rlsampler/metrics"
	"github.com/samuelfneumann/rlsampler/samplers/probe"
	"github.com/samuelfneumann/rlsampler/shm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	probe.Init()
	os.Exit(m.Run())
}

func cartpoleTarget(cutoff uint, c linear.Config) probe.Target {
	env := envconfig.NewConfig(envconfig.Cartpole, cutoff, 0.99)
	return probe.NewTarget(env, c, 3)
}

func recurrentCuriousConfig() linear.Config {
	return linear.Config{
		HiddenSize: 4,
		RNNLayers:  2,
		Curiosity:  agent.CuriosityConfig{Alg: curiosity.RND},
	}
}

func TestBuildShapes(t *testing.T) {
	cfg := BufferConfig{
		BatchSpec:      BatchSpec{T: 5, B: 3},
		BootstrapValue: true,
		Logger:         zaptest.NewLogger(t),
	}
	tensors, samples, examples, err := BuildSamplesBuffer(
		context.Background(), cartpoleTarget(100, recurrentCuriousConfig()),
		cfg)
	require.NoError(t, err)
	defer samples.Close()

	a, e := samples.Agent, samples.Env
	assert.Equal(t, []int{5, 3}, a.Action.Shape())
	assert.Equal(t, []int{5, 3}, a.PrevAction.Shape())
	assert.Equal(t, array.Int64, a.Action.DType())
	assert.Equal(t, []int{5, 3}, a.RewardInt.Shape())
	assert.Equal(t, array.Float32, a.RewardInt.DType())
	assert.Equal(t, []int{1, 3}, a.BootstrapValue.Shape())
	assert.Equal(t, []int{5, 3}, a.AgentInfo[agent.ValueInfo].Shape())
	assert.Equal(t, []int{5, 3, 3}, a.AgentInfo[agent.DistInfo].Shape())
	assert.Equal(t, []int{5, 3, 2, 4}, a.AgentInfo[agent.PrevRNNStateInfo].Shape())

	assert.Equal(t, []int{5, 3, 4}, e.PrevObservation.Shape())
	assert.Equal(t, []int{5, 3, 4}, e.Observation.Shape())
	assert.Equal(t, []int{5, 3}, e.Reward.Shape())
	assert.Equal(t, []int{5, 3}, e.PrevReward.Shape())
	assert.Equal(t, array.Float32, e.Reward.DType())
	assert.Equal(t, []int{5, 3}, e.Done.Shape())
	assert.Equal(t, array.Bool, e.Done.DType())
	assert.Equal(t, []int{5, 3}, e.EnvInfo["game_score"].Shape())

	assert.Equal(t, []int{5, 3}, []int(tensors.Agent.Action.Shape()))
	assert.Equal(t, []int{1, 3}, []int(tensors.Agent.BootstrapValue.Shape()))
	assert.Equal(t, []int{5, 3, 4}, []int(tensors.Env.Observation.Shape()))

	assert.Equal(t, []int{2, 4}, examples.Shapes()["agent_info.prev_rnn_state"])
	assert.Empty(t, samples.Handles())
}

func TestPreviousAliasesCurrent(t *testing.T) {
	_, samples, _, err := BuildSamplesBuffer(context.Background(),
		cartpoleTarget(100, linear.Config{}), BufferConfig{
			BatchSpec: BatchSpec{T: 4, B: 2},
		})
	require.NoError(t, err)
	defer samples.Close()

	a, e := samples.Agent, samples.Env
	for i := 0; i < 4; i++ {
		a.Action.Index(i).Set(1, float64(i+1))
		e.Reward.Index(i).Set(0, float64(10*(i+1)))
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, float64(i+1), a.PrevAction.Index(i+1).At(1))
		assert.Equal(t, float64(10*(i+1)), e.PrevReward.Index(i+1).At(0))
	}
	assert.Equal(t, 0.0, a.PrevAction.Index(0).At(1))
}

func TestTensorsAliasNative(t *testing.T) {
	tensors, samples, _, err := BuildSamplesBuffer(context.Background(),
		cartpoleTarget(100, linear.Config{}), BufferConfig{
			BatchSpec:   BatchSpec{T: 2, B: 2},
			AgentShared: true,
			EnvShared:   true,
		})
	require.NoError(t, err)
	defer samples.Close()

	samples.Env.Observation.Index(1).Index(0).Set(2, 4.5)
	v, err := tensors.Env.Observation.At(1, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 4.5, v)

	require.NoError(t, tensors.Agent.Action.SetAt(int64(2), 0, 1))
	assert.Equal(t, 2.0, samples.Agent.Action.Index(0).At(1))
	assert.Equal(t, 2.0, samples.Agent.PrevAction.Index(1).At(1))

	require.NoError(t, tensors.Env.Reward.SetAt(float32(1.5), 1, 1))
	v, err = tensors.Env.PrevReward.At(1, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(0), v)
	assert.Equal(t, 1.5, samples.Env.Reward.Index(1).At(1))
}

func TestSharedSegments(t *testing.T) {
	_, samples, _, err := BuildSamplesBuffer(context.Background(),
		cartpoleTarget(100, linear.Config{}), BufferConfig{
			BatchSpec: BatchSpec{T: 2, B: 2},
			EnvShared: true,
		})
	require.NoError(t, err)

	handles := samples.Handles()
	require.NotEmpty(t, handles)

	var rewardHandle string
	for _, h := range handles {
		if filepath.Ext(h) == "."+probe.RewardField {
			rewardHandle = h
		}
	}
	require.NotEmpty(t, rewardHandle)

	other, err := shm.Open(rewardHandle)
	require.NoError(t, err)
	defer other.Close()

	// all_reward[2][1] is reward[1][1]
	samples.Env.Reward.Index(1).Set(1, 7)
	view, err := array.New(array.Float32, []int{3, 2}, other.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 7.0, view.Index(2).At(1))

	require.NoError(t, samples.Close())
	_, err = shm.Open(rewardHandle)
	require.Error(t, err)
}

func TestInvalidBatchSpec(t *testing.T) {
	for _, spec := range []BatchSpec{{T: 0, B: 1}, {T: 1, B: 0}} {
		_, _, _, err := BuildSamplesBuffer(context.Background(),
			cartpoleTarget(100, linear.Config{}), BufferConfig{BatchSpec: spec})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidBatchSpec))
	}
}

func TestBootstrapRequiresValue(t *testing.T) {
	examples, err := cartpoleTarget(100, linear.Config{}).Probe()
	require.NoError(t, err)
	delete(examples.AgentInfo, agent.ValueInfo)

	_, err = Allocate(examples, BufferConfig{
		BatchSpec:      BatchSpec{T: 2, B: 2},
		BootstrapValue: true,
		AgentShared:    true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoValue))
}

func TestPrecomputedExamplesSkipProbe(t *testing.T) {
	examples, err := cartpoleTarget(100, linear.Config{}).Probe()
	require.NoError(t, err)

	// An invalid target fails if it is probed
	target := cartpoleTarget(0, linear.Config{})
	_, samples, got, err := BuildSamplesBuffer(context.Background(), target,
		BufferConfig{BatchSpec: BatchSpec{T: 3, B: 1}, Examples: &examples})
	require.NoError(t, err)
	defer samples.Close()

	assert.Equal(t, examples.Shapes(), got.Shapes())
	assert.Equal(t, []int{3, 1, 4}, samples.Env.Observation.Shape())
}

func TestSubprocessMatchesInProcess(t *testing.T) {
	target := cartpoleTarget(100, recurrentCuriousConfig())
	spec := BatchSpec{T: 3, B: 2}

	_, local, localExamples, err := BuildSamplesBuffer(context.Background(),
		target, BufferConfig{BatchSpec: spec, BootstrapValue: true})
	require.NoError(t, err)
	defer local.Close()

	cfg := DefaultBufferConfig(spec)
	cfg.BootstrapValue = true
	_, remote, remoteExamples, err := BuildSamplesBuffer(
		context.Background(), target, cfg)
	require.NoError(t, err)
	defer remote.Close()

	assert.Equal(t, localExamples.Shapes(), remoteExamples.Shapes())
	assert.Equal(t, local.Agent.BootstrapValue.Shape(),
		remote.Agent.BootstrapValue.Shape())
	for k, v := range local.Agent.AgentInfo {
		assert.Equal(t, v.Shape(), remote.Agent.AgentInfo[k].Shape(), k)
	}
	for k, v := range local.Env.EnvInfo {
		assert.Equal(t, v.Shape(), remote.Env.EnvInfo[k].Shape(), k)
	}
	assert.NotEmpty(t, remote.Handles())
}

func TestSerialCollect(t *testing.T) {
	target := cartpoleTarget(3, recurrentCuriousConfig())
	spec := BatchSpec{T: 4, B: 2}
	_, samples, _, err := BuildSamplesBuffer(context.Background(), target,
		BufferConfig{BatchSpec: spec, BootstrapValue: true})
	require.NoError(t, err)
	defer samples.Close()

	path := filepath.Join(t.TempDir(), "progress.csv")
	writer, err := metrics.NewWriter(path)
	require.NoError(t, err)

	sampler, err := NewSerial(target, samples, writer, zaptest.NewLogger(t))
	require.NoError(t, err)

	itr, err := sampler.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, itr.Iteration)
	assert.GreaterOrEqual(t, itr.CompletedEpisodes, 2)
	assert.False(t, math.IsNaN(itr.GameScoreAverage))
	assert.False(t, math.IsNaN(itr.IntrinsicRewardAverage))

	a, e := samples.Agent, samples.Env
	for i := 0; i < spec.T-1; i++ {
		for b := 0; b < spec.B; b++ {
			assert.Equal(t, a.Action.Index(i).At(b), a.PrevAction.Index(i+1).At(b))
			assert.Equal(t, e.Reward.Index(i).At(b), e.PrevReward.Index(i+1).At(b))
		}
	}

	done := 0
	for i := 0; i < e.Done.Size(); i++ {
		if e.Done.At(i) != 0 {
			done++
		}
	}
	assert.Equal(t, itr.CompletedEpisodes, done)

	lastAction := array.Zeros(array.Int64, spec.B)
	require.NoError(t, lastAction.CopyFrom(a.Action.Index(spec.T-1)))

	itr, err = sampler.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, itr.Iteration)
	assert.Equal(t, 2*spec.Size(), itr.CumSteps)
	assert.Equal(t, lastAction.Int64s(), a.PrevAction.Index(0).Int64s())
	require.NoError(t, writer.Close())

	table, err := metrics.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	series, err := table.Series("GameScore/Average")
	require.NoError(t, err)
	assert.True(t, series.HasBand())
}

func TestSerialContinuousActions(t *testing.T) {
	env := envconfig.NewConfig(envconfig.Pendulum, 10, 0.99)
	target := probe.NewTarget(env, linear.Config{}, 1)
	_, samples, _, err := BuildSamplesBuffer(context.Background(), target,
		BufferConfig{BatchSpec: BatchSpec{T: 3, B: 2}, BootstrapValue: true})
	require.NoError(t, err)
	defer samples.Close()

	assert.Equal(t, []int{3, 2, 1}, samples.Agent.Action.Shape())
	assert.Equal(t, array.Float64, samples.Agent.Action.DType())

	sampler, err := NewSerial(target, samples, nil, nil)
	require.NoError(t, err)

	itr, err := sampler.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, itr.CompletedEpisodes)
	assert.True(t, math.IsNaN(itr.GameScoreAverage))
	assert.Equal(t, 0.0, itr.IntrinsicRewardAverage)
}

func TestCollectCancelled(t *testing.T) {
	target := cartpoleTarget(100, linear.Config{})
	_, samples, _, err := BuildSamplesBuffer(context.Background(), target,
		BufferConfig{BatchSpec: BatchSpec{T: 2, B: 1}})
	require.NoError(t, err)
	defer samples.Close()

	sampler, err := NewSerial(target, samples, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sampler.Collect(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
