package probe

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"math"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/samuelfneumann/rlsampler/agent"
	"github.com/samuelfneumann/rlsampler/agent/linear"
	"github.com/samuelfneumann/rlsampler/array"
	"github.com/samuelfneumann/rlsampler/curiosity"
	"github.com/samuelfneumann/rlsampler/environment"
	"github.com/samuelfneumann/rlsampler/environment/envconfig"
	ts "github.com/samuelfneumann/rlsampler/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

func TestMain(m *testing.M) {
	Init()
	os.Exit(m.Run())
}

// recordingEnv is a two-feature environment that records the actions it
// is stepped with
type recordingEnv struct {
	space   environment.Space
	actions []environment.Action
}

func (r *recordingEnv) Reset() (ts.TimeStep, error) {
	return ts.New(ts.First, 0, 1, mat.NewVecDense(2, nil), 0), nil
}

func (r *recordingEnv) Step(a environment.Action) (ts.TimeStep, error) {
	r.actions = append(r.actions, a)
	step := ts.New(ts.Last, 2.5, 1, mat.NewVecDense(2, []float64{1, 2}), 1)
	step.Info = map[string]float64{"lives": 3}
	return step, nil
}

func (r *recordingEnv) ActionSpace() environment.Space { return r.space }

func (r *recordingEnv) ObservationSpace() environment.Space {
	return environment.NewBox(mat.NewVecDense(2, []float64{-1, -1}),
		mat.NewVecDense(2, []float64{1, 1}))
}

const nanValueType agent.Type = "NaNValue"

func init() {
	agent.Register(nanValueType, nanValueConfig{})
}

// nanValueConfig creates linear agents whose value estimates are NaN
type nanValueConfig struct {
	linear.Config
}

func (c nanValueConfig) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	l, err := linear.New(env, c.Config, seed)
	if err != nil {
		return nil, err
	}
	return nanValue{l}, nil
}

func (c nanValueConfig) Type() agent.Type {
	return nanValueType
}

type nanValue struct {
	*linear.Linear
}

func (n nanValue) Step(obs, prevAction, prevReward tensor.Tensor) (
	*tensor.Dense, agent.Info, error) {
	action, info, err := n.Linear.Step(obs, prevAction, prevReward)
	if err != nil {
		return nil, nil, err
	}
	info[agent.ValueInfo] = tensor.New(tensor.FromScalar(math.NaN()))
	return action, info, nil
}

func cartpoleTarget(c linear.Config) Target {
	return NewTarget(envconfig.NewConfig(envconfig.Cartpole, 100, 0.99), c, 7)
}

func TestScalarActionIsInteger(t *testing.T) {
	env := &recordingEnv{space: environment.NewDiscrete(3)}
	ag, err := linear.New(env, linear.Config{}, 1)
	require.NoError(t, err)

	examples, err := GetExampleOutputs(ag, env, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	require.Len(t, env.actions, 1)
	assert.True(t, env.actions[0].IsInt())

	assert.Equal(t, []int{2}, examples.Observation.Shape)
	assert.Equal(t, []float64{0, 0}, examples.PrevObservation.Values)
	assert.Equal(t, []float64{1, 2}, examples.Observation.Values)
	assert.Equal(t, array.Float32, examples.Reward.DType)
	assert.Equal(t, []float64{2.5}, examples.Reward.Values)
	assert.Equal(t, []float64{1}, examples.Done.Values)
	assert.Equal(t, array.Int64, examples.Action.DType)
	assert.Equal(t, []int{}, examples.Action.Shape)
	assert.Equal(t, Scalar(array.Float64, 3), examples.EnvInfo["lives"])
}

func TestVectorActionIsVector(t *testing.T) {
	env := &recordingEnv{space: environment.NewBox(
		mat.NewVecDense(2, []float64{-1, -1}),
		mat.NewVecDense(2, []float64{1, 1}),
	)}
	ag, err := linear.New(env, linear.Config{}, 1)
	require.NoError(t, err)

	examples, err := GetExampleOutputs(ag, env, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	require.Len(t, env.actions, 1)
	assert.False(t, env.actions[0].IsInt())
	assert.Equal(t, []int{2}, examples.Action.Shape)
	assert.Equal(t, []int{2, 2}, examples.AgentInfo[agent.DistInfo].Shape)
}

func TestNoCuriosityGivesZero(t *testing.T) {
	examples, err := cartpoleTarget(linear.Config{}).Probe()
	require.NoError(t, err)

	assert.Equal(t, Scalar(array.Float32, 0), examples.RewardInt)
}

func TestCuriosityReward(t *testing.T) {
	examples, err := cartpoleTarget(linear.Config{
		Curiosity: agent.CuriosityConfig{Alg: curiosity.RND},
	}).Probe()
	require.NoError(t, err)

	assert.Equal(t, array.Float32, examples.RewardInt.DType)
	assert.Equal(t, []int{}, examples.RewardInt.Shape)
}

func TestRecurrentStateStripped(t *testing.T) {
	examples, err := cartpoleTarget(linear.Config{
		HiddenSize: 3,
		RNNLayers:  2,
	}).Probe()
	require.NoError(t, err)

	state, ok := examples.AgentInfo[agent.PrevRNNStateInfo]
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, state.Shape)
	assert.Len(t, state.Values, 6)
}

func TestShapes(t *testing.T) {
	examples, err := cartpoleTarget(linear.Config{}).Probe()
	require.NoError(t, err)

	shapes := examples.Shapes()
	assert.Equal(t, []int{4}, shapes[ObservationField])
	assert.Equal(t, []int{4}, shapes[PrevObservationField])
	assert.Equal(t, []int{}, shapes[ActionField])
	assert.Equal(t, []int{}, shapes["agent_info.value"])
	assert.Equal(t, []int{3}, shapes["agent_info.dist_info"])
	assert.Equal(t, []int{}, shapes["env_info.game_score"])
	assert.Equal(t, []int{}, shapes["env_info.timeout"])
	assert.Len(t, examples.Keys(), len(shapes))
}

func TestSubprocessMatchesInProcess(t *testing.T) {
	configs := []linear.Config{
		{},
		{HiddenSize: 4, RNNLayers: 1},
		{Curiosity: agent.CuriosityConfig{Alg: curiosity.RND}},
	}

	for _, c := range configs {
		target := cartpoleTarget(c)

		local, err := target.Probe()
		require.NoError(t, err)

		remote, err := Run(context.Background(), target)
		require.NoError(t, err)

		assert.Equal(t, local.Shapes(), remote.Shapes())
		assert.Equal(t, local.Action.DType, remote.Action.DType)
		assert.Equal(t, local.Observation, remote.Observation)
	}
}

func TestSubprocessNonFiniteValues(t *testing.T) {
	target := NewTarget(envconfig.NewConfig(envconfig.Cartpole, 100, 0.99),
		nanValueConfig{}, 7)

	local, err := target.Probe()
	require.NoError(t, err)

	remote, err := Run(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, local.Shapes(), remote.Shapes())
	value := remote.AgentInfo[agent.ValueInfo]
	assert.Equal(t, array.Float64, value.DType)
	require.Len(t, value.Values, 1)
	assert.True(t, math.IsNaN(value.Values[0]))
}

func TestSubprocessReportsErrors(t *testing.T) {
	target := cartpoleTarget(linear.Config{})
	target.Env.EpisodeCutoff = 0

	_, err := Run(context.Background(), target)
	require.Error(t, err)

	var workerErr *WorkerError
	require.True(t, errors.As(err, &workerErr))
	assert.Contains(t, workerErr.Msg, "episode cutoff")
}

func TestServe(t *testing.T) {
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(0))

	payload, err := json.Marshal(cartpoleTarget(linear.Config{}))
	require.NoError(t, err)

	var out bytes.Buffer
	assert.Equal(t, 0, serve(bytes.NewReader(payload), &out))

	var result Result
	require.NoError(t, gob.NewDecoder(&out).Decode(&result))
	assert.Empty(t, result.Err)
	require.NotNil(t, result.Examples)
	assert.Equal(t, []int{4}, result.Examples.Observation.Shape)

	out.Reset()
	assert.Equal(t, 1, serve(strings.NewReader("{"), &out))
	result = Result{}
	require.NoError(t, gob.NewDecoder(&out).Decode(&result))
	assert.Contains(t, result.Err, "could not decode target")
}

func TestExampleIndex(t *testing.T) {
	e := Example{Shape: []int{2, 2}, DType: array.Float64,
		Values: []float64{1, 2, 3, 4}}

	second, err := e.Index(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, second.Shape)
	assert.Equal(t, []float64{3, 4}, second.Values)

	_, err = Scalar(array.Bool, 1).Index(0)
	require.Error(t, err)

	a, err := e.Array()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, a.Float64s())
}
