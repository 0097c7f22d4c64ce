package samplers

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/rlsampler/agent"
	"github.com/samuelfneumann/rlsampler/array"
	"github.com/samuelfneumann/rlsampler/environment"
	"github.com/samuelfneumann/rlsampler/metrics"
	"github.com/samuelfneumann/rlsampler/samplers/probe"
	"github.com/samuelfneumann/rlsampler/utils/tensorutils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Serial fills a samples buffer with rollouts of B environment
// instances stepped one after another in the calling goroutine, with a
// single agent acting on the whole batch.
//
// At timestep t of an iteration the agent acts on PrevObservation[t]
// given PrevAction[t] and PrevReward[t], writing Action[t]. Each
// environment is then stepped, writing the resulting observation to
// Observation[t] together with Reward[t], Done[t] and EnvInfo[t].
// Intrinsic rewards are computed from (PrevObservation[t], Action[t],
// Observation[t]). Environments are reset as soon as an episode ends.
type Serial struct {
	agent   agent.Agent
	envs    []environment.Environment
	samples *Samples
	writer  *metrics.Writer
	logger  *zap.Logger

	obs       [][]float64 // Observation each environment is in
	itr       int
	cumSteps  int
	curiosity bool
}

// NewSerial creates the agent and B environment instances described by
// target and returns a Serial sampler writing into samples. Environment
// b is seeded with target.Seed+b. If writer is non-nil, the metrics of
// every iteration are appended to it.
func NewSerial(target probe.Target, samples *Samples, writer *metrics.Writer,
	logger *zap.Logger) (*Serial, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("newSerial: %w", err)
	}

	envs := make([]environment.Environment, samples.BatchSpec.B)
	obs := make([][]float64, len(envs))
	for b := range envs {
		env, err := target.Env.Create(target.Seed + uint64(b))
		if err != nil {
			return nil, fmt.Errorf("newSerial: %w", err)
		}
		first, err := env.Reset()
		if err != nil {
			return nil, fmt.Errorf("newSerial: reset: %w", err)
		}
		envs[b] = env
		obs[b] = mat.Col(nil, 0, first.Observation)
	}

	ag, err := target.Agent.Config.CreateAgent(envs[0], target.Seed)
	if err != nil {
		return nil, fmt.Errorf("newSerial: %w", err)
	}
	ag.Reset()

	return &Serial{
		agent:     ag,
		envs:      envs,
		samples:   samples,
		writer:    writer,
		logger:    logger,
		obs:       obs,
		curiosity: ag.ModelConfig().Curiosity.Alg != agent.NoCuriosity,
	}, nil
}

// Agent returns the agent acting in the sampler
func (s *Serial) Agent() agent.Agent {
	return s.agent
}

// Collect fills the samples buffer with one iteration of T timesteps
// and returns the metrics of the iteration. The last action and reward
// of the previous iteration become the first previous action and
// reward.
func (s *Serial) Collect(ctx context.Context) (metrics.Iteration, error) {
	agentBuf, envBuf := s.samples.Agent, s.samples.Env
	T := s.samples.BatchSpec.T

	if s.itr > 0 {
		if err := agentBuf.PrevAction.Index(0).CopyFrom(
			agentBuf.Action.Index(T - 1)); err != nil {
			return metrics.Iteration{}, fmt.Errorf("collect: %w", err)
		}
		if err := envBuf.PrevReward.Index(0).CopyFrom(
			envBuf.Reward.Index(T - 1)); err != nil {
			return metrics.Iteration{}, fmt.Errorf("collect: %w", err)
		}
	}

	var scores []float64
	for t := 0; t < T; t++ {
		if err := ctx.Err(); err != nil {
			return metrics.Iteration{}, fmt.Errorf("collect: %w", err)
		}

		episodeScores, err := s.step(t)
		if err != nil {
			return metrics.Iteration{}, fmt.Errorf("collect: timestep %v: "+
				"%w", t, err)
		}
		scores = append(scores, episodeScores...)
	}

	if agentBuf.BootstrapValue != nil {
		obs, err := s.observations()
		if err != nil {
			return metrics.Iteration{}, fmt.Errorf("collect: %w", err)
		}
		value, err := s.agent.Value(obs.Tensor())
		if err != nil {
			return metrics.Iteration{}, fmt.Errorf("collect: %w", err)
		}
		if err := write(agentBuf.BootstrapValue.Index(0), value); err != nil {
			return metrics.Iteration{}, fmt.Errorf("collect: bootstrap "+
				"value: %w", err)
		}
	}

	s.cumSteps += s.samples.BatchSpec.Size()
	itr := s.summarize(scores)
	s.itr++

	s.logger.Info("collected iteration",
		zap.Int("iteration", itr.Iteration),
		zap.Int("cum_steps", itr.CumSteps),
		zap.Int("completed_episodes", itr.CompletedEpisodes),
		zap.Float64("game_score", itr.GameScoreAverage),
		zap.Float64("intrinsic_reward", itr.IntrinsicRewardAverage),
	)
	if s.writer != nil {
		if err := s.writer.Write([]metrics.Iteration{itr}); err != nil {
			return itr, fmt.Errorf("collect: %w", err)
		}
	}

	return itr, nil
}

// step fills timestep t of the buffer and returns the scores of the
// episodes which ended
func (s *Serial) step(t int) ([]float64, error) {
	agentBuf, envBuf := s.samples.Agent, s.samples.Env

	prevObs := envBuf.PrevObservation.Index(t)
	for b, o := range s.obs {
		if err := prevObs.Index(b).SetFloat64s(o); err != nil {
			return nil, fmt.Errorf("observation: %w", err)
		}
	}

	action, info, err := s.agent.Step(prevObs.Tensor(),
		agentBuf.PrevAction.Index(t).Tensor(),
		envBuf.PrevReward.Index(t).Tensor())
	if err != nil {
		return nil, err
	}
	if err := write(agentBuf.Action.Index(t), action); err != nil {
		return nil, fmt.Errorf("action: %w", err)
	}
	for k, v := range info {
		dst, ok := agentBuf.AgentInfo[k]
		if !ok {
			continue
		}
		if err := write(dst.Index(t), v); err != nil {
			return nil, fmt.Errorf("agent info %q: %w", k, err)
		}
	}

	var scores []float64
	actions := agentBuf.Action.Index(t)
	for b, env := range s.envs {
		step, err := env.Step(toAction(actions.Index(b)))
		if err != nil {
			return nil, fmt.Errorf("env %v: %w", b, err)
		}

		observation := mat.Col(nil, 0, step.Observation)
		if err := envBuf.Observation.Index(t).Index(b).SetFloat64s(
			observation); err != nil {
			return nil, fmt.Errorf("env %v: observation: %w", b, err)
		}
		envBuf.Reward.Index(t).Set(b, step.Reward)
		envBuf.Done.Index(t).Set(b, boolValue(step.Last()))
		for k, v := range step.Info {
			if dst, ok := envBuf.EnvInfo[k]; ok {
				dst.Index(t).Set(b, v)
			}
		}

		if step.Last() {
			scores = append(scores, step.Info[environment.GameScoreInfo])

			first, err := env.Reset()
			if err != nil {
				return nil, fmt.Errorf("env %v: reset: %w", b, err)
			}
			observation = mat.Col(nil, 0, first.Observation)
			if r, ok := s.agent.(agent.OneResetter); ok {
				r.ResetOne(b)
			}
		}
		s.obs[b] = observation
	}

	if s.curiosity {
		rInt, _, err := s.agent.CuriosityStep(prevObs.Tensor(),
			actions.Tensor(), envBuf.Observation.Index(t).Tensor())
		if err != nil {
			return nil, fmt.Errorf("curiosity: %w", err)
		}
		if err := write(agentBuf.RewardInt.Index(t), rInt); err != nil {
			return nil, fmt.Errorf("intrinsic reward: %w", err)
		}
	}

	return scores, nil
}

// observations returns the observation of every environment as a
// (B, ...) array
func (s *Serial) observations() (*array.Array, error) {
	template := s.samples.Env.Observation.Index(0)
	obs := array.Zeros(template.DType(), template.Shape()...)
	for b, o := range s.obs {
		if err := obs.Index(b).SetFloat64s(o); err != nil {
			return nil, err
		}
	}
	return obs, nil
}

func (s *Serial) summarize(scores []float64) metrics.Iteration {
	rInt := s.samples.Agent.RewardInt
	rewards := make([]float64, rInt.Size())
	for i := range rewards {
		rewards[i] = rInt.At(i)
	}

	itr := metrics.Iteration{
		Iteration:         s.itr,
		CumSteps:          s.cumSteps,
		CompletedEpisodes: len(scores),
	}
	itr.GameScoreAverage, itr.GameScoreStd = metrics.Summarize(scores)
	itr.IntrinsicRewardAverage, itr.IntrinsicRewardStd = metrics.Summarize(
		rewards)
	return itr
}

// write copies the elements of t into dst
func write(dst *array.Array, t tensor.Tensor) error {
	values, err := tensorutils.Float64s(t)
	if err != nil {
		return err
	}
	return dst.SetFloat64s(values)
}

// toAction converts a single action of the buffer into an environment
// action. Scalar actions are integer actions.
func toAction(a *array.Array) environment.Action {
	if a.Dims() == 0 {
		return environment.IntAction(int(a.At(0)))
	}

	values := make([]float64, a.Size())
	for i := range values {
		values[i] = a.At(i)
	}
	return environment.VecAction(mat.NewVecDense(len(values), values))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
