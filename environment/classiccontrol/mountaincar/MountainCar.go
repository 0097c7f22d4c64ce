// Package mountaincar implements the Mountain Car classic control
// environment
package mountaincar

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/rlsampler/environment"
	ts "github.com/samuelfneumann/rlsampler/timestep"
	"github.com/samuelfneumann/rlsampler/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	MinPosition float64 = -1.2
	MaxPosition float64 = 0.6
	MaxSpeed    float64 = 0.07
	Power       float64 = 0.0015 // Engine power
	Gravity     float64 = 0.0025

	// GoalPosition is the x position the car must reach
	GoalPosition float64 = 0.45

	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2

	ObservationDims int = 2
)

// MountainCar implements the classic control environment Mountain Car
// with discrete actions. An underpowered car sits in a valley and must
// rock back and forth to build up enough momentum to drive up the hill
// on the right to GoalPosition.
//
// Observations are the car's x position and speed. Actions are
// integers:
//
//	Action		Meaning
//	  0			Accelerate left
//	  1			Do nothing
//	  2			Accelerate right
//
// The reward is -1 on every step which does not reach the goal and 0
// for the step which does. Episodes end at the goal or after a step
// limit.
type MountainCar struct {
	env.Starter
	stepLimit env.StepLimit
	goal      *env.IntervalLimit

	lastStep  ts.TimeStep
	gameScore float64
	discount  float64

	positionBounds r1.Interval
	speedBounds    r1.Interval
}

// New constructs a new MountainCar environment
func New(s env.Starter, episodeSteps int, discount float64) (*MountainCar,
	ts.TimeStep, error) {
	if episodeSteps < 1 {
		return nil, ts.TimeStep{}, fmt.Errorf("new: episode steps must be "+
			"positive, got %v", episodeSteps)
	}

	m := &MountainCar{
		Starter:   s,
		stepLimit: env.NewStepLimit(episodeSteps),
		goal: env.NewIntervalLimit(
			[]r1.Interval{{Min: math.Inf(-1), Max: GoalPosition}}, []int{0}),
		discount:       discount,
		positionBounds: r1.Interval{Min: MinPosition, Max: MaxPosition},
		speedBounds:    r1.Interval{Min: -MaxSpeed, Max: MaxSpeed},
	}

	first, err := m.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return m, first, nil
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (m *MountainCar) Reset() (ts.TimeStep, error) {
	state := m.Start()
	if state.Len() != ObservationDims {
		return ts.TimeStep{}, fmt.Errorf("reset: starter returned %v "+
			"features, expected %v", state.Len(), ObservationDims)
	}
	position, speed := state.AtVec(0), state.AtVec(1)
	if position < m.positionBounds.Min || position > m.positionBounds.Max {
		return ts.TimeStep{}, fmt.Errorf("reset: illegal position %v ∉ "+
			"[%v, %v]", position, m.positionBounds.Min, m.positionBounds.Max)
	}
	if speed < m.speedBounds.Min || speed > m.speedBounds.Max {
		return ts.TimeStep{}, fmt.Errorf("reset: illegal speed %v ∉ "+
			"[%v, %v]", speed, m.speedBounds.Min, m.speedBounds.Max)
	}

	m.gameScore = 0
	startStep := ts.New(ts.First, 0, m.discount, state, 0)
	startStep.Info = m.info(false)
	m.lastStep = startStep

	return startStep, nil
}

// ActionSpace returns the space of legal actions {0, 1, 2}
func (m *MountainCar) ActionSpace() env.Space {
	return env.NewDiscrete(MaxDiscreteAction - MinDiscreteAction + 1)
}

// ObservationSpace returns the space of observations
func (m *MountainCar) ObservationSpace() env.Space {
	return env.NewBox(
		mat.NewVecDense(ObservationDims, []float64{m.positionBounds.Min,
			m.speedBounds.Min}),
		mat.NewVecDense(ObservationDims, []float64{m.positionBounds.Max,
			m.speedBounds.Max}),
	)
}

// Step takes one environmental step given an integer action
func (m *MountainCar) Step(a env.Action) (ts.TimeStep, error) {
	if !a.IsInt() {
		return ts.TimeStep{}, fmt.Errorf("step: mountain car requires an "+
			"integer action, got %v", a)
	}
	action := a.Int()
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		return ts.TimeStep{}, fmt.Errorf("step: illegal action %v ∉ "+
			"(0, 1, 2)", action)
	}
	if m.lastStep.Last() {
		return ts.TimeStep{}, fmt.Errorf("step: episode has ended, call " +
			"Reset")
	}

	newState := m.nextState(float64(action - 1))

	reward := -1.0
	if newState.AtVec(0) >= GoalPosition {
		reward = 0.0
	}
	m.gameScore += reward

	nextStep := ts.New(ts.Mid, reward, m.discount, newState,
		m.lastStep.Number+1)

	reached := m.goal.End(&nextStep)
	timeout := !reached && m.stepLimit.End(&nextStep)
	nextStep.Info = m.info(timeout)

	m.lastStep = nextStep
	return nextStep, nil
}

func (m *MountainCar) info(timeout bool) map[string]float64 {
	t := 0.0
	if timeout {
		t = 1.0
	}
	return map[string]float64{
		env.GameScoreInfo: m.gameScore,
		env.TimeoutInfo:   t,
	}
}

// nextState computes the next state given a force direction in
// {-1, 0, 1}
func (m *MountainCar) nextState(force float64) *mat.VecDense {
	state := m.lastStep.Observation
	position, velocity := state.AtVec(0), state.AtVec(1)

	velocity += force*Power - Gravity*math.Cos(3*position)
	velocity = floatutils.ClipInterval(velocity, m.speedBounds)

	position += velocity
	position = floatutils.ClipInterval(position, m.positionBounds)

	// Inelastic collision with the left wall
	if position <= m.positionBounds.Min && velocity < 0 {
		velocity = 0
	}

	return mat.NewVecDense(ObservationDims, []float64{position, velocity})
}

// LastTimeStep returns the last TimeStep that occurred in the
// environment
func (m *MountainCar) LastTimeStep() ts.TimeStep {
	return m.lastStep
}

func (m *MountainCar) String() string {
	str := "Mountain Car  |  Position: %v  |  Speed: %v"
	state := m.lastStep.Observation
	return fmt.Sprintf(str, state.AtVec(0), state.AtVec(1))
}
