// Package pendulum implements the pendulum classic control environment
package pendulum

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/rlsampler/environment"
	ts "github.com/samuelfneumann/rlsampler/timestep"
	"github.com/samuelfneumann/rlsampler/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	dt      float64 = 0.05
	Gravity float64 = 9.8
	Mass    float64 = 1.0
	Length  float64 = 1.0

	ActionDims      int = 1
	ObservationDims int = 3
)

// Pendulum implements the classic control environment Pendulum with
// continuous actions. A pendulum is attached to a fixed base and the
// agent applies an underpowered torque at the base to swing the
// pendulum upright.
//
// The environment keeps the angle θ of the pendulum from the positive
// y-axis and its angular velocity. Observations are [cos θ, sin θ, θ̇].
// Angular velocity is clipped to [-SpeedBound, SpeedBound].
//
// Actions are 1-dimensional torques in [-2, 2]; larger torques are
// clipped. The reward is -(θ² + 0.1θ̇² + 0.001u²) and episodes end only
// at the step limit.
type Pendulum struct {
	env.Starter
	stepLimit env.StepLimit

	th, thDot    float64
	lastStep     ts.TimeStep
	gameScore    float64
	discount     float64
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
}

// New constructs a new Pendulum environment. The Starter must sample
// the starting angle and angular velocity.
func New(s env.Starter, episodeSteps int, discount float64) (*Pendulum,
	ts.TimeStep, error) {
	if episodeSteps < 1 {
		return nil, ts.TimeStep{}, fmt.Errorf("new: episode steps must be "+
			"positive, got %v", episodeSteps)
	}

	p := &Pendulum{
		Starter:      s,
		stepLimit:    env.NewStepLimit(episodeSteps),
		discount:     discount,
		angleBounds:  r1.Interval{Min: -AngleBound, Max: AngleBound},
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
	}

	first, err := p.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return p, first, nil
}

// Reset resets the environment and returns a starting state drawn from
// the Starter
func (p *Pendulum) Reset() (ts.TimeStep, error) {
	state := p.Start()
	if state.Len() != 2 {
		return ts.TimeStep{}, fmt.Errorf("reset: starter returned %v "+
			"features, expected 2", state.Len())
	}

	p.th = normalizeAngle(state.AtVec(0), p.angleBounds)
	p.thDot = floatutils.ClipInterval(state.AtVec(1), p.speedBounds)
	p.gameScore = 0

	startStep := ts.New(ts.First, 0, p.discount, p.observation(), 0)
	startStep.Info = p.info(false)
	p.lastStep = startStep

	return startStep, nil
}

// ActionSpace returns the space of legal torques
func (p *Pendulum) ActionSpace() env.Space {
	return env.NewBox(
		mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Min}),
		mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Max}),
	)
}

// ObservationSpace returns the space of observations
func (p *Pendulum) ObservationSpace() env.Space {
	return env.NewBox(
		mat.NewVecDense(ObservationDims, []float64{-1, -1, p.speedBounds.Min}),
		mat.NewVecDense(ObservationDims, []float64{1, 1, p.speedBounds.Max}),
	)
}

// Step takes one environmental step given a vector torque action
func (p *Pendulum) Step(a env.Action) (ts.TimeStep, error) {
	if a.IsInt() {
		return ts.TimeStep{}, fmt.Errorf("step: pendulum requires a "+
			"vector action, got %v", a)
	}
	if a.Vec().Len() != ActionDims {
		return ts.TimeStep{}, fmt.Errorf("step: illegal action length "+
			"\n\twant(%v)\n\thave(%v)", ActionDims, a.Vec().Len())
	}
	if p.lastStep.Last() {
		return ts.TimeStep{}, fmt.Errorf("step: episode has ended, call " +
			"Reset")
	}

	torque := floatutils.ClipInterval(a.Vec().AtVec(0), p.torqueBounds)
	reward := -(p.th*p.th + 0.1*p.thDot*p.thDot + 0.001*torque*torque)

	newThDot := p.thDot + (-3*Gravity/(2*Length)*math.Sin(p.th+math.Pi)+
		3.0/(Mass*Length*Length)*torque)*dt
	newThDot = floatutils.ClipInterval(newThDot, p.speedBounds)
	p.th = normalizeAngle(p.th+newThDot*dt, p.angleBounds)
	p.thDot = newThDot
	p.gameScore += reward

	nextStep := ts.New(ts.Mid, reward, p.discount, p.observation(),
		p.lastStep.Number+1)
	timeout := p.stepLimit.End(&nextStep)
	nextStep.Info = p.info(timeout)

	p.lastStep = nextStep
	return nextStep, nil
}

func (p *Pendulum) observation() *mat.VecDense {
	return mat.NewVecDense(ObservationDims, []float64{math.Cos(p.th),
		math.Sin(p.th), p.thDot})
}

func (p *Pendulum) info(timeout bool) map[string]float64 {
	t := 0.0
	if timeout {
		t = 1.0
	}
	return map[string]float64{
		env.GameScoreInfo: p.gameScore,
		env.TimeoutInfo:   t,
	}
}

// LastTimeStep returns the last TimeStep that occurred in the
// environment
func (p *Pendulum) LastTimeStep() ts.TimeStep {
	return p.lastStep
}

// String converts the environment to a string representation
func (p *Pendulum) String() string {
	return fmt.Sprintf("Pendulum  |  theta: %v  |  theta dot: %v", p.th,
		p.thDot)
}

// normalizeAngle normalizes the pendulum angle to the appropriate limits
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if angleBounds.Max != -angleBounds.Min {
		panic("angle bounds should be centered around 0")
	}

	if th > angleBounds.Max {
		divisor := int(th / angleBounds.Max)
		return -math.Pi + th - (angleBounds.Max * float64(divisor))
	} else if th < angleBounds.Min {
		divisor := int(th / angleBounds.Min)
		return math.Pi + th - (angleBounds.Min * float64(divisor))
	} else {
		return th
	}
}
