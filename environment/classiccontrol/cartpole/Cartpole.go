// Package cartpole implements the Cartpole classic control environment
package cartpole

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
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Bounds (+/-) on state variables
	PositionBounds        float64 = 4.8
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = math.Pi
	AngularVelocityBounds float64 = math.MaxFloat64

	// FailAngle is the angle past which the pole has fallen
	FailAngle float64 = 12 * 2 * math.Pi / 360

	// Discrete Actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2

	ObservationDims int = 4
)

// Cartpole implements the classic control environment Cartpole with
// discrete actions. In this environment, a pole is attached to a cart,
// which can move horizontally. The agent must balance the pole in an
// upright position for as long as possible.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity. Position is clipped to the
// legal range and the angle is normalized to (-π, π].
//
// Actions are integers, consisting of the direction to apply
// horizontal force to the cart:
//
//	Action		Meaning
//	  0			Apply force left
//	  1			Do nothing
//	  2			Apply force right
//
// The reward is +1 for every step the pole stays above FailAngle and
// -1 once it has fallen. Episodes end when the pole falls or after a
// step limit. Each TimeStep reports the running episode score under
// the environment.GameScoreInfo key and whether the episode was cut off
// by the step limit under environment.TimeoutInfo.
type Cartpole struct {
	env.Starter
	stepLimit  env.StepLimit
	angleLimit *env.IntervalLimit

	lastStep  ts.TimeStep
	gameScore float64
	discount  float64

	positionBounds r1.Interval
	angleBounds    r1.Interval
}

// New constructs a new Cartpole environment
func New(s env.Starter, episodeSteps int, discount float64) (*Cartpole,
	ts.TimeStep, error) {
	if episodeSteps < 1 {
		return nil, ts.TimeStep{}, fmt.Errorf("new: episode steps must be "+
			"positive, got %v", episodeSteps)
	}

	legalAngles := []r1.Interval{{Min: -FailAngle, Max: FailAngle}}
	c := &Cartpole{
		Starter:        s,
		stepLimit:      env.NewStepLimit(episodeSteps),
		angleLimit:     env.NewIntervalLimit(legalAngles, []int{2}),
		discount:       discount,
		positionBounds: r1.Interval{Min: -PositionBounds, Max: PositionBounds},
		angleBounds:    r1.Interval{Min: -AngleBounds, Max: AngleBounds},
	}

	first, err := c.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return c, first, nil
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() (ts.TimeStep, error) {
	state := c.Start()
	if state.Len() != ObservationDims {
		return ts.TimeStep{}, fmt.Errorf("reset: starter returned %v "+
			"features, expected %v", state.Len(), ObservationDims)
	}
	if !contains(c.positionBounds, state.AtVec(0)) ||
		!contains(c.angleBounds, state.AtVec(2)) {
		return ts.TimeStep{}, fmt.Errorf("reset: starting state %v is out "+
			"of bounds", mat.Formatted(state.T()))
	}

	c.gameScore = 0
	startStep := ts.New(ts.First, 0, c.discount, state, 0)
	startStep.Info = c.info(false)
	c.lastStep = startStep

	return startStep, nil
}

// ActionSpace returns the space of legal actions {0, 1, 2}
func (c *Cartpole) ActionSpace() env.Space {
	return env.NewDiscrete(MaxDiscreteAction - MinDiscreteAction + 1)
}

// ObservationSpace returns the space of observations
func (c *Cartpole) ObservationSpace() env.Space {
	lower := []float64{c.positionBounds.Min, -SpeedBounds,
		c.angleBounds.Min, -AngularVelocityBounds}
	upper := []float64{c.positionBounds.Max, SpeedBounds,
		c.angleBounds.Max, AngularVelocityBounds}

	return env.NewBox(mat.NewVecDense(ObservationDims, lower),
		mat.NewVecDense(ObservationDims, upper))
}

// Step takes one environmental step given an integer action. Vector
// actions and integers outside {0, 1, 2} are rejected.
func (c *Cartpole) Step(a env.Action) (ts.TimeStep, error) {
	if !a.IsInt() {
		return ts.TimeStep{}, fmt.Errorf("step: cartpole requires an "+
			"integer action, got %v", a)
	}
	action := a.Int()
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		return ts.TimeStep{}, fmt.Errorf("step: illegal action %v ∉ "+
			"(0, 1, 2)", action)
	}
	if c.lastStep.Last() {
		return ts.TimeStep{}, fmt.Errorf("step: episode has ended, call " +
			"Reset")
	}

	// Convert action (0, 1, 2) to a direction (-1, 0, 1)
	direction := float64(action - 1)
	newState := c.nextState(direction)

	reward := 1.0
	if math.Abs(newState.AtVec(2)) >= FailAngle {
		reward = -1.0
	}
	c.gameScore += reward

	nextStep := ts.New(ts.Mid, reward, c.discount, newState,
		c.lastStep.Number+1)

	// The angle limit is checked first so that a fall on the last
	// step is not reported as a timeout
	fell := c.angleLimit.End(&nextStep)
	timeout := !fell && c.stepLimit.End(&nextStep)
	nextStep.Info = c.info(timeout)

	c.lastStep = nextStep
	return nextStep, nil
}

func (c *Cartpole) info(timeout bool) map[string]float64 {
	t := 0.0
	if timeout {
		t = 1.0
	}
	return map[string]float64{
		env.GameScoreInfo: c.gameScore,
		env.TimeoutInfo:   t,
	}
}

// nextState computes the next state using Euler kinematic integration
func (c *Cartpole) nextState(direction float64) *mat.VecDense {
	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	force := direction * ForceMag

	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	totalMass := PoleMass + CartMass
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / totalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/totalMass

	x += Dt * xDot
	xDot += Dt * xAcc

	// Stop the cart at the track boundaries
	if x <= c.positionBounds.Min || x >= c.positionBounds.Max {
		x = floatutils.ClipInterval(x, c.positionBounds)
		xDot = 0.0
	}

	th += Dt * thDot
	th = normalizeAngle(th, c.angleBounds)

	thDot += Dt * thAcc

	return mat.NewVecDense(ObservationDims, []float64{x, xDot, th, thDot})
}

// LastTimeStep returns the last TimeStep that occurred in the
// environment
func (c *Cartpole) LastTimeStep() ts.TimeStep {
	return c.lastStep
}

func (c *Cartpole) String() string {
	msg := "Cartpole  |  Position: %v  | Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	position, speed := state.AtVec(0), state.AtVec(1)
	angle, velocity := state.AtVec(2), state.AtVec(3)

	return fmt.Sprintf(msg, position, speed, angle, velocity)
}

func contains(i r1.Interval, v float64) bool {
	return v >= i.Min && v <= i.Max
}

// normalizeAngle normalizes the pole angle to the appropriate limits
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
