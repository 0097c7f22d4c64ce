// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"fmt"

	"github.com/samuelfneumann/rlsampler/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end
type Ender interface {
	// End checks whether a TimeStep ends the episode. If so, it sets the
	// StepType of the TimeStep to timestep.Last and returns true.
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// first TimeStep of the new episode
	Reset() (timestep.TimeStep, error)

	// Step takes a single environmental step. Environments with
	// scalar action spaces expect integer actions.
	Step(action Action) (timestep.TimeStep, error)

	ActionSpace() Space
	ObservationSpace() Space
}

// Action is an argument to Environment.Step. It is either a plain
// integer, for environments with scalar action spaces, or a vector.
type Action struct {
	n      int
	vector *mat.VecDense
}

// IntAction returns an integer Action
func IntAction(n int) Action {
	return Action{n: n}
}

// VecAction returns a vector Action
func VecAction(v *mat.VecDense) Action {
	if v == nil {
		panic("vecAction: nil vector")
	}
	return Action{vector: v}
}

// IsInt returns whether the Action is an integer
func (a Action) IsInt() bool {
	return a.vector == nil
}

// Int returns the integer value of an integer Action. It panics if the
// Action is a vector.
func (a Action) Int() int {
	if !a.IsInt() {
		panic("int: action is a vector")
	}
	return a.n
}

// Vec returns the vector value of a vector Action. It panics if the
// Action is an integer.
func (a Action) Vec() *mat.VecDense {
	if a.IsInt() {
		panic("vec: action is an integer")
	}
	return a.vector
}

func (a Action) String() string {
	if a.IsInt() {
		return fmt.Sprintf("Action(%d)", a.n)
	}
	return fmt.Sprintf("Action(%v)", mat.Formatted(a.vector.T(),
		mat.Squeeze()))
}
