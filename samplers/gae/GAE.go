// Package gae computes generalized advantage estimates, GAE(λ), and
// discounted returns over a filled samples buffer following
// https://arxiv.org/abs/1506.02438
package gae

import (
	"fmt"

	"github.com/samuelfneumann/rlsampler/agent"
	"github.com/samuelfneumann/rlsampler/array"
	"github.com/samuelfneumann/rlsampler/samplers"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Estimate holds the advantages and returns of a samples buffer. Both
// matrices are T x B.
type Estimate struct {
	Advantage *mat.Dense
	Return    *mat.Dense
}

// Compute computes GAE(λ) advantages and λ-returns for every timestep of
// s. The buffer must hold the agent's value estimates under
// agent.ValueInfo and a bootstrap value. Episodes ending at a timestep
// are not bootstrapped past it.
func Compute(s *samplers.Samples, discount, lambda float64) (Estimate,
	error) {
	value, ok := s.Agent.AgentInfo[agent.ValueInfo]
	if !ok {
		return Estimate{}, fmt.Errorf("compute: %w", samplers.ErrNoValue)
	}
	if s.Agent.BootstrapValue == nil {
		return Estimate{}, fmt.Errorf("compute: no bootstrap value")
	}
	if err := checkShape(s.BatchSpec, value, s.Env.Reward, s.Env.Done); err != nil {
		return Estimate{}, fmt.Errorf("compute: %w", err)
	}

	T, B := s.BatchSpec.T, s.BatchSpec.B
	adv := mat.NewDense(T, B, nil)
	ret := mat.NewDense(T, B, nil)
	bootstrap := s.Agent.BootstrapValue.Index(0)

	for b := 0; b < B; b++ {
		nextValue := bootstrap.At(b)
		lastAdv := 0.0
		for t := T - 1; t >= 0; t-- {
			i := t*B + b
			notDone := 1 - s.Env.Done.At(i)
			v := value.At(i)

			delta := s.Env.Reward.At(i) + discount*nextValue*notDone - v
			lastAdv = delta + discount*lambda*notDone*lastAdv

			adv.Set(t, b, lastAdv)
			ret.Set(t, b, lastAdv+v)
			nextValue = v
		}
	}

	return Estimate{Advantage: adv, Return: ret}, nil
}

// DiscountReturn computes the discounted return of every timestep of s,
// bootstrapping with the bootstrap value at the end of the buffer if
// present. Returns do not cross episode boundaries.
func DiscountReturn(s *samplers.Samples, discount float64) (*mat.Dense,
	error) {
	if err := checkShape(s.BatchSpec, s.Env.Reward, s.Env.Done); err != nil {
		return nil, fmt.Errorf("discountReturn: %w", err)
	}

	T, B := s.BatchSpec.T, s.BatchSpec.B
	ret := mat.NewDense(T, B, nil)
	for b := 0; b < B; b++ {
		next := 0.0
		if s.Agent.BootstrapValue != nil {
			next = s.Agent.BootstrapValue.Index(0).At(b)
		}
		for t := T - 1; t >= 0; t-- {
			i := t*B + b
			next = s.Env.Reward.At(i) + discount*next*(1-s.Env.Done.At(i))
			ret.Set(t, b, next)
		}
	}
	return ret, nil
}

// Normalize standardizes m in place to mean 0 and standard deviation 1
func Normalize(m *mat.Dense) {
	data := m.RawMatrix().Data
	mean := stat.Mean(data, nil)
	std := stat.StdDev(data, nil) + 1e-8

	floats.AddConst(-mean, data)
	floats.Scale(1/std, data)
}

func checkShape(spec samplers.BatchSpec, arrays ...*array.Array) error {
	for _, a := range arrays {
		if a.Size() != spec.Size() {
			return fmt.Errorf("illegal buffer shape \n\twant(%v)\n\thave(%v)",
				[]int{spec.T, spec.B}, a.Shape())
		}
	}
	return nil
}
