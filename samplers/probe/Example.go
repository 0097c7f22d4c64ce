package probe

import (
	"fmt"
	"sort"

	"github.com/samuelfneumann/rlsampler/array"
	"github.com/samuelfneumann/rlsampler/utils/tensorutils"
	"gorgonia.org/tensor"
)

// Example is a single output of one step of agent-environment
// interaction. Examples are only used as templates for the shape and
// element type of buffers.
type Example struct {
	Shape  []int       `json:"shape"`
	DType  array.DType `json:"dtype"`
	Values []float64   `json:"values"`
}

// FromTensor returns an Example holding a copy of t
func FromTensor(t tensor.Tensor) (Example, error) {
	if t == nil {
		return Example{}, fmt.Errorf("fromTensor: nil tensor")
	}

	dtype, err := array.FromTensor(t.Dtype())
	if err != nil {
		return Example{}, fmt.Errorf("fromTensor: %w", err)
	}
	values, err := tensorutils.Float64s(t)
	if err != nil {
		return Example{}, fmt.Errorf("fromTensor: %w", err)
	}

	return Example{
		Shape:  append([]int{}, t.Shape()...),
		DType:  dtype,
		Values: values,
	}, nil
}

// Scalar returns a zero dimensional Example
func Scalar(dtype array.DType, v float64) Example {
	return Example{Shape: []int{}, DType: dtype, Values: []float64{v}}
}

// Index returns the sub-example at index i of the leading dimension
func (e Example) Index(i int) (Example, error) {
	if len(e.Shape) == 0 {
		return Example{}, fmt.Errorf("index: cannot index a scalar example")
	}
	if i < 0 || i >= e.Shape[0] {
		return Example{}, fmt.Errorf("index: index %v out of range [0, %v)",
			i, e.Shape[0])
	}

	stride := array.Size(e.Shape[1:])
	values := make([]float64, stride)
	copy(values, e.Values[i*stride:(i+1)*stride])
	return Example{
		Shape:  append([]int{}, e.Shape[1:]...),
		DType:  e.DType,
		Values: values,
	}, nil
}

// Array returns the example as an Array allocated on the Go heap
func (e Example) Array() (*array.Array, error) {
	a := array.Zeros(e.DType, e.Shape...)
	if err := a.SetFloat64s(e.Values); err != nil {
		return nil, fmt.Errorf("array: %w", err)
	}
	return a, nil
}

func (e Example) String() string {
	return fmt.Sprintf("%v%v", e.DType, e.Shape)
}

// Examples holds one example of every field of a sample buffer
type Examples struct {
	PrevObservation Example            `json:"prev_observation"`
	Observation     Example            `json:"observation"`
	Reward          Example            `json:"reward"`
	RewardInt       Example            `json:"reward_int"`
	Done            Example            `json:"done"`
	Action          Example            `json:"action"`
	AgentInfo       map[string]Example `json:"agent_info"`
	EnvInfo         map[string]Example `json:"env_info"`
}

// Field names used as keys of Shapes
const (
	PrevObservationField = "prev_observation"
	ObservationField     = "observation"
	RewardField          = "reward"
	RewardIntField       = "reward_int"
	DoneField            = "done"
	ActionField          = "action"
	AgentInfoField       = "agent_info"
	EnvInfoField         = "env_info"
)

// Fields returns every example keyed by field name. Info examples are
// keyed as "agent_info.<key>" and "env_info.<key>".
func (e Examples) Fields() map[string]Example {
	fields := map[string]Example{
		PrevObservationField: e.PrevObservation,
		ObservationField:     e.Observation,
		RewardField:          e.Reward,
		RewardIntField:       e.RewardInt,
		DoneField:            e.Done,
		ActionField:          e.Action,
	}
	for k, v := range e.AgentInfo {
		fields[AgentInfoField+"."+k] = v
	}
	for k, v := range e.EnvInfo {
		fields[EnvInfoField+"."+k] = v
	}
	return fields
}

// Shapes returns the shape of every field keyed as in Fields
func (e Examples) Shapes() map[string][]int {
	shapes := make(map[string][]int)
	for k, v := range e.Fields() {
		shapes[k] = append([]int{}, v.Shape...)
	}
	return shapes
}

// fillShapes replaces nil shapes, which gob produces for scalars, with
// empty ones
func (e *Examples) fillShapes() {
	for _, ex := range []*Example{&e.PrevObservation, &e.Observation,
		&e.Reward, &e.RewardInt, &e.Done, &e.Action} {
		if ex.Shape == nil {
			ex.Shape = []int{}
		}
	}
	for _, info := range []map[string]Example{e.AgentInfo, e.EnvInfo} {
		for k, ex := range info {
			if ex.Shape == nil {
				ex.Shape = []int{}
				info[k] = ex
			}
		}
	}
}

// Keys returns the keys of Fields in sorted order
func (e Examples) Keys() []string {
	fields := e.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
