package envconfig

import (
	"encoding/json"
	"testing"

	"github.com/samuelfneumann/rlsampler/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	for _, tc := range []struct {
		name    EnvName
		obsDims int
		actions environment.Space
	}{
		{Cartpole, 4, environment.NewDiscrete(3)},
		{MountainCar, 2, environment.NewDiscrete(3)},
	} {
		e, err := NewConfig(tc.name, 10, 0.99).Create(1)
		require.NoError(t, err, tc.name)

		first, err := e.Reset()
		require.NoError(t, err)
		assert.Equal(t, tc.obsDims, first.Observation.Len())
		assert.Equal(t, tc.actions, e.ActionSpace())
	}

	p, err := NewConfig(Pendulum, 10, 0.99).Create(1)
	require.NoError(t, err)
	_, ok := p.ActionSpace().(environment.Box)
	assert.True(t, ok)
}

func TestValidate(t *testing.T) {
	assert.Error(t, NewConfig("Breakout", 10, 0.99).Validate())
	assert.Error(t, NewConfig(Cartpole, 0, 0.99).Validate())
	assert.Error(t, NewConfig(Cartpole, 10, 1.5).Validate())

	_, err := NewConfig(Cartpole, 0, 0.99).Create(1)
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	c := NewConfig(MountainCar, 200, 1)
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"environment":"MountainCar","episode_cutoff":200,`+
		`"discount":1}`, string(data))

	var back Config
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c, back)
}
