package tableutils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Field string `csv:"Field"`
	Shape string `csv:"Shape"`
}

func TestMarshalAndPrintTable(t *testing.T) {
	var buf bytes.Buffer
	err := MarshalAndPrintTable(&buf, []row{
		{Field: "observation", Shape: "[4]"},
		{Field: "agent_info.prev_rnn_state", Shape: "[2,3]"},
	})
	require.NoError(t, err)

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, strings.Join(strings.Fields(line), " "))
		}
	}
	assert.Equal(t, []string{
		"Field Shape",
		"observation [4]",
		"agent_info.prev_rnn_state [2,3]",
	}, lines)
}
