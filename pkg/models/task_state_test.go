//go:build unit || !integration

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskStateTerminality(t *testing.T) {
	require.False(t, TaskStateUnknown.IsTerminal())
	require.False(t, TaskStateRunning.IsTerminal())
	require.True(t, TaskStateCompleted.IsTerminal())
	require.True(t, TaskStateError.IsTerminal())

	require.True(t, TaskStateUnknown.IsUndefined())
	require.False(t, TaskStateRunning.IsUndefined())
}

func TestTaskStateText(t *testing.T) {
	data, err := json.Marshal(TaskStateRunning)
	require.NoError(t, err)
	require.Equal(t, `"running"`, string(data))

	var state TaskState
	require.NoError(t, json.Unmarshal([]byte(`"Completed"`), &state))
	require.Equal(t, TaskStateCompleted, state)

	// unrecognized names leave the state unchanged rather than failing
	state = TaskStateRunning
	require.NoError(t, state.UnmarshalText([]byte("bogus")))
	require.Equal(t, TaskStateRunning, state)
}

func TestTaskStateZeroValueIsUnknown(t *testing.T) {
	var status AgentStatus
	data, err := json.Marshal(status)
	require.NoError(t, err)
	require.JSONEq(t, `{"task_state":"unknown"}`, string(data))
}
