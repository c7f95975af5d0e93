//go:build unit || !integration

package patch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilders(t *testing.T) {
	add := NewAddOperation("/status/agent/task_state", "running")
	require.Equal(t, OpAdd, add.Op)
	require.Equal(t, "/status/agent/task_state", add.Path)
	require.Equal(t, "running", add.Value)

	replace := NewReplaceOperation("/spec/agent/keep_running", false)
	require.Equal(t, OpReplace, replace.Op)
	require.Equal(t, false, replace.Value)

	remove := NewRemoveOperation("/status/controller/resource_error")
	require.Equal(t, OpRemove, remove.Op)
	require.Nil(t, remove.Value)
}

func TestMarshal(t *testing.T) {
	p := Patch{
		NewAddOperation("/status/agent/task_state", "completed"),
		NewRemoveOperation("/status/agent/error"),
	}
	data, err := p.Marshal()
	require.NoError(t, err)
	require.JSONEq(t,
		`[{"op":"add","path":"/status/agent/task_state","value":"completed"},
		  {"op":"remove","path":"/status/agent/error"}]`,
		string(data))
}

func TestIsStatusOnly(t *testing.T) {
	require.True(t, Patch{
		NewAddOperation("/status", map[string]interface{}{}),
	}.IsStatusOnly())
	require.True(t, Patch{
		NewAddOperation("/status/agent/task_state", "running"),
		NewAddOperation("/status/agent/results", nil),
	}.IsStatusOnly())

	require.False(t, Patch{
		NewReplaceOperation("/spec/agent/keep_running", true),
	}.IsStatusOnly())

	// a path that merely shares the prefix is not inside the subtree
	require.False(t, Patch{
		NewAddOperation("/status_extra", 1),
	}.IsStatusOnly())
}
