package client

import (
	"context"

	"github.com/testsys-project/testsys/pkg/models"
	"github.com/testsys-project/testsys/pkg/patch"
	"github.com/testsys-project/testsys/pkg/store"
)

// TestClient is the domain client for test records. The controller and the
// agent each write only the fields they own: the controller the spec control
// flags and status.controller, the agent status.agent. Joint transitions
// (state with results, state with error) always travel in a single patch so
// a reader never observes one without the other.
type TestClient struct {
	*Client[*models.Test, models.TestStatus]
}

func NewTestClient(s store.Store) *TestClient {
	return &TestClient{
		Client: New[*models.Test, models.TestStatus](models.KindTest, s),
	}
}

// SendKeepRunning marks whether the test is ok to delete by setting the
// `keep_running` flag. The field is set at creation time, so this is a
// replace.
func (c *TestClient) SendKeepRunning(ctx context.Context, name string, keepRunning bool) (*models.Test, error) {
	return c.Patch(ctx, name,
		patch.Patch{
			patch.NewReplaceOperation("/spec/agent/keep_running", keepRunning),
		},
		"set 'keep running'",
	)
}

// GetAgentStatus returns the test's `status.agent` field, or the default
// agent status when the test has no status yet.
func (c *TestClient) GetAgentStatus(ctx context.Context, name string) (models.AgentStatus, error) {
	test, err := c.Get(ctx, name)
	if err != nil {
		return models.AgentStatus{}, err
	}
	return test.AgentStatus(), nil
}

// SendResourceError reports a failure of the surrounding environment,
// unrelated to the agent's own test logic. It touches only
// controller-owned status fields.
func (c *TestClient) SendResourceError(ctx context.Context, name string, resourceError string) (*models.Test, error) {
	return c.PatchStatus(ctx, name,
		patch.Patch{
			patch.NewAddOperation("/status/controller/resource_error", resourceError),
		},
		"send resource error",
	)
}

// SendAgentTaskState reports a non-terminal state transition, such as
// Running. Reporting Running again is valid and serves as a heartbeat.
func (c *TestClient) SendAgentTaskState(ctx context.Context, name string, taskState models.TaskState) (*models.Test, error) {
	return c.PatchStatus(ctx, name,
		patch.Patch{
			patch.NewAddOperation("/status/agent/task_state", taskState),
		},
		"send agent task state",
	)
}

// SendTestCompleted reports a successful finish, landing the Completed state
// and the results in one atomic patch.
func (c *TestClient) SendTestCompleted(ctx context.Context, name string, results models.TestResults) (*models.Test, error) {
	return c.PatchStatus(ctx, name,
		patch.Patch{
			patch.NewAddOperation("/status/agent/task_state", models.TaskStateCompleted),
			patch.NewAddOperation("/status/agent/results", results),
		},
		"send test completion results",
	)
}

// SendAgentError reports a failed finish, landing the Error state and the
// diagnostic message in one atomic patch.
func (c *TestClient) SendAgentError(ctx context.Context, name string, agentError string) (*models.Test, error) {
	return c.PatchStatus(ctx, name,
		patch.Patch{
			patch.NewAddOperation("/status/agent/task_state", models.TaskStateError),
			patch.NewAddOperation("/status/agent/error", agentError),
		},
		"send agent error",
	)
}
