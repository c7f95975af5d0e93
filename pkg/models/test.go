package models

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/maps"
)

// KindTest is the record kind under which tests are stored.
const KindTest = "test"

// Test is the unit of synchronization: a declared intent (Spec) plus the
// observed state (Status) of one distributed test run. The name is the
// record's immutable key, assigned at creation. Status is nil until a
// controller initializes it, and is mutated exclusively through patches
// afterwards.
type Test struct {
	// Name is the unique name of the test.
	Name string `json:"name" yaml:"name"`

	// Spec is the declared intent of the test.
	Spec TestSpec `json:"spec" yaml:"spec"`

	// Status is the observed state of the test. It is absent until
	// initialized.
	Status *TestStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

func (t *Test) GetName() string {
	return t.Name
}

// AgentStatus returns the agent-owned portion of the status, substituting
// the default when the status sub-document is wholly absent. Callers must
// not treat "no status yet" as an error condition.
func (t *Test) AgentStatus() AgentStatus {
	if t.Status == nil {
		return AgentStatus{}
	}
	return t.Status.Agent
}

func (t *Test) Normalize() {
	if t == nil {
		return
	}
	t.Spec.Agent.Normalize()
}

func (t *Test) Validate() error {
	if t == nil {
		return errors.New("nil test")
	}
	var mErr *multierror.Error
	if t.Name == "" {
		mErr = multierror.Append(mErr, errors.New("missing test name"))
	}
	mErr = multierror.Append(mErr, t.Spec.Agent.Validate())
	return mErr.ErrorOrNil()
}

// Copy returns a deep copy of the test.
func (t *Test) Copy() *Test {
	if t == nil {
		return nil
	}
	nt := new(Test)
	*nt = *t
	nt.Spec.Agent.Configuration = maps.Clone(t.Spec.Agent.Configuration)
	nt.Status = t.Status.Copy()
	return nt
}

// TestSpec is the declared intent of a test: which agent to run and how.
type TestSpec struct {
	// Agent defines the executing agent for this test.
	Agent Agent `json:"agent" yaml:"agent"`
}

// Agent describes the process that executes a test and reports its state.
type Agent struct {
	// Name of the agent.
	Name string `json:"name" yaml:"name"`

	// Image is the container image URI of the agent.
	Image string `json:"image" yaml:"image"`

	// Configuration is the agent's opaque configuration payload.
	Configuration map[string]interface{} `json:"configuration,omitempty" yaml:"configuration,omitempty"`

	// KeepRunning tells the agent to stay alive after the test finishes so
	// that its environment can be inspected. It is set at creation time and
	// is always present in the document, which is what allows it to be
	// updated with a replace patch.
	KeepRunning bool `json:"keep_running" yaml:"keep_running"`

	// TimeoutSeconds is the maximum time the agent may spend running the
	// test before reporting an error.
	TimeoutSeconds *int64 `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

func (a *Agent) Normalize() {
	// Ensure that an empty and nil map are treated the same
	if a.Configuration == nil {
		a.Configuration = make(map[string]interface{})
	}
}

func (a *Agent) Validate() error {
	var mErr *multierror.Error
	if a.Name == "" {
		mErr = multierror.Append(mErr, errors.New("missing agent name"))
	}
	if a.Image == "" {
		mErr = multierror.Append(mErr, errors.New("missing agent image"))
	}
	if a.TimeoutSeconds != nil && *a.TimeoutSeconds <= 0 {
		mErr = multierror.Append(mErr,
			fmt.Errorf("agent timeout must be positive, got %d", *a.TimeoutSeconds))
	}
	return mErr.ErrorOrNil()
}

// TestStatus is a composite of two independently-owned sub-documents. A
// writer only ever adds or replaces fields within the sub-document it owns.
type TestStatus struct {
	// Agent holds the fields owned by the executing agent.
	Agent AgentStatus `json:"agent" yaml:"agent"`

	// Controller holds the fields owned by the orchestrating controller.
	Controller ControllerStatus `json:"controller" yaml:"controller"`
}

func (s *TestStatus) Copy() *TestStatus {
	if s == nil {
		return nil
	}
	ns := new(TestStatus)
	*ns = *s
	if s.Agent.Results != nil {
		results := *s.Agent.Results
		ns.Agent.Results = &results
	}
	return ns
}

// AgentStatus is the agent-owned portion of a test's status.
type AgentStatus struct {
	// TaskState is the current lifecycle stage of the test.
	TaskState TaskState `json:"task_state" yaml:"task_state"`

	// Results is the final outcome payload, present only once the test has
	// completed. It lands in the same patch as the Completed state so a
	// reader never observes one without the other.
	Results *TestResults `json:"results,omitempty" yaml:"results,omitempty"`

	// Error is a diagnostic message, set only on failure.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ControllerStatus is the controller-owned portion of a test's status.
type ControllerStatus struct {
	// ResourceError reports failures unrelated to the agent's own test
	// logic, such as environment provisioning failures.
	ResourceError string `json:"resource_error,omitempty" yaml:"resource_error,omitempty"`
}

// TestResults is the final outcome of a completed test.
type TestResults struct {
	Outcome    string `json:"outcome" yaml:"outcome"`
	NumPassed  uint64 `json:"num_passed" yaml:"num_passed"`
	NumFailed  uint64 `json:"num_failed" yaml:"num_failed"`
	NumSkipped uint64 `json:"num_skipped" yaml:"num_skipped"`
	OtherInfo  string `json:"other_info,omitempty" yaml:"other_info,omitempty"`
}
