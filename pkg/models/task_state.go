package models

import "strings"

// TaskState is the agent-reported lifecycle stage of a test.
type TaskState int

// these are the states an agent can report for a single test
const (
	TaskStateUnknown TaskState = iota // must be first

	// The agent is running the test.
	TaskStateRunning

	// The test finished successfully and results have been delivered.
	TaskStateCompleted

	// The test failed and a diagnostic error has been delivered.
	TaskStateError
)

// IsTerminal returns true if the given task state signals the end of the
// lifecycle of the test and that no change in the state can be expected.
// Terminality is a convention between callers; the protocol itself accepts
// later writes.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateCompleted || s == TaskStateError
}

// IsUndefined returns true if the task state has not been reported yet.
func (s TaskState) IsUndefined() bool {
	return s == TaskStateUnknown
}

func (s TaskState) String() string {
	switch s {
	case TaskStateRunning:
		return "running"
	case TaskStateCompleted:
		return "completed"
	case TaskStateError:
		return "error"
	}
	return "unknown"
}

func (s TaskState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalYAML keeps yaml output aligned with the json text form.
func (s TaskState) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func (s *TaskState) UnmarshalText(text []byte) (err error) {
	name := string(text)
	for typ := TaskStateUnknown; typ <= TaskStateError; typ++ {
		if strings.EqualFold(typ.String(), name) {
			*s = typ
			return
		}
	}
	return
}
