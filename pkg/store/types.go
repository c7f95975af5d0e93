package store

import (
	"context"
	"encoding/json"

	"github.com/testsys-project/testsys/pkg/patch"
)

// Record is the versioned envelope persisted by a Store. Object holds the
// record's JSON document; Revision is the opaque version token, incremented
// by the store exactly once per successful write and checked atomically
// against any update condition.
type Record struct {
	Kind     string          `json:"kind"`
	Name     string          `json:"name"`
	Revision uint64          `json:"revision"`
	Object   json.RawMessage `json:"object"`

	// CreateTime is the time the record was created, in unix nanoseconds.
	CreateTime int64 `json:"create_time"`
	// ModifyTime is the time the record was last written, in unix nanoseconds.
	ModifyTime int64 `json:"modify_time"`
}

// Copy returns a copy of the record whose document does not alias the
// original's backing array.
func (r Record) Copy() Record {
	nr := r
	nr.Object = append(json.RawMessage(nil), r.Object...)
	return nr
}

// A Store is a key-addressed, versioned record store: the control plane that
// the status-synchronization protocol reads and partially updates. Records
// are addressed by kind and name, and every write advances the record's
// revision, which is what lets concurrent writers detect stale updates.
type Store interface {
	// Get returns the record with the given kind and name, or an
	// ErrRecordNotFound if it does not exist.
	Get(ctx context.Context, kind string, name string) (Record, error)

	// List returns all records of the given kind, ordered by name.
	List(ctx context.Context, kind string) ([]Record, error)

	// Create persists a new record and returns it with its initial
	// revision. It fails with ErrRecordAlreadyExists when the kind and name
	// are already taken.
	Create(ctx context.Context, record Record) (Record, error)

	// Patch applies the request's operations to the named record as one
	// atomic unit: either every operation succeeds against the current
	// document and the revision advances once, or none are applied. The
	// request's condition is validated against the current record before
	// anything is written.
	Patch(ctx context.Context, request PatchRequest) (Record, error)

	// Delete removes all trace of the named record from the store.
	Delete(ctx context.Context, kind string, name string) error

	// Watch returns a channel from which the caller can read record events
	// as they happen. The events parameter is a bitmask of the event types
	// of interest; kind filters to a single record kind, with the empty
	// string meaning all kinds. The watcher is unregistered and its channel
	// closed when ctx is cancelled. Events are delivered best-effort: a
	// watcher that is not keeping up misses events rather than blocking
	// writers.
	Watch(ctx context.Context, kind string, events StoreEventType) chan WatchEvent

	// Close provides an interface to cleanup any resources in use when the
	// store is no longer required.
	Close(ctx context.Context) error
}

// PatchRequest asks a store to apply a sequence of field-path operations to
// one record.
type PatchRequest struct {
	Kind string
	Name string
	Ops  patch.Patch

	// Condition guards the write; a mismatch leaves the record untouched.
	Condition UpdateCondition

	// Reason is a human-readable label attached for auditability. It is
	// logged by the store and has no effect on semantics.
	Reason string
}

// UpdateCondition is the store's optimistic-concurrency guard for a patch.
type UpdateCondition struct {
	// ExpectedRevision, when non-zero, requires the record to still be at
	// that revision for the patch to apply.
	ExpectedRevision uint64
}

// Validate checks if the condition matches the given record
func (condition UpdateCondition) Validate(record Record) error {
	if condition.ExpectedRevision != 0 && condition.ExpectedRevision != record.Revision {
		return NewErrInvalidRecordRevision(record.Name, record.Revision, condition.ExpectedRevision)
	}
	return nil
}
