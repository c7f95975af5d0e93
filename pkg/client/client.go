// Package client implements the status-synchronization protocol for
// distributed test runs: a generic, kind-parameterized record client over a
// versioned object store, and the test-specific status client built on top
// of it. Concurrency correctness is delegated to the store's per-record
// optimistic concurrency; the client introduces no locks of its own and
// never retries internally, so every error kind surfaces to the caller.
package client

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/testsys-project/testsys/pkg/patch"
	"github.com/testsys-project/testsys/pkg/store"
)

// Object is a record document that knows its own name.
type Object interface {
	GetName() string
}

// Client is a uniform get/create/patch protocol over a single record kind.
// T is the record's document type and S its status sub-document, which is
// what InitializeStatus writes in its zero value.
type Client[T Object, S any] struct {
	kind  string
	store store.Store
}

func New[T Object, S any](kind string, s store.Store) *Client[T, S] {
	return &Client[T, S]{kind: kind, store: s}
}

func (c *Client[T, S]) Kind() string {
	return c.kind
}

// Get fetches the current value of the named record.
func (c *Client[T, S]) Get(ctx context.Context, name string) (T, error) {
	var obj T
	record, err := c.store.Get(ctx, c.kind, name)
	if err != nil {
		return obj, err
	}
	return c.decode(record)
}

// Create persists a new record and returns its stored value.
func (c *Client[T, S]) Create(ctx context.Context, obj T) (T, error) {
	var out T
	data, err := json.Marshal(obj)
	if err != nil {
		return out, errors.Wrapf(err, "failed to encode %s %q", c.kind, obj.GetName())
	}

	record, err := c.store.Create(ctx, store.Record{
		Kind:   c.kind,
		Name:   obj.GetName(),
		Object: data,
	})
	if err != nil {
		return out, err
	}
	return c.decode(record)
}

// Patch applies the operations to the full record, spec or status, and
// returns the updated value. The reason is a human-readable label attached
// to the request for auditability.
func (c *Client[T, S]) Patch(ctx context.Context, name string, ops patch.Patch, reason string) (T, error) {
	return c.patch(ctx, name, ops, store.UpdateCondition{}, reason)
}

// PatchStatus is identical to Patch but scoped to the status sub-tree only,
// preventing accidental mutation of the specification through status-update
// call sites.
func (c *Client[T, S]) PatchStatus(ctx context.Context, name string, ops patch.Patch, reason string) (T, error) {
	for _, op := range ops {
		if !patch.IsStatusPath(op.Path) {
			var obj T
			return obj, NewErrNotStatusOperation(c.kind, name, op.Path)
		}
	}
	return c.patch(ctx, name, ops, store.UpdateCondition{}, reason)
}

// InitializeStatus sets the record's status sub-document to its zero value.
// It is the protocol's idempotency guard: a second initializer must not
// silently reset in-flight results, so if the status is already present the
// call fails with ErrStatusAlreadyInitialized. The write itself is guarded
// by the revision observed during the presence check, so a concurrent
// initializer that slips between read and write loses with a revision
// conflict rather than clobbering.
func (c *Client[T, S]) InitializeStatus(ctx context.Context, name string) (T, error) {
	var obj T
	record, err := c.store.Get(ctx, c.kind, name)
	if err != nil {
		return obj, err
	}

	var probe struct {
		Status json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(record.Object, &probe); err != nil {
		return obj, errors.Wrapf(err, "failed to decode %s %q", c.kind, name)
	}
	if len(probe.Status) > 0 && string(probe.Status) != "null" {
		return obj, NewErrStatusAlreadyInitialized(c.kind, name)
	}

	var zero S
	return c.patch(ctx, name,
		patch.Patch{patch.NewAddOperation(patch.StatusPath, zero)},
		store.UpdateCondition{ExpectedRevision: record.Revision},
		"initialize status",
	)
}

func (c *Client[T, S]) patch(
	ctx context.Context, name string, ops patch.Patch, condition store.UpdateCondition, reason string,
) (T, error) {
	var obj T
	record, err := c.store.Patch(ctx, store.PatchRequest{
		Kind:      c.kind,
		Name:      name,
		Ops:       ops,
		Condition: condition,
		Reason:    reason,
	})
	if err != nil {
		return obj, err
	}
	return c.decode(record)
}

func (c *Client[T, S]) decode(record store.Record) (T, error) {
	var obj T
	if err := json.Unmarshal(record.Object, &obj); err != nil {
		return obj, errors.Wrapf(err, "failed to decode %s %q", c.kind, record.Name)
	}
	return obj, nil
}
