package store

import (
	"errors"
	"fmt"
)

// ErrStoreClosed is returned for any operation against a closed store.
var ErrStoreClosed = errors.New("store is closed")

// ErrRecordNotFound is returned when the record is not found
type ErrRecordNotFound struct {
	Kind string
	Name string
}

func NewErrRecordNotFound(kind string, name string) ErrRecordNotFound {
	return ErrRecordNotFound{Kind: kind, Name: name}
}

func (e ErrRecordNotFound) Error() string {
	return e.Kind + " not found: " + e.Name
}

// ErrRecordAlreadyExists is returned when a record with the same kind and
// name already exists
type ErrRecordAlreadyExists struct {
	Kind string
	Name string
}

func NewErrRecordAlreadyExists(kind string, name string) ErrRecordAlreadyExists {
	return ErrRecordAlreadyExists{Kind: kind, Name: name}
}

func (e ErrRecordAlreadyExists) Error() string {
	return e.Kind + " already exists: " + e.Name
}

// ErrInvalidRecordRevision is returned when a conditional write finds the
// record at a different revision than the writer expected. It is transient:
// the caller may re-read and reissue the patch.
type ErrInvalidRecordRevision struct {
	Name     string
	Actual   uint64
	Expected uint64
}

func NewErrInvalidRecordRevision(name string, actual uint64, expected uint64) ErrInvalidRecordRevision {
	return ErrInvalidRecordRevision{Name: name, Actual: actual, Expected: expected}
}

func (e ErrInvalidRecordRevision) Error() string {
	return fmt.Sprintf("record %s has revision %d but expected %d", e.Name, e.Actual, e.Expected)
}

// ErrPathNotFound is returned when a replace or remove operation targets a
// field that does not exist in the record's document.
type ErrPathNotFound struct {
	Name string
	Path string
}

func NewErrPathNotFound(name string, path string) ErrPathNotFound {
	return ErrPathNotFound{Name: name, Path: path}
}

func (e ErrPathNotFound) Error() string {
	return fmt.Sprintf("record %s has no field at %q", e.Name, e.Path)
}

// ErrInvalidPatch is returned when a patch document cannot be applied for a
// reason other than a missing path, such as a malformed operation.
type ErrInvalidPatch struct {
	Name string
	Err  error
}

func NewErrInvalidPatch(name string, err error) ErrInvalidPatch {
	return ErrInvalidPatch{Name: name, Err: err}
}

func (e ErrInvalidPatch) Error() string {
	return fmt.Sprintf("invalid patch for record %s: %s", e.Name, e.Err)
}

func (e ErrInvalidPatch) Unwrap() error {
	return e.Err
}
