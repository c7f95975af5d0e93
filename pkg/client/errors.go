package client

import "fmt"

// ErrStatusAlreadyInitialized is returned when initialize is called on a
// record whose status sub-document is already present. Callers may treat it
// as non-fatal: it means another initializer got there first.
type ErrStatusAlreadyInitialized struct {
	Kind string
	Name string
}

func NewErrStatusAlreadyInitialized(kind string, name string) ErrStatusAlreadyInitialized {
	return ErrStatusAlreadyInitialized{Kind: kind, Name: name}
}

func (e ErrStatusAlreadyInitialized) Error() string {
	return fmt.Sprintf("%s %s already has an initialized status", e.Kind, e.Name)
}

// ErrNotStatusOperation is returned when a status patch carries an
// operation whose path lies outside the status sub-tree.
type ErrNotStatusOperation struct {
	Kind string
	Name string
	Path string
}

func NewErrNotStatusOperation(kind string, name string, path string) ErrNotStatusOperation {
	return ErrNotStatusOperation{Kind: kind, Name: name, Path: path}
}

func (e ErrNotStatusOperation) Error() string {
	return fmt.Sprintf("status patch for %s %s targets %q outside the status sub-tree", e.Kind, e.Name, e.Path)
}
