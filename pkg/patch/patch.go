// Package patch builds ordered sequences of RFC 6902 field-path operations
// from domain-level intents. The builder distinguishes add, which upserts and
// tolerates a missing parent, from replace, which requires the target field
// to already exist. A store applies a whole Patch as one atomic unit.
package patch

import (
	"encoding/json"
	"strings"
)

type OpType string

const (
	OpAdd     OpType = "add"
	OpReplace OpType = "replace"
	OpRemove  OpType = "remove"
)

// StatusPath is the document path under which all status operations must
// live. PatchStatus call sites are scoped to this subtree.
const StatusPath = "/status"

// Operation is a single field-path operation within a patch.
type Operation struct {
	Op    OpType      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// NewAddOperation upserts value at path, creating intermediate containers
// when they are absent. It succeeds even if path did not previously exist.
func NewAddOperation(path string, value interface{}) Operation {
	return Operation{Op: OpAdd, Path: path, Value: value}
}

// NewReplaceOperation sets value at path, requiring that path currently
// resolves to an existing field. Callers use it only for fields whose
// presence is already guaranteed by protocol invariants.
func NewReplaceOperation(path string, value interface{}) Operation {
	return Operation{Op: OpReplace, Path: path, Value: value}
}

// NewRemoveOperation deletes the field at path.
func NewRemoveOperation(path string) Operation {
	return Operation{Op: OpRemove, Path: path}
}

// Patch is an ordered sequence of operations applied atomically: either
// every operation succeeds against the current record state and the version
// advances once, or none are applied.
type Patch []Operation

// Marshal renders the patch as an RFC 6902 JSON document.
func (p Patch) Marshal() ([]byte, error) {
	return json.Marshal([]Operation(p))
}

// IsStatusOnly reports whether every operation in the patch targets the
// status subtree.
func (p Patch) IsStatusOnly() bool {
	for _, op := range p {
		if !IsStatusPath(op.Path) {
			return false
		}
	}
	return true
}

// IsStatusPath reports whether the path is the status sub-document or a
// field inside it.
func IsStatusPath(path string) bool {
	return path == StatusPath || strings.HasPrefix(path, StatusPath+"/")
}
