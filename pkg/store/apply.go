package store

import (
	"errors"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/testsys-project/testsys/pkg/patch"
)

// ApplyPatch applies the operations to the record's document and returns the
// new document. Operations are applied in order against an in-memory copy,
// so a failure part way through leaves the stored document untouched; the
// caller commits the returned bytes only on success.
//
// Add operations create missing intermediate containers. Replace and remove
// operations against a missing field fail with ErrPathNotFound.
func ApplyPatch(record Record, ops patch.Patch) ([]byte, error) {
	options := jsonpatch.NewApplyOptions()
	options.EnsurePathExistsOnAdd = true

	doc := record.Object
	for _, op := range ops {
		opsDoc, err := patch.Patch{op}.Marshal()
		if err != nil {
			return nil, NewErrInvalidPatch(record.Name, err)
		}
		decoded, err := jsonpatch.DecodePatch(opsDoc)
		if err != nil {
			return nil, NewErrInvalidPatch(record.Name, err)
		}
		doc, err = decoded.ApplyWithOptions(doc, options)
		if err != nil {
			if errors.Is(err, jsonpatch.ErrMissing) {
				return nil, NewErrPathNotFound(record.Name, op.Path)
			}
			return nil, NewErrInvalidPatch(record.Name, err)
		}
	}
	return doc, nil
}
