package changerequest

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	jsondiff "github.com/wI2L/jsondiff"

	"github.com/utilibill/portal-sdk/pkg/serrors"
)

// BuildChanges diffs an original entity document against an edited one and
// returns the flat change list submitted with a change request. Removed
// fields are sent with an empty value; the server decides their semantics.
func BuildChanges(original, edited []byte) ([]Change, error) {
	patch, err := jsondiff.CompareJSON(original, edited)
	if err != nil {
		return nil, fmt.Errorf("diff documents: %w", err)
	}

	changes := make([]Change, 0, len(patch))
	for _, op := range patch {
		change := Change{Path: op.Path}
		switch op.Type {
		case jsondiff.OperationReplace, jsondiff.OperationAdd:
			change.Value = stringifyValue(op.Value)
		case jsondiff.OperationRemove:
			change.Value = ""
		default:
			continue
		}
		changes = append(changes, change)
	}
	if len(changes) == 0 {
		return nil, serrors.NewError("PORTAL_NO_CHANGES", "documents are identical")
	}
	return changes, nil
}

func stringifyValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// PreviewPatch applies a change request's patch document to a cached entity
// copy so the proposed state can be rendered without a server round trip.
// The cached copy is never mutated.
func PreviewPatch(entity []byte, patchDocument json.RawMessage) ([]byte, error) {
	if len(patchDocument) == 0 {
		return nil, serrors.NewFieldRequiredError("patchDocument")
	}
	patch, err := jsonpatch.DecodePatch(patchDocument)
	if err != nil {
		return nil, fmt.Errorf("decode patch document: %w", err)
	}
	preview, err := patch.Apply(entity)
	if err != nil {
		return nil, fmt.Errorf("apply patch document: %w", err)
	}
	return preview, nil
}
