package changerequest_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utilibill/portal-sdk/modules/changerequest"
	"github.com/utilibill/portal-sdk/pkg/serrors"
)

func TestBuildChanges_ReplacedField(t *testing.T) {
	original := []byte(`{"name":"Acme Vending","commission":"0.04"}`)
	edited := []byte(`{"name":"Acme Vending","commission":"0.05"}`)

	changes, err := changerequest.BuildChanges(original, edited)
	require.NoError(t, err)
	require.Equal(t, []changerequest.Change{{Path: "/commission", Value: "0.05"}}, changes)
}

func TestBuildChanges_AddedAndRemovedFields(t *testing.T) {
	original := []byte(`{"name":"Acme Vending","contactPhone":"+2348000000"}`)
	edited := []byte(`{"name":"Acme Vending","contactEmail":"ops@acme.test"}`)

	changes, err := changerequest.BuildChanges(original, edited)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	byPath := map[string]string{}
	for _, c := range changes {
		byPath[c.Path] = c.Value
	}
	require.Equal(t, "ops@acme.test", byPath["/contactEmail"])
	require.Equal(t, "", byPath["/contactPhone"])
}

func TestBuildChanges_NonStringValueIsStringified(t *testing.T) {
	original := []byte(`{"areaOfficeId":7}`)
	edited := []byte(`{"areaOfficeId":12}`)

	changes, err := changerequest.BuildChanges(original, edited)
	require.NoError(t, err)
	require.Equal(t, []changerequest.Change{{Path: "/areaOfficeId", Value: "12"}}, changes)
}

func TestBuildChanges_IdenticalDocuments(t *testing.T) {
	doc := []byte(`{"name":"Acme Vending"}`)
	_, err := changerequest.BuildChanges(doc, doc)
	require.Error(t, err)
	require.Equal(t, "PORTAL_NO_CHANGES", serrors.CodeOf(err))
}

func TestPreviewPatch_AppliesWithoutMutatingSource(t *testing.T) {
	entity := []byte(`{"name":"Acme Vending","commission":"0.04"}`)
	patch := json.RawMessage(`[{"op":"replace","path":"/commission","value":"0.05"}]`)

	preview, err := changerequest.PreviewPatch(entity, patch)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(preview, &got))
	require.Equal(t, "0.05", got["commission"])
	require.Equal(t, `{"name":"Acme Vending","commission":"0.04"}`, string(entity))
}

func TestPreviewPatch_EmptyDocument(t *testing.T) {
	_, err := changerequest.PreviewPatch([]byte(`{}`), nil)
	require.Error(t, err)
}

func TestPreviewPatch_MalformedDocument(t *testing.T) {
	_, err := changerequest.PreviewPatch([]byte(`{}`), json.RawMessage(`{"not":"a patch"}`))
	require.Error(t, err)
}
