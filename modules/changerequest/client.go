package changerequest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/utilibill/portal-sdk/pkg/portalhttp"
	"github.com/utilibill/portal-sdk/pkg/serrors"
	"github.com/utilibill/portal-sdk/pkg/store"
)

// Client issues change-request API calls. All state handling lives in Store;
// the client is stateless beyond the underlying HTTP client.
type Client struct {
	api *portalhttp.Client
}

func NewClient(api *portalhttp.Client) *Client {
	return &Client{api: api}
}

// Submit proposes a patch against an entity. There is no optimistic local
// creation; the returned record comes entirely from the server, which may
// signal auto-approval.
func (c *Client) Submit(ctx context.Context, entityType EntityType, entityID int64, params SubmitParams) (*ChangeRequest, string, error) {
	if err := params.validateInput(); err != nil {
		return nil, "", serrors.NewFieldRequiredError("changes")
	}
	path := fmt.Sprintf("%s/%d/change-requests", entityType.CollectionPath(), entityID)
	cr, msg, err := portalhttp.Call[*ChangeRequest](ctx, c.api, "submit change request", http.MethodPost, path, nil, params)
	if err != nil {
		return nil, "", err
	}
	return cr, msg, nil
}

// List fetches one page of change requests across all entities.
func (c *Client) List(ctx context.Context, q ListQuery) ([]ChangeRequest, store.PageMeta, string, error) {
	return portalhttp.CallPaged[ChangeRequest](ctx, c.api, "fetch change requests", http.MethodGet, "/change-requests", q.values(), nil)
}

// ListForEntity fetches one page of change requests scoped to an entity.
func (c *Client) ListForEntity(ctx context.Context, entityType EntityType, entityID int64, q ListQuery) ([]ChangeRequest, store.PageMeta, string, error) {
	path := fmt.Sprintf("%s/%d/change-requests", entityType.CollectionPath(), entityID)
	return portalhttp.CallPaged[ChangeRequest](ctx, c.api, "fetch change requests", http.MethodGet, path, q.values(), nil)
}

// Get fetches one change request by public ID or reference.
func (c *Client) Get(ctx context.Context, identifier string) (*ChangeRequest, string, error) {
	if identifier == "" {
		return nil, "", serrors.NewFieldRequiredError("identifier")
	}
	return portalhttp.Call[*ChangeRequest](ctx, c.api, "fetch change request", http.MethodGet, "/change-requests/"+identifier, nil, nil)
}

// Approve resolves a pending request. Notes are optional; the resolved record
// in the response is the only source of the approval fields.
func (c *Client) Approve(ctx context.Context, publicID, notes string) (*ChangeRequest, string, error) {
	if publicID == "" {
		return nil, "", serrors.NewFieldRequiredError("publicId")
	}
	path := "/change-requests/" + publicID + "/approve"
	return portalhttp.Call[*ChangeRequest](ctx, c.api, "approve change request", http.MethodPost, path, nil, approveBody{Notes: notes})
}

// Decline resolves a pending request with a mandatory reason.
func (c *Client) Decline(ctx context.Context, publicID, reason string) (*ChangeRequest, string, error) {
	if publicID == "" {
		return nil, "", serrors.NewFieldRequiredError("publicId")
	}
	body := declineBody{Reason: reason}
	if err := validate.Struct(body); err != nil {
		return nil, "", serrors.NewFieldRequiredError("reason")
	}
	path := "/change-requests/" + publicID + "/decline"
	return portalhttp.Call[*ChangeRequest](ctx, c.api, "decline change request", http.MethodPost, path, nil, body)
}
