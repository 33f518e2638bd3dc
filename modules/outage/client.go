package outage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/utilibill/portal-sdk/pkg/portalhttp"
	"github.com/utilibill/portal-sdk/pkg/serrors"
	"github.com/utilibill/portal-sdk/pkg/store"
)

var validate = validator.New()

// ReportParams reports a new outage.
type ReportParams struct {
	AreaOfficeID int64  `json:"areaOfficeId" validate:"required"`
	Feeder       string `json:"feeder" validate:"required"`
	Cause        string `json:"cause,omitempty"`
}

type ListQuery struct {
	PageNumber   int
	PageSize     int
	Status       string
	AreaOfficeID int64
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	page := q.PageNumber
	if page <= 0 {
		page = 1
	}
	v.Set("PageNumber", strconv.Itoa(page))
	if q.PageSize > 0 {
		v.Set("PageSize", strconv.Itoa(q.PageSize))
	}
	if q.Status != "" {
		v.Set("Status", q.Status)
	}
	if q.AreaOfficeID > 0 {
		v.Set("AreaOfficeId", strconv.FormatInt(q.AreaOfficeID, 10))
	}
	return v
}

type Client struct {
	api *portalhttp.Client
}

func NewClient(api *portalhttp.Client) *Client {
	return &Client{api: api}
}

func (c *Client) List(ctx context.Context, q ListQuery) ([]Outage, store.PageMeta, string, error) {
	return portalhttp.CallPaged[Outage](ctx, c.api, "fetch outages", http.MethodGet, "/outages", q.values(), nil)
}

func (c *Client) Get(ctx context.Context, id int64) (*Outage, string, error) {
	path := fmt.Sprintf("/outages/%d", id)
	return portalhttp.Call[*Outage](ctx, c.api, "fetch outage", http.MethodGet, path, nil, nil)
}

func (c *Client) Report(ctx context.Context, params ReportParams) (*Outage, string, error) {
	if err := validate.Struct(params); err != nil {
		return nil, "", serrors.NewError("PORTAL_INVALID_INPUT", err.Error())
	}
	return portalhttp.Call[*Outage](ctx, c.api, "report outage", http.MethodPost, "/outages", nil, params)
}
