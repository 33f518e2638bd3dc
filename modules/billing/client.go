package billing

import (
	"context"
	"fmt"
	"net/http"

	"github.com/utilibill/portal-sdk/pkg/portalhttp"
	"github.com/utilibill/portal-sdk/pkg/serrors"
	"github.com/utilibill/portal-sdk/pkg/store"
)

// Client issues postpaid billing API calls.
type Client struct {
	api *portalhttp.Client
}

func NewClient(api *portalhttp.Client) *Client {
	return &Client{api: api}
}

// CreateJob requests a new billing run. The returned job is queued with all
// counts at zero; progress is observed by re-fetching.
func (c *Client) CreateJob(ctx context.Context, params CreateJobParams) (*BillingJob, string, error) {
	if err := validate.Struct(params); err != nil {
		return nil, "", serrors.NewFieldRequiredError("period")
	}
	return portalhttp.Call[*BillingJob](ctx, c.api, "create billing job", http.MethodPost, "/billing-jobs", nil, params)
}

func (c *Client) ListJobs(ctx context.Context, q ListQuery) ([]BillingJob, store.PageMeta, string, error) {
	return portalhttp.CallPaged[BillingJob](ctx, c.api, "fetch billing jobs", http.MethodGet, "/billing-jobs", q.values(), nil)
}

func (c *Client) GetJob(ctx context.Context, id int64) (*BillingJob, string, error) {
	path := fmt.Sprintf("/billing-jobs/%d", id)
	return portalhttp.Call[*BillingJob](ctx, c.api, "fetch billing job", http.MethodGet, path, nil, nil)
}

// FinalizePeriod finalizes every eligible drafted bill for the period. The
// server answers with a status string only; there are no rollback semantics.
func (c *Client) FinalizePeriod(ctx context.Context, params FinalizeParams) (string, error) {
	if err := validate.Struct(params); err != nil {
		return "", serrors.NewFieldRequiredError("period")
	}
	status, msg, err := portalhttp.Call[string](ctx, c.api, "finalize period", http.MethodPost, "/finalize", nil, params)
	if err != nil {
		return "", err
	}
	if status == "" {
		status = msg
	}
	return status, nil
}

// FinalizeAreaOffice finalizes one area office's drafted bills and returns
// the finalized bill list.
func (c *Client) FinalizeAreaOffice(ctx context.Context, areaOfficeID int64, params FinalizeParams) ([]PostpaidBill, string, error) {
	if err := validate.Struct(params); err != nil {
		return nil, "", serrors.NewFieldRequiredError("period")
	}
	path := fmt.Sprintf("/finalize/area-office/%d", areaOfficeID)
	bills, msg, err := portalhttp.Call[[]PostpaidBill](ctx, c.api, "finalize area office", http.MethodPost, path, nil, params)
	if err != nil {
		return nil, "", err
	}
	return bills, msg, nil
}

func (c *Client) ListBills(ctx context.Context, q ListQuery) ([]PostpaidBill, store.PageMeta, string, error) {
	return portalhttp.CallPaged[PostpaidBill](ctx, c.api, "fetch bills", http.MethodGet, "/bills", q.values(), nil)
}

func (c *Client) GetBill(ctx context.Context, id int64) (*PostpaidBill, string, error) {
	path := fmt.Sprintf("/bills/%d", id)
	return portalhttp.Call[*PostpaidBill](ctx, c.api, "fetch bill", http.MethodGet, path, nil, nil)
}

// CreateManualBill creates one bill directly; the server validates the
// consumption and returns the computed record.
func (c *Client) CreateManualBill(ctx context.Context, params CreateManualBillParams) (*PostpaidBill, string, error) {
	if err := validate.Struct(params); err != nil {
		return nil, "", serrors.NewError("PORTAL_INVALID_INPUT", err.Error())
	}
	return portalhttp.Call[*PostpaidBill](ctx, c.api, "create manual bill", http.MethodPost, "/bills", nil, params)
}

// CreateMeterReading records a reading; anomaly flags come back computed.
func (c *Client) CreateMeterReading(ctx context.Context, params CreateMeterReadingParams) (*MeterReading, string, error) {
	if err := validate.Struct(params); err != nil {
		return nil, "", serrors.NewError("PORTAL_INVALID_INPUT", err.Error())
	}
	return portalhttp.Call[*MeterReading](ctx, c.api, "create meter reading", http.MethodPost, "/meter-readings", nil, params)
}
