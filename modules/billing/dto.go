package billing

import (
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// CreateJobParams requests a new billing-generation run. AreaOfficeID zero
// means the run covers every area office.
type CreateJobParams struct {
	Period       string `json:"period" validate:"required,len=7"`
	AreaOfficeID int64  `json:"areaOfficeId,omitempty"`
}

// FinalizeParams locks drafted bills for a period into their final state.
type FinalizeParams struct {
	Period string `json:"period" validate:"required,len=7"`
}

// CreateManualBillParams creates one bill outside a batch run. The server
// computes charges and anomaly fields.
type CreateManualBillParams struct {
	CustomerID     int64           `json:"customerId" validate:"required"`
	Period         string          `json:"period" validate:"required,len=7"`
	ConsumptionKwh decimal.Decimal `json:"consumptionKwh"`
	Comment        string          `json:"comment,omitempty"`
}

// CreateMeterReadingParams records a consumption capture.
type CreateMeterReadingParams struct {
	CustomerID  int64           `json:"customerId" validate:"required"`
	MeterNumber string          `json:"meterNumber" validate:"required"`
	Period      string          `json:"period" validate:"required,len=7"`
	ReadingKwh  decimal.Decimal `json:"readingKwh"`
}

// ListQuery selects a page of bills or jobs.
type ListQuery struct {
	PageNumber   int
	PageSize     int
	Period       string
	AreaOfficeID int64
	Status       string
	CustomerID   int64
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
	if q.Period != "" {
		v.Set("Period", q.Period)
	}
	if q.AreaOfficeID > 0 {
		v.Set("AreaOfficeId", strconv.FormatInt(q.AreaOfficeID, 10))
	}
	if q.Status != "" {
		v.Set("Status", q.Status)
	}
	if q.CustomerID > 0 {
		v.Set("CustomerId", strconv.FormatInt(q.CustomerID, 10))
	}
	return v
}
