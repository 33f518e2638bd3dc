package changerequest

import (
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Change is one proposed field mutation. Path identifies a mutable field on
// the target entity; the server validates it.
type Change struct {
	Path  string `json:"path" validate:"required"`
	Value string `json:"value"`
}

// SubmitParams is the body of a change-request submission. Preconditions are
// optional optimistic-concurrency checks keyed by path; the server rejects
// the submission when an expected value is stale.
type SubmitParams struct {
	Changes       []Change          `json:"changes" validate:"required,min=1,dive"`
	Comment       string            `json:"comment"`
	Dispute       string            `json:"dispute,omitempty"`
	Preconditions map[string]string `json:"preconditions,omitempty"`
}

func (p SubmitParams) validateInput() error {
	return validate.Struct(p)
}

type approveBody struct {
	Notes string `json:"notes,omitempty"`
}

type declineBody struct {
	Reason string `json:"reason" validate:"required"`
}

// ListQuery selects a page of change requests. Zero-valued filters are
// omitted from the request.
type ListQuery struct {
	PageNumber int
	PageSize   int
	Status     *Status
	Source     *Source
	Reference  string
	PublicID   string
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
	if q.Status != nil {
		v.Set("Status", strconv.Itoa(int(*q.Status)))
	}
	if q.Source != nil {
		v.Set("Source", strconv.Itoa(int(*q.Source)))
	}
	if q.Reference != "" {
		v.Set("Reference", q.Reference)
	}
	if q.PublicID != "" {
		v.Set("PublicId", q.PublicID)
	}
	return v
}
