package portalhttp

import (
	"encoding/json"

	"github.com/utilibill/portal-sdk/pkg/serrors"
	"github.com/utilibill/portal-sdk/pkg/store"
)

// Envelope is the uniform response wrapper of the portal API. List responses
// additionally carry pagination fields. IsSuccess is a pointer so a payload
// missing the field entirely fails validation instead of reading as false.
type Envelope struct {
	IsSuccess *bool           `json:"isSuccess"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`

	TotalCount  *int `json:"totalCount,omitempty"`
	TotalPages  *int `json:"totalPages,omitempty"`
	CurrentPage *int `json:"currentPage,omitempty"`
	PageSize    *int `json:"pageSize,omitempty"`
	HasNext     bool `json:"hasNext,omitempty"`
	HasPrevious bool `json:"hasPrevious,omitempty"`
}

// Validate checks the envelope shape at the API boundary so malformed server
// payloads fail loudly instead of propagating zero values.
func (e *Envelope) Validate() error {
	if e.IsSuccess == nil {
		return serrors.NewError(CodeBadEnvelope, "response envelope is missing isSuccess")
	}
	return nil
}

// Succeeded reports the server's logical verdict. An HTTP 200 with
// isSuccess=false is still a failure.
func (e *Envelope) Succeeded() bool {
	return e.IsSuccess != nil && *e.IsSuccess
}

// PageMeta extracts pagination fields; absent fields read as zero values.
func (e *Envelope) PageMeta() store.PageMeta {
	meta := store.PageMeta{HasNext: e.HasNext, HasPrevious: e.HasPrevious}
	if e.TotalCount != nil {
		meta.TotalCount = *e.TotalCount
	}
	if e.TotalPages != nil {
		meta.TotalPages = *e.TotalPages
	}
	if e.CurrentPage != nil {
		meta.CurrentPage = *e.CurrentPage
	}
	if e.PageSize != nil {
		meta.PageSize = *e.PageSize
	}
	return meta
}
