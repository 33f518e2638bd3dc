package portaltest

import (
	"encoding/json"
	"net/http"

	"github.com/utilibill/portal-sdk/pkg/store"
)

type envelope struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message"`
	Data      any    `json:"data"`

	TotalCount  *int  `json:"totalCount,omitempty"`
	TotalPages  *int  `json:"totalPages,omitempty"`
	CurrentPage *int  `json:"currentPage,omitempty"`
	PageSize    *int  `json:"pageSize,omitempty"`
	HasNext     *bool `json:"hasNext,omitempty"`
	HasPrevious *bool `json:"hasPrevious,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{IsSuccess: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{IsSuccess: false, Message: message, Data: nil})
}

func writePage(w http.ResponseWriter, message string, data any, meta store.PageMeta) {
	writeJSON(w, http.StatusOK, envelope{
		IsSuccess:   true,
		Message:     message,
		Data:        data,
		TotalCount:  &meta.TotalCount,
		TotalPages:  &meta.TotalPages,
		CurrentPage: &meta.CurrentPage,
		PageSize:    &meta.PageSize,
		HasNext:     &meta.HasNext,
		HasPrevious: &meta.HasPrevious,
	})
}

// paginate slices items into one page and computes the pagination fields the
// portal envelopes carry.
func paginate[T any](items []T, pageNumber, pageSize int) ([]T, store.PageMeta) {
	if pageNumber <= 0 {
		pageNumber = 1
	}
	if pageSize <= 0 {
		pageSize = 25
	}

	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	meta := store.PageMeta{
		TotalCount:  total,
		TotalPages:  totalPages,
		CurrentPage: pageNumber,
		PageSize:    pageSize,
		HasNext:     pageNumber < totalPages,
		HasPrevious: pageNumber > 1 && total > 0,
	}

	start := (pageNumber - 1) * pageSize
	if start >= total {
		return []T{}, meta
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	page := make([]T, end-start)
	copy(page, items[start:end])
	return page, meta
}
