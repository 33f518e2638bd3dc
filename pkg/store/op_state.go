package store

// OpState tracks the lifecycle of one asynchronous operation. Callers read
// these flags instead of catching errors; nothing is thrown past the store
// boundary.
type OpState struct {
	Loading bool
	Success bool
	Error   string
	Message string
}

// Begin marks the operation in flight and clears the previous outcome.
func (s *OpState) Begin() {
	s.Loading = true
	s.Success = false
	s.Error = ""
	s.Message = ""
}

func (s *OpState) Succeed(message string) {
	s.Loading = false
	s.Success = true
	s.Error = ""
	s.Message = message
}

func (s *OpState) Fail(errMsg string) {
	s.Loading = false
	s.Success = false
	s.Error = errMsg
	s.Message = ""
}

func (s *OpState) Reset() {
	*s = OpState{}
}

// PageMeta mirrors the pagination fields of the portal's list envelopes.
type PageMeta struct {
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// ListState is one in-flight list per concern: items, pagination and the
// operation quartet. A second fetch while one is pending races; the last
// response to reduce wins.
type ListState[T any] struct {
	Items []T
	Page  PageMeta
	Op    OpState
}

// SetItems commits a successful page fetch.
func (l *ListState[T]) SetItems(items []T, page PageMeta, message string) {
	if items == nil {
		items = []T{}
	}
	l.Items = items
	l.Page = page
	l.Op.Succeed(message)
}

// FailAndClear records a failed fetch. The previous items are replaced with
// an empty slice so views render empty rather than stale.
func (l *ListState[T]) FailAndClear(errMsg string) {
	l.Items = []T{}
	l.Page = PageMeta{}
	l.Op.Fail(errMsg)
}
