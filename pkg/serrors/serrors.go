package serrors

import "fmt"

// Error is a coded error suitable for surfacing to API consumers and logs.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func NewFieldRequiredError(field string) *Error {
	return &Error{
		Code:    "FIELD_REQUIRED",
		Message: fmt.Sprintf("%s is required", field),
		Field:   field,
	}
}

// CodeOf returns the code of err if it is a coded error, "" otherwise.
func CodeOf(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
