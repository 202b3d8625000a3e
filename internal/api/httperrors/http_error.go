// Package httperrors defines the JSON error payload returned by the API.
package httperrors

import "fmt"

// HTTPErrorTypeGeneric marks errors without a more specific public type.
const HTTPErrorTypeGeneric = "generic"

// HTTPError is the public error shape. It implements error so handlers can
// return it directly; the echo error handler serializes it.
type HTTPError struct {
	Code   int    `json:"status"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// NewHTTPError creates a public HTTP error with the given status and title.
func NewHTTPError(code int, errType, title string) *HTTPError {
	return &HTTPError{Code: code, Type: errType, Title: title}
}

// WithDetail attaches a caller-facing detail string.
func (e *HTTPError) WithDetail(detail string) *HTTPError {
	e.Detail = detail
	return e
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
}
