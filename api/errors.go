package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrorDelimiter separates the status code from the message in the legacy
// "<code>||<message>" error strings produced by some backing stores.
const ErrorDelimiter = "||"

// Error is the response body for failed requests. It also implements error so
// a handler can return one directly with the status code already decided.
type Error struct {
	IsSuccess bool   `json:"is_success"`
	Code      int32  `json:"code"`
	Message   string `json:"message"`
	// FieldErrors contains a structured representation of any validation
	// errors.
	FieldErrors []FieldError `json:"field_errors,omitempty"`
}

func (e Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %v", e.Code, strings.ToLower(http.StatusText(int(e.Code))))
	}
	return e.Message
}

type FieldError struct {
	FieldName string   `json:"field_name"`
	Errors    []string `json:"errors"`
}

// NewError builds an Error with an explicit status code.
func NewError(code int32, message string) Error {
	return Error{Code: code, Message: message}
}

// ErrorFromDelimited classifies a legacy delimited error string into an Error.
// "404||Not Found" becomes code 404 with message "Not Found". A string without
// a delimiter or with a non-numeric code becomes a 500 carrying the whole
// string as the message. Classification is idempotent: reclassifying the
// string form of the result yields the same code and message.
func ErrorFromDelimited(s string) Error {
	before, after, found := strings.Cut(s, ErrorDelimiter)
	if !found {
		return Error{Code: http.StatusInternalServerError, Message: s}
	}

	code, err := strconv.Atoi(strings.TrimSpace(before))
	if err != nil {
		return Error{Code: http.StatusInternalServerError, Message: s}
	}
	return Error{Code: int32(code), Message: after}
}
