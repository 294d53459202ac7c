package wiki

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRawContinue is returned when a caller asks for the legacy
	// rawcontinue mode, which the continuation engine does not support.
	ErrRawContinue = errors.New("rawcontinue is not implemented for query continuation")

	// ErrClientClosed is returned by operations on a closed Client
	ErrClientClosed = errors.New("wiki client is closed")

	// ErrNoCredentials is returned when login is needed but no credentials
	// are configured for the wiki
	ErrNoCredentials = errors.New("no credentials configured")
)

// ErrorDetail is one entry of the "errors" list of an API response
// (errorformat=plaintext).
type ErrorDetail struct {
	Code   string         `json:"code"`
	Module string         `json:"module"`
	Text   string         `json:"text"`
	Data   map[string]any `json:"data,omitempty"`
}

// APIError carries every error the server reported for a request that no
// recovery handler could resolve.
type APIError struct {
	Errors []ErrorDetail
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return "mediawiki API error"
	}
	var sb strings.Builder
	for i, d := range e.Errors {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fmt.Sprintf("[%s] %s", d.Code, d.Text))
		if d.Module != "" {
			sb.WriteString(fmt.Sprintf(" (module: %s)", d.Module))
		}
	}
	return "mediawiki API error: " + sb.String()
}

// HasCode reports whether any of the server errors has the given code
func (e *APIError) HasCode(code string) bool {
	for _, d := range e.Errors {
		if d.Code == code {
			return true
		}
	}
	return false
}

// LoginError reports an unexpected result of action=login. Response is
// the full decoded response body.
type LoginError struct {
	Result   string
	Response map[string]any
}

func (e *LoginError) Error() string {
	body, err := json.MarshalIndent(e.Response, "", "  ")
	if err != nil {
		return fmt.Sprintf("login failed: %s", e.Result)
	}
	return fmt.Sprintf("login failed: %s\n%s", e.Result, body)
}

// TooManyValuesError is the toomanyvalues server error: more values were
// supplied for a multi-value parameter than the server accepts.
type TooManyValuesError struct {
	Detail ErrorDetail
	// Param is the offending parameter name
	Param string
	// Limit is the server-declared maximum number of values
	Limit int
}

func (e *TooManyValuesError) Error() string {
	return fmt.Sprintf("too many values for parameter %q (limit %d): %s", e.Param, e.Limit, e.Detail.Text)
}

// newTooManyValuesError extracts the parameter name from the first quoted
// substring of the error text and the limit from its data.
func newTooManyValuesError(d ErrorDetail) *TooManyValuesError {
	e := &TooManyValuesError{Detail: d}
	if start := strings.IndexByte(d.Text, '"'); start >= 0 {
		rest := d.Text[start+1:]
		if end := strings.IndexByte(rest, '"'); end >= 0 {
			e.Param = rest[:end]
		}
	}
	e.Limit = getInt(d.Data["limit"])
	return e
}

// ProtocolError is a broken response-shape invariant (a list round without
// batchcomplete, a meta query with continuation). It is never retried.
type ProtocolError struct {
	Reason   string
	Response map[string]any
}

func (e *ProtocolError) Error() string {
	return "mediawiki protocol violation: " + e.Reason
}
