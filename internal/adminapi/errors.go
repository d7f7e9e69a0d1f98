package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"admingate/internal/decode"
)

// Error codes the console branches on.
const (
	CodeAccountBanned         = "ACCOUNT_BANNED"
	CodeAccountRestricted     = "ACCOUNT_RESTRICTED"
	CodeAccountTerminated     = "ACCOUNT_TERMINATED"
	CodeAdminActionRestricted = "ADMIN_ACTION_RESTRICTED"
	CodeInvalidResponseShape  = "INVALID_RESPONSE_SHAPE"
)

// Error is a failed admin API call. Status is zero when no response arrived.
type Error struct {
	Op      string
	Method  string
	Path    string
	Status  int
	Code    string
	Reason  string
	Message string
	Payload any
	Err     error

	body []byte
}

// own copies e with a freshly decoded payload.
func (e *Error) own() *Error {
	cp := *e
	if e.body != nil {
		cp.Payload = decodeBody(e.body)
	}
	return &cp
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if msg == "" {
		msg = e.Op
	}
	if e.Code != "" {
		msg += " [code=" + e.Code + "]"
	}
	if e.Reason != "" {
		msg += " [reason=" + e.Reason + "]"
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// newStatusError builds the error for a non-2xx response. The body may be
// absent or unparseable; the status alone still classifies the failure.
func newStatusError(method, path string, status int, payload any, rawBody []byte) *Error {
	e := &Error{
		Op:      "unexpected http status",
		Method:  method,
		Path:    path,
		Status:  status,
		Payload: payload,
		body:    rawBody,
	}
	if msg, ok := decode.FirstString(payload, "message", "error.message", "error"); ok {
		e.Message = msg
	}
	if code, ok := decode.FirstString(payload, "code", "error.code", "errorCode"); ok {
		e.Code = code
	}
	if reason, ok := decode.FirstString(payload, "reason", "error.reason"); ok {
		e.Reason = reason
	}
	if e.Message == "" && payload == nil {
		if text := strings.TrimSpace(string(rawBody)); text != "" && len(text) <= 512 {
			e.Message = text
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("request failed with status %d", status)
	}
	return e
}

// NewInvalidShapeError reports a success response whose root record could not be normalized.
func NewInvalidShapeError(op string, payload any) *Error {
	return &Error{
		Op:      op,
		Status:  http.StatusInternalServerError,
		Code:    CodeInvalidResponseShape,
		Message: op + ": response did not contain a valid record",
		Payload: payload,
	}
}

// AsError extracts the classified error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr, true
	}
	return nil, false
}

// ErrorCode returns the trimmed, upper-cased code of err, or "".
func ErrorCode(err error) string {
	apiErr, ok := AsError(err)
	if !ok {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(apiErr.Code))
}

// StatusCode returns the transport status of err, or 0.
func StatusCode(err error) int {
	apiErr, ok := AsError(err)
	if !ok {
		return 0
	}
	return apiErr.Status
}

// IsAccountAccessDenied reports a 403 that ends the session.
func IsAccountAccessDenied(err error) bool {
	if StatusCode(err) != http.StatusForbidden {
		return false
	}
	switch ErrorCode(err) {
	case CodeAccountBanned, CodeAccountRestricted, CodeAccountTerminated:
		return true
	}
	return false
}

// IsAdminActionRestricted reports a 403 caused by an ADMIN_ACTIONS restriction on the caller.
func IsAdminActionRestricted(err error) bool {
	return StatusCode(err) == http.StatusForbidden && ErrorCode(err) == CodeAdminActionRestricted
}

// IsInvalidShape reports an error built by NewInvalidShapeError.
func IsInvalidShape(err error) bool {
	return ErrorCode(err) == CodeInvalidResponseShape
}
