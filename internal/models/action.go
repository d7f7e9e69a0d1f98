package models

import "net/http"

// CodeApprovalRequestSubmitted marks a response whose action was queued for review.
const CodeApprovalRequestSubmitted = "APPROVAL_REQUEST_SUBMITTED"

// ActionResponse is the uniform result of every moderation action call.
// Exactly one of ApprovalRequest and ExecutionResult is populated.
type ActionResponse struct {
	StatusCode      int              `json:"statusCode" yaml:"statusCode"`
	Message         string           `json:"message" yaml:"message"`
	Code            *string          `json:"code" yaml:"code"`
	ApprovalRequest *ApprovalRequest `json:"approvalRequest,omitempty" yaml:"approvalRequest,omitempty"`
	ExecutionResult any              `json:"executionResult,omitempty" yaml:"executionResult,omitempty"`

	Raw any `json:"-" yaml:"-"`
}

// Queued reports whether the action became a pending approval request.
func (r ActionResponse) Queued() bool {
	return r.StatusCode == http.StatusAccepted
}
