package service

import (
	"context"
	"net/http"
	"strings"

	"admingate/internal/adminapi"
	"admingate/internal/decode"
	"admingate/internal/models"
	"admingate/internal/normalize"
)

// ApprovalService reads and decides queued moderation actions.
type ApprovalService struct {
	exec Executor
}

func NewApprovalService(exec Executor) *ApprovalService {
	return &ApprovalService{exec: exec}
}

// ApprovalFilter narrows the approval request list.
type ApprovalFilter struct {
	Status       models.ApprovalStatus
	ActionType   models.ApprovalActionType
	TargetUserID string
	Page         int
	Limit        int
}

func (f ApprovalFilter) query() ListQuery {
	filters := map[string]string{}
	if f.Status != "" {
		filters["status"] = strings.ToUpper(string(f.Status))
	}
	if f.ActionType != "" {
		filters["actionType"] = strings.ToUpper(string(f.ActionType))
	}
	if f.TargetUserID != "" {
		filters["targetUserId"] = f.TargetUserID
	}
	return ListQuery{Page: f.Page, Limit: f.Limit, Filters: filters}
}

func (s *ApprovalService) ListApprovalRequests(ctx context.Context, filter ApprovalFilter) (models.Page[models.ApprovalRequest], error) {
	resp, err := s.exec.Execute(ctx, adminapi.Request{
		Method: http.MethodGet,
		Path:   "/admin/approval-requests",
		Route:  "/admin/approval-requests",
		Query:  filter.query().values(),
	})
	if err != nil {
		return models.Page[models.ApprovalRequest]{}, err
	}
	return normalize.Page(resp.Payload, pageLimit(filter.Limit), normalize.ApprovalRequest, "approvalRequests", "requests"), nil
}

// GetApprovalRequest loads one request. A body without an identifiable
// request is an invalid-shape error.
func (s *ApprovalService) GetApprovalRequest(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	if err := requireID("approval request", id); err != nil {
		return nil, err
	}
	resp, err := s.exec.Execute(ctx, adminapi.Request{
		Method:   http.MethodGet,
		Path:     "/admin/approval-requests/" + escape(id),
		Route:    "/admin/approval-requests/:id",
		DedupKey: adminapi.DedupKey("approval-request", id, s.exec.Fingerprint()),
	})
	if err != nil {
		return nil, err
	}
	return approvalFromEnvelope("get approval request", resp.Payload)
}

// DecisionInput is a reviewer verdict.
type DecisionInput struct {
	Decision                   models.Decision
	DecisionNote               string
	EnableAutoApproveForFuture bool
}

// DecisionResult is the decided request and, for approvals, the result of
// replaying the queued action.
type DecisionResult struct {
	Request         *models.ApprovalRequest `json:"request" yaml:"request"`
	ExecutionResult any                     `json:"executionResult,omitempty" yaml:"executionResult,omitempty"`
}

// DecideApprovalRequest approves or rejects a pending request. The
// auto-approve hint is only sent with APPROVE.
func (s *ApprovalService) DecideApprovalRequest(ctx context.Context, id string, in DecisionInput) (*DecisionResult, error) {
	if err := requireID("approval request", id); err != nil {
		return nil, err
	}
	decision, ok := parseEnum(string(in.Decision), models.DecisionApprove, models.DecisionReject)
	if !ok {
		return nil, models.NewValidationError("decision must be APPROVE or REJECT")
	}

	body := map[string]any{"decision": decision}
	if note := strings.TrimSpace(in.DecisionNote); note != "" {
		body["decisionNote"] = note
	}
	if decision == models.DecisionApprove && in.EnableAutoApproveForFuture {
		body["enableAutoApproveForFuture"] = true
	}

	resp, err := s.exec.Execute(ctx, adminapi.Request{
		Method: http.MethodPatch,
		Path:   "/admin/approval-requests/" + escape(id) + "/decision",
		Route:  "/admin/approval-requests/:id/decision",
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	req, err := approvalFromEnvelope("decide approval request", resp.Payload)
	if err != nil {
		return nil, err
	}
	result := &DecisionResult{Request: req}
	if exec, ok := decode.First(resp.Payload, "executionResult", "data.executionResult"); ok {
		result.ExecutionResult = exec
	}
	return result, nil
}

// CancelApprovalRequest withdraws a pending request.
func (s *ApprovalService) CancelApprovalRequest(ctx context.Context, id, note string) (*models.ApprovalRequest, error) {
	if err := requireID("approval request", id); err != nil {
		return nil, err
	}
	body := map[string]any{}
	if note = strings.TrimSpace(note); note != "" {
		body["note"] = note
	}
	resp, err := s.exec.Execute(ctx, adminapi.Request{
		Method: http.MethodPost,
		Path:   "/admin/approval-requests/" + escape(id) + "/cancel",
		Route:  "/admin/approval-requests/:id/cancel",
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	return approvalFromEnvelope("cancel approval request", resp.Payload)
}

func approvalFromEnvelope(op string, payload any) (*models.ApprovalRequest, error) {
	raw, ok := decode.First(payload, "approvalRequest", "request", "data.approvalRequest", "data")
	if !ok {
		raw = payload
	}
	req := normalize.ApprovalRequest(raw)
	if req == nil {
		return nil, adminapi.NewInvalidShapeError(op, payload)
	}
	return req, nil
}

func pageLimit(limit int) int {
	if limit > 0 {
		return limit
	}
	return normalize.DefaultPageLimit
}
