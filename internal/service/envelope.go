package service

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"admingate/internal/adminapi"
	"admingate/internal/decode"
	"admingate/internal/models"
	"admingate/internal/normalize"
	"admingate/internal/observability"
)

var approvalPaths = []string{"approvalRequest", "request", "data.approvalRequest", "data.request"}

var resultPaths = []string{"executionResult", "data", "result"}

// InterpretAction turns a moderation action response into an ActionResponse.
//
// 202 means queued and 200 means executed. Any other status is ambiguous and
// falls back to the presence of an approval record or the
// APPROVAL_REQUEST_SUBMITTED code. When a definite status disagrees with those
// signals the status wins and the mismatch is logged.
func InterpretAction(ctx context.Context, status int, payload any) (*models.ActionResponse, error) {
	obj, _ := decode.Object(payload)

	approvalRaw, hasApproval := decode.First(obj, approvalPaths...)
	if hasApproval {
		if _, ok := decode.Object(approvalRaw); !ok {
			hasApproval = false
		}
	}
	code := decode.StringPtr(obj["code"])
	if code != nil {
		upper := strings.ToUpper(*code)
		code = &upper
	}
	codeQueued := code != nil && *code == models.CodeApprovalRequestSubmitted
	signalled := hasApproval || codeQueued

	var queued bool
	switch status {
	case http.StatusAccepted:
		queued = true
	case http.StatusOK:
		queued = false
		if signalled {
			observability.GlobalLogger.WarnContext(ctx, "action response signals a queued request but status is 200",
				"has_approval_request", hasApproval,
				"code", strings.Join(nonNil(code), ""),
			)
		}
	default:
		queued = signalled
	}

	resp := &models.ActionResponse{Code: code, Raw: payload}
	if msg, ok := decode.String(obj["message"]); ok {
		resp.Message = msg
	}

	if queued {
		if !hasApproval {
			approvalRaw, _ = decode.First(obj, "data")
		}
		req := normalize.ApprovalRequest(approvalRaw)
		if req == nil {
			return nil, adminapi.NewInvalidShapeError("interpret queued action (status "+strconv.Itoa(status)+")", payload)
		}
		resp.StatusCode = http.StatusAccepted
		resp.ApprovalRequest = req
		if resp.Message == "" {
			resp.Message = "Approval request submitted"
		}
		return resp, nil
	}

	resp.StatusCode = http.StatusOK
	if result, ok := decode.First(obj, resultPaths...); ok {
		resp.ExecutionResult = result
	} else if payload != nil {
		resp.ExecutionResult = payload
	} else {
		resp.ExecutionResult = map[string]any{}
	}
	if resp.Message == "" {
		resp.Message = "Action executed"
	}
	return resp, nil
}

func nonNil(s *string) []string {
	if s == nil {
		return nil
	}
	return []string{*s}
}

// runAction executes a moderation action and interprets its envelope.
func runAction(ctx context.Context, exec Executor, action models.ApprovalActionType, req adminapi.Request) (*models.ActionResponse, error) {
	resp, err := exec.Execute(ctx, req)
	if err != nil {
		observability.ActionOutcomes.WithLabelValues(string(action), "failed").Inc()
		return nil, err
	}
	out, err := InterpretAction(ctx, resp.Status, resp.Payload)
	if err != nil {
		observability.ActionOutcomes.WithLabelValues(string(action), "failed").Inc()
		return nil, err
	}

	outcome := "executed"
	if out.Queued() {
		outcome = "queued"
	}
	observability.ActionOutcomes.WithLabelValues(string(action), outcome).Inc()
	observability.GlobalLogger.InfoContext(ctx, "moderation action completed",
		"action", action,
		"outcome", outcome,
		"path", req.Path,
	)
	return out, nil
}
