package service

import (
	"context"
	"net/http"
	"testing"

	"admingate/internal/adminapi"
	"admingate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListApprovalRequests(t *testing.T) {
	stub := respondWith(http.StatusOK, map[string]any{
		"approvalRequests": []any{
			map[string]any{"id": "ar1", "actionType": "USER_BAN", "status": "PENDING"},
			map[string]any{"actionType": "USER_BAN"},
			map[string]any{"id": "ar2", "actionType": "USER_STATUS_CHANGE", "status": "APPROVED", "reviewedByUserId": "m1"},
		},
		"pagination": map[string]any{"page": 1, "limit": 2, "total": 3},
	})
	svc := NewApprovalService(stub)

	page, err := svc.ListApprovalRequests(context.Background(), ApprovalFilter{Status: "pending", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "ar1", page.Rows[0].ID)
	assert.Equal(t, 3, page.PageInfo.Total)
	assert.Equal(t, 2, page.PageInfo.TotalPages)

	call := stub.lastCall(t)
	assert.Equal(t, "/admin/approval-requests", call.Path)
	assert.Equal(t, "PENDING", call.Query.Get("status"))
	assert.Equal(t, "2", call.Query.Get("limit"))
}

func TestGetApprovalRequest(t *testing.T) {
	stub := respondWith(http.StatusOK, map[string]any{
		"data": map[string]any{"id": "ar1", "actionType": "USER_RESTRICTION_UPSERT", "status": "PENDING"},
	})
	svc := NewApprovalService(stub)

	got, err := svc.GetApprovalRequest(context.Background(), "ar1")
	require.NoError(t, err)
	assert.Equal(t, models.ActionUserRestrictionUpsert, got.ActionType)

	call := stub.lastCall(t)
	assert.Equal(t, "approval-request:ar1:fp1", call.DedupKey)
}

func TestGetApprovalRequestInvalidShape(t *testing.T) {
	svc := NewApprovalService(respondWith(http.StatusOK, map[string]any{"data": map[string]any{"status": "PENDING"}}))

	_, err := svc.GetApprovalRequest(context.Background(), "ar1")
	assert.True(t, adminapi.IsInvalidShape(err))
}

func TestDecideApprovalRequest(t *testing.T) {
	decided := map[string]any{
		"approvalRequest": map[string]any{
			"id": "ar1", "actionType": "USER_BAN", "status": "APPROVED",
			"reviewedByUserId": "m1", "decidedAt": "2026-03-01T12:00:00Z",
		},
		"executionResult": map[string]any{"id": "b1"},
	}

	tests := []struct {
		name      string
		in        DecisionInput
		wantBody  map[string]any
		wantError bool
	}{
		{
			name: "approve with auto-approve hint",
			in:   DecisionInput{Decision: "approve", DecisionNote: "ok", EnableAutoApproveForFuture: true},
			wantBody: map[string]any{
				"decision":                   models.DecisionApprove,
				"decisionNote":               "ok",
				"enableAutoApproveForFuture": true,
			},
		},
		{
			name:     "reject drops auto-approve hint",
			in:       DecisionInput{Decision: models.DecisionReject, EnableAutoApproveForFuture: true},
			wantBody: map[string]any{"decision": models.DecisionReject},
		},
		{
			name:      "unknown decision",
			in:        DecisionInput{Decision: "MAYBE"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := respondWith(http.StatusOK, decided)
			svc := NewApprovalService(stub)

			got, err := svc.DecideApprovalRequest(context.Background(), "ar1", tt.in)
			if tt.wantError {
				assertValidationError(t, err)
				assert.Empty(t, stub.recorded())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.ApprovalStatusApproved, got.Request.Status)
			assert.Equal(t, map[string]any{"id": "b1"}, got.ExecutionResult)

			call := stub.lastCall(t)
			assert.Equal(t, http.MethodPatch, call.Method)
			assert.Equal(t, "/admin/approval-requests/ar1/decision", call.Path)
			assert.Equal(t, tt.wantBody, bodyOf(t, call))
		})
	}
}

func TestCancelApprovalRequest(t *testing.T) {
	stub := respondWith(http.StatusOK, map[string]any{
		"id": "ar1", "actionType": "USER_BAN", "status": "CANCELLED", "updatedAt": "2026-03-01T12:00:00Z",
	})
	svc := NewApprovalService(stub)

	got, err := svc.CancelApprovalRequest(context.Background(), "ar1", "")
	require.NoError(t, err)
	assert.True(t, got.IsTerminal())
	assert.NotNil(t, got.DecidedAt)

	call := stub.lastCall(t)
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/admin/approval-requests/ar1/cancel", call.Path)
}
