package normalize

import (
	"testing"

	"admingate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalRequest_PendingClearsDecisionFields(t *testing.T) {
	a := ApprovalRequest(map[string]any{
		"id":               "ap1",
		"actionType":       "USER_BAN",
		"status":           "pending",
		"decidedAt":        "2024-05-01T00:00:00Z",
		"reviewedByUserId": "admin-9",
		"decisionNote":     "ok",
		"reason":           "spam",
		"targetUser":       map[string]any{"id": "u1", "email": "u1@example.com"},
		"requestPayload":   map[string]any{"days": 3},
	})
	require.NotNil(t, a)
	assert.Equal(t, models.ApprovalStatusPending, a.Status)
	assert.Equal(t, models.ActionUserBan, a.ActionType)
	assert.Nil(t, a.DecidedAt)
	assert.Nil(t, a.ReviewedByUserID)
	assert.Nil(t, a.DecisionNote)
	require.NotNil(t, a.RequestReason)
	assert.Equal(t, "spam", *a.RequestReason)
	require.NotNil(t, a.TargetUserID)
	assert.Equal(t, "u1", *a.TargetUserID)
	assert.Equal(t, map[string]any{"days": 3}, a.RequestPayload)
	assert.False(t, a.IsTerminal())
}

func TestApprovalRequest_TerminalFallbacks(t *testing.T) {
	a := ApprovalRequest(map[string]any{
		"id":             "ap1",
		"status":         "APPROVED",
		"updatedAt":      "2024-05-02T08:00:00Z",
		"reviewedByUser": map[string]any{"id": "main-1", "isMainAdmin": true},
	})
	require.NotNil(t, a)
	assert.True(t, a.IsTerminal())
	require.NotNil(t, a.DecidedAt)
	assert.True(t, a.DecidedAt.Equal(*a.UpdatedAt))
	require.NotNil(t, a.ReviewedByUserID)
	assert.Equal(t, "main-1", *a.ReviewedByUserID)
}

func TestApprovalRequest_UnknownStatusDefaultsToPending(t *testing.T) {
	a := ApprovalRequest(map[string]any{"id": 12, "status": "LOST"})
	require.NotNil(t, a)
	assert.Equal(t, "12", a.ID)
	assert.Equal(t, models.ApprovalStatusPending, a.Status)
	assert.Empty(t, a.ActionType)

	assert.Nil(t, ApprovalRequest(map[string]any{"status": "PENDING"}))
}
