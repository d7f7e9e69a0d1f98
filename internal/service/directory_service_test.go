package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"admingate/internal/adminapi"
	"admingate/internal/capability"
	"admingate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mePayload() map[string]any {
	return map[string]any{
		"user": map[string]any{"id": "a1", "email": "ops@example.com", "role": "MANAGER"},
		"capabilities": map[string]any{
			"visibilityRole": "MANAGER",
			"permissions":    map[string]any{"USER_BAN": true, "USER_RESTRICT": true},
			"autoApprove":    map[string]any{"USER_RESTRICT": true},
		},
	}
}

func TestGetCurrentAdmin(t *testing.T) {
	stub := respondWith(http.StatusOK, mePayload())
	svc := NewDirectoryService(stub, capability.NewPolicy(""))

	me, err := svc.GetCurrentAdmin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1", me.User.ID)
	assert.Equal(t, models.VisibilityManager, me.Capabilities.VisibilityRole)
	assert.True(t, me.Capabilities.Can(models.CapabilityUserBan))

	call := stub.lastCall(t)
	assert.Equal(t, "/admin/me", call.Path)
	assert.Equal(t, "me:fp1", call.DedupKey)
}

func TestGetUserDetail(t *testing.T) {
	stub := respondWith(http.StatusOK, map[string]any{
		"user": map[string]any{"id": "u1", "status": "RESTRICTED"},
		"restrictions": []any{
			map[string]any{"id": "r1", "type": "RESTRICTION", "isActive": true},
			map[string]any{"type": "BAN"},
		},
		"pendingApprovals": []any{
			map[string]any{"id": "ar1", "status": "PENDING"},
			map[string]any{"id": "ar2", "status": "REJECTED"},
		},
	})
	svc := NewDirectoryService(stub, nil)

	detail, err := svc.GetUserDetail(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, detail.Restrictions, 1)
	assert.Equal(t, "u1", detail.Restrictions[0].UserID)
	require.Len(t, detail.PendingApprovals, 1)
	assert.Equal(t, "ar1", detail.PendingApprovals[0].ID)

	assert.Equal(t, "user-detail:u1:fp1", stub.lastCall(t).DedupKey)
}

func TestGetUserDetailInvalidShape(t *testing.T) {
	payload := map[string]any{"user": map[string]any{"email": "x@example.com"}}
	svc := NewDirectoryService(respondWith(http.StatusOK, payload), nil)

	_, err := svc.GetUserDetail(context.Background(), "u1")
	require.Error(t, err)
	apiErr, ok := adminapi.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, adminapi.CodeInvalidResponseShape, apiErr.Code)
	assert.Equal(t, payload, apiErr.Payload)
}

func TestGetUserDetailPassesTransportError(t *testing.T) {
	want := &adminapi.Error{Status: http.StatusNotFound, Message: "user not found"}
	svc := NewDirectoryService(failWith(want), nil)

	_, err := svc.GetUserDetail(context.Background(), "missing")
	assert.True(t, errors.Is(err, want))
}

func TestListUsersFallbackPagination(t *testing.T) {
	stub := respondWith(http.StatusOK, []any{
		map[string]any{"id": "u1"},
		map[string]any{"id": "u2"},
		map[string]any{"id": "u3"},
	})
	svc := NewDirectoryService(stub, nil)

	page, err := svc.ListUsers(context.Background(), ListQuery{Limit: 2, Search: " ann ", Filters: map[string]string{"role": "SALES", "status": ""}})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 3)
	assert.Equal(t, 3, page.PageInfo.Total)
	assert.Equal(t, 2, page.PageInfo.TotalPages)

	query := stub.lastCall(t).Query
	assert.Equal(t, "ann", query.Get("search"))
	assert.Equal(t, "SALES", query.Get("role"))
	assert.False(t, query.Has("status"))
	assert.False(t, query.Has("page"))
}

func TestCatalogLists(t *testing.T) {
	body := map[string]any{"data": map[string]any{
		"items":      []any{map[string]any{"id": "x1"}, map[string]any{"id": "x2"}},
		"pagination": map[string]any{"page": 2, "limit": 2, "total": 6},
	}}
	svc := NewDirectoryService(respondWith(http.StatusOK, body), nil)
	ctx := context.Background()

	branches, err := svc.ListBranches(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, branches.Rows, 2)
	assert.Equal(t, models.PageInfo{Page: 2, Limit: 2, Total: 6, TotalPages: 3}, branches.PageInfo)

	products, err := svc.ListProducts(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, products.Rows, 2)

	logs, err := svc.ListAuditLogs(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, logs.Rows, 2)

	requests, err := svc.ListInventoryRequests(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, requests.Rows, 2)

	customers, err := svc.ListCustomers(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, customers.Rows, 2)
}
