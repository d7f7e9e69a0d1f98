package normalize

import (
	"testing"

	"admingate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranch(t *testing.T) {
	b := Branch(map[string]any{"id": "b1", "name": "North", "address": map[string]any{"city": "Oslo"}})
	require.NotNil(t, b)
	assert.True(t, b.IsActive)
	assert.Equal(t, "Oslo", *b.City)
	assert.Nil(t, Branch(map[string]any{"name": "no id"}))
}

func TestAuditLog_ActorFallback(t *testing.T) {
	l := AuditLog(map[string]any{
		"id":     "l1",
		"action": "PRODUCT_DELETE",
		"actor":  map[string]any{"id": "admin-1"},
	})
	require.NotNil(t, l)
	require.NotNil(t, l.ActorUserID)
	assert.Equal(t, "admin-1", *l.ActorUserID)
}

func TestInventoryRequest(t *testing.T) {
	r := InventoryRequest(map[string]any{
		"id":       "ir1",
		"status":   "approved",
		"quantity": 12,
		"product":  map[string]any{"id": "p1"},
		"branchId": "b1",
	})
	require.NotNil(t, r)
	assert.Equal(t, models.InventoryRequestApproved, *r.Status)
	assert.Equal(t, 12, *r.Quantity)
	assert.Equal(t, "p1", *r.ProductID)
	assert.Equal(t, "b1", *r.BranchID)
	assert.Nil(t, r.RequestedByUserID)
}

func TestCustomer(t *testing.T) {
	c := Customer(map[string]any{"id": "c1", "customerProfile": map[string]any{"fullName": "Kim", "phone": "555"}})
	require.NotNil(t, c)
	assert.Equal(t, "Kim", *c.DisplayName)
	assert.Equal(t, "555", *c.Phone)
}
