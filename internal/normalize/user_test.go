package normalize

import (
	"testing"

	"admingate/internal/capability"
	"admingate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminUser_DisplayNamePriority(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{
			name: "top level wins",
			raw:  map[string]any{"id": "u1", "displayName": "Top", "adminProfile": map[string]any{"fullName": "Profile"}},
			want: "Top",
		},
		{
			name: "admin profile before manager profile",
			raw: map[string]any{
				"id":             "u1",
				"adminProfile":   map[string]any{"name": "Admin Name"},
				"managerProfile": map[string]any{"fullName": "Manager Full"},
			},
			want: "Admin Name",
		},
		{
			name: "blank values skipped",
			raw: map[string]any{
				"id":              "u1",
				"name":            " ",
				"customerProfile": map[string]any{"fullName": "Customer"},
			},
			want: "Customer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := AdminUser(tt.raw)
			require.NotNil(t, u)
			require.NotNil(t, u.DisplayName)
			assert.Equal(t, tt.want, *u.DisplayName)
		})
	}
}

func TestAdminUser_BranchesDropInvalidRows(t *testing.T) {
	u := AdminUser(map[string]any{
		"id":     "u1",
		"role":   "manager",
		"status": "weird",
		"branchMemberships": []any{
			map[string]any{"branch": map[string]any{"id": "b1", "name": "North"}, "isPrimary": true},
			map[string]any{"role": "SALES"},
			"junk",
		},
	})
	require.NotNil(t, u)
	require.NotNil(t, u.Role)
	assert.Equal(t, models.RoleManager, *u.Role)
	assert.Nil(t, u.Status)
	require.Len(t, u.Branches, 1)
	assert.Equal(t, "b1", u.Branches[0].BranchID)
	assert.Equal(t, "North", *u.Branches[0].BranchName)
	assert.True(t, u.Branches[0].IsPrimary)
}

func TestUserReference(t *testing.T) {
	assert.Nil(t, UserReference(map[string]any{"email": "x@example.com"}))

	ref := UserReference(map[string]any{"id": "u1", "status": "banned", "isMainAdmin": "true"})
	require.NotNil(t, ref)
	assert.Equal(t, models.AccountStatusBanned, *ref.Status)
	assert.True(t, ref.IsMainAdmin)
	assert.Nil(t, ref.Email)
}

func TestUserDetail_Envelope(t *testing.T) {
	d := UserDetail(map[string]any{
		"user": map[string]any{"id": "u1", "role": "SALES"},
		"restrictions": []any{
			map[string]any{"id": "r1", "type": "BAN"},
			map[string]any{"type": "RESTRICTION"},
		},
		"approvalRequests": []any{
			map[string]any{"id": "a1", "status": "PENDING"},
			map[string]any{"id": "a2", "status": "REJECTED"},
		},
		"capabilities": map[string]any{"permissions": []any{"product_edit"}},
	}, capability.NewPolicy(""))
	require.NotNil(t, d)
	assert.Equal(t, "u1", d.User.ID)
	require.Len(t, d.Restrictions, 1)
	assert.Equal(t, "u1", d.Restrictions[0].UserID)
	require.Len(t, d.PendingApprovals, 1)
	assert.Equal(t, "a1", d.PendingApprovals[0].ID)
	require.NotNil(t, d.Capabilities)
	assert.Equal(t, models.VisibilitySales, d.Capabilities.VisibilityRole)
	assert.True(t, d.Capabilities.Can(models.CapabilityProductEdit))
}

func TestUserDetail_UserAtRoot(t *testing.T) {
	d := UserDetail(map[string]any{
		"id":                 "u2",
		"accessRestrictions": []any{map[string]any{"id": "r1"}},
	}, nil)
	require.NotNil(t, d)
	assert.Equal(t, "u2", d.User.ID)
	assert.Len(t, d.Restrictions, 1)
	assert.Empty(t, d.PendingApprovals)
	assert.Nil(t, d.Capabilities)

	assert.Nil(t, UserDetail(map[string]any{"user": map[string]any{"email": "x"}}, nil))
}

func TestCurrentAdmin_CustomerGetsEmptyProfile(t *testing.T) {
	me := CurrentAdmin(map[string]any{"data": map[string]any{"id": "c1", "role": "CUSTOMER"}}, nil)
	require.NotNil(t, me)
	assert.Equal(t, "c1", me.User.ID)
	assert.Equal(t, "c1", me.Capabilities.UserID)
	assert.Empty(t, me.Capabilities.Enabled)
	assert.False(t, me.Capabilities.Can(models.CapabilityUserBan))
}
