package normalize

import (
	"testing"
	"time"

	"admingate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessRestriction_RequiresIdentity(t *testing.T) {
	assert.Nil(t, AccessRestriction(nil))
	assert.Nil(t, AccessRestriction("r1"))
	assert.Nil(t, AccessRestriction(map[string]any{"id": "  ", "type": "BAN"}))

	r := AccessRestriction(map[string]any{"_id": "r1"})
	require.NotNil(t, r)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, models.ControlTypeRestriction, r.Type)
	assert.Equal(t, models.RestrictionModeAccount, r.Mode)
	assert.True(t, r.IsActive)
}

func TestAccessRestriction_LiftedIsNeverActive(t *testing.T) {
	r := AccessRestriction(map[string]any{
		"id":       "r1",
		"isActive": true,
		"liftedAt": "2024-05-01T00:00:00Z",
	})
	require.NotNil(t, r)
	assert.False(t, r.IsActive)
	require.NotNil(t, r.LiftedAt)
}

func TestAccessRestriction_DropsInvertedWindow(t *testing.T) {
	r := AccessRestriction(map[string]any{
		"id":       "r1",
		"startsAt": "2024-05-02T00:00:00Z",
		"endsAt":   "2024-05-01T00:00:00Z",
	})
	require.NotNil(t, r)
	assert.NotNil(t, r.StartsAt)
	assert.Nil(t, r.EndsAt)

	r = AccessRestriction(map[string]any{
		"id":       "r2",
		"startsAt": "2024-05-01T00:00:00Z",
		"endsAt":   "2024-05-01T00:00:00Z",
	})
	require.NotNil(t, r)
	assert.Nil(t, r.EndsAt)
}

func TestAccessRestriction_ModeAndBlocks(t *testing.T) {
	tests := []struct {
		name       string
		raw        map[string]any
		wantMode   models.RestrictionMode
		wantBlocks []models.AdminActionBlock
	}{
		{
			name: "admin actions with blocks",
			raw: map[string]any{
				"id":                "r1",
				"restrictionMode":   "admin_actions",
				"adminActionBlocks": []any{"PRODUCT_DELETE", "product_delete", "LOG_DELETE", "FLY"},
			},
			wantMode:   models.RestrictionModeAdminActions,
			wantBlocks: []models.AdminActionBlock{models.BlockProductDelete, models.BlockLogDelete},
		},
		{
			name: "admin actions without valid blocks degrades",
			raw: map[string]any{
				"id":                "r1",
				"restrictionMode":   "ADMIN_ACTIONS",
				"adminActionBlocks": []any{"NOPE"},
			},
			wantMode: models.RestrictionModeAccount,
		},
		{
			name: "blocks in metadata infer mode",
			raw: map[string]any{
				"id":       "r1",
				"metadata": map[string]any{"blockedActions": []any{"APPROVAL_REVIEW"}},
			},
			wantMode:   models.RestrictionModeAdminActions,
			wantBlocks: []models.AdminActionBlock{models.BlockApprovalReview},
		},
		{
			name: "account mode drops blocks",
			raw: map[string]any{
				"id":                "r1",
				"restrictionMode":   "ACCOUNT",
				"adminActionBlocks": []any{"PRODUCT_EDIT"},
			},
			wantMode: models.RestrictionModeAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := AccessRestriction(tt.raw)
			require.NotNil(t, r)
			assert.Equal(t, tt.wantMode, r.Mode)
			assert.Equal(t, tt.wantBlocks, r.BlockedActions)
		})
	}
}

func TestAccessRestriction_BanHasNoMode(t *testing.T) {
	r := AccessRestriction(map[string]any{
		"id":                 "b1",
		"type":               "ban",
		"userId":             "u1",
		"statusBeforeAction": "active",
		"roleDowngradedFrom": "MANAGER",
		"createdByUser":      map[string]any{"id": "admin-1", "role": "ADMIN"},
	})
	require.NotNil(t, r)
	assert.Equal(t, models.ControlTypeBan, r.Type)
	assert.Empty(t, r.Mode)
	assert.Equal(t, "u1", r.UserID)
	require.NotNil(t, r.StatusBeforeAction)
	assert.Equal(t, models.AccountStatusActive, *r.StatusBeforeAction)
	require.NotNil(t, r.RoleDowngradedFrom)
	assert.Equal(t, models.RoleManager, *r.RoleDowngradedFrom)
	require.NotNil(t, r.CreatedByUser)
	assert.Equal(t, "admin-1", r.CreatedByUser.ID)
	assert.True(t, r.Blocks(models.BlockLogDelete))
}

func TestAccessRestriction_EffectiveActive(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	r := AccessRestriction(map[string]any{
		"id":       "r1",
		"isActive": true,
		"startsAt": "2024-05-01T00:00:00Z",
		"endsAt":   "2024-05-05T00:00:00Z",
	})
	require.NotNil(t, r)
	assert.True(t, r.IsActive)
	assert.False(t, r.EffectiveActive(now))
	assert.True(t, r.EffectiveActive(now.AddDate(0, 0, -7)))
}
