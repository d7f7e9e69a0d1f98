package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"admingate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestUpdateUserStatusDirect(t *testing.T) {
	stub := respondWith(http.StatusOK, executedPayload())
	svc := NewAccessService(stub, fixedClock)

	got, err := svc.UpdateUserStatus(context.Background(), "u1", StatusChangeInput{
		Status: "restricted",
		Reason: " policy violation ",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.NotNil(t, got.ExecutionResult)
	assert.Nil(t, got.ApprovalRequest)

	call := stub.lastCall(t)
	assert.Equal(t, http.MethodPatch, call.Method)
	assert.Equal(t, "/admin/users/u1/status", call.Path)
	assert.Equal(t, map[string]any{
		"status": models.AccountStatusRestricted,
		"reason": "policy violation",
	}, bodyOf(t, call))
}

func TestUpdateUserStatusActiveNeedsNoReason(t *testing.T) {
	stub := respondWith(http.StatusOK, executedPayload())
	svc := NewAccessService(stub, fixedClock)

	_, err := svc.UpdateUserStatus(context.Background(), "u1", StatusChangeInput{Status: models.AccountStatusActive})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": models.AccountStatusActive}, bodyOf(t, stub.lastCall(t)))
}

func TestUpsertRestrictionBody(t *testing.T) {
	stub := respondWith(http.StatusOK, executedPayload())
	svc := NewAccessService(stub, fixedClock)
	active := true

	_, err := svc.UpsertRestriction(context.Background(), "u1", RestrictionInput{
		Reason:         "abuse",
		Note:           "second warning",
		Mode:           models.RestrictionModeAdminActions,
		BlockedActions: []models.AdminActionBlock{"product_delete", models.BlockLogDelete, models.BlockProductDelete},
		Window:         WindowInput{Preset: "24h"},
		IsActive:       &active,
	})
	require.NoError(t, err)

	call := stub.lastCall(t)
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/admin/users/u1/restrictions", call.Path)

	body := bodyOf(t, call)
	blocks := []models.AdminActionBlock{models.BlockProductDelete, models.BlockLogDelete}
	assert.Equal(t, models.ControlTypeRestriction, body["type"])
	assert.Equal(t, models.RestrictionModeAdminActions, body["restrictionMode"])
	assert.Equal(t, blocks, body["adminActionBlocks"])
	assert.Equal(t, map[string]any{"adminActionBlocks": blocks}, body["metadata"])
	assert.Equal(t, "2026-03-01T12:00:00Z", body["startsAt"])
	assert.Equal(t, "2026-03-02T12:00:00Z", body["endsAt"])
	assert.Equal(t, true, body["isActive"])
	assert.NotContains(t, body, "restrictionId")
}

func TestUpsertRestrictionUpdateByID(t *testing.T) {
	end := fixedNow.Add(72 * time.Hour)

	tests := []struct {
		name     string
		in       RestrictionInput
		wantKeys map[string]any
		absent   []string
	}{
		{
			name:     "note only keeps the stored control",
			in:       RestrictionInput{RestrictionID: "r1", Note: "extend"},
			wantKeys: map[string]any{"restrictionId": "r1", "note": "extend"},
			absent:   []string{"reason", "restrictionMode", "adminActionBlocks", "startsAt", "endsAt", "metadata"},
		},
		{
			name:     "blocks without mode",
			in:       RestrictionInput{RestrictionID: "r1", BlockedActions: []models.AdminActionBlock{"log_delete"}},
			wantKeys: map[string]any{"adminActionBlocks": []models.AdminActionBlock{models.BlockLogDelete}},
			absent:   []string{"restrictionMode", "startsAt", "endsAt"},
		},
		{
			name:     "new end",
			in:       RestrictionInput{RestrictionID: "r1", Window: WindowInput{EndsAt: &end}},
			wantKeys: map[string]any{"startsAt": "2026-03-01T12:00:00Z", "endsAt": "2026-03-04T12:00:00Z"},
			absent:   []string{"restrictionMode", "adminActionBlocks"},
		},
		{
			name:     "explicit mode switch",
			in:       RestrictionInput{RestrictionID: "r1", Mode: models.RestrictionModeAccount},
			wantKeys: map[string]any{"restrictionMode": models.RestrictionModeAccount},
			absent:   []string{"adminActionBlocks", "startsAt", "endsAt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := respondWith(http.StatusOK, executedPayload())
			svc := NewAccessService(stub, fixedClock)

			_, err := svc.UpsertRestriction(context.Background(), "u1", tt.in)
			require.NoError(t, err)

			body := bodyOf(t, stub.lastCall(t))
			assert.Equal(t, models.ControlTypeRestriction, body["type"])
			for key, want := range tt.wantKeys {
				assert.Equal(t, want, body[key], key)
			}
			for _, key := range tt.absent {
				assert.NotContains(t, body, key)
			}
		})
	}
}

func TestBanBody(t *testing.T) {
	end := fixedNow.Add(48 * time.Hour)

	tests := []struct {
		name     string
		in       BanInput
		wantKeys map[string]any
		absent   []string
	}{
		{
			name:     "days",
			in:       BanInput{Reason: "fraud", DurationDays: 7},
			wantKeys: map[string]any{"durationDays": 7},
			absent:   []string{"durationHours", "endsAt"},
		},
		{
			name:     "hours",
			in:       BanInput{Reason: "fraud", DurationHours: 12},
			wantKeys: map[string]any{"durationHours": 12},
			absent:   []string{"durationDays", "endsAt"},
		},
		{
			name:     "explicit end wins over durations",
			in:       BanInput{Reason: "fraud", Window: WindowInput{EndsAt: &end}, DurationHours: 3, DurationDays: 2},
			wantKeys: map[string]any{"endsAt": "2026-03-03T12:00:00Z"},
			absent:   []string{"durationHours", "durationDays"},
		},
		{
			name:   "open ended",
			in:     BanInput{Reason: "fraud"},
			absent: []string{"durationHours", "durationDays", "endsAt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := respondWith(http.StatusOK, executedPayload())
			svc := NewAccessService(stub, fixedClock)

			_, err := svc.Ban(context.Background(), "u1", tt.in)
			require.NoError(t, err)

			call := stub.lastCall(t)
			assert.Equal(t, "/admin/users/u1/ban", call.Path)
			body := bodyOf(t, call)
			assert.Equal(t, models.ControlTypeBan, body["type"])
			assert.Equal(t, "fraud", body["reason"])
			for k, v := range tt.wantKeys {
				assert.Equal(t, v, body[k], k)
			}
			for _, k := range tt.absent {
				assert.NotContains(t, body, k)
			}
		})
	}
}

func TestBanQueued(t *testing.T) {
	stub := respondWith(http.StatusAccepted, queuedPayload("USER_BAN"))
	svc := NewAccessService(stub, fixedClock)

	got, err := svc.Ban(context.Background(), "u1", BanInput{Reason: "fraud", DurationDays: 7})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, got.StatusCode)
	require.NotNil(t, got.ApprovalRequest)
	assert.Equal(t, models.ApprovalStatusPending, got.ApprovalRequest.Status)
	assert.Equal(t, models.ActionUserBan, got.ApprovalRequest.ActionType)
	assert.Nil(t, got.ExecutionResult)
}

func TestResolveBody(t *testing.T) {
	stub := respondWith(http.StatusOK, executedPayload())
	svc := NewAccessService(stub, fixedClock)

	_, err := svc.Resolve(context.Background(), "u1", ResolveInput{ActionType: "restriction", ControlID: "r1", Note: "appeal accepted"})
	require.NoError(t, err)

	call := stub.lastCall(t)
	assert.Equal(t, http.MethodPatch, call.Method)
	assert.Equal(t, "/admin/users/u1/admin-actions/resolve", call.Path)
	assert.Equal(t, map[string]any{
		"actionType": models.ResolveRestriction,
		"controlId":  "r1",
		"note":       "appeal accepted",
	}, bodyOf(t, call))

	_, err = svc.Resolve(context.Background(), "u1", ResolveInput{ActionType: models.ResolveTermination})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"actionType": models.ResolveTermination}, bodyOf(t, stub.lastCall(t)))
}

func TestAccessValidationBeforeNetwork(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	tests := []struct {
		name string
		call func(*AccessService) error
	}{
		{"status missing user", func(s *AccessService) error {
			_, err := s.UpdateUserStatus(context.Background(), " ", StatusChangeInput{Status: models.AccountStatusBanned, Reason: "x"})
			return err
		}},
		{"status unknown", func(s *AccessService) error {
			_, err := s.UpdateUserStatus(context.Background(), "u1", StatusChangeInput{Status: "FROZEN", Reason: "x"})
			return err
		}},
		{"status missing reason", func(s *AccessService) error {
			_, err := s.UpdateUserStatus(context.Background(), "u1", StatusChangeInput{Status: models.AccountStatusSuspended})
			return err
		}},
		{"restriction missing reason", func(s *AccessService) error {
			_, err := s.UpsertRestriction(context.Background(), "u1", RestrictionInput{})
			return err
		}},
		{"restriction empty block set", func(s *AccessService) error {
			_, err := s.UpsertRestriction(context.Background(), "u1", RestrictionInput{Reason: "x", Mode: models.RestrictionModeAdminActions})
			return err
		}},
		{"restriction unknown block", func(s *AccessService) error {
			_, err := s.UpsertRestriction(context.Background(), "u1", RestrictionInput{
				Reason: "x", Mode: models.RestrictionModeAdminActions, BlockedActions: []models.AdminActionBlock{"FLY"},
			})
			return err
		}},
		{"restriction blocks with account mode", func(s *AccessService) error {
			_, err := s.UpsertRestriction(context.Background(), "u1", RestrictionInput{
				Reason: "x", Mode: models.RestrictionModeAccount, BlockedActions: []models.AdminActionBlock{models.BlockLogDelete},
			})
			return err
		}},
		{"restriction unknown mode", func(s *AccessService) error {
			_, err := s.UpsertRestriction(context.Background(), "u1", RestrictionInput{Reason: "x", Mode: "PARTIAL"})
			return err
		}},
		{"restriction inverted window", func(s *AccessService) error {
			_, err := s.UpsertRestriction(context.Background(), "u1", RestrictionInput{
				Reason: "x", Window: WindowInput{StartsAt: &future, EndsAt: &past},
			})
			return err
		}},
		{"ban missing reason", func(s *AccessService) error {
			_, err := s.Ban(context.Background(), "u1", BanInput{DurationDays: 1})
			return err
		}},
		{"ban ambiguous duration", func(s *AccessService) error {
			_, err := s.Ban(context.Background(), "u1", BanInput{Reason: "x", DurationHours: 1, DurationDays: 1})
			return err
		}},
		{"ban negative duration", func(s *AccessService) error {
			_, err := s.Ban(context.Background(), "u1", BanInput{Reason: "x", DurationDays: -1})
			return err
		}},
		{"ban end before now", func(s *AccessService) error {
			_, err := s.Ban(context.Background(), "u1", BanInput{Reason: "x", Window: WindowInput{EndsAt: &past}})
			return err
		}},
		{"resolve unknown type", func(s *AccessService) error {
			_, err := s.Resolve(context.Background(), "u1", ResolveInput{ActionType: "WARNING", ControlID: "r1"})
			return err
		}},
		{"resolve ban without control", func(s *AccessService) error {
			_, err := s.Resolve(context.Background(), "u1", ResolveInput{ActionType: models.ResolveBan})
			return err
		}},
		{"resolve termination with control", func(s *AccessService) error {
			_, err := s.Resolve(context.Background(), "u1", ResolveInput{ActionType: models.ResolveTermination, ControlID: "t1"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := respondWith(http.StatusOK, executedPayload())
			err := tt.call(NewAccessService(stub, fixedClock))
			assertValidationError(t, err)
			assert.Empty(t, stub.recorded(), "no request may be issued for invalid input")
		})
	}
}
