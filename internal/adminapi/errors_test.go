package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAccountAccessDenied(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   bool
	}{
		{name: "banned", status: http.StatusForbidden, code: "ACCOUNT_BANNED", want: true},
		{name: "case and whitespace", status: http.StatusForbidden, code: "  account_banned ", want: true},
		{name: "restricted", status: http.StatusForbidden, code: "ACCOUNT_RESTRICTED", want: true},
		{name: "terminated", status: http.StatusForbidden, code: "Account_Terminated", want: true},
		{name: "other code", status: http.StatusForbidden, code: "ADMIN_ACTION_RESTRICTED", want: false},
		{name: "no code", status: http.StatusForbidden, want: false},
		{name: "unauthorized", status: http.StatusUnauthorized, code: "ACCOUNT_BANNED", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &Error{Status: tt.status, Code: tt.code}
			assert.Equal(t, tt.want, IsAccountAccessDenied(err))
			assert.Equal(t, tt.want, IsAccountAccessDenied(fmt.Errorf("wrapped: %w", err)))
		})
	}

	assert.False(t, IsAccountAccessDenied(nil))
	assert.False(t, IsAccountAccessDenied(errors.New("ACCOUNT_BANNED")))
}

func TestIsAdminActionRestricted(t *testing.T) {
	assert.True(t, IsAdminActionRestricted(&Error{Status: 403, Code: "admin_action_restricted"}))
	assert.False(t, IsAdminActionRestricted(&Error{Status: 400, Code: "ADMIN_ACTION_RESTRICTED"}))
	assert.False(t, IsAdminActionRestricted(&Error{Status: 403, Code: "ACCOUNT_BANNED"}))
}

func TestError_ComposedMessage(t *testing.T) {
	err := newStatusError("POST", "/admin/users/u1/ban", 403, map[string]any{
		"message": "Not allowed",
		"code":    "ADMIN_ACTION_RESTRICTED",
		"reason":  "restricted until review",
	}, nil)
	assert.Equal(t, "Not allowed [code=ADMIN_ACTION_RESTRICTED] [reason=restricted until review]", err.Error())

	nested := newStatusError("GET", "/admin/me", 409, map[string]any{
		"error": map[string]any{"message": "Conflict here", "code": "X"},
	}, nil)
	assert.Equal(t, "Conflict here [code=X]", nested.Error())

	plain := newStatusError("GET", "/admin/me", 502, nil, []byte("upstream down"))
	assert.Equal(t, "upstream down", plain.Error())
	assert.Nil(t, plain.Payload)

	empty := newStatusError("GET", "/admin/me", 500, nil, nil)
	assert.Equal(t, "Internal Server Error", empty.Error())
}

func TestInvalidShapeError(t *testing.T) {
	payload := map[string]any{"nope": true}
	err := NewInvalidShapeError("get user detail", payload)
	assert.True(t, IsInvalidShape(err))
	assert.Equal(t, 500, StatusCode(err))
	assert.Equal(t, payload, err.Payload)
	assert.False(t, IsAccountAccessDenied(err))
}
