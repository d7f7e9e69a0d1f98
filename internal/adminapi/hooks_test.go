package adminapi

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restrictedServer(t *testing.T) *Client {
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Trace-Tag") != "" {
			w.Header().Set("X-Trace-Tag", r.Header.Get("X-Trace-Tag"))
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"blocked","code":"ADMIN_ACTION_RESTRICTED"}`))
	})
}

func TestCapabilityRefreshHook_OnlyOnWrites(t *testing.T) {
	client := restrictedServer(t)

	var refreshes atomic.Int32
	client.Use(CapabilityRefreshHook(func(context.Context) { refreshes.Add(1) }))

	_, err := client.Execute(context.Background(), Request{Method: http.MethodGet, Path: "/admin/products"})
	require.Error(t, err)
	assert.Equal(t, int32(0), refreshes.Load())

	for _, method := range []string{http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete} {
		_, err = client.Execute(context.Background(), Request{Method: method, Path: "/admin/products/p1"})
		require.True(t, IsAdminActionRestricted(err))
	}
	assert.Equal(t, int32(4), refreshes.Load())
}

func TestAccountDeniedHook(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"ACCOUNT_TERMINATED"}`))
	})

	var signOuts atomic.Int32
	guard := NewSessionGuard(func(context.Context) { signOuts.Add(1) })
	client.Use(AccountDeniedHook(guard))

	for i := 0; i < 3; i++ {
		_, err := client.Execute(context.Background(), Request{Path: "/admin/me"})
		require.True(t, IsAccountAccessDenied(err))
	}
	assert.Equal(t, int32(1), signOuts.Load())
}

func TestUse_RemoveAndBefore(t *testing.T) {
	client := restrictedServer(t)

	var afters atomic.Int32
	remove := client.Use(Hook{
		Name: "tag",
		Before: func(_ context.Context, req *http.Request) error {
			req.Header.Set("X-Trace-Tag", "hooked")
			return nil
		},
		After: func(context.Context, Request, *Response, error) { afters.Add(1) },
	})

	_, _ = client.Execute(context.Background(), Request{Path: "/admin/me"})
	assert.Equal(t, int32(1), afters.Load())

	remove()
	remove()
	_, _ = client.Execute(context.Background(), Request{Path: "/admin/me"})
	assert.Equal(t, int32(1), afters.Load())
	assert.Empty(t, client.snapshotHooks())
}

func TestUse_BeforeErrorAbortsCall(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })
	client.Use(Hook{
		Name:   "offline",
		Before: func(context.Context, *http.Request) error { return errors.New("offline") },
	})

	_, err := client.Execute(context.Background(), Request{Path: "/admin/me"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook offline")
	assert.Equal(t, int32(0), hits.Load())
}
