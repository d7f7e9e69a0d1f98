package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"admingate/internal/adminapi"
	"admingate/internal/cache"
	"admingate/internal/capability"
	"admingate/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSnapshotCache(t *testing.T) (*cache.CapabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewCapabilityCache(client, time.Minute), mr
}

func newCapabilityService(stub *executorStub, snapshots *cache.CapabilityCache) *CapabilityService {
	policy := capability.NewPolicy("")
	return NewCapabilityService(NewDirectoryService(stub, policy), snapshots, policy, stub.Fingerprint())
}

func TestCapabilitySnapshotLayers(t *testing.T) {
	ctx := context.Background()
	snapshots, mr := newSnapshotCache(t)
	stub := respondWith(http.StatusOK, mePayload())
	svc := newCapabilityService(stub, snapshots)

	me, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", me.User.ID)
	assert.True(t, mr.Exists(cache.CapabilityKey("fp1")))

	_, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, stub.recorded(), 1, "second snapshot comes from memory")

	other := respondWith(http.StatusOK, mePayload())
	fromCache, err := newCapabilityService(other, snapshots).Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, other.recorded(), "a fresh process reads the shared cache")
	assert.True(t, fromCache.Capabilities.Can(models.CapabilityUserBan))
}

func TestCapabilityRefresh(t *testing.T) {
	ctx := context.Background()
	snapshots, mr := newSnapshotCache(t)
	stub := respondWith(http.StatusOK, mePayload())
	svc := newCapabilityService(stub, snapshots)

	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, stub.recorded(), 2)
	assert.True(t, mr.Exists(cache.CapabilityKey("fp1")))

	svc.Invalidate(ctx)
	assert.False(t, mr.Exists(cache.CapabilityKey("fp1")))
}

func TestCapabilitySnapshotWithoutCache(t *testing.T) {
	stub := respondWith(http.StatusOK, mePayload())
	svc := newCapabilityService(stub, nil)

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, stub.recorded(), 1)
}

func TestCapabilityExpectsApproval(t *testing.T) {
	svc := newCapabilityService(respondWith(http.StatusOK, mePayload()), nil)
	ctx := context.Background()

	tests := []struct {
		capability models.Capability
		want       bool
	}{
		{models.CapabilityUserRestrict, false},
		{models.CapabilityUserBan, true},
		{models.CapabilityProductCreate, false},
		{models.CapabilityLogDelete, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.capability), func(t *testing.T) {
			got, err := svc.ExpectsApproval(ctx, tt.capability)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapabilityRefreshHook(t *testing.T) {
	ctx := context.Background()
	stub := respondWith(http.StatusOK, mePayload())
	svc := newCapabilityService(stub, nil)
	hook := svc.RefreshHook()

	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	restricted := &adminapi.Error{Status: http.StatusForbidden, Code: adminapi.CodeAdminActionRestricted}

	hook.After(ctx, adminapi.Request{Method: http.MethodGet}, nil, restricted)
	assert.Len(t, stub.recorded(), 1, "reads never refresh")

	hook.After(ctx, adminapi.Request{Method: http.MethodPost}, nil, &adminapi.Error{Status: http.StatusForbidden, Code: "FORBIDDEN"})
	assert.Len(t, stub.recorded(), 1)

	hook.After(ctx, adminapi.Request{Method: http.MethodPost}, nil, restricted)
	assert.Len(t, stub.recorded(), 2, "restricted write refreshes the snapshot")
}
