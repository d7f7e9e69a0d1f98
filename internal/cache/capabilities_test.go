package cache

import (
	"context"
	"testing"
	"time"

	"admingate/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*CapabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client.AddHook(metricsHook{})
	t.Cleanup(func() { _ = client.Close() })
	return NewCapabilityCache(client, ttl), mr
}

func sampleAdmin() *models.CurrentAdmin {
	role := models.RoleManager
	return &models.CurrentAdmin{
		User: models.AdminUser{ID: "u1", Role: &role, Branches: []models.BranchMembership{}},
		Capabilities: models.CapabilityProfile{
			UserID:         "u1",
			VisibilityRole: models.VisibilityManager,
			Enabled:        map[models.Capability]bool{models.CapabilityUserBan: true},
			AutoApprove:    map[models.Capability]bool{models.CapabilityUserBan: false},
			Modes:          map[models.Capability]models.ApprovalMode{},
		},
	}
}

func TestCapabilityCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	_, ok, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "fp", sampleAdmin()))
	assert.True(t, mr.Exists(CapabilityKey("fp")))

	got, ok, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", got.User.ID)
	assert.True(t, got.Capabilities.Can(models.CapabilityUserBan))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCapabilityCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, 0)

	require.NoError(t, c.Set(ctx, "fp", sampleAdmin()))
	assert.Equal(t, DefaultCapabilityTTL, mr.TTL(CapabilityKey("fp")))

	c.Invalidate(ctx, "fp")
	assert.False(t, mr.Exists(CapabilityKey("fp")))
}

func TestCapabilityCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set(CapabilityKey("fp"), "{not json"))

	_, ok, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(CapabilityKey("fp")))
}

func TestCapabilityCache_NilIsNoop(t *testing.T) {
	var c *CapabilityCache
	_, ok, err := c.Get(context.Background(), "fp")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Set(context.Background(), "fp", sampleAdmin()))
	c.Invalidate(context.Background(), "fp")

	empty := NewCapabilityCache(nil, time.Minute)
	_, ok, _ = empty.Get(context.Background(), "fp")
	assert.False(t, ok)
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()

	_, err = Connect(context.Background(), "redis://%zz")
	assert.Error(t, err)
}
