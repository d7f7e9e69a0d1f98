package service

import (
	"context"
	"sync"

	"admingate/internal/adminapi"
	"admingate/internal/cache"
	"admingate/internal/capability"
	"admingate/internal/models"
	"admingate/internal/observability"
)

// CapabilityService keeps the signed-in admin's capability snapshot. Lookups
// go through process memory, then the shared cache, then /admin/me.
type CapabilityService struct {
	directory   *DirectoryService
	cache       *cache.CapabilityCache
	policy      *capability.Policy
	fingerprint string

	mu       sync.RWMutex
	snapshot *models.CurrentAdmin
}

func NewCapabilityService(directory *DirectoryService, snapshots *cache.CapabilityCache, policy *capability.Policy, fingerprint string) *CapabilityService {
	return &CapabilityService{
		directory:   directory,
		cache:       snapshots,
		policy:      policy,
		fingerprint: fingerprint,
	}
}

// Snapshot returns the current snapshot, loading it when needed. Cache
// failures degrade to a backend fetch.
func (s *CapabilityService) Snapshot(ctx context.Context) (*models.CurrentAdmin, error) {
	s.mu.RLock()
	me := s.snapshot
	s.mu.RUnlock()
	if me != nil {
		return me, nil
	}

	cached, ok, err := s.cache.Get(ctx, s.fingerprint)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "capability cache read failed", "error", err)
	}
	if ok {
		s.store(cached)
		return cached, nil
	}
	return s.fetch(ctx)
}

// Refresh drops every cached copy and loads a fresh snapshot.
func (s *CapabilityService) Refresh(ctx context.Context) (*models.CurrentAdmin, error) {
	s.Invalidate(ctx)
	return s.fetch(ctx)
}

// Invalidate drops the in-process and shared snapshot.
func (s *CapabilityService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
	s.cache.Invalidate(ctx, s.fingerprint)
}

// ExpectsApproval previews whether an action under c would be queued for the
// signed-in admin. The backend response stays authoritative.
func (s *CapabilityService) ExpectsApproval(ctx context.Context, c models.Capability) (bool, error) {
	me, err := s.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return s.policy.ExpectsApproval(me.Capabilities, c), nil
}

// RefreshHook refreshes the snapshot after a write is rejected with
// ADMIN_ACTION_RESTRICTED.
func (s *CapabilityService) RefreshHook() adminapi.Hook {
	return adminapi.CapabilityRefreshHook(func(ctx context.Context) {
		if _, err := s.Refresh(ctx); err != nil {
			observability.GlobalLogger.WarnContext(ctx, "capability refresh failed", "error", err)
		}
	})
}

func (s *CapabilityService) fetch(ctx context.Context) (*models.CurrentAdmin, error) {
	me, err := s.directory.GetCurrentAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, s.fingerprint, me); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "capability cache write failed", "error", err)
	}
	s.store(me)
	return me, nil
}

func (s *CapabilityService) store(me *models.CurrentAdmin) {
	s.mu.Lock()
	s.snapshot = me
	s.mu.Unlock()
}
