package service

import (
	"context"
	"net/http"

	"admingate/internal/adminapi"
	"admingate/internal/capability"
	"admingate/internal/models"
	"admingate/internal/normalize"
)

// DirectoryService reads users, the signed-in admin and the catalog lists.
type DirectoryService struct {
	exec   Executor
	policy *capability.Policy
}

func NewDirectoryService(exec Executor, policy *capability.Policy) *DirectoryService {
	return &DirectoryService{exec: exec, policy: policy}
}

// GetCurrentAdmin loads the signed-in admin and capability profile.
// Concurrent calls for the same credential share one round trip.
func (s *DirectoryService) GetCurrentAdmin(ctx context.Context) (*models.CurrentAdmin, error) {
	resp, err := s.exec.Execute(ctx, adminapi.Request{
		Method:   http.MethodGet,
		Path:     "/admin/me",
		DedupKey: adminapi.DedupKey("me", s.exec.Fingerprint()),
	})
	if err != nil {
		return nil, err
	}
	me := normalize.CurrentAdmin(resp.Payload, s.policy)
	if me == nil {
		return nil, adminapi.NewInvalidShapeError("get current admin", resp.Payload)
	}
	return me, nil
}

// GetUserDetail loads the moderation view of one user.
func (s *DirectoryService) GetUserDetail(ctx context.Context, userID string) (*models.UserDetail, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	resp, err := s.exec.Execute(ctx, adminapi.Request{
		Method:   http.MethodGet,
		Path:     "/admin/users/" + escape(userID),
		Route:    "/admin/users/:id",
		DedupKey: adminapi.DedupKey("user-detail", userID, s.exec.Fingerprint()),
	})
	if err != nil {
		return nil, err
	}
	detail := normalize.UserDetail(resp.Payload, s.policy)
	if detail == nil {
		return nil, adminapi.NewInvalidShapeError("get user detail", resp.Payload)
	}
	return detail, nil
}

func (s *DirectoryService) ListUsers(ctx context.Context, q ListQuery) (models.Page[models.AdminUser], error) {
	return listPage(ctx, s.exec, "/admin/users", q, normalize.AdminUser, "users")
}

func (s *DirectoryService) ListCustomers(ctx context.Context, q ListQuery) (models.Page[models.Customer], error) {
	return listPage(ctx, s.exec, "/admin/customers", q, normalize.Customer, "customers", "users")
}

func (s *DirectoryService) ListBranches(ctx context.Context, q ListQuery) (models.Page[models.Branch], error) {
	return listPage(ctx, s.exec, "/admin/branches", q, normalize.Branch, "branches")
}

func (s *DirectoryService) ListProducts(ctx context.Context, q ListQuery) (models.Page[models.Product], error) {
	return listPage(ctx, s.exec, "/admin/products", q, normalize.Product, "products")
}

func (s *DirectoryService) ListAuditLogs(ctx context.Context, q ListQuery) (models.Page[models.AuditLog], error) {
	return listPage(ctx, s.exec, "/admin/audit-logs", q, normalize.AuditLog, "logs", "auditLogs")
}

func (s *DirectoryService) ListInventoryRequests(ctx context.Context, q ListQuery) (models.Page[models.InventoryRequest], error) {
	return listPage(ctx, s.exec, "/admin/inventory-requests", q, normalize.InventoryRequest, "requests", "inventoryRequests")
}

func listPage[T any](ctx context.Context, exec Executor, path string, q ListQuery, fn func(any) *T, aliases ...string) (models.Page[T], error) {
	resp, err := exec.Execute(ctx, adminapi.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  q.values(),
	})
	if err != nil {
		return models.Page[T]{}, err
	}
	return normalize.Page(resp.Payload, pageLimit(q.Limit), fn, aliases...), nil
}
