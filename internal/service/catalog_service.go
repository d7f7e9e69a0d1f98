package service

import (
	"context"
	"net/http"
	"strings"

	"admingate/internal/adminapi"
	"admingate/internal/models"
)

// CatalogService performs product, log, inventory and staff-rule actions.
// They share the approval envelope of the account moderation actions.
type CatalogService struct {
	exec Executor
}

func NewCatalogService(exec Executor) *CatalogService {
	return &CatalogService{exec: exec}
}

// ProductInput carries the fields of a product create or update. Nil fields
// are left out of the request.
type ProductInput struct {
	Name      *string
	SKU       *string
	Price     *float64
	Stock     *int
	IsVisible *bool
	BranchID  *string
}

func (in ProductInput) body() map[string]any {
	body := map[string]any{}
	if in.Name != nil {
		body["name"] = strings.TrimSpace(*in.Name)
	}
	if in.SKU != nil {
		body["sku"] = strings.TrimSpace(*in.SKU)
	}
	if in.Price != nil {
		body["price"] = *in.Price
	}
	if in.Stock != nil {
		body["stock"] = *in.Stock
	}
	if in.IsVisible != nil {
		body["isVisible"] = *in.IsVisible
	}
	if in.BranchID != nil {
		body["branchId"] = strings.TrimSpace(*in.BranchID)
	}
	return body
}

func (in ProductInput) validate() error {
	if in.Price != nil && *in.Price < 0 {
		return models.NewValidationError("price cannot be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return models.NewValidationError("stock cannot be negative")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.ActionResponse, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, models.NewValidationError("product name is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return runAction(ctx, s.exec, models.ActionProductCreate, adminapi.Request{
		Method: http.MethodPost,
		Path:   "/admin/products",
		Route:  "/admin/products",
		Body:   in.body(),
	})
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*models.ActionResponse, error) {
	if err := requireID("product", id); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	body := in.body()
	if len(body) == 0 {
		return nil, models.NewValidationError("no product fields to update")
	}
	return runAction(ctx, s.exec, models.ActionProductUpdate, adminapi.Request{
		Method: http.MethodPatch,
		Path:   "/admin/products/" + escape(id),
		Route:  "/admin/products/:id",
		Body:   body,
	})
}

func (s *CatalogService) SetProductVisibility(ctx context.Context, id string, visible bool) (*models.ActionResponse, error) {
	if err := requireID("product", id); err != nil {
		return nil, err
	}
	return runAction(ctx, s.exec, models.ActionProductVisibilityChange, adminapi.Request{
		Method: http.MethodPatch,
		Path:   "/admin/products/" + escape(id) + "/visibility",
		Route:  "/admin/products/:id/visibility",
		Body:   map[string]any{"isVisible": visible},
	})
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id, reason string) (*models.ActionResponse, error) {
	if err := requireID("product", id); err != nil {
		return nil, err
	}
	return runAction(ctx, s.exec, models.ActionProductDelete, adminapi.Request{
		Method: http.MethodDelete,
		Path:   "/admin/products/" + escape(id),
		Route:  "/admin/products/:id",
		Body:   reasonBody(reason),
	})
}

// DeleteAuditLog removes an audit entry. A reason is required.
func (s *CatalogService) DeleteAuditLog(ctx context.Context, id, reason string) (*models.ActionResponse, error) {
	if err := requireID("audit log", id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, models.NewValidationError("a reason is required to delete an audit log")
	}
	return runAction(ctx, s.exec, models.ActionLogDelete, adminapi.Request{
		Method: http.MethodDelete,
		Path:   "/admin/audit-logs/" + escape(id),
		Route:  "/admin/audit-logs/:id",
		Body:   reasonBody(reason),
	})
}

// InventoryDecisionInput is a verdict on a branch stock request.
type InventoryDecisionInput struct {
	Decision models.Decision
	Note     string
}

func (s *CatalogService) DecideInventoryRequest(ctx context.Context, id string, in InventoryDecisionInput) (*models.ActionResponse, error) {
	if err := requireID("inventory request", id); err != nil {
		return nil, err
	}
	decision, ok := parseEnum(string(in.Decision), models.DecisionApprove, models.DecisionReject)
	if !ok {
		return nil, models.NewValidationError("decision must be APPROVE or REJECT")
	}
	body := map[string]any{"decision": decision}
	if note := strings.TrimSpace(in.Note); note != "" {
		body["note"] = note
	}
	return runAction(ctx, s.exec, models.ActionInventoryRequestDecision, adminapi.Request{
		Method: http.MethodPatch,
		Path:   "/admin/inventory-requests/" + escape(id) + "/decision",
		Route:  "/admin/inventory-requests/:id/decision",
		Body:   body,
	})
}

// StaffRuleInput changes the default permissions of a staff role.
type StaffRuleInput struct {
	Permissions map[models.Capability]bool
	AutoApprove map[models.Capability]bool
}

// UpdateStaffRule applies a rule to MANAGER or SALES staff. ADMIN defaults
// are owned by the main admin and cannot be changed here.
func (s *CatalogService) UpdateStaffRule(ctx context.Context, role models.VisibilityRole, in StaffRuleInput) (*models.ActionResponse, error) {
	parsed, ok := parseEnum(string(role), models.VisibilityManager, models.VisibilitySales)
	if !ok {
		return nil, models.NewValidationError("staff rules apply to MANAGER or SALES, got " + string(role))
	}
	if len(in.Permissions) == 0 && len(in.AutoApprove) == 0 {
		return nil, models.NewValidationError("no staff rule changes given")
	}
	permissions, err := capabilityFlags(in.Permissions)
	if err != nil {
		return nil, err
	}
	autoApprove, err := capabilityFlags(in.AutoApprove)
	if err != nil {
		return nil, err
	}

	body := map[string]any{}
	if len(permissions) > 0 {
		body["permissions"] = permissions
	}
	if len(autoApprove) > 0 {
		body["autoApprove"] = autoApprove
	}
	return runAction(ctx, s.exec, models.ActionStaffRuleChange, adminapi.Request{
		Method: http.MethodPatch,
		Path:   "/admin/staff-rules/" + escape(strings.ToLower(string(parsed))),
		Route:  "/admin/staff-rules/:role",
		Body:   body,
	})
}

func capabilityFlags(in map[models.Capability]bool) (map[string]bool, error) {
	out := make(map[string]bool, len(in))
	for key, enabled := range in {
		c, ok := parseEnum(string(key), models.Capabilities...)
		if !ok {
			return nil, models.NewValidationError("unknown capability " + string(key))
		}
		out[string(c)] = enabled
	}
	return out, nil
}

// reasonBody returns a nil interface when there is no reason so DELETEs go
// out without a body.
func reasonBody(reason string) any {
	if reason = strings.TrimSpace(reason); reason != "" {
		return map[string]any{"reason": reason}
	}
	return nil
}
