package sandbox

import (
	"strings"

	"admingate/internal/decode"
	"admingate/internal/models"

	"github.com/gofiber/fiber/v2"
)

func targetAction(spec models.ApprovalActionType, id string, body JSONMap) pendingAction {
	action := pendingAction{
		Spec:    actionSpecs[spec],
		Reason:  decode.StringPtr(body["reason"]),
		Payload: body,
	}
	if id != "" {
		action.TargetID = &id
	}
	return action
}

// validateProduct rejects present fields with unusable values.
func validateProduct(body JSONMap) error {
	if raw, present := body["price"]; present {
		if price, ok := decode.Number(raw); !ok || price < 0 {
			return badRequest("price must be a non-negative number")
		}
	}
	if raw, present := body["stock"]; present {
		if _, ok := decode.Int(raw); !ok {
			return badRequest("stock must be a non-negative integer")
		}
	}
	return nil
}

// ListBranches handles GET /admin/branches
func (s *Server) ListBranches(c *fiber.Ctx) error {
	query := s.db.WithContext(c.UserContext()).Model(&Branch{})
	if search := c.Query("search"); search != "" {
		pattern := likePattern(search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(city) LIKE ?", pattern, pattern)
	}
	var branches []Branch
	meta, err := s.paginate(c, query, "branches", &branches)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"branches": branches, "pagination": meta})
}

// ListProducts handles GET /admin/products
func (s *Server) ListProducts(c *fiber.Ctx) error {
	query := s.db.WithContext(c.UserContext()).Model(&Product{})
	if search := c.Query("search"); search != "" {
		pattern := likePattern(search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}
	if branch := c.Query("branchId"); branch != "" {
		query = query.Where("branch_id = ?", branch)
	}
	if visible, ok := decode.Bool(c.Query("isVisible")); ok {
		query = query.Where("is_visible = ?", visible)
	}
	var products []Product
	meta, err := s.paginate(c, query, "products", &products)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"products": products, "pagination": meta})
}

// CreateProduct handles POST /admin/products
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	if _, ok := decode.String(body["name"]); !ok {
		return validationError(c, "name is required")
	}
	if err := validateProduct(body); err != nil {
		return writeActionError(c, err)
	}
	return s.perform(c, s.actor(c), targetAction(models.ActionProductCreate, "", body), "Product created")
}

// UpdateProduct handles PATCH /admin/products/:id
func (s *Server) UpdateProduct(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	if len(body) == 0 {
		return validationError(c, "no product changes")
	}
	if err := validateProduct(body); err != nil {
		return writeActionError(c, err)
	}
	return s.perform(c, s.actor(c), targetAction(models.ActionProductUpdate, c.Params("id"), body), "Product updated")
}

// SetProductVisibility handles PATCH /admin/products/:id/visibility
func (s *Server) SetProductVisibility(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	if _, ok := decode.Bool(body["isVisible"]); !ok {
		return validationError(c, "isVisible is required")
	}
	return s.perform(c, s.actor(c), targetAction(models.ActionProductVisibilityChange, c.Params("id"), body), "Product visibility updated")
}

// DeleteProduct handles DELETE /admin/products/:id
func (s *Server) DeleteProduct(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	return s.perform(c, s.actor(c), targetAction(models.ActionProductDelete, c.Params("id"), body), "Product deleted")
}

// ListAuditLogs handles GET /admin/audit-logs
func (s *Server) ListAuditLogs(c *fiber.Ctx) error {
	query := s.db.WithContext(c.UserContext()).Model(&AuditLog{})
	if action := strings.ToUpper(c.Query("action")); action != "" {
		query = query.Where("action = ?", action)
	}
	if actor := c.Query("actorUserId"); actor != "" {
		query = query.Where("actor_user_id = ?", actor)
	}
	var logs []AuditLog
	meta, err := s.paginate(c, query, "audit_logs", &logs)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"logs": logs, "pagination": meta})
}

// DeleteAuditLog handles DELETE /admin/audit-logs/:id
func (s *Server) DeleteAuditLog(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	if decode.StringPtr(body["reason"]) == nil {
		return validationError(c, "reason is required")
	}
	return s.perform(c, s.actor(c), targetAction(models.ActionLogDelete, c.Params("id"), body), "Audit log deleted")
}

// ListInventoryRequests handles GET /admin/inventory-requests
func (s *Server) ListInventoryRequests(c *fiber.Ctx) error {
	query := s.db.WithContext(c.UserContext()).Model(&InventoryRequest{})
	if status := strings.ToUpper(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if branch := c.Query("branchId"); branch != "" {
		query = query.Where("branch_id = ?", branch)
	}
	var requests []InventoryRequest
	meta, err := s.paginate(c, query, "inventory_requests", &requests)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"requests": requests, "pagination": meta})
}

// DecideInventoryRequest handles PATCH /admin/inventory-requests/:id/decision
func (s *Server) DecideInventoryRequest(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	if _, ok := decode.Enum(body["decision"], models.DecisionApprove, models.DecisionReject); !ok {
		return validationError(c, "decision must be APPROVE or REJECT")
	}
	return s.perform(c, s.actor(c), targetAction(models.ActionInventoryRequestDecision, c.Params("id"), body), "Inventory request decided")
}

// UpdateStaffRule handles PATCH /admin/staff-rules/:role
func (s *Server) UpdateStaffRule(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	role, ok := decode.Enum(c.Params("role"), models.VisibilityManager, models.VisibilitySales)
	if !ok {
		return validationError(c, "role must be MANAGER or SALES")
	}
	_, hasPermissions := decode.Object(body["permissions"])
	_, hasAuto := decode.Object(body["autoApprove"])
	if !hasPermissions && !hasAuto {
		return validationError(c, "permissions or autoApprove is required")
	}
	body["role"] = string(role)
	return s.perform(c, s.actor(c), targetAction(models.ActionStaffRuleChange, string(role), body), "Staff rule updated")
}
