package sandbox

import (
	"strings"
	"time"

	"admingate/internal/decode"
	"admingate/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// readBody decodes a JSON object body. An empty body reads as an empty object.
func readBody(c *fiber.Ctx) (JSONMap, error) {
	body := JSONMap{}
	if len(c.Body()) == 0 {
		return body, nil
	}
	if err := c.BodyParser(&body); err != nil {
		return nil, badRequest("Invalid request body")
	}
	return body, nil
}

func validationError(c *fiber.Ctx, message string) error {
	return respondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}

func profileView(p models.CapabilityProfile) fiber.Map {
	flags := func(m map[models.Capability]bool) map[string]bool {
		out := make(map[string]bool, len(models.Capabilities))
		for _, c := range models.Capabilities {
			out[string(c)] = m[c]
		}
		return out
	}
	modes := make(map[string]string, len(p.Modes))
	for c, m := range p.Modes {
		modes[string(c)] = string(m)
	}
	return fiber.Map{
		"userId":         p.UserID,
		"visibilityRole": p.VisibilityRole,
		"isMainAdmin":    p.IsMainAdmin,
		"permissions":    flags(p.Enabled),
		"autoApprove":    flags(p.AutoApprove),
		"modes":          modes,
	}
}

// paginate counts query, then loads the requested page into dest.
func (s *Server) paginate(c *fiber.Ctx, query *gorm.DB, table string, dest any, preload ...string) (fiber.Map, error) {
	page, limit := pagination(c)
	var total int64
	done := s.dbMetrics.TrackQuery("select", table)
	defer done()
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	rows := query.Session(&gorm.Session{})
	for _, assoc := range preload {
		rows = rows.Preload(assoc)
	}
	if err := rows.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(dest).Error; err != nil {
		return nil, err
	}
	return pageView(page, limit, total), nil
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// GetMe handles GET /admin/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	actor := s.actor(c)
	profile, err := s.profile(c.UserContext(), actor)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"user": userView(actor), "capabilities": profileView(profile)})
}

func (s *Server) listUsers(c *fiber.Ctx, customers bool, key string) error {
	query := s.db.WithContext(c.UserContext()).Model(&User{})
	if customers {
		query = query.Where("role = ?", string(models.RoleCustomer))
	} else if role := strings.ToUpper(c.Query("role")); role != "" {
		query = query.Where("role = ?", role)
	}
	if status := strings.ToUpper(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		pattern := likePattern(search)
		query = query.Where("LOWER(email) LIKE ? OR LOWER(display_name) LIKE ?", pattern, pattern)
	}

	var users []User
	meta, err := s.paginate(c, query, "users", &users, "Branch")
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	views := make([]fiber.Map, len(users))
	for i := range users {
		views[i] = userView(&users[i])
	}
	return c.JSON(fiber.Map{key: views, "pagination": meta})
}

// ListUsers handles GET /admin/users
func (s *Server) ListUsers(c *fiber.Ctx) error {
	return s.listUsers(c, false, "users")
}

// ListCustomers handles GET /admin/customers
func (s *Server) ListCustomers(c *fiber.Ctx) error {
	return s.listUsers(c, true, "customers")
}

// GetUserDetail handles GET /admin/users/:id
func (s *Server) GetUserDetail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	if err := s.expireControls(ctx, s.db, id); err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	user, err := s.loadUser(ctx, s.db, id)
	if err != nil {
		return writeActionError(c, err)
	}

	var controls []Restriction
	done := s.dbMetrics.TrackQuery("select", "restrictions")
	err = s.db.WithContext(ctx).Where("user_id = ?", id).Order("created_at DESC").Find(&controls).Error
	done()
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	var pending []ApprovalRequest
	done = s.dbMetrics.TrackQuery("select", "approval_requests")
	err = s.db.WithContext(ctx).Where("target_user_id = ? AND status = ?", id, string(models.ApprovalStatusPending)).
		Order("created_at DESC").Find(&pending).Error
	done()
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	restrictions := make([]fiber.Map, len(controls))
	for i := range controls {
		restrictions[i] = restrictionView(&controls[i])
	}
	approvals := make([]fiber.Map, len(pending))
	for i := range pending {
		approvals[i] = approvalView(&pending[i])
	}
	response := fiber.Map{
		"user":             userView(user),
		"restrictions":     restrictions,
		"pendingApprovals": approvals,
	}
	if models.Role(user.Role) != models.RoleCustomer {
		profile, err := s.profile(ctx, user)
		if err != nil {
			return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		response["capabilities"] = profileView(profile)
	}
	return c.JSON(response)
}

func userAction(spec models.ApprovalActionType, userID string, body JSONMap) pendingAction {
	return pendingAction{
		Spec:         actionSpecs[spec],
		TargetUserID: &userID,
		Reason:       decode.StringPtr(body["reason"]),
		Payload:      body,
	}
}

// UpdateUserStatus handles PATCH /admin/users/:id/status
func (s *Server) UpdateUserStatus(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	status, ok := decode.Enum(body["status"], models.AccountStatuses...)
	if !ok {
		return validationError(c, "status is invalid")
	}
	if status != models.AccountStatusActive && decode.StringPtr(body["reason"]) == nil {
		return validationError(c, "reason is required")
	}
	body["status"] = string(status)
	return s.perform(c, s.actor(c), userAction(models.ActionUserStatusChange, c.Params("id"), body), "User status updated")
}

// UpsertRestriction handles POST /admin/users/:id/restrictions
func (s *Server) UpsertRestriction(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	if _, ok := decode.String(body["restrictionId"]); !ok && decode.StringPtr(body["reason"]) == nil {
		return validationError(c, "reason is required")
	}
	if raw, present := body["restrictionMode"]; present {
		if _, ok := decode.Enum(raw, models.RestrictionModeAccount, models.RestrictionModeAdminActions); !ok {
			return validationError(c, "restrictionMode is invalid")
		}
	}
	if err := validateWindow(body); err != nil {
		return writeActionError(c, err)
	}
	return s.perform(c, s.actor(c), userAction(models.ActionUserRestrictionUpsert, c.Params("id"), body), "Restriction saved")
}

// BanUser handles POST /admin/users/:id/ban
func (s *Server) BanUser(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	if decode.StringPtr(body["reason"]) == nil {
		return validationError(c, "reason is required")
	}
	if err := validateWindow(body); err != nil {
		return writeActionError(c, err)
	}
	return s.perform(c, s.actor(c), userAction(models.ActionUserBan, c.Params("id"), body), "User banned")
}

// ResolveUserAccess handles PATCH /admin/users/:id/admin-actions/resolve.
// Lifting a control is never queued.
func (s *Server) ResolveUserAccess(c *fiber.Ctx) error {
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	kind, ok := decode.Enum(body["actionType"], models.ResolveRestriction, models.ResolveBan, models.ResolveTermination)
	if !ok {
		return validationError(c, "actionType is invalid")
	}
	_, hasControl := decode.String(body["controlId"])
	if kind != models.ResolveTermination && !hasControl {
		return validationError(c, "controlId is required")
	}
	body["actionType"] = string(kind)

	ctx := c.UserContext()
	actor := s.actor(c)
	if _, err := s.authorize(ctx, actor, resolveSpec); err != nil {
		return writeActionError(c, err)
	}
	userID := c.Params("id")
	result, err := s.execute(ctx, actor, pendingAction{Spec: resolveSpec, TargetUserID: &userID, Payload: body})
	if err != nil {
		return writeActionError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":         "Access control resolved",
		"code":            "ACTION_EXECUTED",
		"executionResult": result,
	})
}

func validateWindow(body JSONMap) error {
	startsAt := time.Time{}
	if raw, present := body["startsAt"]; present {
		t, ok := decode.Time(raw)
		if !ok {
			return badRequest("startsAt is invalid")
		}
		startsAt = t
	}
	if raw, present := body["endsAt"]; present && raw != nil {
		end, ok := decode.Time(raw)
		if !ok {
			return badRequest("endsAt is invalid")
		}
		if !startsAt.IsZero() && !end.After(startsAt) {
			return badRequest("endsAt must be after startsAt")
		}
	}
	return nil
}
