package sandbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"admingate/internal/decode"
	"admingate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const actionResolve models.ApprovalActionType = "USER_ACCESS_RESOLVE"

// maxControlHours bounds relative ban durations to a century.
const maxControlHours = 100 * 365 * 24

func (s *Server) actionExecutors() map[models.ApprovalActionType]executor {
	return map[models.ApprovalActionType]executor{
		models.ActionUserStatusChange:         s.applyStatusChange,
		models.ActionUserRestrictionUpsert:    s.applyRestriction,
		models.ActionUserBan:                  s.applyBan,
		actionResolve:                         s.applyResolve,
		models.ActionProductCreate:            s.applyProductCreate,
		models.ActionProductUpdate:            s.applyProductUpdate,
		models.ActionProductVisibilityChange:  s.applyProductVisibility,
		models.ActionProductDelete:            s.applyProductDelete,
		models.ActionStaffRuleChange:          s.applyStaffRule,
		models.ActionLogDelete:                s.applyLogDelete,
		models.ActionInventoryRequestDecision: s.applyInventoryDecision,
	}
}

func (s *Server) moderatedTarget(ctx context.Context, tx *gorm.DB, actor *User, action pendingAction) (*User, error) {
	if action.TargetUserID == nil {
		return nil, badRequest("target user is required")
	}
	target, err := s.loadUser(ctx, tx, *action.TargetUserID)
	if err != nil {
		return nil, err
	}
	if err := guardTarget(actor, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *Server) applyStatusChange(ctx context.Context, tx *gorm.DB, actor *User, action pendingAction) (any, error) {
	target, err := s.moderatedTarget(ctx, tx, actor, action)
	if err != nil {
		return nil, err
	}
	status, _ := decode.Enum(action.Payload["status"], models.AccountStatuses...)
	if status == "" {
		return nil, badRequest("status is invalid")
	}
	target.Status = string(status)
	if err := tx.WithContext(ctx).Model(target).Update("status", target.Status).Error; err != nil {
		return nil, err
	}
	return userView(target), nil
}

func (s *Server) windowFrom(payload JSONMap) (time.Time, *time.Time) {
	startsAt, ok := decode.Time(payload["startsAt"])
	if !ok {
		startsAt = s.now()
	}
	return startsAt, decode.TimePtr(payload["endsAt"])
}

func (s *Server) applyRestriction(ctx context.Context, tx *gorm.DB, actor *User, action pendingAction) (any, error) {
	target, err := s.moderatedTarget(ctx, tx, actor, action)
	if err != nil {
		return nil, err
	}
	p := action.Payload

	var r Restriction
	id, updating := decode.String(p["restrictionId"])
	if updating {
		err := tx.WithContext(ctx).First(&r, "id = ? AND user_id = ? AND type = ?", id, target.ID, controlRestriction).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Restriction", id)
		}
		if err != nil {
			return nil, err
		}
		r.UpdatedByUserID = &actor.ID
	} else {
		r = Restriction{UserID: target.ID, Type: controlRestriction, IsActive: true, CreatedByUserID: &actor.ID}
	}
	previousMode := models.RestrictionMode(r.Mode)

	// An update keeps every field the payload leaves out.
	mode, ok := decode.Enum(p["restrictionMode"], models.RestrictionModeAccount, models.RestrictionModeAdminActions)
	switch {
	case ok:
	case updating && previousMode != "":
		mode = previousMode
	default:
		mode = models.RestrictionModeAccount
	}
	r.Mode = string(mode)

	if startsAt, ok := decode.Time(p["startsAt"]); ok {
		r.StartsAt = startsAt
	} else if !updating {
		r.StartsAt = s.now()
	}
	if raw, present := p["endsAt"]; present || !updating {
		r.EndsAt = decode.TimePtr(raw)
	}
	if r.EndsAt != nil && !r.EndsAt.After(r.StartsAt) {
		return nil, badRequest("endsAt must be after startsAt")
	}
	if reason := decode.StringPtr(p["reason"]); reason != nil {
		r.Reason = reason
	}
	if note := decode.StringPtr(p["note"]); note != nil {
		r.Note = note
	}
	if r.Reason == nil {
		return nil, badRequest("reason is required")
	}
	if active, ok := decode.Bool(p["isActive"]); ok {
		r.IsActive = active
	}
	if meta, ok := decode.Object(p["metadata"]); ok {
		r.Metadata = JSONMap(meta)
	}

	if mode == models.RestrictionModeAdminActions {
		blocks, err := restrictionBlocks(p, &r, previousMode)
		if err != nil {
			return nil, err
		}
		r.Blocks = blocks
	} else {
		r.Blocks = ""
	}

	holdsAccount := r.StatusBeforeAction != nil && r.StatusRestoredAt == nil
	if mode == models.RestrictionModeAccount && r.IsActive && !holdsAccount {
		before := target.Status
		r.StatusBeforeAction = &before
		r.StatusRestoredAt = nil
		if err := tx.WithContext(ctx).Model(target).Update("status", string(models.AccountStatusRestricted)).Error; err != nil {
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Save(&r).Error; err != nil {
		return nil, err
	}
	if !r.IsActive && r.LiftedAt == nil {
		if err := s.liftControl(ctx, tx, &r, actor); err != nil {
			return nil, err
		}
	} else if mode == models.RestrictionModeAdminActions && holdsAccount {
		if err := s.restoreStatus(ctx, tx, &r); err != nil {
			return nil, err
		}
	}
	return restrictionView(&r), nil
}

// restrictionBlocks reads adminActionBlocks from the payload, falling back
// to the stored blocks when an ADMIN_ACTIONS control is updated without them.
func restrictionBlocks(p JSONMap, r *Restriction, previousMode models.RestrictionMode) (string, error) {
	raw, present := decode.Array(p["adminActionBlocks"])
	if !present && previousMode == models.RestrictionModeAdminActions && r.Blocks != "" {
		return r.Blocks, nil
	}
	var blocks []models.AdminActionBlock
	for _, item := range raw {
		if b, ok := decode.Enum(item, models.AdminActionBlocks...); ok {
			blocks = append(blocks, b)
		}
	}
	if len(blocks) == 0 {
		return "", badRequest("adminActionBlocks must name at least one action")
	}
	return joinBlocks(blocks), nil
}

func (s *Server) applyBan(ctx context.Context, tx *gorm.DB, actor *User, action pendingAction) (any, error) {
	target, err := s.moderatedTarget(ctx, tx, actor, action)
	if err != nil {
		return nil, err
	}
	p := action.Payload
	reason := decode.StringPtr(p["reason"])
	if reason == nil {
		return nil, badRequest("reason is required")
	}

	startsAt, endsAt := s.windowFrom(p)
	if endsAt == nil {
		if hours, ok := decode.Int(p["durationHours"]); ok && hours > 0 {
			if hours > maxControlHours {
				return nil, badRequest("durationHours is too long")
			}
			end := startsAt.Add(time.Duration(hours) * time.Hour)
			endsAt = &end
		} else if days, ok := decode.Int(p["durationDays"]); ok && days > 0 {
			if days > maxControlHours/24 {
				return nil, badRequest("durationDays is too long")
			}
			end := startsAt.AddDate(0, 0, days)
			endsAt = &end
		}
	}
	if endsAt != nil && !endsAt.After(startsAt) {
		return nil, badRequest("endsAt must be after startsAt")
	}

	before := target.Status
	ban := Restriction{
		UserID:             target.ID,
		Type:               controlBan,
		Reason:             reason,
		Note:               decode.StringPtr(p["note"]),
		StartsAt:           startsAt,
		EndsAt:             endsAt,
		IsActive:           true,
		StatusBeforeAction: &before,
		CreatedByUserID:    &actor.ID,
	}
	if meta, ok := decode.Object(p["metadata"]); ok {
		ban.Metadata = JSONMap(meta)
	}
	if err := tx.WithContext(ctx).Create(&ban).Error; err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(target).Update("status", string(models.AccountStatusBanned)).Error; err != nil {
		return nil, err
	}
	return restrictionView(&ban), nil
}

func (s *Server) applyResolve(ctx context.Context, tx *gorm.DB, actor *User, action pendingAction) (any, error) {
	target, err := s.moderatedTarget(ctx, tx, actor, action)
	if err != nil {
		return nil, err
	}
	p := action.Payload
	kind, _ := decode.Enum(p["actionType"], models.ResolveRestriction, models.ResolveBan, models.ResolveTermination)

	if kind == models.ResolveTermination {
		if models.AccountStatus(target.Status) != models.AccountStatusTerminated {
			return nil, conflict("user is not terminated")
		}
		if err := tx.WithContext(ctx).Model(target).Update("status", string(models.AccountStatusActive)).Error; err != nil {
			return nil, err
		}
		return userView(target), nil
	}

	id, ok := decode.String(p["controlId"])
	if kind == "" || !ok {
		return nil, badRequest("actionType and controlId are required")
	}
	var control Restriction
	err = tx.WithContext(ctx).First(&control, "id = ? AND user_id = ? AND type = ?", id, target.ID, string(kind)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Control", id)
	}
	if err != nil {
		return nil, err
	}
	if !control.IsActive {
		return nil, conflict("control is already lifted")
	}
	if note := decode.StringPtr(p["note"]); note != nil {
		control.Note = note
	}
	if err := s.liftControl(ctx, tx, &control, actor); err != nil {
		return nil, err
	}
	return restrictionView(&control), nil
}

func (s *Server) loadProduct(ctx context.Context, tx *gorm.DB, action pendingAction) (*Product, error) {
	if action.TargetID == nil {
		return nil, badRequest("product id is required")
	}
	var product Product
	err := tx.WithContext(ctx).First(&product, "id = ?", *action.TargetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Product", *action.TargetID)
	}
	return &product, err
}

// applyProductFields copies the present payload fields onto product.
func applyProductFields(product *Product, p JSONMap) error {
	if name, ok := decode.String(p["name"]); ok {
		product.Name = name
	}
	if sku, ok := decode.String(p["sku"]); ok {
		product.SKU = sku
	}
	if raw, present := p["price"]; present {
		price, ok := decode.Number(raw)
		if !ok || price < 0 {
			return badRequest("price must be a non-negative number")
		}
		product.Price = price
	}
	if raw, present := p["stock"]; present {
		stock, ok := decode.Int(raw)
		if !ok {
			return badRequest("stock must be a non-negative integer")
		}
		product.Stock = stock
	}
	if visible, ok := decode.Bool(p["isVisible"]); ok {
		product.IsVisible = visible
	}
	if branch := decode.StringPtr(p["branchId"]); branch != nil {
		product.BranchID = branch
	}
	return nil
}

func (s *Server) applyProductCreate(ctx context.Context, tx *gorm.DB, _ *User, action pendingAction) (any, error) {
	product := Product{IsVisible: true}
	if err := applyProductFields(&product, action.Payload); err != nil {
		return nil, err
	}
	if product.Name == "" {
		return nil, badRequest("name is required")
	}
	if product.SKU == "" {
		product.SKU = "SKU-" + strings.ToUpper(strings.ReplaceAll(product.Name, " ", "-"))
	}
	if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Server) applyProductUpdate(ctx context.Context, tx *gorm.DB, _ *User, action pendingAction) (any, error) {
	product, err := s.loadProduct(ctx, tx, action)
	if err != nil {
		return nil, err
	}
	if err := applyProductFields(product, action.Payload); err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Server) applyProductVisibility(ctx context.Context, tx *gorm.DB, _ *User, action pendingAction) (any, error) {
	product, err := s.loadProduct(ctx, tx, action)
	if err != nil {
		return nil, err
	}
	visible, ok := decode.Bool(action.Payload["isVisible"])
	if !ok {
		return nil, badRequest("isVisible is required")
	}
	if err := tx.WithContext(ctx).Model(product).Update("is_visible", visible).Error; err != nil {
		return nil, err
	}
	product.IsVisible = visible
	return product, nil
}

func (s *Server) applyProductDelete(ctx context.Context, tx *gorm.DB, _ *User, action pendingAction) (any, error) {
	product, err := s.loadProduct(ctx, tx, action)
	if err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(product).Error; err != nil {
		return nil, err
	}
	return map[string]any{"id": product.ID, "deleted": true}, nil
}

func (s *Server) applyLogDelete(ctx context.Context, tx *gorm.DB, _ *User, action pendingAction) (any, error) {
	if action.TargetID == nil {
		return nil, badRequest("log id is required")
	}
	result := tx.WithContext(ctx).Delete(&AuditLog{}, "id = ?", *action.TargetID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, notFound("AuditLog", *action.TargetID)
	}
	return map[string]any{"id": *action.TargetID, "deleted": true}, nil
}

func (s *Server) applyInventoryDecision(ctx context.Context, tx *gorm.DB, _ *User, action pendingAction) (any, error) {
	if action.TargetID == nil {
		return nil, badRequest("inventory request id is required")
	}
	var req InventoryRequest
	err := tx.WithContext(ctx).First(&req, "id = ?", *action.TargetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("InventoryRequest", *action.TargetID)
	}
	if err != nil {
		return nil, err
	}
	if req.Status != string(models.InventoryRequestPending) {
		return nil, conflict("inventory request is already " + strings.ToLower(req.Status))
	}
	decision, ok := decode.Enum(action.Payload["decision"], models.DecisionApprove, models.DecisionReject)
	if !ok {
		return nil, badRequest("decision must be APPROVE or REJECT")
	}

	now := s.now()
	req.DecidedAt = &now
	if note := decode.StringPtr(action.Payload["note"]); note != nil {
		req.Note = note
	}
	if decision == models.DecisionApprove {
		req.Status = string(models.InventoryRequestApproved)
		err := tx.WithContext(ctx).Model(&Product{}).Where("id = ?", req.ProductID).
			Update("stock", gorm.Expr("stock + ?", req.Quantity)).Error
		if err != nil {
			return nil, err
		}
	} else {
		req.Status = string(models.InventoryRequestRejected)
	}
	if err := tx.WithContext(ctx).Save(&req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Server) applyStaffRule(ctx context.Context, tx *gorm.DB, _ *User, action pendingAction) (any, error) {
	role, ok := decode.Enum(action.Payload["role"], models.VisibilityManager, models.VisibilitySales)
	if !ok {
		return nil, badRequest("role must be MANAGER or SALES")
	}
	var rules []StaffRule
	for _, key := range []string{"permissions", "autoApprove"} {
		flags, _ := decode.Object(action.Payload[key])
		for raw, v := range flags {
			c, ok := decode.Enum(raw, models.Capabilities...)
			if !ok {
				return nil, badRequest("unknown capability " + raw)
			}
			enabled, ok := decode.Bool(v)
			if !ok {
				continue
			}
			rule := s.staffRule(ctx, tx, role, c, rules)
			if key == "permissions" {
				rule.Enabled = enabled
			} else {
				rule.AutoApprove = enabled
			}
			rules = upsertRule(rules, rule)
		}
	}
	if len(rules) == 0 {
		return nil, badRequest("no staff rule changes")
	}
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rules).Error
	if err != nil {
		return nil, err
	}
	return map[string]any{"role": string(role), "rules": rules}, nil
}

// staffRule returns the pending or stored rule for role and c.
func (s *Server) staffRule(ctx context.Context, tx *gorm.DB, role models.VisibilityRole, c models.Capability, pending []StaffRule) StaffRule {
	for _, r := range pending {
		if r.Capability == string(c) {
			return r
		}
	}
	var stored StaffRule
	tx.WithContext(ctx).Where("role = ? AND capability = ?", string(role), string(c)).Limit(1).Find(&stored)
	if stored.Role == "" {
		return StaffRule{Role: string(role), Capability: string(c)}
	}
	return stored
}

func upsertRule(rules []StaffRule, rule StaffRule) []StaffRule {
	for i := range rules {
		if rules[i].Capability == rule.Capability {
			rules[i] = rule
			return rules
		}
	}
	return append(rules, rule)
}
