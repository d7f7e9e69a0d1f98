package sandbox

import (
	"context"
	"errors"
	"strings"

	"admingate/internal/models"
	"admingate/internal/observability"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	controlRestriction = string(models.ControlTypeRestriction)
	controlBan         = string(models.ControlTypeBan)
)

// actionSpec ties a gated action to the capability it needs and the admin
// action block that disables it.
type actionSpec struct {
	ActionType models.ApprovalActionType
	Capability models.Capability
	Block      models.AdminActionBlock
	TargetType string
}

var actionSpecs = map[models.ApprovalActionType]actionSpec{
	models.ActionUserStatusChange:         {models.ActionUserStatusChange, models.CapabilityUserStatusManage, models.BlockUserAccessManage, "USER"},
	models.ActionUserRestrictionUpsert:    {models.ActionUserRestrictionUpsert, models.CapabilityUserRestrict, models.BlockUserAccessManage, "USER"},
	models.ActionUserBan:                  {models.ActionUserBan, models.CapabilityUserBan, models.BlockUserAccessManage, "USER"},
	models.ActionProductCreate:            {models.ActionProductCreate, models.CapabilityProductCreate, models.BlockProductCreate, "PRODUCT"},
	models.ActionProductUpdate:            {models.ActionProductUpdate, models.CapabilityProductEdit, models.BlockProductEdit, "PRODUCT"},
	models.ActionProductVisibilityChange:  {models.ActionProductVisibilityChange, models.CapabilityProductVisibility, models.BlockProductVisibility, "PRODUCT"},
	models.ActionProductDelete:            {models.ActionProductDelete, models.CapabilityProductDelete, models.BlockProductDelete, "PRODUCT"},
	models.ActionStaffRuleChange:          {models.ActionStaffRuleChange, models.CapabilityStaffRuleManage, models.BlockStaffRuleManage, "STAFF_RULE"},
	models.ActionLogDelete:                {models.ActionLogDelete, models.CapabilityLogDelete, models.BlockLogDelete, "AUDIT_LOG"},
	models.ActionInventoryRequestDecision: {models.ActionInventoryRequestDecision, models.CapabilityInventoryRequestDecision, models.BlockInventoryRequestDecision, "INVENTORY_REQUEST"},
}

// resolveSpec is never queued; lifting a control always executes.
var resolveSpec = actionSpec{actionResolve, models.CapabilityUserAccessResolve, models.BlockUserAccessManage, "USER"}

// pendingAction is everything needed to execute an action now or replay it
// after approval.
type pendingAction struct {
	Spec         actionSpec
	TargetUserID *string
	TargetID     *string
	Reason       *string
	Payload      JSONMap
}

func (a pendingAction) target() string {
	switch {
	case a.TargetID != nil:
		return *a.TargetID
	case a.TargetUserID != nil:
		return *a.TargetUserID
	}
	return ""
}

type executor func(ctx context.Context, tx *gorm.DB, actor *User, action pendingAction) (any, error)

// actionError carries an HTTP status and code out of an executor.
type actionError struct {
	status  int
	code    string
	message string
}

func (e *actionError) Error() string { return e.message }

func badRequest(message string) error {
	return &actionError{status: fiber.StatusBadRequest, code: models.CodeValidation, message: message}
}

func notFound(resource, id string) error {
	return &actionError{status: fiber.StatusNotFound, code: models.CodeNotFound, message: resource + " with ID " + id + " not found"}
}

func conflict(message string) error {
	return &actionError{status: fiber.StatusConflict, code: "CONFLICT", message: message}
}

func forbidden(code, message string) error {
	return &actionError{status: fiber.StatusForbidden, code: code, message: message}
}

func writeActionError(c *fiber.Ctx, err error) error {
	var ae *actionError
	if errors.As(err, &ae) {
		return respondWithCode(c, ae.status, ae.code, "", ae.message)
	}
	return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// profile computes the effective capability profile of user: staff rule
// defaults for the role, per-user grants on top, then the main admin override.
func (s *Server) profile(ctx context.Context, user *User) (models.CapabilityProfile, error) {
	role := models.VisibilityRole(user.Role)
	p := models.CapabilityProfile{
		UserID:         user.ID,
		VisibilityRole: role,
		IsMainAdmin:    user.IsMainAdmin,
		Enabled:        map[models.Capability]bool{},
		AutoApprove:    map[models.Capability]bool{},
		Modes:          s.policy.Modes(),
	}

	var rules []StaffRule
	done := s.dbMetrics.TrackQuery("select", "staff_rules")
	err := s.db.WithContext(ctx).Where("role = ?", user.Role).Find(&rules).Error
	done()
	if err != nil {
		return p, err
	}
	for _, r := range rules {
		p.Enabled[models.Capability(r.Capability)] = r.Enabled
		p.AutoApprove[models.Capability(r.Capability)] = r.AutoApprove
	}

	var grants []CapabilityGrant
	done = s.dbMetrics.TrackQuery("select", "capability_grants")
	err = s.db.WithContext(ctx).Where("user_id = ?", user.ID).Find(&grants).Error
	done()
	if err != nil {
		return p, err
	}
	for _, g := range grants {
		p.Enabled[models.Capability(g.Capability)] = g.Enabled
		p.AutoApprove[models.Capability(g.Capability)] = g.AutoApprove
	}
	return s.policy.ApplyMainAdminOverride(p), nil
}

// blocked reports whether an active ADMIN_ACTIONS restriction on userID
// disables block.
func (s *Server) blocked(ctx context.Context, userID string, block models.AdminActionBlock) (bool, error) {
	var controls []Restriction
	done := s.dbMetrics.TrackQuery("select", "restrictions")
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND mode = ? AND is_active = ?", userID, controlRestriction, string(models.RestrictionModeAdminActions), true).
		Find(&controls).Error
	done()
	if err != nil {
		return false, err
	}
	now := s.now()
	for _, r := range controls {
		if now.Before(r.StartsAt) {
			continue
		}
		for _, b := range splitBlocks(r.Blocks) {
			if b == string(block) {
				return true, nil
			}
		}
	}
	return false, nil
}

// authorize checks the action block and the capability flag of actor.
func (s *Server) authorize(ctx context.Context, actor *User, spec actionSpec) (models.CapabilityProfile, error) {
	isBlocked, err := s.blocked(ctx, actor.ID, spec.Block)
	if err != nil {
		return models.CapabilityProfile{}, err
	}
	if isBlocked {
		return models.CapabilityProfile{}, forbidden("ADMIN_ACTION_RESTRICTED", "Admin action "+string(spec.Block)+" is restricted for your account")
	}
	profile, err := s.profile(ctx, actor)
	if err != nil {
		return profile, err
	}
	if !profile.Can(spec.Capability) {
		return profile, forbidden("CAPABILITY_DISABLED", "Capability "+string(spec.Capability)+" is not enabled for your account")
	}
	return profile, nil
}

// perform executes action for actor or queues it for review, depending on
// the approval mode of its capability.
func (s *Server) perform(c *fiber.Ctx, actor *User, action pendingAction, message string) error {
	ctx := c.UserContext()
	profile, err := s.authorize(ctx, actor, action.Spec)
	if err != nil {
		return writeActionError(c, err)
	}

	if s.policy.ExpectsApproval(profile, action.Spec.Capability) {
		if action.TargetUserID != nil {
			if _, err := s.moderatedTarget(ctx, s.db, actor, action); err != nil {
				return writeActionError(c, err)
			}
		}
		req := ApprovalRequest{
			ActionType:        string(action.Spec.ActionType),
			Status:            string(models.ApprovalStatusPending),
			TargetUserID:      action.TargetUserID,
			TargetID:          action.TargetID,
			RequestedByUserID: actor.ID,
			RequestReason:     action.Reason,
			Payload:           action.Payload,
		}
		done := s.dbMetrics.TrackQuery("insert", "approval_requests")
		err := s.db.WithContext(ctx).Create(&req).Error
		done()
		if err != nil {
			return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		observability.LogServiceCall(ctx, "sandbox", string(action.Spec.ActionType), map[string]any{
			"outcome":             "queued",
			"approval_request_id": req.ID,
		})
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message":         "Approval request submitted",
			"code":            models.CodeApprovalRequestSubmitted,
			"approvalRequest": approvalView(&req),
		})
	}

	result, err := s.execute(ctx, actor, action)
	if err != nil {
		return writeActionError(c, err)
	}
	observability.LogServiceCall(ctx, "sandbox", string(action.Spec.ActionType), map[string]any{"outcome": "executed"})
	return c.JSON(fiber.Map{
		"message":         message,
		"code":            "ACTION_EXECUTED",
		"executionResult": result,
	})
}

// execute runs the action in a transaction and records an audit entry.
func (s *Server) execute(ctx context.Context, actor *User, action pendingAction) (any, error) {
	span, ctx := observability.NewSpan(ctx, "sandbox.execute "+string(action.Spec.ActionType))
	defer span.End()

	var result any
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.executeTx(ctx, tx, actor, action)
		return err
	})
	if err != nil {
		span.SetError(err)
	}
	return result, err
}

func (s *Server) executeTx(ctx context.Context, tx *gorm.DB, actor *User, action pendingAction) (any, error) {
	run, ok := s.executors[action.Spec.ActionType]
	if !ok {
		return nil, badRequest("unsupported action " + string(action.Spec.ActionType))
	}
	result, err := run(ctx, tx, actor, action)
	if err != nil {
		return nil, err
	}
	return result, s.audit(tx, actor, action)
}

func (s *Server) audit(tx *gorm.DB, actor *User, action pendingAction) error {
	entry := AuditLog{
		Action:      string(action.Spec.ActionType),
		ActorUserID: actor.ID,
		TargetType:  action.Spec.TargetType,
		TargetID:    action.target(),
		Metadata:    action.Payload,
	}
	defer s.dbMetrics.TrackQuery("insert", "audit_logs")()
	return tx.Create(&entry).Error
}

// guardTarget refuses self-moderation and moderation of the main admin by
// anyone else.
func guardTarget(actor, target *User) error {
	if actor.ID == target.ID {
		return forbidden("FORBIDDEN", "You cannot moderate your own account")
	}
	if target.IsMainAdmin && !actor.IsMainAdmin {
		return forbidden("FORBIDDEN", "The main admin account cannot be moderated")
	}
	return nil
}

func (s *Server) loadUser(ctx context.Context, tx *gorm.DB, id string) (*User, error) {
	var user User
	done := s.dbMetrics.TrackQuery("select", "users")
	err := tx.WithContext(ctx).Preload("Branch").First(&user, "id = ?", id).Error
	done()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("User", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// expireControls lifts controls whose window has ended and restores the
// account status they replaced.
func (s *Server) expireControls(ctx context.Context, tx *gorm.DB, userID string) error {
	var ended []Restriction
	done := s.dbMetrics.TrackQuery("select", "restrictions")
	err := tx.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND ends_at IS NOT NULL AND ends_at <= ?", userID, true, s.now()).
		Find(&ended).Error
	done()
	if err != nil {
		return err
	}
	for i := range ended {
		if err := s.liftControl(ctx, tx, &ended[i], nil); err != nil {
			return err
		}
	}
	return nil
}

// liftControl deactivates r and, when no other account-level control
// remains, puts the user back to the status recorded before it.
func (s *Server) liftControl(ctx context.Context, tx *gorm.DB, r *Restriction, by *User) error {
	now := s.now()
	r.IsActive = false
	r.LiftedAt = &now
	if by != nil {
		r.UpdatedByUserID = &by.ID
	}
	if err := tx.WithContext(ctx).Save(r).Error; err != nil {
		return err
	}
	return s.restoreStatus(ctx, tx, r)
}

// restoreStatus puts back the status r displaced once no other active ban or
// ACCOUNT control holds the user.
func (s *Server) restoreStatus(ctx context.Context, tx *gorm.DB, r *Restriction) error {
	if r.StatusBeforeAction == nil || r.StatusRestoredAt != nil {
		return nil
	}
	now := s.now()

	var remaining int64
	err := tx.WithContext(ctx).Model(&Restriction{}).
		Where("user_id = ? AND is_active = ? AND (type = ? OR mode = ?)", r.UserID, true, controlBan, string(models.RestrictionModeAccount)).
		Count(&remaining).Error
	if err != nil || remaining > 0 {
		return err
	}
	if err := tx.WithContext(ctx).Model(&User{}).Where("id = ?", r.UserID).Update("status", *r.StatusBeforeAction).Error; err != nil {
		return err
	}
	r.StatusRestoredAt = &now
	return tx.WithContext(ctx).Model(r).Update("status_restored_at", now).Error
}

func joinBlocks(blocks []models.AdminActionBlock) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = string(b)
	}
	return strings.Join(parts, ",")
}
