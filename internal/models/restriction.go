package models

import "time"

// ControlType distinguishes restrictions from bans.
type ControlType string

const (
	ControlTypeRestriction ControlType = "RESTRICTION"
	ControlTypeBan         ControlType = "BAN"
)

// RestrictionMode says whether a restriction blocks the whole account or only admin actions.
type RestrictionMode string

const (
	RestrictionModeAccount      RestrictionMode = "ACCOUNT"
	RestrictionModeAdminActions RestrictionMode = "ADMIN_ACTIONS"
)

// AdminActionBlock is an action category an ADMIN_ACTIONS restriction can disable.
type AdminActionBlock string

const (
	BlockProductCreate            AdminActionBlock = "PRODUCT_CREATE"
	BlockProductEdit              AdminActionBlock = "PRODUCT_EDIT"
	BlockProductVisibility        AdminActionBlock = "PRODUCT_VISIBILITY"
	BlockProductDelete            AdminActionBlock = "PRODUCT_DELETE"
	BlockInventoryRequestDecision AdminActionBlock = "INVENTORY_REQUEST_DECISION"
	BlockUserAccessManage         AdminActionBlock = "USER_ACCESS_MANAGE"
	BlockApprovalReview           AdminActionBlock = "APPROVAL_REVIEW"
	BlockStaffRuleManage          AdminActionBlock = "STAFF_RULE_MANAGE"
	BlockLogDelete                AdminActionBlock = "LOG_DELETE"
)

// AdminActionBlocks lists every block category.
var AdminActionBlocks = []AdminActionBlock{
	BlockProductCreate,
	BlockProductEdit,
	BlockProductVisibility,
	BlockProductDelete,
	BlockInventoryRequestDecision,
	BlockUserAccessManage,
	BlockApprovalReview,
	BlockStaffRuleManage,
	BlockLogDelete,
}

// ResolveActionType names the control a resolve call lifts.
type ResolveActionType string

const (
	ResolveRestriction ResolveActionType = "RESTRICTION"
	ResolveBan         ResolveActionType = "BAN"
	ResolveTermination ResolveActionType = "TERMINATION"
)

// AccessRestriction is one timed moderation control applied to a user.
type AccessRestriction struct {
	ID                 string             `json:"id" yaml:"id"`
	UserID             string             `json:"userId" yaml:"userId"`
	Type               ControlType        `json:"type" yaml:"type"`
	Mode               RestrictionMode    `json:"mode,omitempty" yaml:"mode,omitempty"`
	BlockedActions     []AdminActionBlock `json:"blockedActions,omitempty" yaml:"blockedActions,omitempty"`
	Reason             *string            `json:"reason" yaml:"reason"`
	Note               *string            `json:"note" yaml:"note"`
	StartsAt           *time.Time         `json:"startsAt" yaml:"startsAt"`
	EndsAt             *time.Time         `json:"endsAt" yaml:"endsAt"`
	IsActive           bool               `json:"isActive" yaml:"isActive"`
	LiftedAt           *time.Time         `json:"liftedAt" yaml:"liftedAt"`
	StatusBeforeAction *AccountStatus     `json:"statusBeforeAction" yaml:"statusBeforeAction"`
	StatusRestoredAt   *time.Time         `json:"statusRestoredAt" yaml:"statusRestoredAt"`
	RoleDowngradedFrom *Role              `json:"roleDowngradedFrom" yaml:"roleDowngradedFrom"`
	RoleRestoredAt     *time.Time         `json:"roleRestoredAt" yaml:"roleRestoredAt"`
	Metadata           map[string]any     `json:"metadata" yaml:"metadata"`
	CreatedAt          *time.Time         `json:"createdAt" yaml:"createdAt"`
	UpdatedAt          *time.Time         `json:"updatedAt" yaml:"updatedAt"`
	CreatedByUser      *UserReference     `json:"createdByUser" yaml:"createdByUser"`
	UpdatedByUser      *UserReference     `json:"updatedByUser" yaml:"updatedByUser"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// EffectiveActive reports whether the control is in force at now. An ended
// window is shown as inactive even when the server has not resolved it yet.
func (r AccessRestriction) EffectiveActive(now time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.EndsAt != nil && !now.Before(*r.EndsAt) {
		return false
	}
	return true
}

// Blocks reports whether the control disables the given admin action.
func (r AccessRestriction) Blocks(action AdminActionBlock) bool {
	if r.Type == ControlTypeBan || r.Mode == RestrictionModeAccount {
		return true
	}
	for _, blocked := range r.BlockedActions {
		if blocked == action {
			return true
		}
	}
	return false
}
