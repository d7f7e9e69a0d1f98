package models

import "time"

// ApprovalActionType is the kind of moderation action waiting for review.
type ApprovalActionType string

const (
	ActionUserStatusChange         ApprovalActionType = "USER_STATUS_CHANGE"
	ActionUserRestrictionUpsert    ApprovalActionType = "USER_RESTRICTION_UPSERT"
	ActionUserBan                  ApprovalActionType = "USER_BAN"
	ActionProductCreate            ApprovalActionType = "PRODUCT_CREATE"
	ActionProductUpdate            ApprovalActionType = "PRODUCT_UPDATE"
	ActionProductVisibilityChange  ApprovalActionType = "PRODUCT_VISIBILITY_CHANGE"
	ActionProductDelete            ApprovalActionType = "PRODUCT_DELETE"
	ActionStaffRuleChange          ApprovalActionType = "STAFF_RULE_CHANGE"
	ActionLogDelete                ApprovalActionType = "LOG_DELETE"
	ActionInventoryRequestDecision ApprovalActionType = "INVENTORY_REQUEST_DECISION"
)

// ApprovalActionTypes lists every action type an approval request may carry.
var ApprovalActionTypes = []ApprovalActionType{
	ActionUserStatusChange,
	ActionUserRestrictionUpsert,
	ActionUserBan,
	ActionProductCreate,
	ActionProductUpdate,
	ActionProductVisibilityChange,
	ActionProductDelete,
	ActionStaffRuleChange,
	ActionLogDelete,
	ActionInventoryRequestDecision,
}

// ApprovalStatus is the lifecycle state of an approval request.
type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "PENDING"
	ApprovalStatusApproved  ApprovalStatus = "APPROVED"
	ApprovalStatusRejected  ApprovalStatus = "REJECTED"
	ApprovalStatusCancelled ApprovalStatus = "CANCELLED"
)

// ApprovalStatuses lists every approval status.
var ApprovalStatuses = []ApprovalStatus{
	ApprovalStatusPending,
	ApprovalStatusApproved,
	ApprovalStatusRejected,
	ApprovalStatusCancelled,
}

// Decision is a reviewer verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// ApprovalRequest is a queued moderation action awaiting a higher-authority decision.
type ApprovalRequest struct {
	ID                string             `json:"id" yaml:"id"`
	ActionType        ApprovalActionType `json:"actionType" yaml:"actionType"`
	Status            ApprovalStatus     `json:"status" yaml:"status"`
	TargetUserID      *string            `json:"targetUserId" yaml:"targetUserId"`
	RequestedByUserID *string            `json:"requestedByUserId" yaml:"requestedByUserId"`
	ReviewedByUserID  *string            `json:"reviewedByUserId" yaml:"reviewedByUserId"`
	RequestReason     *string            `json:"requestReason" yaml:"requestReason"`
	DecisionNote      *string            `json:"decisionNote" yaml:"decisionNote"`
	RequestPayload    map[string]any     `json:"requestPayload" yaml:"requestPayload"`
	CreatedAt         *time.Time         `json:"createdAt" yaml:"createdAt"`
	UpdatedAt         *time.Time         `json:"updatedAt" yaml:"updatedAt"`
	DecidedAt         *time.Time         `json:"decidedAt" yaml:"decidedAt"`
	TargetUser        *UserReference     `json:"targetUser" yaml:"targetUser"`
	RequestedByUser   *UserReference     `json:"requestedByUser" yaml:"requestedByUser"`
	ReviewedByUser    *UserReference     `json:"reviewedByUser" yaml:"reviewedByUser"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// IsTerminal reports whether no further transition is possible.
func (a ApprovalRequest) IsTerminal() bool {
	return a.Status != ApprovalStatusPending
}
