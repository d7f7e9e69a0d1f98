package models

// Capability is a named permission an admin-tier user may hold.
type Capability string

const (
	CapabilityUserStatusManage         Capability = "USER_STATUS_MANAGE"
	CapabilityUserRestrict             Capability = "USER_RESTRICT"
	CapabilityUserBan                  Capability = "USER_BAN"
	CapabilityUserAccessResolve        Capability = "USER_ACCESS_RESOLVE"
	CapabilityProductCreate            Capability = "PRODUCT_CREATE"
	CapabilityProductEdit              Capability = "PRODUCT_EDIT"
	CapabilityProductVisibility        Capability = "PRODUCT_VISIBILITY"
	CapabilityProductDelete            Capability = "PRODUCT_DELETE"
	CapabilityInventoryRequestDecision Capability = "INVENTORY_REQUEST_DECISION"
	CapabilityApprovalReview           Capability = "APPROVAL_REVIEW"
	CapabilityStaffRuleManage          Capability = "STAFF_RULE_MANAGE"
	CapabilityLogDelete                Capability = "LOG_DELETE"
)

// Capabilities lists every known capability.
var Capabilities = []Capability{
	CapabilityUserStatusManage,
	CapabilityUserRestrict,
	CapabilityUserBan,
	CapabilityUserAccessResolve,
	CapabilityProductCreate,
	CapabilityProductEdit,
	CapabilityProductVisibility,
	CapabilityProductDelete,
	CapabilityInventoryRequestDecision,
	CapabilityApprovalReview,
	CapabilityStaffRuleManage,
	CapabilityLogDelete,
}

// ApprovalMode governs whether a capability's actions execute or queue.
type ApprovalMode string

const (
	ApprovalModeDirect               ApprovalMode = "DIRECT"
	ApprovalModeMainAdminApproval    ApprovalMode = "MAIN_ADMIN_APPROVAL"
	ApprovalModeOptionalAutoApproval ApprovalMode = "OPTIONAL_AUTO_APPROVAL"
)

// ApprovalModes lists every approval mode.
var ApprovalModes = []ApprovalMode{
	ApprovalModeDirect,
	ApprovalModeMainAdminApproval,
	ApprovalModeOptionalAutoApproval,
}

// VisibilityRole is the coarse role tier used for display and default permissions.
type VisibilityRole string

const (
	VisibilityAdmin   VisibilityRole = "ADMIN"
	VisibilityManager VisibilityRole = "MANAGER"
	VisibilitySales   VisibilityRole = "SALES"
)

// CapabilityProfile is a per-admin permission snapshot.
type CapabilityProfile struct {
	UserID         string                      `json:"userId" yaml:"userId"`
	VisibilityRole VisibilityRole              `json:"visibilityRole" yaml:"visibilityRole"`
	IsMainAdmin    bool                        `json:"isMainAdmin" yaml:"isMainAdmin"`
	Enabled        map[Capability]bool         `json:"enabled" yaml:"enabled"`
	AutoApprove    map[Capability]bool         `json:"autoApprove" yaml:"autoApprove"`
	Modes          map[Capability]ApprovalMode `json:"modes" yaml:"modes"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// Can reports whether the capability is enabled.
func (p CapabilityProfile) Can(c Capability) bool {
	return p.Enabled[c]
}
