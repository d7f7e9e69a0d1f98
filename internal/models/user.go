// Package models contains the typed records produced by normalization.
package models

import "time"

// Role is the account role tier.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleSales    Role = "SALES"
	RoleCustomer Role = "CUSTOMER"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleManager, RoleSales, RoleCustomer}

// AccountStatus is the server-owned moderation state of an account.
type AccountStatus string

const (
	AccountStatusActive     AccountStatus = "ACTIVE"
	AccountStatusRestricted AccountStatus = "RESTRICTED"
	AccountStatusBanned     AccountStatus = "BANNED"
	AccountStatusSuspended  AccountStatus = "SUSPENDED"
	AccountStatusTerminated AccountStatus = "TERMINATED"
)

// AccountStatuses lists every known account status.
var AccountStatuses = []AccountStatus{
	AccountStatusActive,
	AccountStatusRestricted,
	AccountStatusBanned,
	AccountStatusSuspended,
	AccountStatusTerminated,
}

// UserReference is a minimal identity snapshot embedded in other records.
type UserReference struct {
	ID          string         `json:"id" yaml:"id"`
	Email       *string        `json:"email" yaml:"email"`
	Role        *Role          `json:"role" yaml:"role"`
	Status      *AccountStatus `json:"status" yaml:"status"`
	IsMainAdmin bool           `json:"isMainAdmin" yaml:"isMainAdmin"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// BranchMembership links an admin-tier user to a branch.
type BranchMembership struct {
	BranchID   string  `json:"branchId" yaml:"branchId"`
	BranchName *string `json:"branchName" yaml:"branchName"`
	Role       *string `json:"role" yaml:"role"`
	IsPrimary  bool    `json:"isPrimary" yaml:"isPrimary"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// AdminUser is a user row as shown in the console directory.
type AdminUser struct {
	ID          string             `json:"id" yaml:"id"`
	Email       *string            `json:"email" yaml:"email"`
	DisplayName *string            `json:"displayName" yaml:"displayName"`
	Phone       *string            `json:"phone" yaml:"phone"`
	Role        *Role              `json:"role" yaml:"role"`
	Status      *AccountStatus     `json:"status" yaml:"status"`
	IsMainAdmin bool               `json:"isMainAdmin" yaml:"isMainAdmin"`
	Branches    []BranchMembership `json:"branches" yaml:"branches"`
	CreatedAt   *time.Time         `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   *time.Time         `json:"updatedAt" yaml:"updatedAt"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// Reference returns the identity snapshot of the user.
func (u AdminUser) Reference() UserReference {
	return UserReference{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		Status:      u.Status,
		IsMainAdmin: u.IsMainAdmin,
		Raw:         u.Raw,
	}
}

// UserDetail is the full moderation view of one user.
type UserDetail struct {
	User             AdminUser           `json:"user" yaml:"user"`
	Restrictions     []AccessRestriction `json:"restrictions" yaml:"restrictions"`
	PendingApprovals []ApprovalRequest   `json:"pendingApprovals" yaml:"pendingApprovals"`
	Capabilities     *CapabilityProfile  `json:"capabilities" yaml:"capabilities"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// ActiveControls returns the restrictions and bans still in force at now.
func (d UserDetail) ActiveControls(now time.Time) []AccessRestriction {
	out := make([]AccessRestriction, 0, len(d.Restrictions))
	for _, r := range d.Restrictions {
		if r.EffectiveActive(now) {
			out = append(out, r)
		}
	}
	return out
}

// CurrentAdmin is the signed-in console user with its capability snapshot.
type CurrentAdmin struct {
	User         AdminUser         `json:"user" yaml:"user"`
	Capabilities CapabilityProfile `json:"capabilities" yaml:"capabilities"`
}
