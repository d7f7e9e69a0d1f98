package sandbox

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base holds the identity and timestamps shared by every sandbox record.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a random id to new records.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// JSONMap stores an object in a text column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *JSONMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("unsupported JSONMap source")
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

type User struct {
	Base
	Email       string  `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string  `json:"displayName"`
	Phone       string  `json:"phone,omitempty"`
	Role        string  `gorm:"index;not null" json:"role"`
	Status      string  `gorm:"index;not null;default:ACTIVE" json:"status"`
	IsMainAdmin bool    `json:"isMainAdmin"`
	BranchID    *string `gorm:"size:36" json:"branchId,omitempty"`
	Branch      *Branch `json:"-"`
}

type Branch struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Code     string `gorm:"uniqueIndex;not null" json:"code"`
	City     string `json:"city"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

type Product struct {
	Base
	Name      string         `gorm:"not null" json:"name"`
	SKU       string         `gorm:"uniqueIndex;not null" json:"sku"`
	Price     float64        `json:"price"`
	Stock     int            `json:"stock"`
	IsVisible bool           `json:"isVisible"`
	BranchID  *string        `gorm:"size:36" json:"branchId,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type AuditLog struct {
	Base
	Action      string  `gorm:"index;not null" json:"action"`
	ActorUserID string  `gorm:"index" json:"actorUserId"`
	TargetType  string  `json:"targetType"`
	TargetID    string  `json:"targetId"`
	Metadata    JSONMap `gorm:"type:text" json:"metadata"`
}

type InventoryRequest struct {
	Base
	ProductID         string     `gorm:"size:36;not null" json:"productId"`
	BranchID          string     `gorm:"size:36;not null" json:"branchId"`
	Quantity          int        `json:"quantity"`
	Status            string     `gorm:"index;not null" json:"status"`
	Note              *string    `json:"note"`
	RequestedByUserID string     `gorm:"size:36" json:"requestedByUserId"`
	DecidedAt         *time.Time `json:"decidedAt"`
}

// Restriction is a restriction or ban control on a user.
type Restriction struct {
	Base
	UserID             string     `gorm:"size:36;index;not null"`
	Type               string     `gorm:"not null"`
	Mode               string
	Blocks             string
	Reason             *string
	Note               *string
	StartsAt           time.Time
	EndsAt             *time.Time
	IsActive           bool `gorm:"index"`
	LiftedAt           *time.Time
	StatusBeforeAction *string
	StatusRestoredAt   *time.Time
	Metadata           JSONMap `gorm:"type:text"`
	CreatedByUserID    *string `gorm:"size:36"`
	UpdatedByUserID    *string `gorm:"size:36"`
}

// ApprovalRequest is a queued action with the payload replayed on approval.
type ApprovalRequest struct {
	Base
	ActionType        string  `gorm:"index;not null"`
	Status            string  `gorm:"index;not null"`
	TargetUserID      *string `gorm:"size:36;index"`
	TargetID          *string
	RequestedByUserID string `gorm:"size:36;index"`
	ReviewedByUserID  *string
	RequestReason     *string
	DecisionNote      *string
	Payload           JSONMap `gorm:"type:text"`
	DecidedAt         *time.Time
}

// CapabilityGrant overrides a staff rule for one user.
type CapabilityGrant struct {
	UserID      string `gorm:"primaryKey;size:36"`
	Capability  string `gorm:"primaryKey"`
	Enabled     bool
	AutoApprove bool
}

// StaffRule is the default capability set of a staff role.
type StaffRule struct {
	Role        string `gorm:"primaryKey" json:"role"`
	Capability  string `gorm:"primaryKey" json:"capability"`
	Enabled     bool   `json:"enabled"`
	AutoApprove bool   `json:"autoApprove"`
}

// AllModels lists every record migrated by the sandbox.
var AllModels = []any{
	&Branch{},
	&User{},
	&Product{},
	&AuditLog{},
	&InventoryRequest{},
	&Restriction{},
	&ApprovalRequest{},
	&CapabilityGrant{},
	&StaffRule{},
}
