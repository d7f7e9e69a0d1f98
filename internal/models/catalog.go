package models

import "time"

// Branch is a store location admins and staff are assigned to.
type Branch struct {
	ID        string     `json:"id" yaml:"id"`
	Name      *string    `json:"name" yaml:"name"`
	Code      *string    `json:"code" yaml:"code"`
	City      *string    `json:"city" yaml:"city"`
	IsActive  bool       `json:"isActive" yaml:"isActive"`
	CreatedAt *time.Time `json:"createdAt" yaml:"createdAt"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// Product is a catalog item.
type Product struct {
	ID        string     `json:"id" yaml:"id"`
	Name      *string    `json:"name" yaml:"name"`
	SKU       *string    `json:"sku" yaml:"sku"`
	Price     *float64   `json:"price" yaml:"price"`
	Stock     *int       `json:"stock" yaml:"stock"`
	IsVisible bool       `json:"isVisible" yaml:"isVisible"`
	Status    *string    `json:"status" yaml:"status"`
	CreatedAt *time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt" yaml:"updatedAt"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// AuditLog is one recorded admin action.
type AuditLog struct {
	ID          string         `json:"id" yaml:"id"`
	Action      *string        `json:"action" yaml:"action"`
	ActorUserID *string        `json:"actorUserId" yaml:"actorUserId"`
	Actor       *UserReference `json:"actor" yaml:"actor"`
	TargetType  *string        `json:"targetType" yaml:"targetType"`
	TargetID    *string        `json:"targetId" yaml:"targetId"`
	Metadata    map[string]any `json:"metadata" yaml:"metadata"`
	CreatedAt   *time.Time     `json:"createdAt" yaml:"createdAt"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// InventoryRequestStatus is the lifecycle state of a stock request.
type InventoryRequestStatus string

const (
	InventoryRequestPending   InventoryRequestStatus = "PENDING"
	InventoryRequestApproved  InventoryRequestStatus = "APPROVED"
	InventoryRequestRejected  InventoryRequestStatus = "REJECTED"
	InventoryRequestCancelled InventoryRequestStatus = "CANCELLED"
)

// InventoryRequest is a branch's request for product stock.
type InventoryRequest struct {
	ID                string                  `json:"id" yaml:"id"`
	ProductID         *string                 `json:"productId" yaml:"productId"`
	BranchID          *string                 `json:"branchId" yaml:"branchId"`
	Quantity          *int                    `json:"quantity" yaml:"quantity"`
	Status            *InventoryRequestStatus `json:"status" yaml:"status"`
	Note              *string                 `json:"note" yaml:"note"`
	RequestedByUserID *string                 `json:"requestedByUserId" yaml:"requestedByUserId"`
	CreatedAt         *time.Time              `json:"createdAt" yaml:"createdAt"`
	DecidedAt         *time.Time              `json:"decidedAt" yaml:"decidedAt"`

	Raw map[string]any `json:"-" yaml:"-"`
}

// Customer is an end customer record.
type Customer struct {
	ID          string         `json:"id" yaml:"id"`
	DisplayName *string        `json:"displayName" yaml:"displayName"`
	Email       *string        `json:"email" yaml:"email"`
	Phone       *string        `json:"phone" yaml:"phone"`
	Status      *AccountStatus `json:"status" yaml:"status"`
	CreatedAt   *time.Time     `json:"createdAt" yaml:"createdAt"`

	Raw map[string]any `json:"-" yaml:"-"`
}
