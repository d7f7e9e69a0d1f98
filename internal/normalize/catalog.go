package normalize

import (
	"admingate/internal/decode"
	"admingate/internal/models"
)

// Branch normalizes a branch row.
func Branch(raw any) *models.Branch {
	obj, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	id, ok := identity(obj)
	if !ok {
		return nil
	}
	b := &models.Branch{
		ID:        id,
		Name:      decode.StringPtr(obj["name"]),
		Code:      decode.StringPtr(obj["code"]),
		IsActive:  decode.BoolOr(obj["isActive"], true),
		CreatedAt: decode.TimePtr(obj["createdAt"]),
		Raw:       obj,
	}
	if city, ok := decode.FirstString(obj, "city", "address.city"); ok {
		b.City = &city
	}
	return b
}

// Product normalizes a catalog product.
func Product(raw any) *models.Product {
	obj, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	id, ok := identity(obj)
	if !ok {
		return nil
	}
	p := &models.Product{
		ID:        id,
		Name:      decode.StringPtr(obj["name"]),
		SKU:       decode.StringPtr(obj["sku"]),
		Status:    decode.StringPtr(obj["status"]),
		CreatedAt: decode.TimePtr(obj["createdAt"]),
		UpdatedAt: decode.TimePtr(obj["updatedAt"]),
		Raw:       obj,
	}
	if price, ok := decode.Number(obj["price"]); ok {
		p.Price = &price
	}
	if stock, ok := decode.Int(firstPresent(obj, "stock", "quantity", "inventory.quantity")); ok {
		p.Stock = &stock
	}
	if visible, ok := decode.Bool(obj["isVisible"]); ok {
		p.IsVisible = visible
	} else if visibility, ok := decode.Enum(obj["visibility"], "VISIBLE", "PUBLIC", "HIDDEN", "PRIVATE"); ok {
		p.IsVisible = visibility == "VISIBLE" || visibility == "PUBLIC"
	}
	return p
}

// AuditLog normalizes an audit log entry.
func AuditLog(raw any) *models.AuditLog {
	obj, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	id, ok := identity(obj)
	if !ok {
		return nil
	}
	l := &models.AuditLog{
		ID:         id,
		Action:     decode.StringPtr(obj["action"]),
		Actor:      UserReference(firstPresent(obj, "actor", "actorUser", "user")),
		TargetType: decode.StringPtr(obj["targetType"]),
		TargetID:   decode.StringPtr(obj["targetId"]),
		CreatedAt:  decode.TimePtr(obj["createdAt"]),
		Raw:        obj,
	}
	l.ActorUserID = referencedID(obj, "actorUserId", l.Actor)
	if meta, ok := decode.Object(obj["metadata"]); ok {
		l.Metadata = meta
	}
	return l
}

var inventoryStatuses = []models.InventoryRequestStatus{
	models.InventoryRequestPending,
	models.InventoryRequestApproved,
	models.InventoryRequestRejected,
	models.InventoryRequestCancelled,
}

// InventoryRequest normalizes a stock request.
func InventoryRequest(raw any) *models.InventoryRequest {
	obj, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	id, ok := identity(obj)
	if !ok {
		return nil
	}
	r := &models.InventoryRequest{
		ID:        id,
		Status:    decode.EnumPtr(obj["status"], inventoryStatuses...),
		Note:      decode.StringPtr(obj["note"]),
		CreatedAt: decode.TimePtr(obj["createdAt"]),
		DecidedAt: decode.TimePtr(obj["decidedAt"]),
		Raw:       obj,
	}
	if productID, ok := decode.FirstString(obj, "productId", "product.id"); ok {
		r.ProductID = &productID
	}
	if branchID, ok := decode.FirstString(obj, "branchId", "branch.id"); ok {
		r.BranchID = &branchID
	}
	if requester, ok := decode.FirstString(obj, "requestedByUserId", "requestedByUser.id"); ok {
		r.RequestedByUserID = &requester
	}
	if qty, ok := decode.Int(obj["quantity"]); ok {
		r.Quantity = &qty
	}
	return r
}
