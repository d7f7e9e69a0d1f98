package normalize

import (
	"admingate/internal/decode"
	"admingate/internal/models"
)

// ApprovalRequest normalizes a queued moderation action.
//
// A pending request never carries decision fields. A terminal request without
// an explicit decidedAt or reviewer id falls back to updatedAt and the
// embedded reviewer reference.
func ApprovalRequest(raw any) *models.ApprovalRequest {
	obj, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	id, ok := identity(obj)
	if !ok {
		return nil
	}

	a := &models.ApprovalRequest{
		ID:              id,
		Status:          models.ApprovalStatusPending,
		RequestReason:   decode.StringPtr(obj["requestReason"]),
		DecisionNote:    decode.StringPtr(obj["decisionNote"]),
		CreatedAt:       decode.TimePtr(obj["createdAt"]),
		UpdatedAt:       decode.TimePtr(obj["updatedAt"]),
		DecidedAt:       decode.TimePtr(obj["decidedAt"]),
		TargetUser:      UserReference(obj["targetUser"]),
		RequestedByUser: UserReference(obj["requestedByUser"]),
		ReviewedByUser:  UserReference(obj["reviewedByUser"]),
		Raw:             obj,
	}
	if t, ok := decode.Enum(obj["actionType"], models.ApprovalActionTypes...); ok {
		a.ActionType = t
	}
	if s, ok := decode.Enum(obj["status"], models.ApprovalStatuses...); ok {
		a.Status = s
	}
	if a.RequestReason == nil {
		a.RequestReason = decode.StringPtr(obj["reason"])
	}
	if payload, ok := decode.Object(obj["requestPayload"]); ok {
		a.RequestPayload = payload
	}

	a.TargetUserID = referencedID(obj, "targetUserId", a.TargetUser)
	a.RequestedByUserID = referencedID(obj, "requestedByUserId", a.RequestedByUser)
	a.ReviewedByUserID = referencedID(obj, "reviewedByUserId", a.ReviewedByUser)

	if a.Status == models.ApprovalStatusPending {
		a.DecidedAt = nil
		a.ReviewedByUserID = nil
		a.DecisionNote = nil
	} else if a.DecidedAt == nil {
		a.DecidedAt = a.UpdatedAt
	}
	return a
}

func referencedID(obj map[string]any, key string, ref *models.UserReference) *string {
	if id := decode.StringPtr(obj[key]); id != nil {
		return id
	}
	if ref != nil {
		id := ref.ID
		return &id
	}
	return nil
}
