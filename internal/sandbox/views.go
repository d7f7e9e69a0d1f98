package sandbox

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func userView(u *User) fiber.Map {
	view := fiber.Map{
		"id":          u.ID,
		"email":       u.Email,
		"displayName": u.DisplayName,
		"role":        u.Role,
		"status":      u.Status,
		"isMainAdmin": u.IsMainAdmin,
		"createdAt":   u.CreatedAt,
		"updatedAt":   u.UpdatedAt,
		"branches":    []fiber.Map{},
	}
	if u.Phone != "" {
		view["phone"] = u.Phone
	}
	if u.Branch != nil {
		view["branches"] = []fiber.Map{{
			"branchId":   u.Branch.ID,
			"branchName": u.Branch.Name,
			"role":       u.Role,
			"isPrimary":  true,
		}}
	}
	return view
}

func splitBlocks(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

func restrictionView(r *Restriction) fiber.Map {
	view := fiber.Map{
		"id":                 r.ID,
		"userId":             r.UserID,
		"type":               r.Type,
		"reason":             r.Reason,
		"note":               r.Note,
		"startsAt":           r.StartsAt,
		"endsAt":             r.EndsAt,
		"isActive":           r.IsActive,
		"liftedAt":           r.LiftedAt,
		"statusBeforeAction": r.StatusBeforeAction,
		"statusRestoredAt":   r.StatusRestoredAt,
		"metadata":           r.Metadata,
		"createdByUserId":    r.CreatedByUserID,
		"updatedByUserId":    r.UpdatedByUserID,
		"createdAt":          r.CreatedAt,
		"updatedAt":          r.UpdatedAt,
	}
	if r.Type == controlRestriction {
		view["restrictionMode"] = r.Mode
		view["adminActionBlocks"] = splitBlocks(r.Blocks)
	}
	return view
}

func approvalView(a *ApprovalRequest) fiber.Map {
	return fiber.Map{
		"id":                a.ID,
		"actionType":        a.ActionType,
		"status":            a.Status,
		"targetUserId":      a.TargetUserID,
		"requestedByUserId": a.RequestedByUserID,
		"reviewedByUserId":  a.ReviewedByUserID,
		"requestReason":     a.RequestReason,
		"decisionNote":      a.DecisionNote,
		"requestPayload":    a.Payload,
		"createdAt":         a.CreatedAt,
		"updatedAt":         a.UpdatedAt,
		"decidedAt":         a.DecidedAt,
	}
}

func pageView(page, limit int, total int64) fiber.Map {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return fiber.Map{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": pages,
	}
}
