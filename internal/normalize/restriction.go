package normalize

import (
	"admingate/internal/decode"
	"admingate/internal/models"
)

var blockPaths = []string{
	"adminActionBlocks",
	"blockedActions",
	"metadata.adminActionBlocks",
	"metadata.blockedActions",
}

// AccessRestriction normalizes a restriction or ban control.
//
// Invariants applied here: a lifted control is never active, an end that is
// not strictly after the start is dropped, and an ADMIN_ACTIONS restriction
// without a single valid block falls back to ACCOUNT mode.
func AccessRestriction(raw any) *models.AccessRestriction {
	obj, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	id, ok := identity(obj)
	if !ok {
		return nil
	}

	r := &models.AccessRestriction{
		ID:                 id,
		Type:               models.ControlTypeRestriction,
		Reason:             decode.StringPtr(obj["reason"]),
		Note:               decode.StringPtr(obj["note"]),
		StartsAt:           decode.TimePtr(obj["startsAt"]),
		EndsAt:             decode.TimePtr(obj["endsAt"]),
		LiftedAt:           decode.TimePtr(obj["liftedAt"]),
		StatusBeforeAction: decode.EnumPtr(obj["statusBeforeAction"], models.AccountStatuses...),
		StatusRestoredAt:   decode.TimePtr(obj["statusRestoredAt"]),
		RoleDowngradedFrom: decode.EnumPtr(obj["roleDowngradedFrom"], models.Roles...),
		RoleRestoredAt:     decode.TimePtr(obj["roleRestoredAt"]),
		CreatedAt:          decode.TimePtr(obj["createdAt"]),
		UpdatedAt:          decode.TimePtr(obj["updatedAt"]),
		CreatedByUser:      UserReference(obj["createdByUser"]),
		UpdatedByUser:      UserReference(obj["updatedByUser"]),
		Raw:                obj,
	}
	if userID, ok := decode.FirstString(obj, "userId", "user.id", "targetUserId"); ok {
		r.UserID = userID
	}
	if rawType, ok := decode.First(obj, "type", "controlType"); ok {
		if t, ok := decode.Enum(rawType, models.ControlTypeRestriction, models.ControlTypeBan); ok {
			r.Type = t
		}
	}
	if meta, ok := decode.Object(obj["metadata"]); ok {
		r.Metadata = meta
	}

	r.IsActive = decode.BoolOr(obj["isActive"], r.LiftedAt == nil)
	if r.LiftedAt != nil {
		r.IsActive = false
	}
	if r.StartsAt != nil && r.EndsAt != nil && !r.EndsAt.After(*r.StartsAt) {
		r.EndsAt = nil
	}

	if r.Type == models.ControlTypeRestriction {
		r.Mode, r.BlockedActions = restrictionMode(obj)
	}
	return r
}

func restrictionMode(obj map[string]any) (models.RestrictionMode, []models.AdminActionBlock) {
	var blocks []models.AdminActionBlock
	if rawBlocks, ok := decode.First(obj, blockPaths...); ok {
		blocks = AdminActionBlocks(rawBlocks)
	}

	mode := models.RestrictionModeAccount
	if rawMode, ok := decode.First(obj, "restrictionMode", "mode", "metadata.restrictionMode", "metadata.mode"); ok {
		if m, ok := decode.Enum(rawMode, models.RestrictionModeAccount, models.RestrictionModeAdminActions); ok {
			mode = m
		}
	} else if len(blocks) > 0 {
		mode = models.RestrictionModeAdminActions
	}

	if mode == models.RestrictionModeAdminActions && len(blocks) > 0 {
		return mode, blocks
	}
	return models.RestrictionModeAccount, nil
}

// AdminActionBlocks decodes a block list, dropping unknown and repeated entries.
func AdminActionBlocks(raw any) []models.AdminActionBlock {
	arr, ok := decode.Array(raw)
	if !ok {
		return nil
	}
	seen := make(map[models.AdminActionBlock]bool, len(arr))
	out := make([]models.AdminActionBlock, 0, len(arr))
	for _, item := range arr {
		block, ok := decode.Enum(item, models.AdminActionBlocks...)
		if !ok || seen[block] {
			continue
		}
		seen[block] = true
		out = append(out, block)
	}
	return out
}
