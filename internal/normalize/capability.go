package normalize

import (
	"strings"

	"admingate/internal/capability"
	"admingate/internal/decode"
	"admingate/internal/models"
)

var visibilityRoles = []models.VisibilityRole{
	models.VisibilityAdmin,
	models.VisibilityManager,
	models.VisibilitySales,
}

// CapabilityProfile normalizes a capability snapshot. The profile is rejected
// when no admin-tier visibility role can be found on it or on its owner.
// Main admin profiles get the universal override from policy.
func CapabilityProfile(raw any, owner *models.AdminUser, policy *capability.Policy) *models.CapabilityProfile {
	obj, ok := decode.Object(raw)
	if !ok {
		obj = map[string]any{}
	}

	role, ok := decode.Enum(obj["visibilityRole"], visibilityRoles...)
	if !ok && owner != nil && owner.Role != nil {
		role, ok = decode.Enum(string(*owner.Role), visibilityRoles...)
	}
	if !ok {
		return nil
	}

	p := models.CapabilityProfile{
		VisibilityRole: role,
		IsMainAdmin:    decode.BoolOr(obj["isMainAdmin"], false),
		Enabled:        map[models.Capability]bool{},
		AutoApprove:    map[models.Capability]bool{},
		Modes:          map[models.Capability]models.ApprovalMode{},
		Raw:            obj,
	}
	if userID, ok := decode.FirstString(obj, "userId", "user.id"); ok {
		p.UserID = userID
	}
	if owner != nil {
		if p.UserID == "" {
			p.UserID = owner.ID
		}
		p.IsMainAdmin = p.IsMainAdmin || owner.IsMainAdmin
	}

	if rawEnabled, ok := decode.First(obj, "permissions", "capabilities", "enabled"); ok {
		p.Enabled = capabilityFlags(rawEnabled)
	}
	if rawAuto, ok := decode.First(obj, "autoApprove", "autoApproval", "autoApprovals"); ok {
		p.AutoApprove = capabilityFlags(rawAuto)
	}
	if rawModes, ok := decode.Object(firstPresent(obj, "modes", "approvalModes")); ok {
		for key, value := range rawModes {
			mode, ok := decode.Enum(value, models.ApprovalModes...)
			if !ok {
				continue
			}
			p.Modes[capabilityKey(key)] = mode
		}
	}

	if policy == nil {
		policy = capability.NewPolicy("")
	}
	p = policy.ApplyMainAdminOverride(p)
	return &p
}

// capabilityFlags accepts either {"KEY": bool} objects or ["KEY", ...] lists.
func capabilityFlags(raw any) map[models.Capability]bool {
	out := map[models.Capability]bool{}
	if obj, ok := decode.Object(raw); ok {
		for key, value := range obj {
			if enabled, ok := decode.Bool(value); ok && strings.TrimSpace(key) != "" {
				out[capabilityKey(key)] = enabled
			}
		}
		return out
	}
	if arr, ok := decode.Array(raw); ok {
		for _, item := range arr {
			if key, ok := decode.String(item); ok {
				out[capabilityKey(key)] = true
			}
		}
	}
	return out
}

func capabilityKey(key string) models.Capability {
	return models.Capability(strings.ToUpper(strings.TrimSpace(key)))
}

func firstPresent(obj map[string]any, keys ...string) any {
	v, _ := decode.First(obj, keys...)
	return v
}
