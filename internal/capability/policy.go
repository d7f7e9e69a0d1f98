// Package capability evaluates approval modes for admin capabilities.
package capability

import (
	"strings"

	"admingate/internal/models"
)

// DefaultModes is the approval mode of every capability when nothing overrides it.
func DefaultModes() map[models.Capability]models.ApprovalMode {
	return map[models.Capability]models.ApprovalMode{
		models.CapabilityUserStatusManage:         models.ApprovalModeOptionalAutoApproval,
		models.CapabilityUserRestrict:             models.ApprovalModeOptionalAutoApproval,
		models.CapabilityUserBan:                  models.ApprovalModeOptionalAutoApproval,
		models.CapabilityUserAccessResolve:        models.ApprovalModeOptionalAutoApproval,
		models.CapabilityProductCreate:            models.ApprovalModeDirect,
		models.CapabilityProductEdit:              models.ApprovalModeDirect,
		models.CapabilityProductVisibility:        models.ApprovalModeOptionalAutoApproval,
		models.CapabilityProductDelete:            models.ApprovalModeMainAdminApproval,
		models.CapabilityInventoryRequestDecision: models.ApprovalModeDirect,
		models.CapabilityApprovalReview:           models.ApprovalModeDirect,
		models.CapabilityStaffRuleManage:          models.ApprovalModeMainAdminApproval,
		models.CapabilityLogDelete:                models.ApprovalModeMainAdminApproval,
	}
}

// Policy maps capabilities to approval modes.
// Overrides use a comma-separated key=mode list, e.g.
// "USER_BAN=main_admin_approval,PRODUCT_EDIT=optional".
type Policy struct {
	modes map[models.Capability]models.ApprovalMode
}

// NewPolicy builds a policy from the defaults plus the given override list.
// Malformed pairs and unknown modes are skipped.
func NewPolicy(raw string) *Policy {
	modes := DefaultModes()

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := models.Capability(normalize(parts[0]))
		mode, ok := ParseMode(parts[1])
		if key == "" || !ok {
			continue
		}
		modes[key] = mode
	}

	return &Policy{modes: modes}
}

// ParseMode accepts the canonical mode names and their short spellings.
func ParseMode(raw string) (models.ApprovalMode, bool) {
	switch normalize(raw) {
	case "DIRECT":
		return models.ApprovalModeDirect, true
	case "MAIN_ADMIN_APPROVAL", "MAIN_ADMIN":
		return models.ApprovalModeMainAdminApproval, true
	case "OPTIONAL_AUTO_APPROVAL", "OPTIONAL", "AUTO":
		return models.ApprovalModeOptionalAutoApproval, true
	}
	return "", false
}

// Mode returns the approval mode of c. Unknown capabilities require main admin approval.
func (p *Policy) Mode(c models.Capability) models.ApprovalMode {
	if p == nil {
		return DefaultModes()[c]
	}
	mode, ok := p.modes[c]
	if !ok {
		return models.ApprovalModeMainAdminApproval
	}
	return mode
}

// Modes returns a copy of every configured mode.
func (p *Policy) Modes() map[models.Capability]models.ApprovalMode {
	if p == nil {
		return DefaultModes()
	}
	out := make(map[models.Capability]models.ApprovalMode, len(p.modes))
	for k, v := range p.modes {
		out[k] = v
	}
	return out
}

// ApplyMainAdminOverride enables every capability for a main admin and turns on
// auto-approve for all of them except those fixed to main admin approval.
// Non main-admin profiles are returned unchanged.
func (p *Policy) ApplyMainAdminOverride(profile models.CapabilityProfile) models.CapabilityProfile {
	if !profile.IsMainAdmin {
		return profile
	}
	enabled := make(map[models.Capability]bool, len(models.Capabilities))
	auto := make(map[models.Capability]bool, len(models.Capabilities))
	for _, c := range p.known(profile) {
		enabled[c] = true
		auto[c] = p.modeFor(profile, c) != models.ApprovalModeMainAdminApproval
	}
	profile.Enabled = enabled
	profile.AutoApprove = auto
	return profile
}

// ExpectsApproval previews whether an action under c will be queued for review.
// The backend stays the authority; this only drives display.
func (p *Policy) ExpectsApproval(profile models.CapabilityProfile, c models.Capability) bool {
	switch p.modeFor(profile, c) {
	case models.ApprovalModeDirect:
		return false
	case models.ApprovalModeOptionalAutoApproval:
		return !profile.AutoApprove[c]
	default:
		return true
	}
}

func (p *Policy) modeFor(profile models.CapabilityProfile, c models.Capability) models.ApprovalMode {
	if mode, ok := profile.Modes[c]; ok {
		return mode
	}
	return p.Mode(c)
}

func (p *Policy) known(profile models.CapabilityProfile) []models.Capability {
	seen := make(map[models.Capability]bool)
	out := make([]models.Capability, 0, len(models.Capabilities))
	add := func(c models.Capability) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range models.Capabilities {
		add(c)
	}
	if p != nil {
		for c := range p.modes {
			add(c)
		}
	}
	for c := range profile.Modes {
		add(c)
	}
	return out
}

func normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
