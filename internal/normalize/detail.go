package normalize

import (
	"admingate/internal/capability"
	"admingate/internal/decode"
	"admingate/internal/models"
)

// userObject locates the user record inside a detail envelope.
func userObject(root map[string]any) any {
	if v, ok := decode.First(root, "user", "data.user"); ok {
		return v
	}
	if data, ok := decode.Object(root["data"]); ok {
		if _, ok := identity(data); ok {
			return data
		}
	}
	return root
}

// UserDetail normalizes the user-detail envelope. It is rejected only when
// the user itself has no id; restrictions and approvals are best effort.
func UserDetail(raw any, policy *capability.Policy) *models.UserDetail {
	root, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	userRaw := userObject(root)
	user := AdminUser(userRaw)
	if user == nil {
		return nil
	}

	detail := &models.UserDetail{
		User:             *user,
		Restrictions:     []models.AccessRestriction{},
		PendingApprovals: []models.ApprovalRequest{},
		Raw:              root,
	}

	if rows, ok := firstArray(root, userRaw, "restrictions", "accessRestrictions", "controls"); ok {
		detail.Restrictions = Collect(rows, AccessRestriction)
	}
	for i := range detail.Restrictions {
		if detail.Restrictions[i].UserID == "" {
			detail.Restrictions[i].UserID = user.ID
		}
	}

	if rows, ok := firstArray(root, userRaw, "pendingApprovals", "approvalRequests"); ok {
		for _, req := range Collect(rows, ApprovalRequest) {
			if req.Status == models.ApprovalStatusPending {
				detail.PendingApprovals = append(detail.PendingApprovals, req)
			}
		}
	}

	if capsRaw, ok := firstObject(root, userRaw, "capabilities", "capabilityProfile"); ok {
		detail.Capabilities = CapabilityProfile(capsRaw, user, policy)
	}
	return detail
}

// CurrentAdmin normalizes the signed-in user envelope.
func CurrentAdmin(raw any, policy *capability.Policy) *models.CurrentAdmin {
	root, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	userRaw := userObject(root)
	user := AdminUser(userRaw)
	if user == nil {
		return nil
	}

	me := &models.CurrentAdmin{User: *user}
	capsRaw, _ := firstObject(root, userRaw, "capabilities", "capabilityProfile")
	if profile := CapabilityProfile(capsRaw, user, policy); profile != nil {
		me.Capabilities = *profile
	} else {
		me.Capabilities = models.CapabilityProfile{
			UserID:      user.ID,
			IsMainAdmin: user.IsMainAdmin,
			Enabled:     map[models.Capability]bool{},
			AutoApprove: map[models.Capability]bool{},
			Modes:       map[models.Capability]models.ApprovalMode{},
		}
	}
	return me
}

// firstArray searches the envelope root first and then the user object.
func firstArray(root map[string]any, userRaw any, keys ...string) ([]any, bool) {
	for _, source := range []any{root, userRaw} {
		for _, key := range keys {
			if v, ok := decode.Path(source, key); ok {
				if arr, ok := decode.Array(v); ok {
					return arr, true
				}
			}
		}
	}
	return nil, false
}

func firstObject(root map[string]any, userRaw any, keys ...string) (map[string]any, bool) {
	for _, source := range []any{root, userRaw} {
		for _, key := range keys {
			if v, ok := decode.Path(source, key); ok {
				if obj, ok := decode.Object(v); ok {
					return obj, true
				}
			}
		}
	}
	return nil, false
}
