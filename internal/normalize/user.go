// Package normalize turns untrusted response values into typed records.
// A record is rejected (nil) only when its identifying field is missing;
// every other field degrades to its nil or default form.
package normalize

import (
	"admingate/internal/decode"
	"admingate/internal/models"
)

// displayNamePaths is the fixed lookup order for a user's display name.
// Profile objects differ by role, so each is tried in turn.
var displayNamePaths = []string{
	"displayName",
	"name",
	"fullName",
	"adminProfile.fullName",
	"adminProfile.name",
	"managerProfile.fullName",
	"managerProfile.name",
	"salesProfile.fullName",
	"salesProfile.name",
	"customerProfile.fullName",
	"customerProfile.name",
	"profile.fullName",
	"profile.name",
}

var phonePaths = []string{
	"phone",
	"phoneNumber",
	"adminProfile.phone",
	"managerProfile.phone",
	"salesProfile.phone",
	"customerProfile.phone",
	"profile.phone",
}

func identity(obj map[string]any) (string, bool) {
	return decode.FirstString(obj, "id", "_id")
}

// UserReference normalizes a minimal identity snapshot.
func UserReference(raw any) *models.UserReference {
	obj, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	id, ok := identity(obj)
	if !ok {
		return nil
	}
	return &models.UserReference{
		ID:          id,
		Email:       decode.StringPtr(obj["email"]),
		Role:        decode.EnumPtr(obj["role"], models.Roles...),
		Status:      decode.EnumPtr(obj["status"], models.AccountStatuses...),
		IsMainAdmin: decode.BoolOr(obj["isMainAdmin"], false),
		Raw:         obj,
	}
}

// AdminUser normalizes a directory user row, including branch memberships.
func AdminUser(raw any) *models.AdminUser {
	obj, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	id, ok := identity(obj)
	if !ok {
		return nil
	}

	user := &models.AdminUser{
		ID:          id,
		Email:       decode.StringPtr(obj["email"]),
		Role:        decode.EnumPtr(obj["role"], models.Roles...),
		Status:      decode.EnumPtr(obj["status"], models.AccountStatuses...),
		IsMainAdmin: decode.BoolOr(obj["isMainAdmin"], false),
		CreatedAt:   decode.TimePtr(obj["createdAt"]),
		UpdatedAt:   decode.TimePtr(obj["updatedAt"]),
		Branches:    []models.BranchMembership{},
		Raw:         obj,
	}
	if name, ok := decode.FirstString(obj, displayNamePaths...); ok {
		user.DisplayName = &name
	}
	if phone, ok := decode.FirstString(obj, phonePaths...); ok {
		user.Phone = &phone
	}

	if rows, ok := decode.First(obj, "branches", "branchMemberships", "memberships"); ok {
		if arr, ok := decode.Array(rows); ok {
			user.Branches = Collect(arr, BranchMembership)
		}
	}
	return user
}

// BranchMembership normalizes one branch link. The branch id may sit on the
// membership itself or on its nested branch object.
func BranchMembership(raw any) *models.BranchMembership {
	obj, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	branchID, ok := decode.FirstString(obj, "branchId", "branch.id", "branch._id", "id")
	if !ok {
		return nil
	}
	m := &models.BranchMembership{
		BranchID:  branchID,
		Role:      decode.StringPtr(obj["role"]),
		IsPrimary: decode.BoolOr(obj["isPrimary"], false),
		Raw:       obj,
	}
	if name, ok := decode.FirstString(obj, "branchName", "branch.name", "name"); ok {
		m.BranchName = &name
	}
	return m
}

// Customer normalizes a customer row.
func Customer(raw any) *models.Customer {
	obj, ok := decode.Object(raw)
	if !ok {
		return nil
	}
	id, ok := identity(obj)
	if !ok {
		return nil
	}
	c := &models.Customer{
		ID:        id,
		Email:     decode.StringPtr(obj["email"]),
		Status:    decode.EnumPtr(obj["status"], models.AccountStatuses...),
		CreatedAt: decode.TimePtr(obj["createdAt"]),
		Raw:       obj,
	}
	if name, ok := decode.FirstString(obj, displayNamePaths...); ok {
		c.DisplayName = &name
	}
	if phone, ok := decode.FirstString(obj, phonePaths...); ok {
		c.Phone = &phone
	}
	return c
}
