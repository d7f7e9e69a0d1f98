package service

import (
	"context"
	"net/http"
	"strings"

	"admingate/internal/adminapi"
	"admingate/internal/models"
)

// AccessService requests account moderation transitions. Every operation
// validates its input before any network call and returns the uniform
// ActionResponse whether the backend executed or queued the action.
type AccessService struct {
	exec Executor
	now  Clock
}

func NewAccessService(exec Executor, now Clock) *AccessService {
	return &AccessService{exec: exec, now: clockOrNow(now)}
}

// StatusChangeInput is a requested account status transition.
type StatusChangeInput struct {
	Status models.AccountStatus
	Reason string
}

// UpdateUserStatus requests a change of the account status. A reason is
// required for every status other than ACTIVE.
func (s *AccessService) UpdateUserStatus(ctx context.Context, userID string, in StatusChangeInput) (*models.ActionResponse, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	status, ok := parseEnum(string(in.Status), models.AccountStatuses...)
	if !ok {
		return nil, models.NewValidationError("unknown account status " + string(in.Status))
	}
	reason := strings.TrimSpace(in.Reason)
	if status != models.AccountStatusActive && reason == "" {
		return nil, models.NewValidationError("a reason is required to change status to " + string(status))
	}

	body := map[string]any{"status": status}
	if reason != "" {
		body["reason"] = reason
	}
	return runAction(ctx, s.exec, models.ActionUserStatusChange, adminapi.Request{
		Method: http.MethodPatch,
		Path:   "/admin/users/" + escape(userID) + "/status",
		Route:  "/admin/users/:id/status",
		Body:   body,
	})
}

// RestrictionInput creates a restriction, or updates one when RestrictionID is set.
type RestrictionInput struct {
	RestrictionID  string
	Reason         string
	Note           string
	Mode           models.RestrictionMode
	BlockedActions []models.AdminActionBlock
	Window         WindowInput
	IsActive       *bool
	Metadata       map[string]any
}

// UpsertRestriction creates or updates a restriction. ADMIN_ACTIONS mode
// needs at least one block and ACCOUNT mode takes none. New restrictions
// need a reason.
func (s *AccessService) UpsertRestriction(ctx context.Context, userID string, in RestrictionInput) (*models.ActionResponse, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	restrictionID := strings.TrimSpace(in.RestrictionID)
	reason := strings.TrimSpace(in.Reason)
	if restrictionID == "" && reason == "" {
		return nil, models.NewValidationError("a reason is required for a new restriction")
	}

	updating := restrictionID != ""

	// An update sends only what the caller supplied so the backend keeps
	// the stored mode, blocks and window.
	var mode models.RestrictionMode
	if in.Mode != "" {
		parsed, ok := parseEnum(string(in.Mode), models.RestrictionModeAccount, models.RestrictionModeAdminActions)
		if !ok {
			return nil, models.NewValidationError("unknown restriction mode " + string(in.Mode))
		}
		mode = parsed
	} else if !updating {
		mode = models.RestrictionModeAccount
	}

	var blocks []models.AdminActionBlock
	if mode != "" || len(in.BlockedActions) > 0 {
		blockMode := mode
		if blockMode == "" {
			blockMode = models.RestrictionModeAdminActions
		}
		var err error
		if blocks, err = validateBlocks(blockMode, in.BlockedActions); err != nil {
			return nil, err
		}
	}

	body := map[string]any{"type": models.ControlTypeRestriction}
	if mode != "" {
		body["restrictionMode"] = mode
	}
	if !updating || !in.Window.IsZero() {
		window, err := ResolveWindow(s.now(), in.Window)
		if err != nil {
			return nil, err
		}
		body["startsAt"] = formatTime(window.StartsAt)
		if window.EndsAt != nil {
			body["endsAt"] = formatTime(*window.EndsAt)
		}
	}
	if updating {
		body["restrictionId"] = restrictionID
	}
	if reason != "" {
		body["reason"] = reason
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		body["note"] = note
	}
	if in.IsActive != nil {
		body["isActive"] = *in.IsActive
	}
	metadata := copyMetadata(in.Metadata)
	if len(blocks) > 0 {
		body["adminActionBlocks"] = blocks
		metadata["adminActionBlocks"] = blocks
	}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}

	return runAction(ctx, s.exec, models.ActionUserRestrictionUpsert, adminapi.Request{
		Method: http.MethodPost,
		Path:   "/admin/users/" + escape(userID) + "/restrictions",
		Route:  "/admin/users/:id/restrictions",
		Body:   body,
	})
}

func validateBlocks(mode models.RestrictionMode, raw []models.AdminActionBlock) ([]models.AdminActionBlock, error) {
	if mode == models.RestrictionModeAccount {
		if len(raw) > 0 {
			return nil, models.NewValidationError("ACCOUNT restrictions block the whole account and take no action blocks")
		}
		return nil, nil
	}

	seen := make(map[models.AdminActionBlock]bool, len(raw))
	blocks := make([]models.AdminActionBlock, 0, len(raw))
	for _, b := range raw {
		block, ok := parseEnum(string(b), models.AdminActionBlocks...)
		if !ok {
			return nil, models.NewValidationError("unknown admin action block " + string(b))
		}
		if seen[block] {
			continue
		}
		seen[block] = true
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return nil, models.NewValidationError("ADMIN_ACTIONS restrictions need at least one blocked action")
	}
	return blocks, nil
}

// BanInput describes a ban. An explicit end in Window wins over the
// relative durations, which are then not sent.
type BanInput struct {
	Reason        string
	Note          string
	Window        WindowInput
	DurationHours int
	DurationDays  int
	Metadata      map[string]any
}

// Ban requests a ban of the user.
func (s *AccessService) Ban(ctx context.Context, userID string, in BanInput) (*models.ActionResponse, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, models.NewValidationError("a reason is required to ban a user")
	}
	if in.DurationHours < 0 || in.DurationDays < 0 {
		return nil, models.NewValidationError("ban durations must be positive")
	}
	window, err := ResolveWindow(s.now(), in.Window)
	if err != nil {
		return nil, err
	}
	if window.EndsAt == nil && in.DurationHours > 0 && in.DurationDays > 0 {
		return nil, models.NewValidationError("use either durationHours or durationDays, not both")
	}

	body := map[string]any{
		"type":     models.ControlTypeBan,
		"reason":   reason,
		"startsAt": formatTime(window.StartsAt),
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		body["note"] = note
	}
	switch {
	case window.EndsAt != nil:
		body["endsAt"] = formatTime(*window.EndsAt)
	case in.DurationHours > 0:
		body["durationHours"] = in.DurationHours
	case in.DurationDays > 0:
		body["durationDays"] = in.DurationDays
	}
	if len(in.Metadata) > 0 {
		body["metadata"] = copyMetadata(in.Metadata)
	}

	return runAction(ctx, s.exec, models.ActionUserBan, adminapi.Request{
		Method: http.MethodPost,
		Path:   "/admin/users/" + escape(userID) + "/ban",
		Route:  "/admin/users/:id/ban",
		Body:   body,
	})
}

// ResolveInput names the control to lift.
type ResolveInput struct {
	ActionType models.ResolveActionType
	ControlID  string
	Note       string
}

// Resolve lifts a restriction or ban, or requests restoration of a
// terminated account. RESTRICTION and BAN need the control id; TERMINATION
// must not carry one.
func (s *AccessService) Resolve(ctx context.Context, userID string, in ResolveInput) (*models.ActionResponse, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	actionType, ok := parseEnum(string(in.ActionType), models.ResolveRestriction, models.ResolveBan, models.ResolveTermination)
	if !ok {
		return nil, models.NewValidationError("unknown resolve action type " + string(in.ActionType))
	}
	controlID := strings.TrimSpace(in.ControlID)
	switch {
	case actionType == models.ResolveTermination && controlID != "":
		return nil, models.NewValidationError("TERMINATION is resolved per account and takes no control id")
	case actionType != models.ResolveTermination && controlID == "":
		return nil, models.NewValidationError("a control id is required to resolve a " + string(actionType))
	}

	body := map[string]any{"actionType": actionType}
	if controlID != "" {
		body["controlId"] = controlID
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		body["note"] = note
	}
	return runAction(ctx, s.exec, "USER_ACCESS_RESOLVE", adminapi.Request{
		Method: http.MethodPatch,
		Path:   "/admin/users/" + escape(userID) + "/admin-actions/resolve",
		Route:  "/admin/users/:id/admin-actions/resolve",
		Body:   body,
	})
}

func parseEnum[T ~string](raw string, allowed ...T) (T, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for _, candidate := range allowed {
		if string(candidate) == s {
			return candidate, true
		}
	}
	return "", false
}

func copyMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
