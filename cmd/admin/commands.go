package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"admingate/internal/config"
	"admingate/internal/decode"
	"admingate/internal/models"
	"admingate/internal/observability"
	"admingate/internal/sandbox"
	"admingate/internal/service"
)

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseWithID accepts the id before or after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", usagef("%s: %v", fs.Name(), err)
	}
	if id == "" {
		id = fs.Arg(0)
	}
	if strings.TrimSpace(id) == "" {
		return "", usagef("%s: missing id", fs.Name())
	}
	return id, nil
}

func parseTimeFlag(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, ok := decode.Time(raw)
	if !ok {
		return nil, usagef("--%s: cannot parse %q as a time", name, raw)
	}
	return &t, nil
}

// previewApproval warns when the action is expected to be queued.
func (c *console) previewApproval(ctx context.Context, capability models.Capability) {
	queued, err := c.caps.ExpectsApproval(ctx, capability)
	if err != nil {
		observability.GlobalLogger.DebugContext(ctx, "approval preview unavailable", "error", err)
		return
	}
	if queued {
		fmt.Fprintf(os.Stderr, "Note: %s actions need approval; the request will be queued.\n", capability)
	}
}

func (c *console) cmdMe(ctx context.Context, _ []string) error {
	me, err := c.caps.Snapshot(ctx)
	if err != nil {
		return err
	}
	return c.out.print(me)
}

func (c *console) cmdUsers(ctx context.Context, args []string) error {
	fs := newFlags("users")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 20, "page size")
	search := fs.String("search", "", "email or name filter")
	role := fs.String("role", "", "role filter")
	status := fs.String("status", "", "status filter")
	customers := fs.Bool("customers", false, "list customers instead of staff")
	if err := fs.Parse(args); err != nil {
		return usagef("users: %v", err)
	}

	q := service.ListQuery{
		Page:    *page,
		Limit:   *limit,
		Search:  *search,
		Filters: map[string]string{"role": *role, "status": *status},
	}
	if *customers {
		rows, err := c.directory.ListCustomers(ctx, q)
		if err != nil {
			return err
		}
		return c.out.print(rows)
	}
	rows, err := c.directory.ListUsers(ctx, q)
	if err != nil {
		return err
	}
	return c.out.print(rows)
}

func (c *console) cmdUser(ctx context.Context, args []string) error {
	id, err := parseWithID(newFlags("user"), args)
	if err != nil {
		return err
	}
	detail, err := c.directory.GetUserDetail(ctx, id)
	if err != nil {
		return err
	}
	return c.out.print(detail)
}

func (c *console) cmdStatus(ctx context.Context, args []string) error {
	fs := newFlags("status")
	status := fs.String("status", "", "new account status")
	reason := fs.String("reason", "", "reason, required unless ACTIVE")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	c.previewApproval(ctx, models.CapabilityUserStatusManage)
	resp, err := c.access.UpdateUserStatus(ctx, id, service.StatusChangeInput{
		Status: models.AccountStatus(*status),
		Reason: *reason,
	})
	if err != nil {
		return err
	}
	return c.out.print(resp)
}

func (c *console) cmdRestrict(ctx context.Context, args []string) error {
	fs := newFlags("restrict")
	restrictionID := fs.String("restriction-id", "", "update this restriction instead of creating one")
	reason := fs.String("reason", "", "reason, required for new restrictions")
	note := fs.String("note", "", "internal note")
	mode := fs.String("mode", "", "ACCOUNT or ADMIN_ACTIONS")
	blocks := fs.String("blocks", "", "comma separated admin action blocks")
	preset := fs.String("preset", "", "duration preset, one of "+strings.Join(service.PresetNames(), ", "))
	starts := fs.String("starts", "", "start time")
	ends := fs.String("ends", "", "end time")
	inactive := fs.Bool("inactive", false, "deactivate the restriction")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	in := service.RestrictionInput{
		RestrictionID: *restrictionID,
		Reason:        *reason,
		Note:          *note,
		Mode:          models.RestrictionMode(*mode),
		Window:        service.WindowInput{Preset: *preset},
	}
	if in.Window.StartsAt, err = parseTimeFlag("starts", *starts); err != nil {
		return err
	}
	if in.Window.EndsAt, err = parseTimeFlag("ends", *ends); err != nil {
		return err
	}
	for _, b := range strings.Split(*blocks, ",") {
		if b = strings.TrimSpace(b); b != "" {
			in.BlockedActions = append(in.BlockedActions, models.AdminActionBlock(b))
		}
	}
	if *inactive {
		active := false
		in.IsActive = &active
	}

	c.previewApproval(ctx, models.CapabilityUserRestrict)
	resp, err := c.access.UpsertRestriction(ctx, id, in)
	if err != nil {
		return err
	}
	return c.out.print(resp)
}

func (c *console) cmdBan(ctx context.Context, args []string) error {
	fs := newFlags("ban")
	reason := fs.String("reason", "", "reason")
	note := fs.String("note", "", "internal note")
	hours := fs.Int("hours", 0, "ban length in hours")
	days := fs.Int("days", 0, "ban length in days")
	preset := fs.String("preset", "", "duration preset")
	ends := fs.String("ends", "", "end time")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	in := service.BanInput{
		Reason:        *reason,
		Note:          *note,
		DurationHours: *hours,
		DurationDays:  *days,
		Window:        service.WindowInput{Preset: *preset},
	}
	if in.Window.EndsAt, err = parseTimeFlag("ends", *ends); err != nil {
		return err
	}

	c.previewApproval(ctx, models.CapabilityUserBan)
	resp, err := c.access.Ban(ctx, id, in)
	if err != nil {
		return err
	}
	return c.out.print(resp)
}

func (c *console) cmdResolve(ctx context.Context, args []string) error {
	fs := newFlags("resolve")
	kind := fs.String("type", "", "RESTRICTION, BAN or TERMINATION")
	control := fs.String("control", "", "restriction or ban id")
	note := fs.String("note", "", "note")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	resp, err := c.access.Resolve(ctx, id, service.ResolveInput{
		ActionType: models.ResolveActionType(*kind),
		ControlID:  *control,
		Note:       *note,
	})
	if err != nil {
		return err
	}
	return c.out.print(resp)
}

func (c *console) cmdApprovals(ctx context.Context, args []string) error {
	fs := newFlags("approvals")
	status := fs.String("status", "", "status filter")
	action := fs.String("action", "", "action type filter")
	target := fs.String("target", "", "target user id")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 20, "page size")
	if err := fs.Parse(args); err != nil {
		return usagef("approvals: %v", err)
	}
	rows, err := c.approvals.ListApprovalRequests(ctx, service.ApprovalFilter{
		Status:       models.ApprovalStatus(*status),
		ActionType:   models.ApprovalActionType(*action),
		TargetUserID: *target,
		Page:         *page,
		Limit:        *limit,
	})
	if err != nil {
		return err
	}
	return c.out.print(rows)
}

func (c *console) cmdApproval(ctx context.Context, args []string) error {
	id, err := parseWithID(newFlags("approval"), args)
	if err != nil {
		return err
	}
	req, err := c.approvals.GetApprovalRequest(ctx, id)
	if err != nil {
		return err
	}
	return c.out.print(req)
}

func (c *console) cmdDecide(ctx context.Context, args []string) error {
	fs := newFlags("decide")
	decision := fs.String("decision", "", "APPROVE or REJECT")
	note := fs.String("note", "", "decision note")
	auto := fs.Bool("auto", false, "auto-approve this requester's future actions of the same kind")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	result, err := c.approvals.DecideApprovalRequest(ctx, id, service.DecisionInput{
		Decision:                   models.Decision(*decision),
		DecisionNote:               *note,
		EnableAutoApproveForFuture: *auto,
	})
	if err != nil {
		return err
	}
	return c.out.print(result)
}

func (c *console) cmdCancel(ctx context.Context, args []string) error {
	fs := newFlags("cancel")
	note := fs.String("note", "", "cancellation note")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	req, err := c.approvals.CancelApprovalRequest(ctx, id, *note)
	if err != nil {
		return err
	}
	return c.out.print(req)
}

func cmdToken(cfg *config.Config, out *printer, args []string) error {
	fs := newFlags("token")
	user := fs.String("user", "", "sandbox user id")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return usagef("token: %v", err)
	}
	if *user == "" {
		return usagef("token: --user is required")
	}
	token, err := sandbox.IssueToken(cfg.SandboxJWTSecret, *user, *ttl)
	if err != nil {
		return err
	}
	return out.print(map[string]string{"token": token, "userId": *user})
}
