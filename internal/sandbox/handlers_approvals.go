package sandbox

import (
	"context"
	"errors"

	"admingate/internal/decode"
	"admingate/internal/models"
	"admingate/internal/observability"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var reviewSpec = actionSpec{Capability: models.CapabilityApprovalReview, Block: models.BlockApprovalReview}

// canReview reports whether actor may see and decide every request.
func (s *Server) canReview(ctx context.Context, actor *User) (bool, error) {
	if actor.IsMainAdmin {
		return true, nil
	}
	profile, err := s.profile(ctx, actor)
	if err != nil {
		return false, err
	}
	return profile.Can(models.CapabilityApprovalReview), nil
}

func (s *Server) loadApproval(ctx context.Context, tx *gorm.DB, id string) (*ApprovalRequest, error) {
	var req ApprovalRequest
	done := s.dbMetrics.TrackQuery("select", "approval_requests")
	err := tx.WithContext(ctx).First(&req, "id = ?", id).Error
	done()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("ApprovalRequest", id)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListApprovalRequests handles GET /admin/approval-requests. Reviewers see
// every request, everyone else only their own.
func (s *Server) ListApprovalRequests(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := s.actor(c)
	reviewer, err := s.canReview(ctx, actor)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	query := s.db.WithContext(ctx).Model(&ApprovalRequest{})
	if !reviewer {
		query = query.Where("requested_by_user_id = ?", actor.ID)
	}
	if status, ok := decode.Enum(c.Query("status"), models.ApprovalStatuses...); ok {
		query = query.Where("status = ?", string(status))
	}
	if actionType, ok := decode.Enum(c.Query("actionType"), models.ApprovalActionTypes...); ok {
		query = query.Where("action_type = ?", string(actionType))
	}
	if target := c.Query("targetUserId"); target != "" {
		query = query.Where("target_user_id = ?", target)
	}

	var rows []ApprovalRequest
	meta, err := s.paginate(c, query, "approval_requests", &rows)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	views := make([]fiber.Map, len(rows))
	for i := range rows {
		views[i] = approvalView(&rows[i])
	}
	return c.JSON(fiber.Map{"approvalRequests": views, "pagination": meta})
}

// GetApprovalRequest handles GET /admin/approval-requests/:id
func (s *Server) GetApprovalRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := s.actor(c)
	req, err := s.loadApproval(ctx, s.db, c.Params("id"))
	if err != nil {
		return writeActionError(c, err)
	}
	reviewer, err := s.canReview(ctx, actor)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	if !reviewer && req.RequestedByUserID != actor.ID {
		return writeActionError(c, notFound("ApprovalRequest", req.ID))
	}
	return c.JSON(fiber.Map{"approvalRequest": approvalView(req)})
}

// CancelApprovalRequest handles POST /admin/approval-requests/:id/cancel.
// Only the requester or the main admin may cancel, and only while pending.
func (s *Server) CancelApprovalRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actor := s.actor(c)
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}

	var req *ApprovalRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.loadApproval(ctx, tx.Clauses(clause.Locking{Strength: "UPDATE"}), c.Params("id"))
		if err != nil {
			return err
		}
		if req.RequestedByUserID != actor.ID && !actor.IsMainAdmin {
			return forbidden("FORBIDDEN", "Only the requester can cancel this request")
		}
		if req.Status != string(models.ApprovalStatusPending) {
			return conflict("Approval request is already " + req.Status)
		}
		now := s.now()
		req.Status = string(models.ApprovalStatusCancelled)
		req.DecidedAt = &now
		req.DecisionNote = decode.StringPtr(body["note"])
		return tx.Save(req).Error
	})
	if err != nil {
		return writeActionError(c, err)
	}
	observability.LogServiceCall(ctx, "sandbox", "CancelApprovalRequest", map[string]any{"approval_request_id": req.ID})
	return c.JSON(fiber.Map{"message": "Approval request cancelled", "approvalRequest": approvalView(req)})
}

// DecideApprovalRequest handles PATCH /admin/approval-requests/:id/decision.
// Approving replays the stored action as its requester.
func (s *Server) DecideApprovalRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	reviewer := s.actor(c)
	body, err := readBody(c)
	if err != nil {
		return writeActionError(c, err)
	}
	decision, ok := decode.Enum(body["decision"], models.DecisionApprove, models.DecisionReject)
	if !ok {
		return validationError(c, "decision must be APPROVE or REJECT")
	}
	if _, err := s.authorize(ctx, reviewer, reviewSpec); err != nil {
		return writeActionError(c, err)
	}

	var (
		req    *ApprovalRequest
		result any
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.loadApproval(ctx, tx.Clauses(clause.Locking{Strength: "UPDATE"}), c.Params("id"))
		if err != nil {
			return err
		}
		if req.Status != string(models.ApprovalStatusPending) {
			return conflict("Approval request is already " + req.Status)
		}
		spec, ok := actionSpecs[models.ApprovalActionType(req.ActionType)]
		if !ok {
			return badRequest("unsupported action " + req.ActionType)
		}
		mode := s.policy.Mode(spec.Capability)
		if mode == models.ApprovalModeMainAdminApproval && !reviewer.IsMainAdmin {
			return forbidden("MAIN_ADMIN_REQUIRED", "Only the main admin can decide this request")
		}
		if req.RequestedByUserID == reviewer.ID && !reviewer.IsMainAdmin {
			return forbidden("FORBIDDEN", "You cannot decide your own request")
		}

		now := s.now()
		req.ReviewedByUserID = &reviewer.ID
		req.DecisionNote = decode.StringPtr(body["decisionNote"])
		req.DecidedAt = &now

		if decision == models.DecisionReject {
			req.Status = string(models.ApprovalStatusRejected)
			return tx.Save(req).Error
		}

		requester, err := s.loadUser(ctx, tx, req.RequestedByUserID)
		if err != nil {
			return err
		}
		result, err = s.executeTx(ctx, tx, requester, pendingAction{
			Spec:         spec,
			TargetUserID: req.TargetUserID,
			TargetID:     req.TargetID,
			Reason:       req.RequestReason,
			Payload:      req.Payload,
		})
		if err != nil {
			return err
		}
		req.Status = string(models.ApprovalStatusApproved)
		if err := tx.Save(req).Error; err != nil {
			return err
		}
		if decode.BoolOr(body["enableAutoApproveForFuture"], false) && mode == models.ApprovalModeOptionalAutoApproval {
			grant := CapabilityGrant{UserID: requester.ID, Capability: string(spec.Capability), Enabled: true, AutoApprove: true}
			return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&grant).Error
		}
		return nil
	})
	if err != nil {
		return writeActionError(c, err)
	}

	observability.LogServiceCall(ctx, "sandbox", "DecideApprovalRequest", map[string]any{
		"approval_request_id": req.ID,
		"decision":            string(decision),
	})
	response := fiber.Map{"approvalRequest": approvalView(req)}
	if decision == models.DecisionApprove {
		response["message"] = "Approval request approved"
		response["executionResult"] = result
	} else {
		response["message"] = "Approval request rejected"
	}
	return c.JSON(response)
}
