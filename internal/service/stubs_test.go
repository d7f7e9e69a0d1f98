package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"admingate/internal/adminapi"
	"admingate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executorStub is a stub for Executor that records every call.
type executorStub struct {
	executeFn   func(context.Context, adminapi.Request) (*adminapi.Response, error)
	fingerprint string

	mu    sync.Mutex
	calls []adminapi.Request
}

func (s *executorStub) Execute(ctx context.Context, req adminapi.Request) (*adminapi.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.executeFn(ctx, req)
}

func (s *executorStub) Fingerprint() string {
	return s.fingerprint
}

func (s *executorStub) recorded() []adminapi.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]adminapi.Request(nil), s.calls...)
}

func (s *executorStub) lastCall(t *testing.T) adminapi.Request {
	t.Helper()
	calls := s.recorded()
	require.NotEmpty(t, calls, "expected at least one call")
	return calls[len(calls)-1]
}

// respondWith returns a stub answering every call with status and payload.
func respondWith(status int, payload any) *executorStub {
	return &executorStub{
		fingerprint: "fp1",
		executeFn: func(_ context.Context, _ adminapi.Request) (*adminapi.Response, error) {
			return &adminapi.Response{Status: status, Payload: payload}, nil
		},
	}
}

// failWith returns a stub failing every call with err.
func failWith(err error) *executorStub {
	return &executorStub{
		fingerprint: "fp1",
		executeFn: func(_ context.Context, _ adminapi.Request) (*adminapi.Response, error) {
			return nil, err
		},
	}
}

func bodyOf(t *testing.T, req adminapi.Request) map[string]any {
	t.Helper()
	body, ok := req.Body.(map[string]any)
	require.True(t, ok, "expected map body, got %T", req.Body)
	return body
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func executedPayload() map[string]any {
	return map[string]any{
		"message":         "Status updated",
		"executionResult": map[string]any{"id": "u1", "status": "RESTRICTED"},
	}
}

func queuedPayload(actionType string) map[string]any {
	return map[string]any{
		"message": "Approval request submitted",
		"code":    "APPROVAL_REQUEST_SUBMITTED",
		"approvalRequest": map[string]any{
			"id":           "ar1",
			"actionType":   actionType,
			"status":       "PENDING",
			"targetUserId": "u1",
		},
	}
}
