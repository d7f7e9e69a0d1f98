package adminapi

import (
	"context"
	"sync/atomic"

	"admingate/internal/observability"
)

// SessionGuard runs the forced sign-out at most once per process. Once
// tripped it stays tripped: the session is over.
type SessionGuard struct {
	tripped atomic.Bool
	signOut func(ctx context.Context)
}

// NewSessionGuard returns a guard calling signOut on the first account denial.
func NewSessionGuard(signOut func(ctx context.Context)) *SessionGuard {
	return &SessionGuard{signOut: signOut}
}

// HandleAccountAccessDenied reports whether err is an account denial and,
// for the first one only, tears the session down.
func (g *SessionGuard) HandleAccountAccessDenied(ctx context.Context, err error) bool {
	if !IsAccountAccessDenied(err) {
		return false
	}
	if !g.tripped.CompareAndSwap(false, true) {
		return true
	}
	observability.SessionTeardowns.Inc()
	observability.GlobalLogger.WarnContext(ctx, "account access denied, signing out",
		"code", ErrorCode(err),
	)
	if g.signOut != nil {
		g.signOut(ctx)
	}
	return true
}

// Tripped reports whether the sign-out already ran.
func (g *SessionGuard) Tripped() bool {
	return g.tripped.Load()
}
