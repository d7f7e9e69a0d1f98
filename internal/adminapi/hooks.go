package adminapi

import (
	"context"
	"net/http"
)

// Hook observes every round trip of a Client. Before may add headers or
// abort the call; After sees the outcome. Either may be nil.
type Hook struct {
	Name   string
	Before func(ctx context.Context, req *http.Request) error
	After  func(ctx context.Context, call Request, resp *Response, err error)
}

type hookEntry struct {
	hook Hook
}

// Use registers h and returns a function that removes it again.
func (c *Client) Use(h Hook) (remove func()) {
	entry := &hookEntry{hook: h}
	c.hooksMu.Lock()
	c.hooks = append(c.hooks, entry)
	c.hooksMu.Unlock()

	return func() {
		c.hooksMu.Lock()
		defer c.hooksMu.Unlock()
		for i, e := range c.hooks {
			if e == entry {
				c.hooks = append(c.hooks[:i:i], c.hooks[i+1:]...)
				return
			}
		}
	}
}

func (c *Client) snapshotHooks() []Hook {
	c.hooksMu.RLock()
	defer c.hooksMu.RUnlock()
	out := make([]Hook, 0, len(c.hooks))
	for _, e := range c.hooks {
		out = append(out, e.hook)
	}
	return out
}

// IsWriteMethod reports whether method changes server state.
func IsWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// AccountDeniedHook forwards every failure to guard.
func AccountDeniedHook(guard *SessionGuard) Hook {
	return Hook{
		Name: "account-denied",
		After: func(ctx context.Context, _ Request, _ *Response, err error) {
			if err != nil {
				guard.HandleAccountAccessDenied(ctx, err)
			}
		},
	}
}

// CapabilityRefreshHook calls refresh when a write is rejected because the
// caller's own admin actions were restricted. Reads are exempt.
func CapabilityRefreshHook(refresh func(ctx context.Context)) Hook {
	return Hook{
		Name: "capability-refresh",
		After: func(ctx context.Context, call Request, _ *Response, err error) {
			if IsWriteMethod(call.Method) && IsAdminActionRestricted(err) {
				refresh(ctx)
			}
		},
	}
}
