// Package service implements the console operations on top of the admin API:
// reads that normalize into typed records, and moderation actions that
// resolve to a uniform ActionResponse.
package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"admingate/internal/adminapi"
	"admingate/internal/models"
)

// Executor runs admin API calls. *adminapi.Client satisfies it.
type Executor interface {
	Execute(ctx context.Context, req adminapi.Request) (*adminapi.Response, error)
	Fingerprint() string
}

// Clock returns the current time. Services take one so windows are testable.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func escape(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return models.NewValidationError(kind + " id is required")
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ListQuery is the common paging and filtering input of list reads.
type ListQuery struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	for k, val := range q.Filters {
		if strings.TrimSpace(val) != "" {
			v.Set(k, strings.TrimSpace(val))
		}
	}
	return v
}
