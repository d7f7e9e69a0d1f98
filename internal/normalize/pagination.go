package normalize

import (
	"admingate/internal/decode"
	"admingate/internal/models"
)

// DefaultPageLimit applies when neither the response nor the caller names a limit.
const DefaultPageLimit = 20

var rowKeys = []string{"records", "items", "data", "rows", "results"}

var (
	limitKeys = []string{"limit", "pageSize", "perPage"}
	totalKeys = []string{"total", "totalCount", "totalItems", "count"}
	metaKeys  = []string{"pagination", "pageInfo", "meta"}
)

// Collect maps rows through fn, dropping rows the normalizer rejects.
func Collect[T any](rows []any, fn func(any) *T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if v := fn(row); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// ExtractRows finds the row array of a list response. The body may be the
// array itself, or carry it under a generic key, one of aliases, or inside a
// nested data object. A body with no array yields an empty slice.
func ExtractRows(body any, aliases ...string) []any {
	if arr, ok := decode.Array(body); ok {
		return arr
	}
	obj, ok := decode.Object(body)
	if !ok {
		return []any{}
	}
	if arr, ok := arrayAt(obj, aliases); ok {
		return arr
	}
	if data, ok := decode.Object(obj["data"]); ok {
		if arr, ok := arrayAt(data, aliases); ok {
			return arr
		}
	}
	return []any{}
}

func arrayAt(obj map[string]any, aliases []string) ([]any, bool) {
	for _, keys := range [][]string{rowKeys, aliases} {
		for _, key := range keys {
			if arr, ok := decode.Array(obj[key]); ok {
				return arr, true
			}
		}
	}
	return nil, false
}

// ExtractPageInfo reads pagination metadata, preferring a nested pagination
// object over top-level fields. Missing values fall back to page 1, the
// requested limit and the number of rows actually returned.
func ExtractPageInfo(body any, rowCount, fallbackLimit int) models.PageInfo {
	if fallbackLimit <= 0 {
		fallbackLimit = DefaultPageLimit
	}
	info := models.PageInfo{Page: 1, Limit: fallbackLimit, Total: rowCount}

	var sources []any
	if obj, ok := decode.Object(body); ok {
		for _, key := range metaKeys {
			if meta, ok := decode.Object(obj[key]); ok {
				sources = append(sources, meta)
			}
		}
		if data, ok := decode.Object(obj["data"]); ok {
			if meta, ok := decode.Object(data["pagination"]); ok {
				sources = append(sources, meta)
			}
		}
		sources = append(sources, obj)
	}

	positive := func(n int) bool { return n > 0 }
	pageSet, limitSet, totalSet, pagesSet := false, false, false, false
	for _, src := range sources {
		if page, ok := intAt(src, positive, "page", "currentPage"); ok && !pageSet {
			info.Page, pageSet = page, true
		}
		if limit, ok := intAt(src, positive, limitKeys...); ok && !limitSet {
			info.Limit, limitSet = limit, true
		}
		if total, ok := intAt(src, nil, totalKeys...); ok && !totalSet {
			info.Total, totalSet = total, true
		}
		if pages, ok := intAt(src, nil, "totalPages", "pageCount"); ok && !pagesSet {
			info.TotalPages, pagesSet = pages, true
		}
	}
	if !pagesSet {
		info.TotalPages = ceilDiv(info.Total, info.Limit)
	}
	return info
}

// Page builds a typed page from a list response.
func Page[T any](body any, fallbackLimit int, fn func(any) *T, aliases ...string) models.Page[T] {
	rows := ExtractRows(body, aliases...)
	return models.Page[T]{
		Rows:     Collect(rows, fn),
		PageInfo: ExtractPageInfo(body, len(rows), fallbackLimit),
	}
}

// intAt returns the first value under keys that decodes as an integer and
// passes accept. A malformed alias does not hide a later valid one.
func intAt(src any, accept func(int) bool, keys ...string) (int, bool) {
	for _, key := range keys {
		raw, ok := decode.Path(src, key)
		if !ok {
			continue
		}
		if n, ok := decode.Int(raw); ok && (accept == nil || accept(n)) {
			return n, true
		}
	}
	return 0, false
}

func ceilDiv(total, limit int) int {
	if limit < 1 {
		limit = 1
	}
	return (total + limit - 1) / limit
}
