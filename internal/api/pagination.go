package api

import (
	"net/http"
	"strconv"
)

const defaultLimit = 20
const maxLimit = 100

// Page sizes of the list screens.
const (
	patientsPageSize = 10
	auditPageSize    = 50
)

// ParseLimitOffset reads limit and offset from query params. Default limit is 20, max 100.
func ParseLimitOffset(r *http.Request) (limit, offset int) {
	return parseLimitOffsetWith(r, defaultLimit)
}

// parseLimitOffsetWith is ParseLimitOffset with a per-list default size.
// A 1-based "page" param takes precedence over "offset".
func parseLimitOffsetWith(r *http.Request, size int) (limit, offset int) {
	limit = size
	offset = 0
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}
	if s := q.Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}
	if s := q.Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

func listResponse(items interface{}, limit, offset int, total int64) map[string]interface{} {
	return map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"page":   offset/limit + 1,
		"total":  total,
	}
}
