package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ListQuery is everything a list page can ask for. The zero value (after
// Normalize) is the unfiltered first page in default order, newest first.
type ListQuery struct {
	Pagination

	Search    string
	Status    string
	Active    *bool
	DateFrom  *time.Time
	DateTo    *time.Time
	OrderBy   string
	Ascending bool
}

// Reset clears every filter and the ordering and returns to page 1. The page
// size is kept.
func (q ListQuery) Reset() ListQuery {
	return ListQuery{Pagination: Pagination{Page: 1, PageSize: q.PageSize}}
}

// Filtered reports whether any filter narrows the result set.
func (q ListQuery) Filtered() bool {
	return strings.TrimSpace(q.Search) != "" || q.Status != "" || q.Active != nil || q.DateFrom != nil || q.DateTo != nil
}

// Key is a stable digest of the query, used in cache keys. Fields are JSON
// encoded so no search or status text can collide with another field.
func (q ListQuery) Key() string {
	n := q.Pagination.Normalize()

	k := cacheKey{
		Page:      n.Page,
		PageSize:  n.PageSize,
		Search:    strings.TrimSpace(q.Search),
		Status:    q.Status,
		Active:    q.Active,
		OrderBy:   q.OrderBy,
		Ascending: q.Ascending,
	}
	if q.DateFrom != nil {
		k.DateFrom = q.DateFrom.UTC().Format(time.RFC3339Nano)
	}
	if q.DateTo != nil {
		k.DateTo = q.DateTo.UTC().Format(time.RFC3339Nano)
	}

	raw, _ := json.Marshal(k) // plain strings, ints and bools cannot fail
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:16])
}

type cacheKey struct {
	Page      int    `json:"p"`
	PageSize  int    `json:"s"`
	Search    string `json:"q"`
	Status    string `json:"st"`
	Active    *bool  `json:"a"`
	DateFrom  string `json:"f"`
	DateTo    string `json:"t"`
	OrderBy   string `json:"o"`
	Ascending bool   `json:"asc"`
}

// ParseDay parses a YYYY-MM-DD filter bound. With endOfDay the result is the
// last instant of that day so a "to" bound includes the whole day.
func ParseDay(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil //nolint:nilnil // absent bound
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("query.ParseDay: %q is not a YYYY-MM-DD date", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// ParseActive parses the tri-state "active" filter: "", "true" or "false".
func ParseActive(s string) (*bool, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // absent filter
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("query.ParseActive: %q is not a boolean", s)
	}
	return &b, nil
}
