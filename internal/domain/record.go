package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is one row of a tenant-scoped domain table, keyed by column name.
type Record map[string]any

// ColumnKind drives how JSON input is coerced before it reaches the database.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInt
	KindNumeric
	KindBool
	KindUUID
	KindDate
	KindTimestamp
)

// System columns are owned by the server and never accepted from input.
const (
	ColumnID        = "id"
	ColumnCompanyID = "company_id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnStatus    = "status"
	ColumnIsActive  = "is_active"
)

var systemColumns = []string{ColumnID, ColumnCompanyID, ColumnCreatedAt, ColumnUpdatedAt}

// TableSpec describes one allow-listed table.
type TableSpec struct {
	Name         string
	Columns      map[string]ColumnKind // writable columns
	SearchFields []string
	DefaultOrder string
	Required     []string
	Defaults     map[string]any
}

// HasColumn reports whether col can be filtered or ordered on.
func (s *TableSpec) HasColumn(col string) bool {
	if slices.Contains(systemColumns, col) {
		return true
	}
	_, ok := s.Columns[col]
	return ok
}

// Normalize validates input against the table's columns and coerces each value
// to its column kind. System columns are dropped. On create, defaults fill
// missing columns and required columns must be present.
func (s *TableSpec) Normalize(input map[string]any, creating bool) (map[string]any, error) {
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(input)+len(s.Defaults))
	for _, k := range keys {
		if slices.Contains(systemColumns, k) {
			continue
		}
		kind, ok := s.Columns[k]
		if !ok {
			return nil, Invalid(k, fmt.Sprintf("unknown column %q", k))
		}
		v, err := Coerce(kind, input[k])
		if err != nil {
			return nil, Invalid(k, fmt.Sprintf("%s: %v", k, err))
		}
		out[k] = v
	}

	for _, col := range s.Required {
		v, present := out[col]
		if !present && !creating {
			continue
		}
		if !present || v == nil || v == "" {
			return nil, Invalid(col, col+" is required")
		}
	}

	if creating {
		for k, v := range s.Defaults {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}

	return out, nil
}

// Coerce converts a decoded JSON value into the Go type pgx expects for kind.
func Coerce(kind ColumnKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch kind {
	case KindText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil

	case KindInt:
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("expected integer, got %v", n)
			}
			return int64(n), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %q", n)
			}
			return i, nil
		}
		return nil, fmt.Errorf("expected integer, got %T", v)

	case KindNumeric:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, fmt.Errorf("expected number, got %q", n)
			}
			return f, nil
		}
		return nil, fmt.Errorf("expected number, got %T", v)

	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("expected boolean, got %q", b)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("expected boolean, got %T", v)

	case KindUUID:
		switch id := v.(type) {
		case uuid.UUID:
			return id, nil
		case string:
			if id == "" {
				return nil, nil
			}
			parsed, err := uuid.Parse(id)
			if err != nil {
				return nil, fmt.Errorf("expected uuid, got %q", id)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("expected uuid, got %T", v)

	case KindDate, KindTimestamp:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			if t == "" {
				return nil, nil
			}
			return ParseTime(t)
		}
		return nil, fmt.Errorf("expected date, got %T", v)
	}

	return nil, fmt.Errorf("unsupported column kind %d", kind)
}

// ParseTime accepts RFC 3339 timestamps and bare YYYY-MM-DD dates.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected date, got %q", s)
	}
	return t, nil
}

// Tables is the allow-list of tenant-scoped tables reachable through the
// generic CRUD surface.
var Tables = map[string]*TableSpec{ //nolint:gochecknoglobals // static allow-list
	"customers": {
		Name: "customers",
		Columns: map[string]ColumnKind{
			"name": KindText, "email": KindText, "phone": KindText, "document": KindText,
			"birth_date": KindDate, "notes": KindText, "status": KindText, "is_active": KindBool,
		},
		SearchFields: []string{"name", "email", "phone", "document"},
		DefaultOrder: ColumnCreatedAt,
		Required:     []string{"name"},
		Defaults:     map[string]any{"is_active": true},
	},
	"products": {
		Name: "products",
		Columns: map[string]ColumnKind{
			"name": KindText, "sku": KindText, "description": KindText, "category": KindText,
			"price": KindNumeric, "cost": KindNumeric, "stock": KindInt,
			"status": KindText, "is_active": KindBool,
		},
		SearchFields: []string{"name", "sku", "category"},
		DefaultOrder: ColumnCreatedAt,
		Required:     []string{"name"},
		Defaults:     map[string]any{"is_active": true, "stock": int64(0), "price": float64(0)},
	},
	"orders": {
		Name: "orders",
		Columns: map[string]ColumnKind{
			"code": KindText, "customer_id": KindUUID, "seller_id": KindUUID,
			"total": KindNumeric, "discount": KindNumeric, "payment_method": KindText,
			"status": KindText, "notes": KindText,
		},
		SearchFields: []string{"code", "notes"},
		DefaultOrder: ColumnCreatedAt,
		Defaults:     map[string]any{"status": "pending"},
	},
	"appointments": {
		Name: "appointments",
		Columns: map[string]ColumnKind{
			"customer_id": KindUUID, "professional_id": KindUUID, "service": KindText,
			"scheduled_at": KindTimestamp, "duration_minutes": KindInt, "price": KindNumeric,
			"status": KindText, "notes": KindText,
		},
		SearchFields: []string{"service", "notes"},
		DefaultOrder: "scheduled_at",
		Required:     []string{"scheduled_at"},
		Defaults:     map[string]any{"status": "scheduled"},
	},
	"tickets": {
		Name: "tickets",
		Columns: map[string]ColumnKind{
			"subject": KindText, "description": KindText, "priority": KindText,
			"customer_id": KindUUID, "status": KindText,
		},
		SearchFields: []string{"subject", "description"},
		DefaultOrder: ColumnCreatedAt,
		Required:     []string{"subject"},
		Defaults:     map[string]any{"status": "open", "priority": "medium"},
	},
	"trainings": {
		Name: "trainings",
		Columns: map[string]ColumnKind{
			"title": KindText, "description": KindText, "video_url": KindText,
			"duration_minutes": KindInt, "status": KindText, "is_active": KindBool,
		},
		SearchFields: []string{"title", "description"},
		DefaultOrder: ColumnCreatedAt,
		Required:     []string{"title"},
		Defaults:     map[string]any{"is_active": true},
	},
	"commissions": {
		Name: "commissions",
		Columns: map[string]ColumnKind{
			"user_id": KindUUID, "order_id": KindUUID, "amount": KindNumeric,
			"rate": KindNumeric, "status": KindText, "paid_at": KindTimestamp,
		},
		DefaultOrder: ColumnCreatedAt,
		Required:     []string{"amount"},
		Defaults:     map[string]any{"status": "pending"},
	},
	"loyalty_transactions": {
		Name: "loyalty_transactions",
		Columns: map[string]ColumnKind{
			"customer_id": KindUUID, "order_id": KindUUID, "points": KindInt,
			"kind": KindText, "description": KindText,
		},
		SearchFields: []string{"description"},
		DefaultOrder: ColumnCreatedAt,
		Required:     []string{"customer_id", "points"},
		Defaults:     map[string]any{"kind": "earn"},
	},
	"charges": {
		Name: "charges",
		Columns: map[string]ColumnKind{
			"customer_id": KindUUID, "description": KindText, "amount": KindNumeric,
			"due_date": KindDate, "gateway": KindText, "status": KindText, "paid_at": KindTimestamp,
		},
		SearchFields: []string{"description"},
		DefaultOrder: ColumnCreatedAt,
		Required:     []string{"amount", "due_date"},
		Defaults:     map[string]any{"status": "pending", "gateway": "manual"},
	},
}

// LookupTable returns the spec for name or ErrUnknownTable.
func LookupTable(name string) (*TableSpec, error) {
	spec, ok := Tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return spec, nil
}
