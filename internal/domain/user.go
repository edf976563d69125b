package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Roles. Operator roles manage the platform; the others belong to a company.
const (
	RoleSuperAdmin = "super_admin_evolutech"
	RoleOperator   = "admin_evolutech"
	RoleOwner      = "dono_empresa"
	RoleEmployee   = "funcionario_empresa"
)

// IsOperatorRole reports whether role administers the platform itself.
func IsOperatorRole(role string) bool {
	return role == RoleSuperAdmin || role == RoleOperator
}

// IsCompanyRole reports whether role belongs to a tenant.
func IsCompanyRole(role string) bool {
	return role == RoleOwner || role == RoleEmployee
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	CompanyID    *uuid.UUID `json:"company_id,omitempty"` // nil for operators
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // argon2id
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*User, error)
	CountByCompany(ctx context.Context, companyID uuid.UUID) (int, error)
}
