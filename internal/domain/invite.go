package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusExpired  InviteStatus = "expired"
)

// Invite lets a company owner bring a new user into the company.
type Invite struct {
	ID        uuid.UUID    `json:"id"`
	CompanyID uuid.UUID    `json:"company_id"`
	Email     string       `json:"email"`
	Role      string       `json:"role"`
	Token     string       `json:"-"`
	Status    InviteStatus `json:"status"`
	CreatedBy *uuid.UUID   `json:"created_by,omitempty"`
	ExpiresAt time.Time    `json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`
}

// Usable reports whether the invite can still be accepted at now.
func (i *Invite) Usable(now time.Time) bool {
	return i.Status == InviteStatusPending && now.Before(i.ExpiresAt)
}

type InviteRepository interface {
	Create(ctx context.Context, inv *Invite) error
	GetByToken(ctx context.Context, token string) (*Invite, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*Invite, error)
	// Accept marks the invite accepted and creates the user atomically.
	Accept(ctx context.Context, inv *Invite, u *User) error
}
