// Package plan holds the subscription tiers a company can be on and the
// limits each tier enforces.
package plan

import (
	"errors"
	"fmt"
	"slices"

	"github.com/evolutech/platform/internal/domain"
)

//nolint:gochecknoglobals // sentinel error
var ErrUnknownPlan = errors.New("plan: unknown plan")

type Tier string

const (
	Starter      Tier = "starter"
	Professional Tier = "professional"
	Enterprise   Tier = "enterprise"
)

// Unlimited marks a limit that is not enforced.
const Unlimited = 0

// Limits describes what a tier allows.
type Limits struct {
	Tier     Tier
	MaxUsers int      // Unlimited when 0
	Features []string // enabled feature flags
}

//nolint:gochecknoglobals // static tier table
var tiers = map[Tier]Limits{
	Starter:      {Tier: Starter, MaxUsers: 3, Features: []string{"crud"}},
	Professional: {Tier: Professional, MaxUsers: 15, Features: []string{"crud", "pdv", "billing", "white_label"}},
	Enterprise:   {Tier: Enterprise, MaxUsers: Unlimited, Features: []string{"crud", "pdv", "billing", "white_label", "audit_export"}},
}

// Parse resolves a stored plan name. Empty means Starter.
func Parse(name string) (Limits, error) {
	if name == "" {
		return tiers[Starter], nil
	}
	l, ok := tiers[Tier(name)]
	if !ok {
		return Limits{}, fmt.Errorf("%w: %q", ErrUnknownPlan, name)
	}
	return l, nil
}

// Valid reports whether name is a known plan.
func Valid(name string) bool {
	_, ok := tiers[Tier(name)]
	return ok
}

// HasFeature checks if a specific feature is enabled.
func (l Limits) HasFeature(feature string) bool {
	return slices.Contains(l.Features, feature)
}

// AllowsUsers reports whether a company with current users may add one more.
func (l Limits) AllowsUsers(current int) bool {
	return l.MaxUsers == Unlimited || current < l.MaxUsers
}

// CheckUserLimit returns domain.ErrPlanLimit when a company on planName
// already has as many users as the plan allows.
func CheckUserLimit(planName string, current int) error {
	l, err := Parse(planName)
	if err != nil {
		return fmt.Errorf("plan.CheckUserLimit: %w", err)
	}
	if !l.AllowsUsers(current) {
		return fmt.Errorf("plan.CheckUserLimit: %w: %s allows %d users", domain.ErrPlanLimit, l.Tier, l.MaxUsers)
	}
	return nil
}
