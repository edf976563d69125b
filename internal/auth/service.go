package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/plan"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInviteUnusable     = errors.New("auth: invite is invalid or expired")
)

// MinPasswordLength is the shortest password accepted on invite acceptance.
const MinPasswordLength = 6

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// CompanyLookup is the company read AcceptInvite needs for the plan check.
type CompanyLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error)
}

// Service provides authentication and invite acceptance.
type Service struct {
	users      domain.UserRepository
	invites    domain.InviteRepository
	companies  CompanyLookup
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService creates a new auth service.
func NewService(
	users domain.UserRepository,
	invites domain.InviteRepository,
	companies CompanyLookup,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
) *Service {
	return &Service{
		users:      users,
		invites:    invites,
		companies:  companies,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Session is what a successful login hands back to the client.
type Session struct {
	AccessToken  string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user"`
}

// Login validates email/password and returns access + refresh JWT tokens.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !verifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	session, err := s.session(user)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}
	return session, nil
}

// RefreshToken validates a refresh token and issues a new access token. The
// role is re-read so a demoted user does not keep old privileges.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := ValidateToken(s.jwtSecret, refreshToken)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	if claims.TokenType != tokenTypeRefresh {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidToken)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: invalid user id: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrUserNotFound)
	}

	access, err := IssueAccessToken(s.jwtSecret, user.CompanyID, user.ID, user.Role, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	return access, nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth.GetUser: %w", err)
	}

	return user, nil
}

// AcceptInviteInput is the form a new user fills in from an invite link.
type AcceptInviteInput struct {
	Name                 string
	Password             string
	PasswordConfirmation string
}

// Validate checks the form rules in order and returns the first failure.
func (in AcceptInviteInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return domain.Invalid("name", "name is required")
	case len(in.Password) < MinPasswordLength:
		return domain.Invalid("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case in.Password != in.PasswordConfirmation:
		return domain.Invalid("password_confirmation", "passwords do not match")
	}
	return nil
}

// AcceptInvite creates the invited user and marks the invite used in one
// transaction, then logs the new user in.
func (s *Service) AcceptInvite(ctx context.Context, token string, in AcceptInviteInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("auth.AcceptInvite: %w", err)
	}

	inv, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("auth.AcceptInvite: %w", ErrInviteUnusable)
		}
		return nil, fmt.Errorf("auth.AcceptInvite: %w", err)
	}
	if !inv.Usable(s.now()) {
		return nil, fmt.Errorf("auth.AcceptInvite: %w", ErrInviteUnusable)
	}

	company, err := s.companies.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("auth.AcceptInvite: %w", err)
	}
	current, err := s.users.CountByCompany(ctx, inv.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("auth.AcceptInvite: %w", err)
	}
	if err := plan.CheckUserLimit(company.Plan, current); err != nil {
		return nil, fmt.Errorf("auth.AcceptInvite: %w", err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth.AcceptInvite: %w", err)
	}

	now := s.now()
	companyID := inv.CompanyID
	user := &domain.User{
		ID:           uuid.New(),
		CompanyID:    &companyID,
		Email:        NormalizeEmail(inv.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         inv.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.invites.Accept(ctx, inv, user); err != nil {
		return nil, fmt.Errorf("auth.AcceptInvite: %w", err)
	}

	session, err := s.session(user)
	if err != nil {
		return nil, fmt.Errorf("auth.AcceptInvite: %w", err)
	}
	return session, nil
}

// EnsureOperator creates a platform operator with the given credentials
// unless a user with that email already exists. Used to bootstrap an empty
// database.
func (s *Service) EnsureOperator(ctx context.Context, email, password, name string) (*domain.User, bool, error) {
	email = NormalizeEmail(email)
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, false, fmt.Errorf("auth.EnsureOperator: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("auth.EnsureOperator: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         domain.RoleSuperAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("auth.EnsureOperator: %w", err)
	}
	return user, true, nil
}

// NormalizeEmail lowercases and trims an address for lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) session(user *domain.User) (*Session, error) {
	access, err := IssueAccessToken(s.jwtSecret, user.CompanyID, user.ID, user.Role, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := IssueRefreshToken(s.jwtSecret, user.CompanyID, user.ID, user.Role, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// hashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

// verifyPassword checks a password against an argon2id hash.
func verifyPassword(password, encoded string) bool {
	saltHex, hashHex, ok := strings.Cut(encoded, "$")
	if !ok || saltHex == "" || hashHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	expected, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return subtle.ConstantTimeCompare(computed, expected) == 1
}
