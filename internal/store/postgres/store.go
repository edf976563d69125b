package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evolutech/platform/internal/domain"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool      *pgxpool.Pool
	companies *CompanyRepo
	modules   *ModuleRepo
	templates *TemplateRepo
	users     *UserRepo
	invites   *InviteRepo
	records   *RecordRepo
	audit     *AuditRepo
	checkout  *CheckoutRepo
	gateways  *GatewayRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:      pool,
		companies: NewCompanyRepo(pool),
		modules:   NewModuleRepo(pool),
		templates: NewTemplateRepo(pool),
		users:     NewUserRepo(pool),
		invites:   NewInviteRepo(pool),
		records:   NewRecordRepo(pool),
		audit:     NewAuditRepo(pool),
		checkout:  NewCheckoutRepo(pool),
		gateways:  NewGatewayRepo(pool),
	}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres.Migrate: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Companies() domain.CompanyRepository  { return s.companies }
func (s *Store) Modules() domain.ModuleRepository     { return s.modules }
func (s *Store) Templates() domain.TemplateRepository { return s.templates }
func (s *Store) Users() domain.UserRepository         { return s.users }
func (s *Store) Invites() domain.InviteRepository     { return s.invites }
func (s *Store) Records() *RecordRepo                 { return s.records }
func (s *Store) Audit() domain.AuditRepository        { return s.audit }
func (s *Store) Checkout() domain.CheckoutRepository  { return s.checkout }
func (s *Store) Gateways() domain.GatewayRepository   { return s.gateways }
