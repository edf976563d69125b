package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/evolutech/platform/internal/audit"
	"github.com/evolutech/platform/internal/auth"
	"github.com/evolutech/platform/internal/commerce"
	"github.com/evolutech/platform/internal/config"
	"github.com/evolutech/platform/internal/records"
	"github.com/evolutech/platform/internal/secrets"
	"github.com/evolutech/platform/internal/server"
	"github.com/evolutech/platform/internal/store/postgres"
	redisstore "github.com/evolutech/platform/internal/store/redis"
	"github.com/evolutech/platform/internal/tenancy"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, parseErr := zerolog.ParseLevel(cfg.Log.Level)
	if parseErr != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Log.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Database.Migrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	// Connect to Redis.
	cache, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.RecordsTTL)
	if err != nil {
		return err
	}
	defer cache.Close()

	var recorder *audit.Recorder
	if cfg.Kafka.Enabled() {
		producer := audit.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		defer func() {
			if closeErr := producer.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("kafka producer close")
			}
		}()
		recorder = audit.NewRecorder(store.Audit(), producer)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.AuditTopic).Msg("audit export enabled")
	} else {
		recorder = audit.NewRecorder(store.Audit(), nil)
	}

	key, err := secrets.ParseKey(cfg.Vault.Key)
	if err != nil {
		return fmt.Errorf("vault key: %w", err)
	}
	vault, err := secrets.NewVault(key)
	if err != nil {
		return err
	}

	authSvc := auth.NewService(store.Users(), store.Invites(), store.Companies(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	tenancySvc := tenancy.NewService(store.Companies(), store.Templates(), store.Users(), store.Invites(),
		tenancy.WithPublisher(cache),
		tenancy.WithAuditor(recorder),
	)
	catalog := tenancy.NewCatalog(store.Modules(), store.Templates(), recorder)
	recordsSvc := records.NewService(store.Records(), cache, cache, recorder)
	commerceSvc := commerce.NewService(store.Checkout(), store.Gateways(), store.Companies(), recordsSvc, vault, recorder)

	if cfg.Bootstrap.AdminEmail != "" {
		u, created, bootErr := authSvc.EnsureOperator(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName)
		if bootErr != nil {
			return bootErr
		}
		if created {
			log.Info().Str("email", u.Email).Msg("bootstrap super admin created")
		}
	}

	srv := server.New(ctx, cfg, server.Deps{
		Auth:     authSvc,
		Tenancy:  tenancySvc,
		Catalog:  catalog,
		Records:  recordsSvc,
		Commerce: commerceSvc,
		Audit:    recorder,
		Events:   cache,
		Health: map[string]server.Pinger{
			"postgres": store,
			"redis":    cache,
		},
	})

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
