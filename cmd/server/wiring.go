package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/adapter/http/handler"
	"github.com/iho/moneytransfer/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/moneytransfer/internal/adapter/repository/postgres"
	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/infrastructure/config"
	"github.com/iho/moneytransfer/internal/infrastructure/eventpublisher"
	"github.com/iho/moneytransfer/internal/infrastructure/postgres"
	"github.com/iho/moneytransfer/internal/infrastructure/redis"
	"github.com/iho/moneytransfer/internal/usecase"
)

type storage struct {
	store usecase.AccountStore
	pool  *pgxpool.Pool
}

func (s storage) close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage, error) {
	if cfg.StorageDriver != config.StoragePostgres {
		log.Info().Msg("using in-memory account store")
		return storage{store: memory.NewAccountStore()}, nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		return storage{}, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return storage{}, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	return storage{store: postgresRepo.NewAccountStore(pool), pool: pool}, nil
}

func healthChecks(s storage, client *goredis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{}
	if s.pool != nil {
		checks["postgres"] = s.pool.Ping
	}
	if client != nil {
		checks["redis"] = redis.Check(client)
	}
	return checks
}

type seedAccount struct {
	ID      string
	Balance decimal.Decimal
}

// parseSeedAccounts reads "id:balance" pairs. A bare id starts at zero.
func parseSeedAccounts(entries []string) ([]seedAccount, error) {
	seeds := make([]seedAccount, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, raw, hasBalance := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		balance := decimal.Zero
		if hasBalance {
			var err error
			balance, err = decimal.NewFromString(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("seed account %q: %w", entry, err)
			}
		}

		if err := domain.ValidateAccountID(id); err != nil {
			return nil, fmt.Errorf("seed account %q: %w", entry, err)
		}
		if err := domain.ValidateInitialBalance(balance); err != nil {
			return nil, fmt.Errorf("seed account %q: %w", entry, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("seed account %q: duplicate id", entry)
		}
		seen[id] = true

		seeds = append(seeds, seedAccount{ID: id, Balance: balance})
	}

	return seeds, nil
}

// seedAccounts opens each account unless it already exists.
func seedAccounts(ctx context.Context, store usecase.AccountStore, seeds []seedAccount, log zerolog.Logger) error {
	accounts := usecase.NewAccountUseCase(store, nil)
	for _, seed := range seeds {
		_, err := accounts.OpenAccount(ctx, usecase.OpenAccountInput{ID: seed.ID, InitialBalance: seed.Balance})
		switch {
		case errors.Is(err, domain.ErrAccountExists):
			log.Debug().Str("account_id", seed.ID).Msg("seed account already present")
		case err != nil:
			return fmt.Errorf("seed account %s: %w", seed.ID, err)
		default:
			log.Info().Str("account_id", seed.ID).Str("balance", seed.Balance.String()).Msg("seeded account")
		}
	}
	return nil
}

// buildPublisher selects the event publisher variant from configuration.
func buildPublisher(cfg *config.Config, client *goredis.Client, log zerolog.Logger) (usecase.EventPublisher, error) {
	if !cfg.EventsEnabled {
		log.Info().Msg("event publishing disabled")
		return eventpublisher.NewNoopPublisher(log), nil
	}

	var transport eventpublisher.Transport
	switch cfg.EventsTransport {
	case config.TransportRedis:
		if client == nil {
			return nil, errors.New("redis event transport needs a redis client")
		}
		transport = eventpublisher.NewRedisStreamTransport(client, cfg.EventsStreamMaxLen)
	case config.TransportLog:
		transport = eventpublisher.NewLogTransport(log)
	default:
		return nil, fmt.Errorf("unknown event transport %q", cfg.EventsTransport)
	}

	log.Info().Str("transport", cfg.EventsTransport).Str("mode", cfg.PublishMode).Msg("event publishing enabled")

	return eventpublisher.NewBrokerPublisher(eventpublisher.Config{
		Transport:   transport,
		TopicPrefix: cfg.EventsTopicPrefix,
		Timeout:     cfg.PublishTimeout,
		Logger:      log,
	}), nil
}
