package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/usecase"
)

// PostgreSQL error codes.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrUniqueViolation      = "23505"
	pgErrCheckViolation       = "23514"
)

const (
	insertAccountSQL = `INSERT INTO accounts (id, name, balance, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	selectAccountSQL = `SELECT id, name, balance::text, version, created_at, updated_at
FROM accounts WHERE id = $1`

	listAccountsSQL = `SELECT id, name, balance::text, version, created_at, updated_at
FROM accounts ORDER BY id`

	swapBalanceSQL = `UPDATE accounts SET balance = $1, version = version + 1, updated_at = $2
WHERE id = $3 AND version = $4`
)

// AccountStore implements usecase.AccountStore on PostgreSQL.
type AccountStore struct {
	pool  pgxPool
	tx    *TxManager
	clock func() time.Time
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return newAccountStoreWithPool(pool)
}

func newAccountStoreWithPool(pool pgxPool) *AccountStore {
	return &AccountStore{
		pool:  pool,
		tx:    newTxManagerWithPool(pool),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// Create creates a new account.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	_, err := s.pool.Exec(ctx, insertAccountSQL,
		account.ID,
		account.Name,
		decimalToNumeric(account.Balance),
		account.Version,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)
	if err != nil {
		return mapPgError(err, account.ID)
	}

	return nil
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := scanAccount(s.pool.QueryRow(ctx, selectAccountSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}
		return nil, err
	}

	return account, nil
}

// CompareAndSwap updates every row in one transaction, in ascending ID order.
func (s *AccountStore) CompareAndSwap(ctx context.Context, updates []usecase.BalanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ordered := make([]usecase.BalanceUpdate, len(updates))
	copy(ordered, updates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].AccountID < ordered[j].AccountID })

	now := timeToPgTimestamptz(s.clock())

	return s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		for _, u := range ordered {
			tag, err := tx.Exec(ctx, swapBalanceSQL, decimalToNumeric(u.NewBalance), now, u.AccountID, u.ExpectedVersion)
			if err != nil {
				return mapPgError(err, u.AccountID)
			}

			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: account %s is no longer at version %d",
					domain.ErrConcurrencyConflict, u.AccountID, u.ExpectedVersion)
			}
		}
		return nil
	})
}

// List returns all accounts ordered by ID from a single statement snapshot.
func (s *AccountStore) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := s.pool.Query(ctx, listAccountsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		balance string
	)

	if err := row.Scan(&account.ID, &account.Name, &balance, &account.Version, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("account %s has unreadable balance %q: %w", account.ID, balance, err)
	}
	account.Balance = parsed

	return &account, nil
}

func mapPgError(err error, accountID string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrDeadlock, pgErrSerializationFailure:
		return fmt.Errorf("%w: %s", domain.ErrConcurrencyConflict, pgErr.Message)
	case pgErrUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrAccountExists, accountID)
	case pgErrCheckViolation:
		return fmt.Errorf("%w: account %s", domain.ErrInsufficientFunds, accountID)
	}

	return err
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
