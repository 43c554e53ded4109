/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains the SQL for the `accounts` and `transfers` tables,
 * including the version-checked updates that implement the optimistic
 * concurrency contract.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - github.com/shopspring/decimal: For exact monetary amounts.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/corebank/transfer-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateAccount inserts a freshly opened account. The insert path is only
// used for version-zero aggregates; every later write goes through SaveAccount.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, account_number, owner_name, balance, currency, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.AccountNumber,
		account.OwnerName,
		account.Balance.Amount,
		account.Balance.Currency,
		account.Version,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// FindAccountByID retrieves one account by its identifier.
func (r *PostgresRepository) FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	var (
		account  domain.Account
		amount   decimal.Decimal
		currency string
	)
	query := `
		SELECT id, account_number, owner_name, balance, currency, version, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&account.ID,
		&account.AccountNumber,
		&account.OwnerName,
		&amount,
		&currency,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	balance, err := domain.NewMoney(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("account %s has invalid stored balance: %w", accountID, err)
	}
	account.Balance = balance
	return &account, nil
}

// SaveAccount persists a mutated account via a version-checked update. The
// WHERE clause on the old version makes the read-modify-write safe against
// concurrent writers; zero affected rows means someone else won the race.
func (r *PostgresRepository) SaveAccount(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET balance = $1, currency = $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND version = $5
	`
	tag, err := r.db.Exec(ctx, query,
		account.Balance.Amount,
		account.Balance.Currency,
		time.Now().UTC(),
		account.ID,
		account.Version,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s at version %d: %w", account.ID, account.Version, ErrConcurrencyConflict)
	}
	account.Version++
	return nil
}

// CreateTransfer inserts a transfer in its initial REQUESTED state.
func (r *PostgresRepository) CreateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		INSERT INTO transfers (id, source_account_id, destination_account_id, amount, currency, status, failure_reason, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		transfer.ID,
		transfer.SourceAccountID,
		transfer.DestinationAccountID,
		transfer.Money.Amount,
		transfer.Money.Currency,
		string(transfer.Status),
		transfer.FailureReason,
		transfer.Version,
		transfer.CreatedAt,
		transfer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// FindTransferByID retrieves one transfer by its identifier.
func (r *PostgresRepository) FindTransferByID(ctx context.Context, transferID uuid.UUID) (*domain.Transfer, error) {
	var (
		transfer domain.Transfer
		amount   decimal.Decimal
		currency string
		status   string
	)
	query := `
		SELECT id, source_account_id, destination_account_id, amount, currency, status, failure_reason, version, created_at, updated_at
		FROM transfers
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, transferID).Scan(
		&transfer.ID,
		&transfer.SourceAccountID,
		&transfer.DestinationAccountID,
		&amount,
		&currency,
		&status,
		&transfer.FailureReason,
		&transfer.Version,
		&transfer.CreatedAt,
		&transfer.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("select transfer: %w", err)
	}
	money, err := domain.NewMoney(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("transfer %s has invalid stored amount: %w", transferID, err)
	}
	transfer.Money = money
	transfer.Status = domain.TransferStatus(status)
	return &transfer, nil
}

// SaveTransfer persists a transfer's terminal state transition with the same
// version check as SaveAccount. A conflict here means a concurrent
// orchestrator run finalized the same transfer.
func (r *PostgresRepository) SaveTransfer(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		UPDATE transfers
		SET status = $1, failure_reason = $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND version = $5
	`
	tag, err := r.db.Exec(ctx, query,
		string(transfer.Status),
		transfer.FailureReason,
		time.Now().UTC(),
		transfer.ID,
		transfer.Version,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transfer %s at version %d: %w", transfer.ID, transfer.Version, ErrConcurrencyConflict)
	}
	transfer.Version++
	return nil
}
