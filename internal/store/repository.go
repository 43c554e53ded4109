/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the transfer-service needs. The orchestrator and application service
 * depend only on this interface, which keeps the business logic decoupled
 * from PostgreSQL and straightforward to test with in-memory fakes.
 *
 * Both aggregates carry a version column. Save operations perform a
 * version-checked update and report ErrConcurrencyConflict when the stored
 * version no longer matches the version that was read; that version check is
 * the only guard against concurrent writers (no in-process locks).
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For aggregate identifiers.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/corebank/transfer-service/internal/domain"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransferNotFound    = errors.New("transfer not found")
	ErrConcurrencyConflict = errors.New("record version conflict")
	ErrDuplicateAccount    = errors.New("account number already exists")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Account ledger port.
	CreateAccount(ctx context.Context, account *domain.Account) error
	FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	// SaveAccount persists the mutated aggregate and bumps its version by one.
	// Returns ErrConcurrencyConflict when another writer got there first.
	SaveAccount(ctx context.Context, account *domain.Account) error

	// Transfer ledger port.
	CreateTransfer(ctx context.Context, transfer *domain.Transfer) error
	FindTransferByID(ctx context.Context, transferID uuid.UUID) (*domain.Transfer, error)
	// SaveTransfer has the same optimistic-concurrency contract as SaveAccount.
	SaveTransfer(ctx context.Context, transfer *domain.Transfer) error
}
