/**
 * @description
 * This file contains the application service for the transfer-service. The
 * `Service` struct implements the account use cases (open, deposit, withdraw,
 * details) and the transfer request use case. Requesting a transfer only
 * persists a REQUESTED record and publishes a notification; the actual money
 * movement is driven asynchronously by the TransferSaga.
 *
 * Key invariant: the REQUESTED transfer is durably persisted *before* the
 * notification is published (write-then-notify). The saga treats a
 * notification for an unknown transfer as a bug, not a race.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For publishing transfer notifications.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/corebank/transfer-service/internal/domain"
	"github.com/corebank/transfer-service/internal/store"
	"github.com/corebank/transfer-service/pkg/rabbitmq"
)

// ErrNotificationFailed reports that a transfer was accepted and persisted but
// its notification could not be published. The record is durable; an operator
// (or a future re-publish sweep) must re-emit the event.
var ErrNotificationFailed = errors.New("transfer persisted but notification publish failed")

const openAccountNumberAttempts = 3

// Service provides the account and transfer-request use cases.
type Service struct {
	repo            store.Repository
	eventProducer   rabbitmq.Publisher
	eventExchange   string
	eventRoutingKey string
	defaultCurrency string
}

// NewService creates a new application service instance.
func NewService(repo store.Repository, producer rabbitmq.Publisher, exchange, routingKey, defaultCurrency string) *Service {
	if defaultCurrency == "" {
		defaultCurrency = domain.JPY
	}
	return &Service{
		repo:            repo,
		eventProducer:   producer,
		eventExchange:   exchange,
		eventRoutingKey: routingKey,
		defaultCurrency: defaultCurrency,
	}
}

// DefaultCurrency returns the currency used when a request does not name one.
func (s *Service) DefaultCurrency() string {
	return s.defaultCurrency
}

// OpenAccount creates and persists a new account with a zero balance. The
// generated account number can collide with an existing row, in which case we
// regenerate and retry a couple of times before giving up.
func (s *Service) OpenAccount(ctx context.Context, ownerName, currency string) (*domain.Account, error) {
	if currency == "" {
		currency = s.defaultCurrency
	}

	var lastErr error
	for attempt := 0; attempt < openAccountNumberAttempts; attempt++ {
		account, err := domain.OpenAccount(ownerName, currency)
		if err != nil {
			return nil, err
		}
		if err := s.repo.CreateAccount(ctx, account); err != nil {
			if errors.Is(err, store.ErrDuplicateAccount) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("open account: %w", err)
		}
		log.Printf("level=info component=app msg=\"account opened\" account_id=%s account_number=%s", account.ID, account.AccountNumber)
		return account, nil
	}
	return nil, fmt.Errorf("open account: %w", lastErr)
}

// GetAccount returns the account aggregate for the given id.
func (s *Service) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.repo.FindAccountByID(ctx, accountID)
}

// Deposit loads the account, applies the deposit, and saves it.
func (s *Service) Deposit(ctx context.Context, accountID uuid.UUID, amount domain.Money) (*domain.Account, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := account.Deposit(amount); err != nil {
		return nil, err
	}
	if err := s.repo.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Withdraw loads the account, applies the withdrawal, and saves it.
func (s *Service) Withdraw(ctx context.Context, accountID uuid.UUID, amount domain.Money) (*domain.Account, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := account.Withdraw(amount); err != nil {
		return nil, err
	}
	if err := s.repo.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetTransfer returns the transfer aggregate for the given id.
func (s *Service) GetTransfer(ctx context.Context, transferID uuid.UUID) (*domain.Transfer, error) {
	return s.repo.FindTransferByID(ctx, transferID)
}

// RequestTransfer accepts a transfer request: it validates and persists the
// REQUESTED aggregate, then publishes the notification that triggers the saga.
// The caller gets the REQUESTED record back immediately; the outcome is
// resolved asynchronously.
func (s *Service) RequestTransfer(ctx context.Context, sourceAccountID, destinationAccountID uuid.UUID, money domain.Money) (*domain.Transfer, error) {
	transfer, err := domain.RequestTransfer(sourceAccountID, destinationAccountID, money)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateTransfer(ctx, transfer); err != nil {
		return nil, fmt.Errorf("persist transfer request: %w", err)
	}

	event := domain.TransferRequestedEvent{
		EventID:     uuid.NewString(),
		TransferID:  transfer.ID.String(),
		RequestedAt: time.Now().UTC(),
	}
	if err := s.eventProducer.Publish(ctx, s.eventExchange, s.eventRoutingKey, event); err != nil {
		log.Printf("level=error component=app alert=operator msg=\"transfer requested but notification publish failed\" transfer_id=%s err=%v", transfer.ID, err)
		return transfer, fmt.Errorf("transfer %s: %v: %w", transfer.ID, err, ErrNotificationFailed)
	}

	log.Printf("level=info component=app msg=\"transfer requested\" transfer_id=%s source=%s destination=%s amount=%s",
		transfer.ID, sourceAccountID, destinationAccountID, money)
	return transfer, nil
}
