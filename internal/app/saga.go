/**
 * @description
 * This file contains the transfer orchestrator: the saga that drives one
 * requested transfer through withdraw, deposit, and, on partial failure, the
 * compensating deposit back to the source account. The Transfer aggregate is
 * the saga's persistent state record; every run starts by re-reading it and
 * ends by persisting exactly one terminal transition.
 *
 * The three possible outcomes are explicit code paths rather than nested
 * error handling:
 *   - completed:              withdraw ok, deposit ok
 *   - failed before movement: withdraw failed, nothing to undo
 *   - failed after movement:  deposit failed, compensating deposit restored
 *                             the withdrawn funds
 *
 * Withdraw-before-deposit ordering bounds the failure surface: a failed
 * withdraw costs nothing, a failed deposit costs one compensating deposit.
 * The compensation is a forward recovery action, not a rollback, so all four
 * possible money movements stay on the audit trail.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For aggregate identifiers.
 * - internal/domain, internal/store: For domain models and data access.
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
)

var (
	// ErrCompensationFailed means the withdrawn funds could not be restored
	// after a failed deposit. Money is in limbo between the two accounts;
	// this is never resolved automatically.
	ErrCompensationFailed = errors.New("compensating deposit failed; withdrawn funds not restored")

	// ErrConcurrentSagaExecution means another orchestrator run finalized the
	// same transfer between our read and our terminal write.
	ErrConcurrentSagaExecution = errors.New("concurrent saga execution detected")

	// ErrTransferLookupFailed wraps transient errors loading the transfer
	// record. Nothing has happened yet, so the delivery is safe to requeue.
	ErrTransferLookupFailed = errors.New("transfer lookup failed")

	// ErrTransferUnresolved means a terminal status could not be persisted
	// after the money movements already happened. Re-running the saga could
	// move money twice, so the delivery must not be redriven automatically.
	ErrTransferUnresolved = errors.New("transfer left unresolved; operator intervention required")
)

const (
	defaultStepTimeout    = 15 * time.Second
	defaultMaxStepRetries = 3
	defaultRetryBackoff   = 50 * time.Millisecond
)

// TransferSaga orchestrates the withdraw/deposit/compensate process for one
// transfer per invocation. It holds no per-transfer state between runs and no
// locks across I/O; concurrent runs are arbitrated solely by the version
// checks in the store.
type TransferSaga struct {
	repo           store.Repository
	stepTimeout    time.Duration
	maxStepRetries int
	retryBackoff   time.Duration
}

// NewTransferSaga creates a saga instance. Non-positive tuning values fall
// back to the defaults.
func NewTransferSaga(repo store.Repository, stepTimeout time.Duration, maxStepRetries int, retryBackoff time.Duration) *TransferSaga {
	if stepTimeout <= 0 {
		stepTimeout = defaultStepTimeout
	}
	if maxStepRetries <= 0 {
		maxStepRetries = defaultMaxStepRetries
	}
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}
	return &TransferSaga{
		repo:           repo,
		stepTimeout:    stepTimeout,
		maxStepRetries: maxStepRetries,
		retryBackoff:   retryBackoff,
	}
}

// OnTransferRequested runs the saga for one transfer notification. It is safe
// to invoke redundantly: a transfer already in a terminal state is
// acknowledged without touching any account.
func (s *TransferSaga) OnTransferRequested(ctx context.Context, transferID uuid.UUID) error {
	transfer, err := s.loadTransfer(ctx, transferID)
	if err != nil {
		return err
	}

	if transfer.Status.IsTerminal() {
		log.Printf("level=info component=saga msg=\"re-delivery for finalized transfer; skipping\" transfer_id=%s status=%s", transfer.ID, transfer.Status)
		return nil
	}

	log.Printf("level=info component=saga msg=\"starting transfer saga\" transfer_id=%s amount=%s", transfer.ID, transfer.Money)

	if err := s.mutateAccount(ctx, transfer.SourceAccountID, func(a *domain.Account) error {
		return a.Withdraw(transfer.Money)
	}); err != nil {
		// Failed before movement: no compensation needed.
		log.Printf("level=warn component=saga msg=\"withdraw failed; no funds moved\" transfer_id=%s source=%s err=%v", transfer.ID, transfer.SourceAccountID, err)
		return s.finalizeFailed(ctx, transfer, fmt.Sprintf("withdraw failed: %v", err))
	}
	log.Printf("level=info component=saga msg=\"withdraw successful\" transfer_id=%s source=%s", transfer.ID, transfer.SourceAccountID)

	depositErr := s.mutateAccount(ctx, transfer.DestinationAccountID, func(a *domain.Account) error {
		return a.Deposit(transfer.Money)
	})
	if depositErr == nil {
		log.Printf("level=info component=saga msg=\"deposit successful\" transfer_id=%s destination=%s", transfer.ID, transfer.DestinationAccountID)
		return s.finalizeCompleted(ctx, transfer)
	}

	// Failed after movement: restore the withdrawn funds with a compensating
	// deposit to the source account. The compensation itself must not fail;
	// if it does the money is in limbo and an operator has to step in.
	log.Printf("level=warn component=saga msg=\"deposit failed; compensating\" transfer_id=%s destination=%s err=%v", transfer.ID, transfer.DestinationAccountID, depositErr)
	if compErr := s.mutateAccount(ctx, transfer.SourceAccountID, func(a *domain.Account) error {
		return a.Deposit(transfer.Money)
	}); compErr != nil {
		log.Printf("level=error component=saga alert=operator msg=\"compensation failed; funds in limbo\" transfer_id=%s source=%s amount=%s err=%v",
			transfer.ID, transfer.SourceAccountID, transfer.Money, compErr)
		return fmt.Errorf("transfer %s: %v: %w", transfer.ID, compErr, ErrCompensationFailed)
	}
	log.Printf("level=info component=saga msg=\"compensation successful\" transfer_id=%s source=%s", transfer.ID, transfer.SourceAccountID)

	return s.finalizeFailed(ctx, transfer, fmt.Sprintf("deposit failed: %v", depositErr))
}

// loadTransfer reads the saga's state record. A missing record is a hard
// failure: the request side persists the transfer before publishing the
// notification, so absence indicates a bug upstream, not a race.
func (s *TransferSaga) loadTransfer(ctx context.Context, transferID uuid.UUID) (*domain.Transfer, error) {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	transfer, err := s.repo.FindTransferByID(stepCtx, transferID)
	if err != nil {
		if errors.Is(err, store.ErrTransferNotFound) {
			log.Printf("level=error component=saga alert=operator msg=\"notification for unknown transfer\" transfer_id=%s", transferID)
			return nil, fmt.Errorf("transfer %s: %w", transferID, err)
		}
		return nil, fmt.Errorf("transfer %s: %v: %w", transferID, err, ErrTransferLookupFailed)
	}
	return transfer, nil
}

// mutateAccount performs one version-checked read-modify-write on an account.
// The aggregate is re-fetched on every attempt; a stale reference is never
// held across the save. Version conflicts are transient and retried a bounded
// number of times before the step is reported as failed.
func (s *TransferSaga) mutateAccount(ctx context.Context, accountID uuid.UUID, mutate func(*domain.Account) error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxStepRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryBackoff):
			}
		}

		lastErr = s.mutateAccountOnce(ctx, accountID, mutate)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, store.ErrConcurrencyConflict) {
			return lastErr
		}
		log.Printf("level=warn component=saga msg=\"account version conflict; retrying step\" account_id=%s attempt=%d", accountID, attempt+1)
	}
	return lastErr
}

func (s *TransferSaga) mutateAccountOnce(ctx context.Context, accountID uuid.UUID, mutate func(*domain.Account) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	account, err := s.repo.FindAccountByID(stepCtx, accountID)
	if err != nil {
		return err
	}
	if err := mutate(account); err != nil {
		return err
	}
	return s.repo.SaveAccount(stepCtx, account)
}

// finalizeCompleted persists the REQUESTED -> COMPLETED transition.
func (s *TransferSaga) finalizeCompleted(ctx context.Context, transfer *domain.Transfer) error {
	if err := transfer.Complete(); err != nil {
		return err
	}
	if err := s.saveTerminal(ctx, transfer); err != nil {
		return err
	}
	log.Printf("level=info component=saga msg=\"transfer saga completed\" transfer_id=%s", transfer.ID)
	return nil
}

// finalizeFailed persists the REQUESTED -> FAILED transition.
func (s *TransferSaga) finalizeFailed(ctx context.Context, transfer *domain.Transfer, reason string) error {
	if err := transfer.Fail(reason); err != nil {
		return err
	}
	if err := s.saveTerminal(ctx, transfer); err != nil {
		return err
	}
	log.Printf("level=info component=saga msg=\"transfer saga failed\" transfer_id=%s reason=%q", transfer.ID, reason)
	return nil
}

// saveTerminal writes the terminal status with the optimistic version check.
// A version conflict here means another orchestrator run on the same transfer
// and is surfaced as such. Any other persistence failure leaves the transfer
// unresolved: the account movements are already committed, so a redelivery
// must not re-run the saga.
func (s *TransferSaga) saveTerminal(ctx context.Context, transfer *domain.Transfer) error {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	err := s.repo.SaveTransfer(stepCtx, transfer)
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrConcurrencyConflict) {
		log.Printf("level=error component=saga alert=operator msg=\"terminal save hit version conflict\" transfer_id=%s", transfer.ID)
		return fmt.Errorf("transfer %s: %w", transfer.ID, ErrConcurrentSagaExecution)
	}
	log.Printf("level=error component=saga alert=operator msg=\"terminal status not persisted\" transfer_id=%s status=%s err=%v", transfer.ID, transfer.Status, err)
	return fmt.Errorf("transfer %s: %v: %w", transfer.ID, err, ErrTransferUnresolved)
}
