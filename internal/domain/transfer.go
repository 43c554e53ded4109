/**
 * @description
 * This file defines the Transfer aggregate: the persistent state record of one
 * transfer request and the durability anchor for its orchestration. A transfer
 * starts in REQUESTED and is moved exactly once into a terminal state
 * (COMPLETED or FAILED) by the orchestrator; it is never mutated again.
 */

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransferStatus enumerates the lifecycle states of a transfer.
type TransferStatus string

const (
	TransferRequested TransferStatus = "REQUESTED"
	TransferCompleted TransferStatus = "COMPLETED"
	TransferFailed    TransferStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferCompleted || s == TransferFailed
}

// Transfer records one requested movement of funds between two accounts.
// This struct maps directly to the `transfers` table in the database.
type Transfer struct {
	ID                   uuid.UUID      `json:"id"`
	SourceAccountID      uuid.UUID      `json:"source_account_id"`
	DestinationAccountID uuid.UUID      `json:"destination_account_id"`
	Money                Money          `json:"money"`
	Status               TransferStatus `json:"status"`
	FailureReason        *string        `json:"failure_reason,omitempty"`
	Version              int64          `json:"version"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// RequestTransfer creates a transfer in the REQUESTED state. Transfers to the
// same account are rejected before anything is persisted.
func RequestTransfer(sourceAccountID, destinationAccountID uuid.UUID, money Money) (*Transfer, error) {
	if sourceAccountID == destinationAccountID {
		return nil, fmt.Errorf("transfer: account %s: %w", sourceAccountID, ErrSameAccount)
	}
	if !money.IsPositive() {
		return nil, fmt.Errorf("transfer: amount %s: %w", money, ErrInvalidAmount)
	}
	now := time.Now().UTC()
	return &Transfer{
		ID:                   uuid.New(),
		SourceAccountID:      sourceAccountID,
		DestinationAccountID: destinationAccountID,
		Money:                money,
		Status:               TransferRequested,
		Version:              0,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// Complete transitions the transfer from REQUESTED to COMPLETED.
func (t *Transfer) Complete() error {
	if t.Status != TransferRequested {
		return fmt.Errorf("transfer %s: complete from %s: %w", t.ID, t.Status, ErrIllegalTransition)
	}
	t.Status = TransferCompleted
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail transitions the transfer from REQUESTED to FAILED. Failing an already
// failed transfer is a no-op so redelivered failure handling stays idempotent.
func (t *Transfer) Fail(reason string) error {
	if t.Status != TransferRequested {
		if t.Status == TransferFailed {
			return nil
		}
		return fmt.Errorf("transfer %s: fail from %s: %w", t.ID, t.Status, ErrIllegalTransition)
	}
	t.Status = TransferFailed
	if reason != "" {
		t.FailureReason = &reason
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}
