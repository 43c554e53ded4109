package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestRequestTransfer_RejectsSameAccount(t *testing.T) {
	accountID := uuid.New()
	_, err := RequestTransfer(accountID, accountID, mustMoney(t, "300", JPY))
	if !errors.Is(err, ErrSameAccount) {
		t.Fatalf("expected ErrSameAccount, got %v", err)
	}
}

func TestRequestTransfer_RejectsNonPositiveAmount(t *testing.T) {
	_, err := RequestTransfer(uuid.New(), uuid.New(), ZeroMoney(JPY))
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransfer_StartsRequested(t *testing.T) {
	transfer, err := RequestTransfer(uuid.New(), uuid.New(), mustMoney(t, "300", JPY))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if transfer.Status != TransferRequested {
		t.Fatalf("expected REQUESTED, got %s", transfer.Status)
	}
	if transfer.Version != 0 {
		t.Fatalf("expected version 0, got %d", transfer.Version)
	}
}

func TestTransfer_CompleteOnlyFromRequested(t *testing.T) {
	transfer, _ := RequestTransfer(uuid.New(), uuid.New(), mustMoney(t, "300", JPY))
	if err := transfer.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if transfer.Status != TransferCompleted {
		t.Fatalf("expected COMPLETED, got %s", transfer.Status)
	}
	if err := transfer.Complete(); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
	if err := transfer.Fail("nope"); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition failing a completed transfer, got %v", err)
	}
}

func TestTransfer_DoubleFailIsNoOp(t *testing.T) {
	transfer, _ := RequestTransfer(uuid.New(), uuid.New(), mustMoney(t, "300", JPY))
	if err := transfer.Fail("withdraw failed"); err != nil {
		t.Fatalf("first fail: %v", err)
	}
	if err := transfer.Fail("withdraw failed again"); err != nil {
		t.Fatalf("second fail should be a no-op, got %v", err)
	}
	if transfer.Status != TransferFailed {
		t.Fatalf("expected FAILED, got %s", transfer.Status)
	}
	if transfer.FailureReason == nil || *transfer.FailureReason != "withdraw failed" {
		t.Fatalf("expected the original failure reason to be kept, got %v", transfer.FailureReason)
	}
}
