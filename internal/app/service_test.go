package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/corebank/transfer-service/internal/domain"
	"github.com/corebank/transfer-service/internal/store"
)

type publisherFake struct {
	published []publishedEvent
	err       error
}

type publishedEvent struct {
	exchange   string
	routingKey string
	body       interface{}
}

func (p *publisherFake) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedEvent{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

func (p *publisherFake) Close() {}

func newTestService(f *sagaLedgerFake, p *publisherFake) *Service {
	return NewService(f, p, "corebank.events", "transfer.requested", domain.JPY)
}

func TestRequestTransfer_PersistsBeforePublishing(t *testing.T) {
	fake := newSagaLedgerFake()
	publisher := &publisherFake{}
	service := newTestService(fake, publisher)

	source := seedAccount(t, fake, jpy(t, "1000"))
	destination := seedAccount(t, fake, jpy(t, "0"))

	transfer, err := service.RequestTransfer(context.Background(), source.ID, destination.ID, jpy(t, "300"))
	if err != nil {
		t.Fatalf("request transfer: %v", err)
	}
	if transfer.Status != domain.TransferRequested {
		t.Fatalf("expected REQUESTED, got %s", transfer.Status)
	}

	// The record must be durable before the notification goes out.
	if _, err := fake.FindTransferByID(context.Background(), transfer.ID); err != nil {
		t.Fatalf("expected transfer persisted, got %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.published))
	}
	event, ok := publisher.published[0].body.(domain.TransferRequestedEvent)
	if !ok {
		t.Fatalf("unexpected event payload type %T", publisher.published[0].body)
	}
	if event.TransferID != transfer.ID.String() {
		t.Fatalf("expected event for transfer %s, got %s", transfer.ID, event.TransferID)
	}
	if publisher.published[0].routingKey != "transfer.requested" {
		t.Fatalf("unexpected routing key %s", publisher.published[0].routingKey)
	}
}

func TestRequestTransfer_SelfTransferNeverPersists(t *testing.T) {
	fake := newSagaLedgerFake()
	publisher := &publisherFake{}
	service := newTestService(fake, publisher)

	accountID := uuid.New()
	_, err := service.RequestTransfer(context.Background(), accountID, accountID, jpy(t, "300"))
	if !errors.Is(err, domain.ErrSameAccount) {
		t.Fatalf("expected ErrSameAccount, got %v", err)
	}
	if len(fake.transfers) != 0 {
		t.Fatalf("expected no transfer persisted, got %d", len(fake.transfers))
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected no event published, got %d", len(publisher.published))
	}
}

func TestRequestTransfer_PublishFailureIsSurfaced(t *testing.T) {
	fake := newSagaLedgerFake()
	publisher := &publisherFake{err: errors.New("broker gone")}
	service := newTestService(fake, publisher)

	source := seedAccount(t, fake, jpy(t, "1000"))
	destination := seedAccount(t, fake, jpy(t, "0"))

	transfer, err := service.RequestTransfer(context.Background(), source.ID, destination.ID, jpy(t, "300"))
	if !errors.Is(err, ErrNotificationFailed) {
		t.Fatalf("expected ErrNotificationFailed, got %v", err)
	}
	// The persisted record survives so an operator can re-trigger it.
	if transfer == nil {
		t.Fatal("expected the persisted transfer to be returned alongside the error")
	}
	if _, err := fake.FindTransferByID(context.Background(), transfer.ID); err != nil {
		t.Fatalf("expected transfer persisted despite publish failure, got %v", err)
	}
}

func TestDeposit_RoundTripsThroughStore(t *testing.T) {
	fake := newSagaLedgerFake()
	service := newTestService(fake, &publisherFake{})

	account := seedAccount(t, fake, jpy(t, "0"))

	updated, err := service.Deposit(context.Background(), account.ID, jpy(t, "250"))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if !updated.Balance.Equals(jpy(t, "250")) {
		t.Fatalf("expected balance 250, got %s", updated.Balance)
	}
	if updated.Version != account.Version+1 {
		t.Fatalf("expected version bump to %d, got %d", account.Version+1, updated.Version)
	}
}

func TestWithdraw_InsufficientBalancePropagates(t *testing.T) {
	fake := newSagaLedgerFake()
	service := newTestService(fake, &publisherFake{})

	account := seedAccount(t, fake, jpy(t, "100"))

	_, err := service.Withdraw(context.Background(), account.ID, jpy(t, "300"))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := storedBalance(t, fake, account.ID); !got.Equals(jpy(t, "100")) {
		t.Fatalf("expected untouched balance, got %s", got)
	}
}

func TestOpenAccount_UnknownAccountLookupFails(t *testing.T) {
	fake := newSagaLedgerFake()
	service := newTestService(fake, &publisherFake{})

	_, err := service.GetAccount(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
