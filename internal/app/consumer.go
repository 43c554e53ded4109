package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/corebank/transfer-service/internal/domain"
)

// TransferRequestedConsumer adapts the saga to the queue contract: it decodes
// transfer-requested deliveries and decides whether a failed run is safe to
// requeue. The message channel is at-least-once, so every delivery is treated
// as a potential re-delivery.
type TransferRequestedConsumer struct {
	saga       *TransferSaga
	runTimeout time.Duration
}

func NewTransferRequestedConsumer(saga *TransferSaga, runTimeout time.Duration) *TransferRequestedConsumer {
	if runTimeout <= 0 {
		runTimeout = time.Minute
	}
	return &TransferRequestedConsumer{saga: saga, runTimeout: runTimeout}
}

// HandleMessage returns true to acknowledge the delivery and false to requeue
// it. Only failures that happened before any money moved are requeued;
// everything else is acknowledged so the broker cannot redrive a saga whose
// account movements may already be committed.
func (c *TransferRequestedConsumer) HandleMessage(body []byte) bool {
	var event domain.TransferRequestedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=warn component=transfer_consumer msg=\"malformed payload; dropping\" err=%v", err)
		return true
	}

	transferID, err := uuid.Parse(event.TransferID)
	if err != nil {
		log.Printf("level=warn component=transfer_consumer msg=\"invalid transfer id; dropping\" transfer_id=%q err=%v", event.TransferID, err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.runTimeout)
	defer cancel()

	err = c.saga.OnTransferRequested(ctx, transferID)
	if err == nil {
		return true
	}

	if errors.Is(err, ErrTransferLookupFailed) {
		log.Printf("level=warn component=transfer_consumer msg=\"transient lookup failure; re-queuing\" transfer_id=%s err=%v", transferID, err)
		return false
	}

	// Fatal conditions (unknown transfer, failed compensation, concurrent
	// execution, unresolved terminal write) are acknowledged: the error has
	// already been escalated and a redelivery cannot fix it.
	log.Printf("level=error component=transfer_consumer alert=operator msg=\"saga run failed\" transfer_id=%s err=%v", transferID, err)
	return true
}
