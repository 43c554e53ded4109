package domain

import "time"

// TransferRequestedEvent is the message published after a REQUESTED transfer
// has been durably persisted. It carries only the transfer id; the consumer
// re-reads authoritative state from the store. Delivery is at-least-once.
type TransferRequestedEvent struct {
	EventID     string    `json:"event_id"`
	TransferID  string    `json:"transfer_id"`
	RequestedAt time.Time `json:"requested_at"`
}
