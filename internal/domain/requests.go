/**
 * @description
 * This file defines the data transfer objects (DTOs) for the service's REST
 * surface. Keeping distinct types for API requests and persisted aggregates
 * avoids leaking storage concerns into the wire format.
 *
 * @notes
 * - Amounts travel as decimal strings to keep the JSON representation exact;
 *   they are parsed into Money at the handler boundary.
 */

package domain

import "github.com/google/uuid"

// OpenAccountRequest is the DTO for opening a new account.
type OpenAccountRequest struct {
	OwnerName string `json:"owner_name"`
	Currency  string `json:"currency,omitempty"`
}

// DepositRequest is the DTO for depositing into an account.
type DepositRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

// WithdrawRequest is the DTO for withdrawing from an account.
type WithdrawRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

// TransferRequest is the DTO for requesting a transfer between two accounts.
type TransferRequest struct {
	SourceAccountID      uuid.UUID `json:"source_account_id"`
	DestinationAccountID uuid.UUID `json:"destination_account_id"`
	Amount               string    `json:"amount"`
	Currency             string    `json:"currency,omitempty"`
}
