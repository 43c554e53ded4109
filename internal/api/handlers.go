/**
 * @description
 * This file contains the HTTP handlers for the transfer-service's API
 * endpoints. Handlers parse incoming requests, call the application service,
 * and write the HTTP response. They are the bridge between the web layer and
 * the business logic; no money movement happens here.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: For URL parameters.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/corebank/transfer-service/internal/app"
	"github.com/corebank/transfer-service/internal/domain"
	"github.com/corebank/transfer-service/internal/store"
)

// Handlers holds the application service that the HTTP handlers use.
type Handlers struct {
	service            *app.Service
	rateLimiter        *app.RedisTransferRateLimiter
	transferRatePerMin int
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service) *Handlers {
	return &Handlers{service: service}
}

// SetTransferRateLimiter enables distributed rate limiting for POST /transfers.
func (h *Handlers) SetTransferRateLimiter(limiter *app.RedisTransferRateLimiter, perMinute int) {
	h.rateLimiter = limiter
	h.transferRatePerMin = perMinute
}

// accountResponse is the wire representation of an account.
type accountResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	OwnerName     string `json:"owner_name"`
	Balance       string `json:"balance"`
	Currency      string `json:"currency"`
	Version       int64  `json:"version"`
}

// transferResponse is the wire representation of a transfer.
type transferResponse struct {
	ID                   string  `json:"id"`
	SourceAccountID      string  `json:"source_account_id"`
	DestinationAccountID string  `json:"destination_account_id"`
	Amount               string  `json:"amount"`
	Currency             string  `json:"currency"`
	Status               string  `json:"status"`
	FailureReason        *string `json:"failure_reason,omitempty"`
}

func buildAccountResponse(account *domain.Account) accountResponse {
	return accountResponse{
		ID:            account.ID.String(),
		AccountNumber: account.AccountNumber,
		OwnerName:     account.OwnerName,
		Balance:       account.Balance.Amount.String(),
		Currency:      account.Balance.Currency,
		Version:       account.Version,
	}
}

func buildTransferResponse(transfer *domain.Transfer) transferResponse {
	return transferResponse{
		ID:                   transfer.ID.String(),
		SourceAccountID:      transfer.SourceAccountID.String(),
		DestinationAccountID: transfer.DestinationAccountID.String(),
		Amount:               transfer.Money.Amount.String(),
		Currency:             transfer.Money.Currency,
		Status:               string(transfer.Status),
		FailureReason:        transfer.FailureReason,
	}
}

// OpenAccountHandler handles POST /accounts.
func (h *Handlers) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OwnerName == "" {
		h.writeError(w, http.StatusBadRequest, "owner_name is required")
		return
	}

	account, err := h.service.OpenAccount(r.Context(), req.OwnerName, req.Currency)
	if err != nil {
		log.Printf("level=error component=api msg=\"open account failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to open account")
		return
	}
	h.writeJSON(w, http.StatusCreated, buildAccountResponse(account))
}

// GetAccountHandler handles GET /accounts/{accountID}.
func (h *Handlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.parseID(w, chi.URLParam(r, "accountID"))
	if !ok {
		return
	}

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("level=error component=api msg=\"get account failed\" account_id=%s err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch account")
		return
	}
	h.writeJSON(w, http.StatusOK, buildAccountResponse(account))
}

// DepositHandler handles POST /accounts/{accountID}/deposit.
func (h *Handlers) DepositHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.parseID(w, chi.URLParam(r, "accountID"))
	if !ok {
		return
	}

	var req domain.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, ok := h.parseAmount(w, req.Amount, req.Currency)
	if !ok {
		return
	}

	account, err := h.service.Deposit(r.Context(), accountID, amount)
	if err != nil {
		h.writeMutationError(w, accountID, "deposit", err)
		return
	}
	h.writeJSON(w, http.StatusOK, buildAccountResponse(account))
}

// WithdrawHandler handles POST /accounts/{accountID}/withdraw.
func (h *Handlers) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.parseID(w, chi.URLParam(r, "accountID"))
	if !ok {
		return
	}

	var req domain.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, ok := h.parseAmount(w, req.Amount, req.Currency)
	if !ok {
		return
	}

	account, err := h.service.Withdraw(r.Context(), accountID, amount)
	if err != nil {
		h.writeMutationError(w, accountID, "withdraw", err)
		return
	}
	h.writeJSON(w, http.StatusOK, buildAccountResponse(account))
}

// RequestTransferHandler handles POST /transfers. It accepts the request and
// returns the transfer in its REQUESTED state; the outcome is resolved
// asynchronously by the orchestrator.
func (h *Handlers) RequestTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SourceAccountID == uuid.Nil || req.DestinationAccountID == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, "source_account_id and destination_account_id are required")
		return
	}
	amount, ok := h.parseAmount(w, req.Amount, req.Currency)
	if !ok {
		return
	}

	if h.rateLimiter != nil && h.transferRatePerMin > 0 {
		count, retryAfter, err := h.rateLimiter.ConsumeRateLimit(r.Context(), "transfer_request", req.SourceAccountID.String(), h.transferRatePerMin, time.Minute)
		if err != nil {
			// Limiter outage should not block transfers; log and continue.
			log.Printf("level=warn component=api msg=\"rate limiter unavailable; allowing request\" err=%v", err)
		} else if count > h.transferRatePerMin {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			h.writeError(w, http.StatusTooManyRequests, "Too many transfer requests; slow down")
			return
		}
	}

	transfer, err := h.service.RequestTransfer(r.Context(), req.SourceAccountID, req.DestinationAccountID, amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSameAccount):
			h.writeError(w, http.StatusUnprocessableEntity, "Source and destination accounts must differ")
		case errors.Is(err, domain.ErrInvalidAmount):
			h.writeError(w, http.StatusUnprocessableEntity, "Transfer amount must be positive")
		case errors.Is(err, app.ErrNotificationFailed):
			// The record is persisted; the caller can poll it, but the
			// orchestration trigger was lost.
			log.Printf("level=error component=api msg=\"transfer accepted but notification failed\" transfer_id=%s err=%v", transfer.ID, err)
			h.writeError(w, http.StatusBadGateway, "Transfer accepted but processing could not be scheduled")
		default:
			log.Printf("level=error component=api msg=\"transfer request failed\" err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Unable to request transfer")
		}
		return
	}
	h.writeJSON(w, http.StatusAccepted, buildTransferResponse(transfer))
}

// GetTransferHandler handles GET /transfers/{transferID}, letting callers poll
// for the saga's outcome.
func (h *Handlers) GetTransferHandler(w http.ResponseWriter, r *http.Request) {
	transferID, ok := h.parseID(w, chi.URLParam(r, "transferID"))
	if !ok {
		return
	}

	transfer, err := h.service.GetTransfer(r.Context(), transferID)
	if err != nil {
		if errors.Is(err, store.ErrTransferNotFound) {
			h.writeError(w, http.StatusNotFound, "Transfer not found")
			return
		}
		log.Printf("level=error component=api msg=\"get transfer failed\" transfer_id=%s err=%v", transferID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch transfer")
		return
	}
	h.writeJSON(w, http.StatusOK, buildTransferResponse(transfer))
}

func (h *Handlers) parseID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid identifier")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) parseAmount(w http.ResponseWriter, amount, currency string) (domain.Money, bool) {
	if currency == "" {
		currency = h.service.DefaultCurrency()
	}
	money, err := domain.MoneyFromString(amount, currency)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid amount")
		return domain.Money{}, false
	}
	if !money.IsPositive() {
		h.writeError(w, http.StatusUnprocessableEntity, "Amount must be positive")
		return domain.Money{}, false
	}
	return money, true
}

func (h *Handlers) writeMutationError(w http.ResponseWriter, accountID uuid.UUID, op string, err error) {
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		h.writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, domain.ErrInvalidAmount):
		h.writeError(w, http.StatusUnprocessableEntity, "Amount must be positive")
	case errors.Is(err, domain.ErrCurrencyMismatch):
		h.writeError(w, http.StatusUnprocessableEntity, "Currency does not match the account")
	case errors.Is(err, domain.ErrInsufficientBalance):
		h.writeError(w, http.StatusUnprocessableEntity, "Insufficient balance")
	case errors.Is(err, store.ErrConcurrencyConflict):
		h.writeError(w, http.StatusConflict, "Account was modified concurrently; retry")
	default:
		log.Printf("level=error component=api msg=\"account mutation failed\" op=%s account_id=%s err=%v", op, accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to update account")
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
