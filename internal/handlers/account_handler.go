package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/services"
	"github.com/shopspring/decimal"
)

type AccountHandler struct {
	accounts    *services.AccountService
	ledger      *services.LedgerService
	statements  *services.StatementService
	interest    *services.InterestService
	defaultRate decimal.Decimal
}

func NewAccountHandler(
	accounts *services.AccountService,
	ledger *services.LedgerService,
	statements *services.StatementService,
	interest *services.InterestService,
	defaultRate decimal.Decimal,
) *AccountHandler {
	return &AccountHandler{
		accounts:    accounts,
		ledger:      ledger,
		statements:  statements,
		interest:    interest,
		defaultRate: defaultRate,
	}
}

// Routes mounts the account endpoints. admin guards the override update.
func (h *AccountHandler) Routes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Post("/accounts", h.CreateAccount)
	r.Get("/accounts", h.ListAccounts)
	r.Post("/accounts/deposit", h.Deposit)
	r.Post("/accounts/withdraw", h.Withdraw)
	r.Post("/accounts/send", h.Transfer)
	r.Post("/accounts/apply-interest", h.ApplyInterest)

	r.Route("/accounts/{id}", func(r chi.Router) {
		r.Get("/", h.GetAccount)
		r.With(admin).Put("/", h.UpdateAccount)
		r.Delete("/", h.DeleteAccount)
		r.Patch("/block", h.BlockAccount)
		r.Patch("/close", h.CloseAccount)
		r.Patch("/info", h.UpdateInfo)
		r.Get("/statement", h.Statement)
	})
}

// CreateAccount opens a new account
// @Summary Open an account
// @Description Create an active account with an optional opening balance
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body services.CreateAccountRequest true "Account data"
// @Success 201 {object} models.Account
// @Failure 400 {object} services.ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req services.CreateAccountRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	acc, err := h.accounts.Open(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

// ListAccounts returns every account
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Success 200 {array} models.Account
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetAccount returns a single account
// @Summary Get account by ID
// @Tags accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} models.Account
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	acc, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// UpdateAccount is the administrative override of any account field
// @Summary Override account fields
// @Description Overwrites any supplied field including balance and status. Bypasses ledger rules.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param patch body models.AccountPatch true "Fields to overwrite"
// @Success 200 {object} models.Account
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	var patch models.AccountPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}

	acc, err := h.accounts.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// DeleteAccount hard-deletes an account
// @Summary Delete account
// @Tags accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted"})
}

// Deposit credits an account
// @Summary Deposit money
// @Description Amounts above 999999 block the account
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body services.DepositRequest true "Deposit"
// @Success 200 {object} models.Account
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/deposit [post]
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req services.DepositRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	acc, err := h.ledger.Deposit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// Withdraw debits an account
// @Summary Withdraw money
// @Description Amounts above 999999 block the account, whatever the balance
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body services.WithdrawRequest true "Withdrawal"
// @Success 200 {object} models.Account
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/withdraw [post]
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req services.WithdrawRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	acc, err := h.ledger.Withdraw(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// Transfer sends money between accounts
// @Summary Transfer money
// @Description High value transfers and transfers to inactive receivers block the sender
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body services.TransferRequest true "Transfer"
// @Success 200 {object} services.TransferResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/send [post]
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req services.TransferRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	result, err := h.ledger.Transfer(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// BlockAccount blocks an account manually
// @Summary Block account
// @Tags ledger
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{id}/block [patch]
func (h *AccountHandler) BlockAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	if err := h.ledger.ManualBlock(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Account blocked successfully"})
}

// CloseAccount closes an account
// @Summary Close account
// @Tags ledger
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{id}/close [patch]
func (h *AccountHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	if err := h.ledger.Close(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Account closed successfully"})
}

// UpdateInfo changes customer profile fields
// @Summary Update customer information
// @Description Only name, phone, email and address are applied; other keys are ignored
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path int true "Account ID"
// @Param profile body models.ProfilePatch true "Profile fields"
// @Success 200 {object} models.Account
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{id}/info [patch]
func (h *AccountHandler) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	var patch models.ProfilePatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}

	acc, err := h.accounts.UpdateInfo(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// ApplyInterest credits interest to all active accounts
// @Summary Apply monthly interest
// @Description Rate is a percentage; defaults to the configured rate when omitted
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body services.InterestRequest false "Interest rate"
// @Success 200 {object} services.InterestSummary
// @Failure 400 {object} services.ErrorResponse
// @Router /accounts/apply-interest [post]
func (h *AccountHandler) ApplyInterest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rate *decimal.Decimal `json:"rate"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
			return
		}
	}

	req := services.InterestRequest{Rate: h.defaultRate}
	if body.Rate != nil {
		req.Rate = *body.Rate
	}

	summary, err := h.interest.ApplyInterest(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Statement returns an account with its transaction history
// @Summary Account statement
// @Tags accounts
// @Produce json
// @Produce plain
// @Produce application/pdf
// @Param id path int true "Account ID"
// @Param format query string false "json (default), text or pdf"
// @Success 200 {object} models.Statement
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{id}/statement [get]
func (h *AccountHandler) Statement(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	render, ok := statementRenderers[format]
	if format != "json" && !ok {
		services.SendErrorResponse(w, "Invalid format", http.StatusBadRequest, nil)
		return
	}

	statement, err := h.statements.Build(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if format == "json" {
		writeJSON(w, http.StatusOK, statement)
		return
	}

	var buf bytes.Buffer
	if err := render.write(&buf, statement); err != nil {
		writeError(w, fmt.Errorf("failed to render %s statement: %w", format, err))
		return
	}
	w.Header().Set("Content-Type", render.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=statement_%d.%s", id, render.extension))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type statementRenderer struct {
	contentType string
	extension   string
	write       func(io.Writer, *models.Statement) error
}

var statementRenderers = map[string]statementRenderer{
	"text": {contentType: "text/plain; charset=utf-8", extension: "txt", write: renderStatementText},
	"pdf":  {contentType: "application/pdf", extension: "pdf", write: renderStatementPDF},
}
