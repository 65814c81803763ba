package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType tells the direction and outcome of a ledger entry
type EntryType string

const (
	EntryDeposit          EntryType = "deposit"
	EntryDepositBlocked   EntryType = "deposit-blocked"
	EntryWithdraw         EntryType = "withdraw"
	EntryWithdrawBlocked  EntryType = "withdraw-blocked"
	EntryTransferSent     EntryType = "transfer-sent"
	EntryTransferReceived EntryType = "transfer-received"
	EntryInterest         EntryType = "interest"
)

// TransactionEntry is an immutable record in the transaction log.
// Amount is always a positive magnitude; Type carries the direction.
// AccountID is a weak reference and may outlive the account.
type TransactionEntry struct {
	ID        int64           `json:"id,omitempty" db:"id"`
	AccountID int64           `json:"account_id" db:"account_id" example:"1"`
	Type      EntryType       `json:"type" db:"type" example:"deposit"`
	Amount    decimal.Decimal `json:"amount" db:"amount" swaggertype:"number" example:"200"`
	Timestamp time.Time       `json:"timestamp" db:"created_at"`
}

// Statement pairs an account snapshot with its full transaction history
type Statement struct {
	Account      Account            `json:"account"`
	Transactions []TransactionEntry `json:"transactions"`
}
