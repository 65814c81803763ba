// Package audit writes one JSON line per ledger decision.
package audit

import (
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusSuccess  = "SUCCESS"
	StatusBlocked  = "BLOCKED"
	StatusRejected = "REJECTED"
	StatusFailed   = "FAILED"
)

const EventAdminUpdate = "ADMIN_UPDATE"

type AuditEvent struct {
	EventID   string           `json:"event_id"`
	Timestamp time.Time        `json:"timestamp"`
	EventType string           `json:"event_type"`
	AccountID int64            `json:"account_id,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Status    string           `json:"status"`
	Details   map[string]any   `json:"details,omitempty"`
}

type AuditLogger struct {
	out *log.Logger
	now func() time.Time
}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{out: log.Default(), now: time.Now}
}

// NewAuditLoggerTo writes audit lines to w instead of the standard logger
func NewAuditLoggerTo(w io.Writer) *AuditLogger {
	return &AuditLogger{out: log.New(w, "", 0), now: time.Now}
}

// LogOperation records a committed ledger operation
func (a *AuditLogger) LogOperation(operation string, accountID int64, amount decimal.Decimal, details map[string]any) {
	a.log(AuditEvent{
		EventType: operation,
		AccountID: accountID,
		Amount:    &amount,
		Status:    StatusSuccess,
		Details:   details,
	})
}

// LogBlocked records an operation that was refused and blocked the account
func (a *AuditLogger) LogBlocked(operation string, accountID int64, amount decimal.Decimal, reason string) {
	a.log(AuditEvent{
		EventType: operation,
		AccountID: accountID,
		Amount:    &amount,
		Status:    StatusBlocked,
		Details:   map[string]any{"reason": reason},
	})
}

// LogRejected records a refusal that left the account untouched
func (a *AuditLogger) LogRejected(operation string, accountID int64, amount decimal.Decimal, err error) {
	a.log(AuditEvent{
		EventType: operation,
		AccountID: accountID,
		Amount:    &amount,
		Status:    StatusRejected,
		Details:   map[string]any{"error": err.Error()},
	})
}

// LogAdminUpdate records an administrative overwrite of account fields.
// A patched balance is carried as the event amount.
func (a *AuditLogger) LogAdminUpdate(accountID int64, actor string, fields []string, balance *decimal.Decimal) {
	a.log(AuditEvent{
		EventType: EventAdminUpdate,
		AccountID: accountID,
		Amount:    balance,
		Status:    StatusSuccess,
		Details:   map[string]any{"actor": actor, "fields": fields},
	})
}

func (a *AuditLogger) LogError(operation string, accountID int64, err error) {
	a.log(AuditEvent{
		EventType: operation,
		AccountID: accountID,
		Status:    StatusFailed,
		Details:   map[string]any{"error": err.Error()},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	event.EventID = uuid.NewString()
	event.Timestamp = a.now().UTC()
	data, _ := json.Marshal(event)
	a.out.Printf("AUDIT: %s", string(data))
}
