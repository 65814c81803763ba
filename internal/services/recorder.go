package services

import (
	"context"
	"log"
	"time"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/shopspring/decimal"
)

// entryRecorder appends ledger entries after the balance change has been
// applied. Failures are logged and audited but never returned: a balance
// mutation is not undone because its log entry could not be written.
type entryRecorder struct {
	txLog  store.TransactionLog
	events EventPublisher
	audit  *audit.AuditLogger
	now    func() time.Time
}

func (r *entryRecorder) record(ctx context.Context, accountID int64, entryType models.EntryType, amount decimal.Decimal) {
	entry := models.TransactionEntry{
		AccountID: accountID,
		Type:      entryType,
		Amount:    amount,
		Timestamp: r.now().UTC(),
	}

	if err := r.txLog.Append(ctx, entry); err != nil {
		log.Printf("[LEDGER] Failed to append %s entry for account %d: %v", entryType, accountID, err)
		r.audit.LogError(opLogAppend, accountID, err)
		return
	}

	if err := r.events.Publish(ctx, entry); err != nil {
		log.Printf("[LEDGER] Failed to publish %s event for account %d: %v", entryType, accountID, err)
	}
}
