package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"betlog/internal/amqp"
	"betlog/internal/core"
	"betlog/internal/ledger"
	"betlog/internal/storage"
)

// SyncStore is the part of the SQLite repository the worker needs.
type SyncStore interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	SyncStatus(ctx context.Context, id int64) (string, error)
	GetPendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
	ClaimSync(ctx context.Context, id int64) (bool, error)
	MarkSynced(ctx context.Context, id int64, ref string) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker mirrors transactions from SQLite to the external sheet
type SyncWorker struct {
	storage   SyncStore
	exporter  ledger.TransactionExporter
	batchSize int
}

func NewSyncWorker(storage SyncStore, exporter ledger.TransactionExporter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   storage,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage exports the transaction named by an AMQP message.
// Already exported transactions, and ones another export is working on, are
// acknowledged without a second row.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID, "published_at", msg.Timestamp)

	status, err := w.storage.SyncStatus(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get sync status: %w", err)
	}
	if status == storage.SyncStatusSynced {
		slog.InfoContext(ctx, "Transaction already synced, skipping", "id", msg.ID)
		return nil
	}

	t, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	claimed, err := w.storage.ClaimSync(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("claim transaction: %w", err)
	}
	if !claimed {
		slog.InfoContext(ctx, "Transaction claimed by another export, skipping", "id", t.ID)
		return nil
	}
	return w.export(ctx, t)
}

// ProcessPending exports one batch of transactions that have not been synced
// yet. It backs up the AMQP path in case messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) (synced int, err error) {
	return w.processBatch(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger sweep once when the worker starts, to catch
// up on anything recorded while it was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.processBatch(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

// RunPeriodic calls ProcessPending every interval until ctx is done.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) processBatch(ctx context.Context, limit int) (int, error) {
	pending, err := w.storage.GetPendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	synced := 0
	for _, t := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		claimed, err := w.storage.ClaimSync(ctx, t.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to claim transaction", "id", t.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}
		if err := w.export(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", t.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

func (w *SyncWorker) export(ctx context.Context, t core.Transaction) error {
	ref, err := w.exporter.Export(ctx, t)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", t.ID, "error", markErr)
		}
		return fmt.Errorf("export transaction: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, t.ID, ref); err != nil {
		// the row is in the sheet; a failed mark only risks a duplicate export
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", t.ID,
		"sheets_ref", ref,
		"sport", t.Sport,
		"amount_cents", t.Amount.Cents)
	return nil
}
