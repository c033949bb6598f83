package adapters

import (
	"context"
	"fmt"

	"betlog/internal/core"
	"betlog/internal/ledger"
	"betlog/internal/storage"
)

// SQLiteAdapter exposes the SQLite repository through the ledger ports and
// adds the health and statistics views the HTTP layer reports.
type SQLiteAdapter struct {
	repo *storage.SQLiteRepository
}

var (
	_ ledger.Store         = (*SQLiteAdapter)(nil)
	_ ledger.Pinger        = (*SQLiteAdapter)(nil)
	_ ledger.StatsReporter = (*SQLiteAdapter)(nil)
)

// NewSQLiteAdapter creates a new SQLite adapter
func NewSQLiteAdapter(repo *storage.SQLiteRepository) *SQLiteAdapter {
	return &SQLiteAdapter{repo: repo}
}

// Append implements ledger.TransactionWriter
func (a *SQLiteAdapter) Append(ctx context.Context, t core.Transaction) (string, error) {
	ref, err := a.repo.Append(ctx, t)
	if err != nil {
		return "", fmt.Errorf("sqlite append: %w", err)
	}
	return "sqlite:" + ref, nil
}

// ListTransactions implements ledger.TransactionLister
func (a *SQLiteAdapter) ListTransactions(ctx context.Context, sport string) ([]core.Transaction, error) {
	return a.repo.ListTransactions(ctx, sport)
}

// ReadLedger implements ledger.LedgerReader
func (a *SQLiteAdapter) ReadLedger(ctx context.Context) (core.Ledger, error) {
	return a.repo.ReadLedger(ctx)
}

func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.repo.Ping(ctx)
}

// Stats returns the number of stored transactions per sport.
func (a *SQLiteAdapter) Stats(ctx context.Context) (map[string]int64, error) {
	return a.repo.CountBySport(ctx)
}

func (a *SQLiteAdapter) Close() error {
	return a.repo.Close()
}
