package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"betlog/internal/core"
	"betlog/internal/log"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a transaction id does not exist.
var ErrNotFound = errors.New("transaction not found")

// occurred_at is stored fixed-width so lexical order is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ClaimTimeout is how long an export claim holds before another worker may
// take the row over.
const ClaimTimeout = 5 * time.Minute

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append implements ledger.TransactionWriter
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:          t.ID,
		Sport:       t.Sport,
		Kind:        string(t.Kind),
		AmountCents: t.Amount.Cents,
		OccurredAt:  t.Date.UTC().Format(timeLayout),
	})
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		log.FieldTransactionID, row.ID,
		log.FieldSport, row.Sport,
		"type", row.Kind,
		"amount_cents", row.AmountCents)

	return strconv.FormatInt(row.ID, 10), nil
}

// ListTransactions implements ledger.TransactionLister
func (r *SQLiteRepository) ListTransactions(ctx context.Context, sport string) ([]core.Transaction, error) {
	var (
		rows []Transaction
		err  error
	)
	if sport == "" {
		rows, err = r.queries.ListTransactions(ctx)
	} else {
		rows, err = r.queries.ListTransactionsBySport(ctx, sport)
	}
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return r.toDomain(ctx, rows), nil
}

// ReadLedger implements ledger.LedgerReader
func (r *SQLiteRepository) ReadLedger(ctx context.Context) (core.Ledger, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	l := make(core.Ledger)
	for _, t := range r.toDomain(ctx, rows) {
		l.Append(t)
	}
	// sequences are insertion ordered, which for millisecond ids is id order
	for _, seq := range l {
		sort.Slice(seq, func(i, j int) bool { return seq[i].ID < seq[j].ID })
	}
	return l, nil
}

// GetTransaction retrieves a single transaction by ID
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return rowToTransaction(row)
}

// SyncStatus returns the export state of a transaction: pending, synced or error.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id int64) (string, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get sync status: %w", err)
	}
	return row.SyncStatus, nil
}

// GetPendingSync returns transactions not yet mirrored to the external sheet,
// including ones whose last attempt failed.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.GetPendingSync(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	return r.toDomain(ctx, rows), nil
}

// ClaimSync reserves a pending or failed transaction for export. It reports
// false when the row is already synced or another worker holds a fresh claim.
// MarkSynced and MarkSyncError release the claim.
func (r *SQLiteRepository) ClaimSync(ctx context.Context, id int64) (bool, error) {
	now := r.now().UTC()
	n, err := r.queries.ClaimTransactionSync(ctx, ClaimTransactionSyncParams{
		ClaimedAt:   now.Format(timeLayout),
		ID:          id,
		StaleBefore: now.Add(-ClaimTimeout).Format(timeLayout),
	})
	if err != nil {
		return false, fmt.Errorf("claim transaction sync: %w", err)
	}
	return n == 1, nil
}

// MarkSynced marks a transaction as successfully exported
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, ref string) error {
	err := r.queries.MarkTransactionSynced(ctx, MarkTransactionSyncedParams{
		SyncedAt: r.now().UTC().Format(timeLayout),
		SyncRef:  ref,
		ID:       id,
	})
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction marked as synced", log.FieldTransactionID, id, "ref", ref)
	return nil
}

// MarkSyncError marks a transaction as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}

	r.logger.WarnContext(ctx, "Transaction marked with sync error", log.FieldTransactionID, id)
	return nil
}

// CountBySport returns the number of stored transactions per sport
func (r *SQLiteRepository) CountBySport(ctx context.Context) (map[string]int64, error) {
	rows, err := r.queries.CountBySport(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by sport: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Sport] = row.Count
	}
	return out, nil
}

// MaxID returns the highest stored id, or 0 for an empty table
func (r *SQLiteRepository) MaxID(ctx context.Context) (int64, error) {
	id, err := r.queries.MaxTransactionID(ctx)
	if err != nil {
		return 0, fmt.Errorf("max transaction id: %w", err)
	}
	return id, nil
}

func rowToTransaction(row Transaction) (core.Transaction, error) {
	at, err := time.Parse(time.RFC3339Nano, row.OccurredAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_at %q: %w", row.OccurredAt, err)
	}
	t := core.Transaction{
		ID:     row.ID,
		Amount: core.Money{Cents: row.AmountCents},
		Sport:  row.Sport,
		Kind:   core.Kind(row.Kind),
		Date:   at.UTC(),
	}
	return t, t.Validate()
}

// toDomain converts rows, skipping any that no longer validate.
func (r *SQLiteRepository) toDomain(ctx context.Context, rows []Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTransaction(row)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping unreadable transaction row", log.FieldTransactionID, row.ID, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out
}
