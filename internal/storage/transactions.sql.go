package storage

import (
	"context"
)

const transactionColumns = `id, sport, kind, amount_cents, occurred_at, created_at, sync_status, synced_at, sync_ref`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.Sport,
		&i.Kind,
		&i.AmountCents,
		&i.OccurredAt,
		&i.CreatedAt,
		&i.SyncStatus,
		&i.SyncedAt,
		&i.SyncRef,
	)
	return i, err
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (id, sport, kind, amount_cents, occurred_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	ID          int64
	Sport       string
	Kind        string
	AmountCents int64
	OccurredAt  string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.ID,
		arg.Sport,
		arg.Kind,
		arg.AmountCents,
		arg.OccurredAt,
	)
	return scanTransaction(row)
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + ` FROM transactions
WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	return scanTransaction(row)
}

const listTransactionsBySport = `-- name: ListTransactionsBySport :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE sport = ?
ORDER BY id`

func (q *Queries) ListTransactionsBySport(ctx context.Context, sport string) ([]Transaction, error) {
	return q.list(ctx, listTransactionsBySport, sport)
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + ` FROM transactions
ORDER BY occurred_at, id`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	return q.list(ctx, listTransactions)
}

const getPendingSync = `-- name: GetPendingSync :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE sync_status IN ('pending', 'error')
ORDER BY id
LIMIT ?`

func (q *Queries) GetPendingSync(ctx context.Context, limit int64) ([]Transaction, error) {
	return q.list(ctx, getPendingSync, limit)
}

func (q *Queries) list(ctx context.Context, query string, args ...interface{}) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const claimTransactionSync = `-- name: ClaimTransactionSync :execrows
UPDATE transactions
SET sync_claimed_at = ?
WHERE id = ?
  AND sync_status IN ('pending', 'error')
  AND (sync_claimed_at IS NULL OR sync_claimed_at < ?)`

type ClaimTransactionSyncParams struct {
	ClaimedAt   string
	ID          int64
	StaleBefore string
}

func (q *Queries) ClaimTransactionSync(ctx context.Context, arg ClaimTransactionSyncParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, claimTransactionSync, arg.ClaimedAt, arg.ID, arg.StaleBefore)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markTransactionSynced = `-- name: MarkTransactionSynced :exec
UPDATE transactions
SET sync_status = 'synced', synced_at = ?, sync_ref = ?, sync_claimed_at = NULL
WHERE id = ?`

type MarkTransactionSyncedParams struct {
	SyncedAt string
	SyncRef  string
	ID       int64
}

func (q *Queries) MarkTransactionSynced(ctx context.Context, arg MarkTransactionSyncedParams) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, arg.SyncedAt, arg.SyncRef, arg.ID)
	return err
}

const markTransactionSyncError = `-- name: MarkTransactionSyncError :exec
UPDATE transactions
SET sync_status = 'error', sync_claimed_at = NULL
WHERE id = ? AND sync_status <> 'synced'`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}

const countBySport = `-- name: CountBySport :many
SELECT sport, COUNT(*) AS count FROM transactions
GROUP BY sport
ORDER BY sport`

type CountBySportRow struct {
	Sport string
	Count int64
}

func (q *Queries) CountBySport(ctx context.Context) ([]CountBySportRow, error) {
	rows, err := q.db.QueryContext(ctx, countBySport)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountBySportRow
	for rows.Next() {
		var i CountBySportRow
		if err := rows.Scan(&i.Sport, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const maxTransactionID = `-- name: MaxTransactionID :one
SELECT COALESCE(MAX(id), 0) FROM transactions`

func (q *Queries) MaxTransactionID(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, maxTransactionID)
	var max int64
	err := row.Scan(&max)
	return max, err
}
