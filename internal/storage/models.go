package storage

import (
	"database/sql"
)

// Values of transactions.sync_status
const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
	SyncStatusError   = "error"
)

type Transaction struct {
	ID          int64
	Sport       string
	Kind        string
	AmountCents int64
	OccurredAt  string
	CreatedAt   string
	SyncStatus  string
	SyncedAt    sql.NullString
	SyncRef     sql.NullString
}
