package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"betlog/internal/amqp"
	"betlog/internal/core"
	"betlog/internal/log"
	"betlog/internal/storage"
)

func quietLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard
	return log.New(cfg)
}

type fakeExporter struct {
	exported []int64
	failIDs  map[int64]bool
}

func (f *fakeExporter) Export(_ context.Context, t core.Transaction) (string, error) {
	if f.failIDs[t.ID] {
		return "", errors.New("quota exceeded")
	}
	f.exported = append(f.exported, t.ID)
	return fmt.Sprintf("Bets!A%d:E%d", len(f.exported)+1, len(f.exported)+1), nil
}

func newRepo(t *testing.T, n int) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "betlog.db"), quietLogger())
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		tx, _ := core.NewTransaction(int64(i), core.Win, core.Money{Cents: int64(i * 100)}, "NBA", at)
		if _, err := repo.Append(context.Background(), tx); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return repo
}

func TestHandleSyncMessage(t *testing.T) {
	repo := newRepo(t, 1)
	exp := &fakeExporter{}
	w := NewSyncWorker(repo, exp, 10)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(1)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	status, _ := repo.SyncStatus(ctx, 1)
	if status != storage.SyncStatusSynced {
		t.Fatalf("status = %q, want synced", status)
	}

	// redelivery must not create a second row
	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(1)); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(exp.exported) != 1 {
		t.Fatalf("exported %v, want exactly one export", exp.exported)
	}
}

func TestHandleSyncMessageErrors(t *testing.T) {
	repo := newRepo(t, 1)
	w := NewSyncWorker(repo, &fakeExporter{failIDs: map[int64]bool{1: true}}, 10)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(1)); err == nil {
		t.Fatal("expected export failure to be returned for requeue")
	}
	status, _ := repo.SyncStatus(ctx, 1)
	if status != storage.SyncStatusError {
		t.Fatalf("status = %q, want error", status)
	}

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(404)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestProcessPendingBatches(t *testing.T) {
	repo := newRepo(t, 5)
	exp := &fakeExporter{failIDs: map[int64]bool{2: true}}
	w := NewSyncWorker(repo, exp, 3)
	ctx := context.Background()

	synced, err := w.ProcessPending(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if synced != 2 {
		t.Fatalf("synced = %d, want 2 (id 2 fails)", synced)
	}

	// the failed row is retried alongside the rest
	delete(exp.failIDs, 2)
	synced, err = w.ProcessPending(ctx)
	if err != nil || synced != 3 {
		t.Fatalf("second sweep synced=%d err=%v, want 3", synced, err)
	}
	pending, _ := repo.GetPendingSync(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected nothing pending, got %d", len(pending))
	}
}

func TestStartupSyncCheckAndRunPeriodic(t *testing.T) {
	repo := newRepo(t, 4)
	exp := &fakeExporter{}
	w := NewSyncWorker(repo, exp, 1)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if len(exp.exported) != 4 {
		t.Fatalf("startup sweep exported %d, want 4", len(exp.exported))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := w.RunPeriodic(ctx, 5*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("RunPeriodic should stop with the context, got %v", err)
	}
}

func TestClaimedTransactionIsNotExportedTwice(t *testing.T) {
	repo := newRepo(t, 2)
	exp := &fakeExporter{}
	w := NewSyncWorker(repo, exp, 10)
	ctx := context.Background()

	// another export already holds row 1
	if ok, err := repo.ClaimSync(ctx, 1); err != nil || !ok {
		t.Fatalf("claim: %v %v", ok, err)
	}

	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(1)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	synced, err := w.ProcessPending(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if synced != 1 || len(exp.exported) != 1 || exp.exported[0] != 2 {
		t.Fatalf("exported %v (synced=%d), want only id 2", exp.exported, synced)
	}
	status, _ := repo.SyncStatus(ctx, 1)
	if status != storage.SyncStatusPending {
		t.Fatalf("claimed row status = %q, want pending", status)
	}
}
