package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"betlog/internal/core"
)

func TestMemoryStoreAppendAndList(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	txs, err := s.ListTransactions(ctx, "NBA")
	if err != nil || len(txs) != 0 {
		t.Fatalf("expected empty store: %v %v", txs, err)
	}

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	win, _ := core.NewTransaction(1, core.Win, core.Money{Cents: 1000}, "NBA", at)
	loss, _ := core.NewTransaction(2, core.Loss, core.Money{Cents: 250}, "NBA", at.Add(time.Hour))
	ufc, _ := core.NewTransaction(3, core.Win, core.Money{Cents: 500}, "UFC", at.Add(-time.Hour))

	for i, tx := range []core.Transaction{win, loss, ufc} {
		ref, err := s.Append(ctx, tx)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if want := fmt.Sprintf("mem:%d", i+1); ref != want {
			t.Fatalf("ref = %q, want %q", ref, want)
		}
	}

	nba, _ := s.ListTransactions(ctx, "NBA")
	if len(nba) != 2 || core.Total(nba).Cents != 750 {
		t.Fatalf("unexpected NBA sequence: %+v", nba)
	}
	all, _ := s.ListTransactions(ctx, "")
	if len(all) != 3 || all[0].ID != 3 {
		t.Fatalf("unexpected merged sequence: %+v", all)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New(nil)
	_, err := s.Append(context.Background(), core.Transaction{ID: 1, Kind: core.Win, Amount: core.Money{Cents: -5}, Sport: "NBA", Date: time.Now()})
	if err == nil {
		t.Fatal("expected sign mismatch to be rejected")
	}
}

func TestReadLedgerReturnsCopy(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tx, _ := core.NewTransaction(1, core.Win, core.Money{Cents: 100}, "MLB", at)
	s := New(core.Ledger{"MLB": {tx}})

	l, _ := s.ReadLedger(context.Background())
	l["MLB"][0].Amount = core.Money{Cents: 999}

	again, _ := s.ReadLedger(context.Background())
	if again["MLB"][0].Amount.Cents != 100 {
		t.Fatal("ReadLedger leaked internal state")
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	if s := NewFromFiles(dir); len(s.ledger) != 0 {
		t.Fatalf("expected empty store when seed file missing")
	}

	content := "# header\n" +
		"2025-03-01T20:00:00Z NBA win 12.50\n" +
		"2025-03-01T20:00:00Z nba loss 2\n" +
		"not a line\n" +
		"2025-03-02T10:00:00Z CRICKET win 1\n" +
		"\n"
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s := NewFromFiles(dir)
	nba, _ := s.ListTransactions(context.Background(), "NBA")
	if len(nba) != 2 {
		t.Fatalf("expected 2 seeded NBA transactions, got %d", len(nba))
	}
	if nba[0].ID == nba[1].ID {
		t.Fatalf("seeded ids collide: %d", nba[0].ID)
	}
	if got := core.Total(nba).Cents; got != 1050 {
		t.Fatalf("total = %d, want 1050", got)
	}
}
