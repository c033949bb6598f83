package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"betlog/internal/core"
)

// SeedFile is read by NewFromFiles from the base directory.
const SeedFile = "seed_transactions.txt"

type Store struct {
	mu     sync.Mutex
	ledger core.Ledger
	count  int
}

func New(seed core.Ledger) *Store {
	l := make(core.Ledger)
	count := 0
	for sport, seq := range seed {
		for _, t := range seq {
			if t.Validate() != nil {
				continue
			}
			if t.Sport == "" {
				t.Sport = sport
			}
			l.Append(t)
			count++
		}
	}
	return &Store{ledger: l, count: count}
}

// NewFromFiles seeds the store from base/seed_transactions.txt. Each line is
//
//	2025-03-01T20:00:00Z NBA win 12.50
//
// Blank lines, comments and malformed lines are skipped. Ids are assigned from
// the line timestamp in milliseconds.
func NewFromFiles(base string) *Store {
	seed := make(core.Ledger)
	var last int64
	for _, line := range readLines(filepath.Join(base, SeedFile)) {
		t, ok := parseSeedLine(line)
		if !ok {
			continue
		}
		t.ID = t.Date.UnixMilli()
		if t.ID <= last {
			t.ID = last + 1
		}
		last = t.ID
		seed.Append(t)
	}
	return New(seed)
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Append(t)
	s.count++
	return fmt.Sprintf("mem:%d", s.count), nil
}

func (s *Store) ListTransactions(_ context.Context, sport string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Sequence(sport), nil
}

func (s *Store) ReadLedger(_ context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone(), nil
}

func parseSeedLine(line string) (core.Transaction, bool) {
	parts := strings.Fields(line)
	if len(parts) != 4 {
		return core.Transaction{}, false
	}
	at, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return core.Transaction{}, false
	}
	kind, err := core.ParseKind(parts[2])
	if err != nil {
		return core.Transaction{}, false
	}
	amount, err := core.ParseAmount(parts[3])
	if err != nil {
		return core.Transaction{}, false
	}
	t, err := core.NewTransaction(0, kind, amount, parts[1], at)
	if err != nil {
		return core.Transaction{}, false
	}
	return t, true
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
