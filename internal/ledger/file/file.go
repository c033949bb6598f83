// Package file keeps the ledger in a single JSON document on disk.
//
// The document is a key -> value object, so other keys written by other tools
// survive a rewrite. The ledger lives under StorageKey as a map of sport name
// to the sport's transaction list:
//
//	{"betting-transactions-all": {"NBA": [{"id": 1740830400000, "amount": -12.5,
//	  "sport": "NBA", "type": "loss", "date": "2025-03-01T12:00:00.000Z"}]}}
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"betlog/internal/core"
	"betlog/internal/log"
)

const (
	// StorageKey holds the sport -> transactions mapping.
	StorageKey = "betting-transactions-all"
	// LegacyKey holds a flat transaction list from single-sport versions.
	LegacyKey = "betting-transactions"
	// UnreadableSuffix names the copy of a document or value that could not be decoded.
	UnreadableSuffix = ".unreadable"
)

// dateLayout matches JavaScript's Date.toISOString.
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

type record struct {
	ID     json.Number `json:"id"`
	Amount json.Number `json:"amount"`
	Sport  string      `json:"sport,omitempty"`
	Type   string      `json:"type"`
	Date   string      `json:"date"`
}

// Store keeps the stored items of every sport list exactly as read, in order,
// and rewrites the document from them. Items it cannot interpret stay in the
// document but never reach the ledger.
type Store struct {
	mu     sync.Mutex
	path   string
	doc    map[string]json.RawMessage
	raw    map[string][]json.RawMessage
	ledger core.Ledger
	count  int
	logger *log.Logger
}

// Open loads the document at path. A missing, unreadable or malformed
// document yields an empty ledger; the problem is logged, not returned.
// A malformed document is copied aside before anything overwrites it.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentStorage)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	s := &Store{
		path:   path,
		doc:    map[string]json.RawMessage{},
		raw:    map[string][]json.RawMessage{},
		ledger: core.Ledger{},
		logger: logger,
	}
	s.load()
	return s, nil
}

func (s *Store) load() {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("Ledger document not found, starting empty", "path", s.path)
		return
	}
	if err != nil {
		s.logger.Warn("Cannot read ledger document, starting empty", "path", s.path, "error", err)
		return
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		s.logger.Warn("Malformed ledger document, starting empty", "path", s.path, "error", err)
		s.keepUnreadable(b)
		return
	}
	s.doc = doc

	if raw, ok := doc[StorageKey]; ok {
		s.decodeLedger(raw)
	} else if raw, ok := doc[LegacyKey]; ok {
		s.decodeLegacy(raw)
		s.logger.Info("Imported legacy single-sport ledger", "key", LegacyKey)
	}
	for _, seq := range s.ledger {
		s.count += len(seq)
	}
	s.logger.Info("Ledger loaded", "path", s.path, "transactions", s.count, "sports", len(s.ledger))
}

// keepUnreadable copies an undecodable document next to the ledger file.
func (s *Store) keepUnreadable(b []byte) {
	dst := s.path + UnreadableSuffix
	if err := os.WriteFile(dst, b, 0o644); err != nil {
		s.logger.Error("Cannot keep unreadable ledger document", "path", dst, "error", err)
		return
	}
	s.logger.Warn("Unreadable ledger document kept", "path", dst)
}

func (s *Store) decodeLedger(raw json.RawMessage) {
	var bySport map[string][]json.RawMessage
	if err := json.Unmarshal(raw, &bySport); err != nil {
		s.logger.Warn("Malformed ledger value, starting empty", "key", StorageKey, "error", err)
		s.doc[StorageKey+UnreadableSuffix] = raw
		return
	}
	for sport, items := range bySport {
		s.raw[sport] = items
		for _, item := range items {
			if t, ok := s.decodeRecord(item, sport); ok {
				s.ledger.Append(t)
			}
		}
	}
}

func (s *Store) decodeLegacy(raw json.RawMessage) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("Malformed legacy ledger value, ignoring", "key", LegacyKey, "error", err)
		return
	}
	for _, item := range items {
		t, ok := s.decodeRecord(item, core.DefaultSport)
		sport := core.DefaultSport
		if ok {
			sport = t.Sport
			s.ledger.Append(t)
		}
		s.raw[sport] = append(s.raw[sport], item)
	}
}

// decodeRecord converts one stored record. Records without a sport take the
// sport of the list they were found in; records with an unknown type take it
// from the amount's sign. Amounts are kept as stored, so a record whose sign
// disagrees with its type still counts towards the total.
func (s *Store) decodeRecord(raw json.RawMessage, sport string) (core.Transaction, bool) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		s.logger.Warn("Skipping malformed transaction", "error", err)
		return core.Transaction{}, false
	}
	id, err := r.ID.Float64()
	if err != nil {
		s.logger.Warn("Skipping transaction with invalid id", "id", r.ID.String())
		return core.Transaction{}, false
	}
	f, err := r.Amount.Float64()
	if err != nil {
		s.logger.Warn("Skipping transaction with invalid amount", log.FieldTransactionID, int64(id))
		return core.Transaction{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, r.Date)
	if err != nil {
		s.logger.Warn("Skipping transaction with invalid date", log.FieldTransactionID, int64(id), "date", r.Date)
		return core.Transaction{}, false
	}

	t := core.Transaction{
		ID:     int64(id),
		Amount: core.MoneyFromFloat(f),
		Sport:  r.Sport,
		Date:   at.UTC(),
	}
	if t.Sport == "" {
		t.Sport = sport
	}
	if k, err := core.ParseKind(r.Type); err == nil {
		t.Kind = k
	} else if t.Amount.Cents < 0 {
		t.Kind = core.Loss
	} else {
		t.Kind = core.Win
	}
	if err := t.Validate(); err != nil {
		s.logger.Warn("Loaded irregular transaction", log.FieldTransactionID, t.ID, "error", err)
	}
	return t, true
}

// Append adds the transaction and rewrites the document. The in-memory ledger
// only changes once the write has succeeded.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(encodeRecord(t))
	if err != nil {
		return "", fmt.Errorf("encode transaction: %w", err)
	}
	raw := make(map[string][]json.RawMessage, len(s.raw)+1)
	for sport, items := range s.raw {
		raw[sport] = items
	}
	raw[t.Sport] = append(append([]json.RawMessage(nil), s.raw[t.Sport]...), b)
	if err := s.write(raw); err != nil {
		return "", err
	}
	s.raw = raw
	s.ledger.Append(t)
	s.count++
	return fmt.Sprintf("file:%d", t.ID), nil
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

func (s *Store) write(bySport map[string][]json.RawMessage) error {
	value, err := json.Marshal(bySport)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	doc := make(map[string]json.RawMessage, len(s.doc)+1)
	for k, v := range s.doc {
		doc[k] = v
	}
	doc[StorageKey] = value
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".betlog-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger document: %w", err)
	}
	s.doc = doc
	return nil
}

func encodeRecord(t core.Transaction) record {
	return record{
		ID:     json.Number(strconv.FormatInt(t.ID, 10)),
		Amount: json.Number(strconv.FormatFloat(t.Amount.Float(), 'f', -1, 64)),
		Sport:  t.Sport,
		Type:   string(t.Kind),
		Date:   t.Date.UTC().Format(dateLayout),
	}
}
