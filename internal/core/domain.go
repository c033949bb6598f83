package core

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	Win  Kind = "win"
	Loss Kind = "loss"
)

type (
	// Kind discriminates the side of a bet that was recorded.
	Kind string

	Sport struct {
		Name  string
		Emoji string
	}

	// Transaction is one recorded win or loss. ID is the creation time in
	// Unix milliseconds; Amount is signed (losses are negative).
	Transaction struct {
		ID     int64
		Amount Money
		Sport  string
		Kind   Kind
		Date   time.Time
	}

	// Ledger maps a sport name to its append-only transaction sequence.
	Ledger map[string][]Transaction
)

// DefaultSport is selected when there is no recent activity to infer from.
const DefaultSport = "NBA"

// DefaultSports is the sport catalogue shown in the menu, in display order.
var DefaultSports = []Sport{
	{Name: "NBA", Emoji: "🏀"},
	{Name: "NFL", Emoji: "🏈"},
	{Name: "MLB", Emoji: "⚾"},
	{Name: "UFC", Emoji: "🥊"},
}

var (
	ErrInvalidKind  = errors.New("invalid transaction type")
	ErrUnknownSport = errors.New("unknown sport")
	ErrEmptyDate    = errors.New("transaction date cannot be zero")
	ErrSignMismatch = errors.New("amount sign does not match transaction type")
)

// ParseKind accepts "win" or "loss", ignoring case and surrounding space.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Win:
		return Win, nil
	case Loss:
		return Loss, nil
	}
	return "", ErrInvalidKind
}

// Sign returns +1 for wins and -1 for losses.
func (k Kind) Sign() int64 {
	if k == Loss {
		return -1
	}
	return 1
}

func (k Kind) Valid() bool {
	return k == Win || k == Loss
}

// LookupSport finds a sport in the catalogue by name (case-insensitive).
func LookupSport(name string) (Sport, bool) {
	name = strings.TrimSpace(name)
	for _, s := range DefaultSports {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Sport{}, false
}

// NewTransaction builds a signed transaction from a positive magnitude.
func NewTransaction(id int64, kind Kind, magnitude Money, sport string, now time.Time) (Transaction, error) {
	if !kind.Valid() {
		return Transaction{}, ErrInvalidKind
	}
	if err := magnitude.Validate(); err != nil {
		return Transaction{}, err
	}
	s, ok := LookupSport(sport)
	if !ok {
		return Transaction{}, ErrUnknownSport
	}
	return Transaction{
		ID:     id,
		Amount: Money{Cents: magnitude.Cents * kind.Sign()},
		Sport:  s.Name,
		Kind:   kind,
		Date:   now.UTC(),
	}, nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if (t.Kind == Win) != (t.Amount.Cents > 0) {
		return ErrSignMismatch
	}
	if t.Date.IsZero() {
		return ErrEmptyDate
	}
	return nil
}

// IDSource hands out strictly increasing millisecond identifiers.
type IDSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDSource() *IDSource {
	return &IDSource{now: time.Now}
}

// Seed makes sure future ids are greater than an id already in storage.
func (s *IDSource) Seed(existing int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing > s.last {
		s.last = existing
	}
}

func (s *IDSource) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Append adds t to the end of its sport's sequence.
func (l Ledger) Append(t Transaction) {
	l[t.Sport] = append(l[t.Sport], t)
}

// Sequence returns the transactions of one sport, or every sport when sport is empty.
func (l Ledger) Sequence(sport string) []Transaction {
	if sport == "" {
		return l.All()
	}
	return append([]Transaction(nil), l[sport]...)
}

// All merges every sequence ordered by date, then id.
func (l Ledger) All() []Transaction {
	var out []Transaction
	for _, seq := range l {
		out = append(out, seq...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for sport, seq := range l {
		out[sport] = append([]Transaction(nil), seq...)
	}
	return out
}

// MaxID returns the highest id across all sequences, or 0.
func (l Ledger) MaxID() int64 {
	var max int64
	for _, seq := range l {
		for _, t := range seq {
			if t.ID > max {
				max = t.ID
			}
		}
	}
	return max
}
