package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"betlog/internal/core"
	"betlog/internal/ledger"
	"betlog/internal/log"
)

// ErrIncomplete marks a submission that is missing or has an invalid side,
// amount or sport. Nothing is stored.
var ErrIncomplete = errors.New("incomplete submission")

// Publisher announces stored transactions to the export worker.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, id int64) error
	Close() error
}

// BetService records bets and answers the read-side questions of the widget
// (running total, calendar, default sport) over a ledger store.
type BetService struct {
	store        ledger.Store
	publisher    Publisher
	ids          *core.IDSource
	loc          *time.Location
	defaultSport string
	now          func() time.Time
	logger       *log.Logger
}

type Option func(*BetService)

// WithLocation sets the time zone used to bucket transactions into days.
func WithLocation(loc *time.Location) Option {
	return func(s *BetService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithDefaultSport sets the sport used when there is no recent activity.
func WithDefaultSport(sport string) Option {
	return func(s *BetService) {
		if sp, ok := core.LookupSport(sport); ok {
			s.defaultSport = sp.Name
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *BetService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *BetService) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentBet)
		}
	}
}

// NewBetService wires the service and seeds the id source from the stored
// ledger so new ids never collide with existing ones. publisher may be nil.
func NewBetService(ctx context.Context, store ledger.Store, publisher Publisher, opts ...Option) (*BetService, error) {
	s := &BetService{
		store:        store,
		publisher:    publisher,
		ids:          core.NewIDSource(),
		loc:          time.UTC,
		defaultSport: core.DefaultSport,
		now:          time.Now,
		logger:       log.New(log.DefaultConfig()).WithComponent(log.ComponentBet),
	}
	for _, opt := range opts {
		opt(s)
	}

	l, err := store.ReadLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	s.ids.Seed(l.MaxID())
	return s, nil
}

// RecordBet stores a win or loss of the given user-typed amount for sport.
// An empty sport records against the default sport.
func (s *BetService) RecordBet(ctx context.Context, kindInput, amountInput, sport string) (core.Transaction, string, error) {
	kind, err := core.ParseKind(kindInput)
	if err != nil {
		return core.Transaction{}, "", fmt.Errorf("%w: %w", ErrIncomplete, err)
	}
	amount, err := core.ParseAmount(amountInput)
	if err != nil {
		return core.Transaction{}, "", fmt.Errorf("%w: %w", ErrIncomplete, err)
	}
	if sport == "" {
		sport = s.defaultSport
	}

	t, err := core.NewTransaction(s.ids.Next(), kind, amount, sport, s.now())
	if err != nil {
		return core.Transaction{}, "", fmt.Errorf("%w: %w", ErrIncomplete, err)
	}

	ref, err := s.store.Append(ctx, t)
	if err != nil {
		return core.Transaction{}, "", fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishSyncMessage(ctx, t.ID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldTransactionID, t.ID, "error", err)
		// the transaction is saved; the pending sweep will export it
	}

	log.NewStructuredLogger(s.logger).LogTransactionRecorded(ctx, t.ID, t.Sport, string(t.Kind), t.Amount.Cents, ref)
	return t, ref, nil
}

func (s *BetService) publishSyncMessage(ctx context.Context, id int64) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping sync message")
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, id)
}

// Transactions lists a sport's sequence, or every sport when sport is empty.
func (s *BetService) Transactions(ctx context.Context, sport string) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *BetService) Summary(ctx context.Context, sport string) (core.Summary, error) {
	txs, err := s.Transactions(ctx, sport)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(sport, txs), nil
}

func (s *BetService) Calendar(ctx context.Context, sport string, year, month int) (core.CalendarMonth, error) {
	txs, err := s.Transactions(ctx, sport)
	if err != nil {
		return core.CalendarMonth{}, err
	}
	return core.BuildCalendar(txs, year, month, s.loc), nil
}

// SelectedSport resolves the sport to show: the requested one when it is in
// the catalogue, else the most used sport of the past month.
func (s *BetService) SelectedSport(ctx context.Context, requested string) string {
	if sp, ok := core.LookupSport(requested); ok {
		return sp.Name
	}
	l, err := s.store.ReadLedger(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Cannot read ledger for default sport", "error", err)
		return s.defaultSport
	}
	return core.MostUsedSport(l, s.now(), s.defaultSport)
}

// Now returns the current time in the configured location.
func (s *BetService) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *BetService) Location() *time.Location {
	return s.loc
}

// Close closes both storage and AMQP connections
func (s *BetService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close bet service: %w", errors.Join(errs...))
	}
	return nil
}
