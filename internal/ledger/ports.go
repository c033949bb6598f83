package ledger

import (
	"context"

	"betlog/internal/core"
)

// Ports for the ledger stores and outbound adapters.
type (
	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (ref string, err error)
	}

	// TransactionLister returns one sport's sequence in insertion order.
	// An empty sport lists every sport merged by date.
	TransactionLister interface {
		ListTransactions(ctx context.Context, sport string) ([]core.Transaction, error)
	}

	// LedgerReader returns the whole sport -> sequence mapping.
	LedgerReader interface {
		ReadLedger(ctx context.Context) (core.Ledger, error)
	}

	// TransactionExporter mirrors a recorded transaction to an external sheet.
	TransactionExporter interface {
		Export(ctx context.Context, t core.Transaction) (ref string, err error)
	}

	Store interface {
		TransactionWriter
		TransactionLister
		LedgerReader
	}
)

// Pinger is implemented by stores backed by an external resource that can
// become unavailable after startup.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReporter is implemented by stores that can count stored transactions
// per sport without loading them.
type StatsReporter interface {
	Stats(ctx context.Context) (map[string]int64, error)
}
