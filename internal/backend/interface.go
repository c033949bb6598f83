package backend

import (
	"context"
	"time"

	"betlog/internal/ledger"
	"betlog/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the wired service, its store and the cleanup
// function releasing both.
type BackendResult struct {
	Store   ledger.Store
	Service *services.BetService
	Cleanup CleanupFunc
}

// Ready reports whether the store can still serve requests. Stores without
// an external resource are always ready.
func (r *BackendResult) Ready(ctx context.Context) error {
	if p, ok := r.Store.(ledger.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Stats returns per-sport transaction counts when the store can report them,
// and nil otherwise.
func (r *BackendResult) Stats(ctx context.Context) (map[string]int64, error) {
	if sr, ok := r.Store.(ledger.StatsReporter); ok {
		return sr.Stats(ctx)
	}
	return nil, nil
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File specific
	DataFile string

	// Memory specific; empty means start empty
	SeedDirectory string

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Service settings shared by every backend
	DefaultSport string
	Location     *time.Location
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
