package backend

import (
	"context"
	"fmt"

	"betlog/internal/adapters"
	"betlog/internal/amqp"
	"betlog/internal/ledger"
	"betlog/internal/ledger/file"
	"betlog/internal/ledger/memory"
	"betlog/internal/log"
	"betlog/internal/services"
	"betlog/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store     ledger.Store
		publisher services.Publisher
		err       error
	)
	switch config.Type {
	case SQLiteBackend:
		store, publisher, err = f.createSQLiteStore(config)
	case FileBackend:
		store, err = file.Open(config.DataFile, f.logger)
		if err == nil {
			f.logger.Info("Initialized file backend", "path", config.DataFile)
		}
	case MemoryBackend:
		store = f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	svc, err := services.NewBetService(ctx, store, publisher,
		services.WithLocation(config.Location),
		services.WithDefaultSport(config.DefaultSport),
		services.WithLogger(f.logger),
	)
	if err != nil {
		if publisher != nil {
			publisher.Close()
		}
		if c, ok := store.(interface{ Close() error }); ok {
			c.Close()
		}
		return nil, fmt.Errorf("create bet service: %w", err)
	}

	return &BackendResult{
		Store:   store,
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (ledger.Store, services.Publisher, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional; without it recorded bets stay pending until the
	// worker's sweep picks them up.
	var publisher services.Publisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return adapters.NewSQLiteAdapter(sqliteRepo), publisher, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) ledger.Store {
	if config.SeedDirectory == "" {
		f.logger.Info("Initialized memory backend")
		return memory.New(nil)
	}
	store := memory.NewFromFiles(config.SeedDirectory)
	f.logger.Info("Initialized memory backend", "seed_directory", config.SeedDirectory)
	return store
}
