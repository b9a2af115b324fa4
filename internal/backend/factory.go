package backend

import (
	"context"
	"errors"
	"fmt"

	"budgetrack/internal/amqp"
	"budgetrack/internal/filestore"
	"budgetrack/internal/log"
	"budgetrack/internal/persist"
	"budgetrack/internal/persist/memory"
	"budgetrack/internal/redisstore"
	"budgetrack/internal/remote"
	"budgetrack/internal/services"
	"budgetrack/internal/storage"
	"budgetrack/internal/worker"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend opens the local adapter, then the optional remote database and
// AMQP client. Only the local adapter is mandatory unless RequireRemote is set.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	adapter, err := f.createAdapter(config)
	if err != nil {
		return nil, err
	}
	res := &Result{Adapter: adapter}

	if config.RemoteDatabaseURL != "" {
		client, err := remote.Open(ctx, config.RemoteDatabaseURL, remote.DefaultPoolConfig(), f.logger)
		switch {
		case err == nil:
			res.Remote = client
			f.logger.InfoContext(ctx, "Initialized remote database")
		case config.RequireRemote:
			adapter.Close()
			return nil, fmt.Errorf("failed to initialize remote database: %w", err)
		default:
			f.logger.WarnContext(ctx, "Failed to initialize remote database, continuing without mirror", log.FieldError, err)
		}
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change stream", log.FieldError, err)
		} else {
			res.AMQP = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	res.Cleanup = res.close
	return res, nil
}

func (f *DefaultFactory) createAdapter(config Config) (persist.Adapter, error) {
	switch config.Type {
	case FileBackend:
		store, err := filestore.New(config.DataDirectory, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file backend: %w", err)
		}
		f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)
		return store, nil

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil

	case RedisBackend:
		client, err := redisstore.NewClient(config.RedisURL, config.RedisKeyPrefix, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis backend: %w", err)
		}
		f.logger.Info("Initialized Redis backend", "key_prefix", config.RedisKeyPrefix)
		return client, nil

	case MemoryBackend:
		f.logger.Warn("Using memory backend, state will not survive a restart")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}

// MirrorSink picks where store changes go: the AMQP stream when available,
// otherwise straight to the remote tables. It returns nil when neither exists.
func (r *Result) MirrorSink(logger *log.Logger) services.ChangeSink {
	switch {
	case r.AMQP != nil:
		return r.AMQP
	case r.Remote != nil:
		return worker.ForRemote(r.Remote, logger)
	}
	return nil
}

func (r *Result) close() error {
	var errs []error
	if r.AMQP != nil {
		errs = append(errs, r.AMQP.Close())
	}
	if r.Remote != nil {
		errs = append(errs, r.Remote.Close())
	}
	if r.Adapter != nil {
		errs = append(errs, r.Adapter.Close())
	}
	return errors.Join(errs...)
}
