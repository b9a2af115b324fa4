package backend

import (
	"context"

	"budgetrack/internal/amqp"
	"budgetrack/internal/persist"
	"budgetrack/internal/remote"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds everything the factory opened. Remote and AMQP are nil when
// they are not configured or could not be reached.
type Result struct {
	Adapter persist.Adapter
	Remote  *remote.Client
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string

	// Redis backend
	RedisURL       string
	RedisKeyPrefix string

	// Remote database; RequireRemote turns a connection failure into an error.
	RemoteDatabaseURL string
	RequireRemote     bool

	// AMQP change stream
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of the local key/value backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, RedisBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
