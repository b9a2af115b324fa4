// Package remote mirrors the store into PostgreSQL, one table per entity.
package remote

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"budgetrack/internal/cache"
	"budgetrack/internal/core"
	"budgetrack/internal/log"
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	CacheSize       int
	CacheTTL        time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		CacheSize:       64,
		CacheTTL:        30 * time.Second,
	}
}

// Client exposes the remote tables. Reads through GetAll are cached until the
// next write to the same table or one that cascades into it.
type Client struct {
	db     *sql.DB
	logger *log.Logger
	cache  *cache.LRUCache[any]

	Users         *Table[core.User]
	Divisions     *Table[core.Division]
	Units         *Table[core.Unit]
	Projects      *Table[core.Project]
	BudgetEntries *Table[core.BudgetEntry]
	BudgetCodes   *Table[core.BudgetCode]
	Notifications *Table[core.Notification]
	Settings      *SettingsTable
}

// Open connects to dsn, checks the connection and applies migrations.
func Open(ctx context.Context, dsn string, cfg PoolConfig, logger *log.Logger) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, classify("ping", "", fmt.Errorf("failed to ping database: %w", err))
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, classify("migrate", "", err)
	}

	c := NewWithDB(db, cfg, logger)
	c.logger.Info("Remote database connected",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)
	return c, nil
}

// NewWithDB wraps an already configured pool without migrating it.
func NewWithDB(db *sql.DB, cfg PoolConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultPoolConfig().CacheSize
	}

	c := &Client{
		db:     db,
		logger: logger.WithComponent(log.ComponentRemote),
		cache:  cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL),
	}
	c.Users = newTable(c, userMapper)
	c.Divisions = newTable(c, divisionMapper)
	c.Units = newTable(c, unitMapper)
	c.Projects = newTable(c, projectMapper)
	c.BudgetEntries = newTable(c, entryMapper)
	c.BudgetCodes = newTable(c, codeMapper)
	c.Notifications = newTable(c, notificationMapper)
	c.Settings = &SettingsTable{c: c}
	return c
}

// Cache returns the read cache so hosts can register it for expiry sweeps.
func (c *Client) Cache() *cache.LRUCache[any] {
	return c.cache
}

// Ping checks connectivity
func (c *Client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return classify("ping", "", err)
	}
	return nil
}

func (c *Client) Close() error {
	c.cache.Clear()
	return c.db.Close()
}
