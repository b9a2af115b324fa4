package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"budgetrack/internal/config"
	"budgetrack/internal/persist"
	"budgetrack/internal/persist/memory"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"file ok", Config{Type: FileBackend, DataDirectory: "data"}, ""},
		{"memory ok", Config{Type: MemoryBackend}, ""},
		{"unknown type", Config{Type: "sheets"}, "invalid backend type"},
		{"file without dir", Config{Type: FileBackend}, "data directory"},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"redis without url", Config{Type: RedisBackend}, "Redis URL"},
		{"remote required", Config{Type: MemoryBackend, RequireRemote: true}, "remote database URL"},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "x"}, "AMQP exchange and queue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:       "sqlite",
		SQLiteDBPath:      "/tmp/b.db",
		RemoteDatabaseURL: "postgres://localhost/b",
		LoadSource:        "remote",
		AMQPURL:           "amqp://localhost",
		AMQPExchange:      "budgetrack",
		AMQPQueue:         "remote_sync",
	}

	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "/tmp/b.db" {
		t.Errorf("unexpected local config %+v", cfg)
	}
	if !cfg.RequireRemote {
		t.Error("LOAD_SOURCE=remote should make the remote database mandatory")
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestFactory_LocalBackends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
	}{
		{"file", Config{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "kv.db")}},
		{"memory", Config{Type: MemoryBackend}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(nil).CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Cleanup()

			if res.Remote != nil || res.AMQP != nil {
				t.Error("no optional clients should be opened")
			}
			if res.MirrorSink(nil) != nil {
				t.Error("MirrorSink should be nil without remote or AMQP")
			}

			if err := res.Adapter.Save(ctx, persist.KeyUsers, []byte(`[]`)); err != nil {
				t.Fatalf("Save: %v", err)
			}
			data, ok, err := res.Adapter.Load(ctx, persist.KeyUsers)
			if err != nil || !ok || string(data) != `[]` {
				t.Errorf("Load = %q, %v, %v", data, ok, err)
			}
		})
	}
}

func TestResult_CleanupClosesAdapter(t *testing.T) {
	adapter := memory.New()
	res := &Result{Adapter: adapter}
	res.Cleanup = res.close

	if err := res.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if !adapter.Closed() {
		t.Error("adapter should be closed")
	}
}
