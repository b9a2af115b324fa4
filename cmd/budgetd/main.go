package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetrack/internal/backend"
	"budgetrack/internal/cache"
	"budgetrack/internal/cli"
	"budgetrack/internal/config"
	"budgetrack/internal/core"
	"budgetrack/internal/log"
	"budgetrack/internal/metrics"
	"budgetrack/internal/middleware/trace"
	"budgetrack/internal/persist"
	"budgetrack/internal/services"
	"budgetrack/internal/store"
	"budgetrack/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("budgetd stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("budgetd stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	st := store.New(store.Options{
		Logger:                        logger,
		NotificationLimit:             cfg.NotificationLimit,
		StrictNotFound:                cfg.StrictNotFound,
		ReconcileCodesOnProjectDelete: cfg.ReconcileCodesOnProjectDelete,
	})
	defer st.Close()

	if err := loadState(ctx, cfg, res, st, logger); err != nil {
		return err
	}

	writer := persist.NewWriter(res.Adapter, st, persist.WriterConfig{
		Delay:  cfg.PersistDebounce,
		Logger: logger,
	})
	defer st.PersistTo(writer)()

	// A remote load leaves the local backend behind, so write it all once.
	if cfg.LoadSource == "remote" {
		for _, key := range persist.Keys {
			writer.Mark(key)
		}
	}

	var mirror *services.Mirror
	if sink := res.MirrorSink(logger); sink != nil {
		if cfg.LoadSource == "local" && res.Remote != nil {
			if err := worker.ForRemote(res.Remote, logger).Resync(ctx, st.State()); err != nil {
				logger.WarnContext(ctx, "Remote resync incomplete", log.FieldError, err)
			}
		}
		mirror = services.NewMirror(sink, services.DefaultMirrorConfig(), logger)
		defer st.Subscribe(mirror.Handle)()
		// The mirror outlives ctx so Stop can drain what is still queued.
		if err := mirror.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	}

	caches := cache.NewManager(logger)
	if res.Remote != nil {
		caches.Register(res.Remote.Cache())
		caches.StartCleanup(time.Minute)
	}
	defer caches.Stop()

	if err := bootstrapAdmin(st, cfg.BootstrapAdminEmail, cfg.BootstrapAdminName, logger); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           trace.NewMiddleware(logger, "/metrics", "/healthz").Wrap(newMux(st, writer, mirror)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting budgetd",
			"addr", cfg.MetricsAddr,
			log.FieldBackend, cfg.DataBackend,
			"load_source", cfg.LoadSource,
			"mirror", mirror != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := writer.Close(shutdownCtx); err != nil {
			logger.Error("Final flush failed", log.FieldError, err, "failed_keys", writer.Failed())
		}
		if mirror != nil {
			if err := mirror.Stop(shutdownCtx); err != nil {
				logger.Error("Mirror stop failed", log.FieldError, err)
			}
		}
		return nil
	})

	return g.Wait()
}

// loadState fills the store from the configured source.
func loadState(ctx context.Context, cfg *config.Config, res *backend.Result, st *store.Store, logger *log.Logger) error {
	var loader store.Loader = store.AdapterLoader{Adapter: res.Adapter}
	if cfg.LoadSource == "remote" {
		loader = res.Remote
	}

	start := time.Now()
	if err := st.Load(ctx, loader); err != nil {
		return err
	}
	logger.InfoContext(ctx, "State loaded",
		"source", cfg.LoadSource,
		log.FieldDuration, time.Since(start).Milliseconds(),
		"users", len(st.Users()),
		"projects", len(st.Projects()))
	return nil
}

// bootstrapAdmin creates the first super admin when the store has no users.
func bootstrapAdmin(st *store.Store, email, name string, logger *log.Logger) error {
	if email == "" || len(st.Users()) > 0 {
		return nil
	}
	u, err := st.CreateUser(core.SystemActor, core.User{Name: name, Email: email, Role: core.RoleSuperAdmin})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	logger.Info("Bootstrapped super admin", log.FieldEntityID, u.ID, "email", u.Email)
	return nil
}

type health struct {
	Status        string   `json:"status"`
	PendingWrites int      `json:"pendingWrites"`
	FailedKeys    []string `json:"failedKeys,omitempty"`
	PendingMirror int      `json:"pendingMirror"`
	MirrorDropped int64    `json:"mirrorDropped,omitempty"`
	Users         int      `json:"users"`
	Projects      int      `json:"projects"`
}

func newMux(st *store.Store, writer *persist.Writer, mirror *services.Mirror) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h := health{
			Status:        "ok",
			PendingWrites: writer.Pending(),
			FailedKeys:    writer.Failed(),
			Users:         len(st.Users()),
			Projects:      len(st.Projects()),
		}
		if mirror != nil {
			h.PendingMirror = mirror.Pending()
			h.MirrorDropped = mirror.Dropped()
		}
		if len(h.FailedKeys) > 0 || h.MirrorDropped > 0 {
			h.Status = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(h)
	})
	return mux
}
