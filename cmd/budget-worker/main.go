package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetrack/internal/amqp"
	"budgetrack/internal/cache"
	"budgetrack/internal/cli"
	"budgetrack/internal/log"
	"budgetrack/internal/metrics"
	"budgetrack/internal/middleware/trace"
	"budgetrack/internal/remote"
	"budgetrack/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentWorker)
	logger.Info("Starting budget-worker")

	if cfg.AMQPURL == "" || cfg.RemoteDatabaseURL == "" {
		logger.Error("budget-worker needs both AMQP_URL and REMOTE_DATABASE_URL")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	remoteClient, err := remote.Open(ctx, cfg.RemoteDatabaseURL, remote.DefaultPoolConfig(), logger)
	if err != nil {
		logger.Error("Failed to initialize remote database", log.FieldError, err)
		os.Exit(1)
	}
	defer remoteClient.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	caches := cache.NewManager(logger)
	caches.Register(remoteClient.Cache())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	syncWorker := worker.ForRemote(remoteClient, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := remoteClient.Ping(r.Context()); err != nil {
			http.Error(w, "remote database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           trace.NewMiddleware(logger, "/metrics", "/healthz").Wrap(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.Consume(gctx, syncWorker.HandleChangeMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down worker...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
