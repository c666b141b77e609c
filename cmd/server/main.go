package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/dicepool-sim/internal/api"
	"github.com/xtding233/dicepool-sim/internal/config"
	"github.com/xtding233/dicepool-sim/internal/logging"
	"github.com/xtding233/dicepool-sim/internal/rpc"
	"github.com/xtding233/dicepool-sim/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadServerEnv()
	if err != nil {
		log.Fatalf("load env: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(ctx context.Context, cfg config.ServerEnv) error {
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	loader := config.NewLoader(cfg.ConfigDir)
	if _, err := loader.LoadMerged(""); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	watcher := config.NewFileWatcher(loader.Paths(), cfg.WatchInterval, func(path string) {
		logger.Info("config.changed", "path", path)
		loader.Invalidate()
	})

	handler := api.NewServer(api.Options{
		Resolver:   loader,
		Store:      db,
		Logger:     logger,
		MaxTrials:  cfg.MaxTrials,
		MaxOutcome: cfg.MaxOutcome,
	}).Routes()
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcSrv := rpc.NewServer(rpc.NewSimulatorService(loader, logger, cfg.MaxTrials), logger)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		watcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("http.listen", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc.listen", "addr", cfg.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcSrv.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
