package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/statusbus/internal/api"
	"github.com/JakeFAU/statusbus/internal/bus"
	"github.com/JakeFAU/statusbus/internal/config"
	"github.com/JakeFAU/statusbus/internal/display"
	"github.com/JakeFAU/statusbus/internal/logging"
	"github.com/JakeFAU/statusbus/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "statusbus: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	driver := display.New(display.Config{
		Interval: cfg.Display.Interval(),
		Logger:   logger,
	})
	if err := driver.Start(); err != nil {
		return fmt.Errorf("start display: %w", err)
	}

	b := bus.New(bus.Config{
		Logger:  logger,
		Sink:    driver,
		Metrics: recorder,
	})

	srv := api.NewServer(cfg.HTTP.Port, b, registry, logger)
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table, err := cfg.MilestoneTable()
	if err != nil {
		return fmt.Errorf("milestone table: %w", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers.Count; i++ {
		id := fmt.Sprintf("worker-%d", i+1)
		handle, err := b.Register(id, bus.WithMilestones(table))
		if err != nil {
			return fmt.Errorf("register %s: %w", id, err)
		}
		wg.Add(1)
		go runWorker(ctx, &wg, b, handle, cfg.Workers.Events)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case <-done:
		logger.Info("all workers finished")
	case err := <-srvErr:
		if err != nil {
			return err
		}
	}

	b.Close()
	driver.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown incomplete", zap.Error(err))
	}
	return nil
}

// runWorker emits the configured number of progress events with a little
// jitter, then reports completion.
func runWorker(ctx context.Context, wg *sync.WaitGroup, b *bus.Bus, handle *bus.Handle, events int) {
	defer wg.Done()
	id := handle.ID()
	for i := 0; i < events; i++ {
		select {
		case <-ctx.Done():
			handle.Stop()
			return
		default:
		}
		b.Emit(bus.NewProgress(id))
		time.Sleep(time.Duration(20+rand.Intn(60)) * time.Millisecond)
	}
	b.Emit(bus.NewLifecycle(id, bus.PhaseCompleted))
}
