package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"lanwatch/internal/adapter"
	"lanwatch/internal/config"
	"lanwatch/internal/core/bootstrap"
	"lanwatch/internal/handler"
	"lanwatch/internal/hub"
	"lanwatch/internal/logger"
	"lanwatch/internal/metrics"
	"lanwatch/internal/poller"
	"lanwatch/internal/repository/sqlite"
	"lanwatch/internal/service"
	"lanwatch/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	if *configPath != "" {
		os.Setenv(config.EnvConfigPath, *configPath)
	}

	cfg, path, err := config.Load()
	if err != nil {
		// logger is not configured yet; fall back to the default global one
		l := logger.GetLogger()
		l.Fatal().Err(err).Str("path", path).Msg("Failed to load config")
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	if err := logger.Init(cfg.Logging); err != nil {
		l := logger.GetLogger()
		l.Fatal().Err(err).Msg("Invalid logging config")
	}
	log := logger.WithComponent("main")
	if path != "" {
		log.Info().Str("path", path).Msg("Loaded config")
	} else {
		log.Info().Msg("No config file found, using defaults and environment")
	}

	if err := run(cfg, path, log); err != nil {
		log.Fatal().Err(err).Msg("lanwatch stopped with error")
	}
	log.Info().Msg("Server stopped")
}

func run(cfg *config.Config, path string, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer repo.Close()
	log.Info().Str("path", cfg.Database.Path).Msg("Database opened")

	bus := service.NewEventBus()

	registry := service.NewDeviceRegistry(repo, logger.WithComponent("registry"), service.WithRegistryEvents(bus))
	registryDone := make(chan struct{})
	go func() {
		defer close(registryDone)
		registry.Run(ctx)
	}()

	snapshots := service.NewSnapshotService(repo, bus, logger.WithComponent("snapshots"))
	labels := service.NewLabelService(repo, bus)

	host := bootstrap.Run(ctx, logger.WithComponent("bootstrap"))

	sources := adapter.NewRegistry(logger.WithComponent("adapter"))
	if err := configureSources(sources, cfg.Sources, host, logger.WithComponent("adapter")); err != nil {
		return err
	}

	var sink metrics.Sink
	if cfg.Metrics.NATSURL != "" {
		natsSink, err := metrics.ConnectNATS(ctx, metrics.NATSConfig{
			URL:           cfg.Metrics.NATSURL,
			Stream:        cfg.Metrics.Stream,
			SubjectPrefix: cfg.Metrics.SubjectPrefix,
		}, logger.WithComponent("metrics"))
		if err != nil {
			return err
		}
		defer natsSink.Close()
		sink = natsSink
	} else {
		sink = metrics.NewLogSink(logger.WithComponent("metrics"))
	}

	p := poller.New(sources, registry, snapshots, sink, bus, logger.WithComponent("poller"))
	scheduler := poller.NewScheduler(p, cfg.Polling.Interval.Duration(), logger.WithComponent("scheduler"))
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	sseHub := hub.New(logger.WithComponent("hub"))
	go sseHub.Run(ctx)

	events := make(chan service.Event, 100)
	bus.Subscribe(events)
	go func() {
		for {
			select {
			case ev := <-events:
				sseHub.Broadcast(string(ev.Type), ev.Payload)
			case <-ctx.Done():
				return
			}
		}
	}()

	if path != "" {
		w := watcher.New(path, logger.WithComponent("watcher"), func() {
			reload(path, host, sources, scheduler, bus, log)
		})
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("Config watcher stopped")
			}
		}()
	}

	httpLog := logger.WithComponent("http")
	mux := http.NewServeMux()
	handler.Routes{
		Devices:   handler.NewDeviceHandler(registry, labels, scheduler, httpLog),
		Snapshots: handler.NewSnapshotHandler(snapshots, httpLog),
		Health:    handler.NewHealthHandler(p, httpLog),
		Events:    sseHub,
	}.Register(mux)

	server := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: handler.Chain(mux,
			handler.Recover(httpLog),
			handler.CORS,
			handler.Logger(httpLog),
		),
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: /events streams for the life of the client
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server...")
	case err := <-serverErr:
		stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Server shutdown error")
	}

	<-schedulerDone
	scheduler.Wait()
	<-registryDone
	return nil
}

// reload applies a changed config file. The listener and database stay as
// they are; sources, interval and log level follow the file.
func reload(path string, host bootstrap.Report, sources *adapter.Registry, scheduler *poller.Scheduler, bus *service.EventBus, log zerolog.Logger) {
	cfg, _, err := config.LoadFromPath(path)
	if err != nil {
		log.Error().Err(err).Msg("Config reload failed, keeping previous settings")
		return
	}

	if level, err := logger.ParseLevel(cfg.Logging); err == nil {
		logger.SetLevel(level)
	} else {
		log.Warn().Err(err).Msg("Ignoring invalid log level")
	}

	if err := configureSources(sources, cfg.Sources, host, logger.WithComponent("adapter")); err != nil {
		log.Error().Err(err).Msg("Source reload failed")
		return
	}
	scheduler.SetInterval(cfg.Polling.Interval.Duration())

	bus.Publish(service.Event{Type: service.EventConfigReloaded, Payload: map[string]string{
		"path":     path,
		"interval": cfg.Polling.Interval.Duration().String(),
	}})
	log.Info().Msg("Config reloaded")
}
