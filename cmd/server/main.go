package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/micro-ha/wol-server/internal/aggregator"
	"github.com/micro-ha/wol-server/internal/config"
	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
	"github.com/micro-ha/wol-server/internal/events"
	httpapi "github.com/micro-ha/wol-server/internal/http"
	"github.com/micro-ha/wol-server/internal/http/handlers"
	"github.com/micro-ha/wol-server/internal/logging"
	"github.com/micro-ha/wol-server/internal/metrics"
	"github.com/micro-ha/wol-server/internal/oui"
	"github.com/micro-ha/wol-server/internal/poller"
	"github.com/micro-ha/wol-server/internal/repository/jsonfile"
	"github.com/micro-ha/wol-server/internal/repository/sqlite"
	devicesvc "github.com/micro-ha/wol-server/internal/services/device"
	discoverysvc "github.com/micro-ha/wol-server/internal/services/discovery"
	wakesvc "github.com/micro-ha/wol-server/internal/services/wake"
	"github.com/micro-ha/wol-server/internal/storage"
	"github.com/micro-ha/wol-server/internal/subnet"
	"github.com/micro-ha/wol-server/internal/wol"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET is not set; using the built-in development secret")
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	m := metrics.New()
	bus := events.NewBus(logger)
	hub := events.NewHub(logger, httpapi.OriginChecker(cfg.AllowedOrigins))
	defer hub.Close()
	bus.AddSink(hub)

	if cfg.MQTT.Enabled() {
		sink, err := events.ConnectMQTT(events.MQTTOptions{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, logger)
		if err != nil {
			logger.Warn("mqtt disabled", "err", err)
		} else {
			defer sink.Close()
			bus.AddSink(sink)
		}
	}

	devices := devicesvc.New(store, bus, logger).WithGauge(m.RegisteredDevices)
	if existing, err := devices.List(ctx); err != nil {
		logger.Error("failed to load registry", "err", err)
		os.Exit(1)
	} else {
		logger.Info("registry loaded", "devices", len(existing))
	}

	wake := wakesvc.New(wol.NewUDPSender(2*time.Second), devices, cfg.Wake, wakesvc.Recorders{m, bus}, logger)

	matcher, err := subnet.FromInterfaces()
	if err != nil {
		logger.Warn("failed to read local interfaces; subnet annotation disabled", "err", err)
		matcher = subnet.New()
	}
	ouiDB, err := oui.LoadEmbedded()
	if err != nil {
		logger.Error("failed to load oui db", "err", err)
		os.Exit(1)
	}
	discovery := discoverysvc.New(
		discoverysvc.ExecRunner{},
		aggregator.New(matcher, ouiDB),
		devices,
		discoverysvc.Options{
			Timeout:     cfg.ScanTimeout,
			ScanCommand: cfg.ScanCommand,
			ARPCommand:  cfg.ARPCommand,
		},
		logger,
	).WithRecorder(m).WithPublisher(bus)

	scanPoller := poller.New(discovery, cfg.ScanInterval, logger)
	go scanPoller.Run(ctx)

	api := handlers.New(devices, wake, discovery, scanPoller, logger)
	opts := httpapi.RouterOptions{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: 2*cfg.ScanTimeout + 10*time.Second,
		Events:         hub,
		Observer:       m,
	}
	if cfg.MetricsEnabled {
		opts.Metrics = m.Handler()
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(api, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server starting", "addr", httpServer.Addr, "store", cfg.StoreDriver, "scan_interval", cfg.ScanInterval.String())
	if err := httpapi.RunServer(ctx, httpServer, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated with error", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (devicedomain.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		db, err := storage.Open(ctx, cfg.DBPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewDeviceStore(db), func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close database", "err", err)
			}
		}, nil
	case config.StoreFile, "":
		return jsonfile.New(cfg.DataPath), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
