package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bikewatching/internal/api"
	"bikewatching/internal/config"
	"bikewatching/internal/db"
	"bikewatching/internal/feed"
	"bikewatching/internal/logging"
	"bikewatching/internal/metrics"
	"bikewatching/internal/publisher"
	"bikewatching/internal/service"
	"bikewatching/internal/snapshot"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Load configuration from .env, CONFIG_FILE and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		log.Fatalf("logging error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.PublishInterval, cfg.RefreshInterval)
		srv := mcol.Serve(cfg.MetricsAddr)
		defer shutdown(srv)
	}

	// Dataset sources
	web := feed.NewClient(cfg.TripsCSV, cfg.StationsURL, cfg.FetchTimeout, cfg.Location)
	var trips service.TripSource = web
	var stations service.StationSource = web
	if cfg.UsesPostgres() {
		src, err := db.NewSource(ctx, cfg.DatabaseURL, cfg.City, cfg.Location, mcol.DBSwitched)
		if err != nil {
			log.Fatalf("postgres source error: %v", err)
		}
		defer src.Close()
		if cfg.TripsSource == config.SourcePostgres {
			trips = src
		}
		if cfg.StationsSource == config.SourcePostgres {
			stations = src
		}
	}

	opts := service.Options{
		PublishInterval: cfg.PublishInterval,
		RefreshInterval: cfg.RefreshInterval,
		Location:        cfg.Location,
		Metrics:         mcol,
	}

	// Optional NATS publisher
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, mcol)
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer pub.Close()
		opts.Publisher = pub
	}

	// Optional Redis snapshot sink
	var snapshots api.SnapshotReader
	if cfg.RedisAddr != "" {
		snap := snapshot.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SnapshotTTL)
		defer snap.Close()
		opts.Snapshots = snap
		snapshots = snap
	}

	mgr := service.NewManager(trips, stations, opts)
	if err := mgr.Load(ctx); err != nil {
		log.Fatalf("initial dataset load error: %v", err)
	}
	mgr.StartRefresher(ctx)
	mgr.StartPublisher(ctx)

	srv := api.NewHandler(mgr, snapshots, mcol).Setup(cfg.HTTPAddr)
	go func() {
		log.Infof("http api listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("http server error: %v", err)
			cancel()
		}
	}()

	// Block until context cancelled
	<-ctx.Done()
	shutdown(srv)
	mgr.Stop()
	log.Info("shutdown complete")
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
