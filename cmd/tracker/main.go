package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/buswatch-live/tracker/internal/config"
	"github.com/buswatch-live/tracker/internal/metrics"
	"github.com/buswatch-live/tracker/internal/predict"
	"github.com/buswatch-live/tracker/internal/publisher"
	"github.com/buswatch-live/tracker/internal/realtime"
	"github.com/buswatch-live/tracker/internal/schedule"
	"github.com/buswatch-live/tracker/internal/server"
	"github.com/buswatch-live/tracker/internal/tracker"
)

func main() {
	log.Println("Starting bus tracker service...")

	_ = godotenv.Load()

	cfg := config.Load()
	log.Printf("Config loaded: poll_interval=%v, fetch_timeout=%v", cfg.PollInterval, cfg.FetchTimeout)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", cfg.Timezone, err)
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 1: Static Schedule
	// ═══════════════════════════════════════════════════════
	store, err := schedule.Load(cfg.StaticDataDir)
	if err != nil {
		log.Fatalf("Failed to load static schedule: %v", err)
	}
	log.Printf("Schedule loaded: %d trips, %d stops, %d shapes",
		store.TripCount(), store.StopCount(), store.ShapeCount())
	warnIfStale(cfg)

	registry, err := tracker.LoadRegistry(cfg.FleetRegistry)
	if err != nil {
		log.Fatalf("Failed to load fleet registry: %v", err)
	}
	log.Printf("Fleet registry loaded: %d vehicles", registry.Size())

	// ═══════════════════════════════════════════════════════
	// PHASE 2: Realtime Clients
	// ═══════════════════════════════════════════════════════
	collector := metrics.NewCollector(cfg.PollInterval)
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}
	vehicles := realtime.NewVehicleClient(cfg.VehiclePositionsURL, httpClient)
	updates := realtime.NewTripUpdateCache(cfg.TripUpdatesURL, httpClient)
	predictor := predict.New(store, updates, loc)

	var pub tracker.VehiclePublisher
	if cfg.NATSURL != "" {
		nats, err := publisher.NewNATSPublisher(cfg.NATSURL, natsMetrics(collector))
		if err != nil {
			log.Printf("Warning: NATS unavailable, fan-out disabled: %v", err)
		} else {
			defer nats.Close()
			pub = nats
			log.Printf("NATS fan-out enabled: %s", cfg.NATSURL)
		}
	}

	rec, err := tracker.New(tracker.Options{
		Vehicles:         vehicles,
		Updates:          updates,
		Predictor:        predictor,
		Registry:         registry,
		Metrics:          collector,
		Publisher:        pub,
		PollInterval:     cfg.PollInterval,
		SamplePattern:    cfg.SampleIDPattern,
		SampleMatchCount: cfg.SampleMatchCount,
		SampleOtherCount: cfg.SampleOtherCount,
	})
	if err != nil {
		log.Fatalf("Failed to build reconciler: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ═══════════════════════════════════════════════════════
	// PHASE 3: Sample Group Bootstrap
	// ═══════════════════════════════════════════════════════
	log.Println("Selecting sample group...")
	bootCtx, cancelBoot := context.WithTimeout(ctx, 30*time.Second)
	if err := rec.Bootstrap(bootCtx); err != nil {
		log.Printf("Warning: sample selection failed, tracking primary group only: %v", err)
	}
	cancelBoot()

	// ═══════════════════════════════════════════════════════
	// PHASE 4: HTTP Server and Polling Loop
	// ═══════════════════════════════════════════════════════
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.New(server.Options{
			Source:         rec,
			Metrics:        collector,
			AllowedOrigins: cfg.AllowedOrigins,
			StaticDir:      cfg.StaticFilesDir,
			PollInterval:   cfg.PollInterval,
		}),
	}
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	rec.Run(ctx)

	// ═══════════════════════════════════════════════════════
	// PHASE 5: Graceful Shutdown
	// ═══════════════════════════════════════════════════════
	log.Println("Shutting down...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}

// warnIfStale logs the static data's age. Refresh stays an offline step
// (cmd/gtfs-convert); the service only warns.
func warnIfStale(cfg *config.Config) {
	manifest, err := schedule.ReadManifest(cfg.StaticDataDir)
	if err != nil {
		log.Printf("Warning: no schedule manifest: %v", err)
		return
	}

	generated, err := time.Parse(time.RFC3339, manifest.GeneratedAt)
	if err != nil {
		log.Printf("Warning: unreadable manifest timestamp %q", manifest.GeneratedAt)
		return
	}

	age := time.Since(generated)
	if age > time.Duration(cfg.StaticMaxAgeDays)*24*time.Hour {
		log.Printf("Warning: static schedule is %d days old, run gtfs-convert to refresh", int(age.Hours()/24))
		return
	}
	log.Printf("Static schedule generated %s", manifest.GeneratedAt)
}

func natsMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()  { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc() { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
		return
	}
	p.c.NATSConnected.Set(0)
}
