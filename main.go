package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aouyang1/framesaver/api"
	"github.com/aouyang1/framesaver/config"
	"github.com/aouyang1/framesaver/geo"
	"github.com/aouyang1/framesaver/locale"
	"github.com/aouyang1/framesaver/logger"
	"github.com/aouyang1/framesaver/metrics"
	"github.com/aouyang1/framesaver/slideshow"
	"github.com/aouyang1/framesaver/source"
	"github.com/aouyang1/framesaver/store"
	"github.com/aouyang1/framesaver/surface"
	"github.com/aouyang1/framesaver/view"
	"github.com/aouyang1/framesaver/wlrrandr"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()
	logger.SetupDefault(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	database, err := store.NewDatabase(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	catalog, err := locale.Load(cfg.GeoLanguage)
	if err != nil {
		log.Fatalf("Failed to load messages: %v", err)
	}

	geoClient, err := geo.NewClient(&http.Client{Timeout: 15 * time.Second}, cfg.GeoURL, catalog.Lang())
	if err != nil {
		log.Fatalf("Failed to initialize geo client: %v", err)
	}
	geoClient.OnLookup(collector.RecordGeoLookup)

	// Photo sources
	registry := source.NewRegistry()
	localSource, err := source.NewLocalSource(cfg.LocalPath(), database)
	if err != nil {
		slog.Warn("local photos disabled", "path", cfg.LocalPath(), "error", err)
	} else {
		registry.Register(localSource)
	}
	if cfg.S3Enabled() {
		s3Source, err := source.NewS3Source(ctx, cfg.AWSProfile, cfg.S3Bucket, cfg.PresignExpiry, database)
		if err != nil {
			log.Fatalf("Failed to initialize s3 source: %v", err)
		}
		registry.Register(s3Source)
	} else {
		slog.Info("no s3 bucket configured, using local photos only")
	}

	display := wlrrandr.NewDisplay(cfg.OutputName)
	screen := view.Screen{Width: cfg.ScreenWidth, Height: cfg.ScreenHeight}
	if w, h, err := display.Size(); err != nil {
		slog.Warn("unable to read display size, using configured size", "width", screen.Width, "height", screen.Height, "error", err)
	} else {
		screen = view.Screen{Width: w, Height: h}
	}

	hub := surface.NewHub()
	views := slideshow.NewViewSet(view.Deps{
		Prefs:    database,
		Locale:   catalog,
		Geo:      geoClient,
		Reporter: collector,
	}, hub, screen)

	show, err := slideshow.New(slideshow.Options{
		Prefs:     database,
		Locale:    catalog,
		Refresher: registry,
		Loader:    registry,
		Views:     views,
		Publisher: hub,
		Display:   display,
		Recorder:  collector,
		Reporter:  collector,
		Screen:    screen,
	})
	if err != nil {
		log.Fatalf("Failed to initialize slideshow: %v", err)
	}
	hub.OnErrorChanged(func(slot int) { show.OnErrorChanged(ctx, slot) })
	hub.OnReady(func() { show.OnLoad(ctx) })

	scheduleManager, err := api.NewScheduleManager(database, display, show)
	if err != nil {
		log.Fatalf("Failed to initialize schedule manager: %v", err)
	}
	go scheduleManager.Run(ctx)

	// Initialize and start web server
	webServer, err := api.NewWebServer(api.Options{
		DB:       database,
		Show:     show,
		Display:  display,
		Surface:  hub,
		Local:    localSource,
		Gatherer: prometheus.DefaultGatherer,
	})
	if err != nil {
		log.Fatalf("Failed to initialize web server: %v", err)
	}

	if err := webServer.Start(ctx, cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
	slog.Info("shut down")
}
