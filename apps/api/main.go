package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	activitieshandler "github.com/zenGate-Global/wedding-admin/domains/activities/be/handler"
	activitiesrepo "github.com/zenGate-Global/wedding-admin/domains/activities/be/repo"
	activitiesservice "github.com/zenGate-Global/wedding-admin/domains/activities/be/service"
	contentpageshandler "github.com/zenGate-Global/wedding-admin/domains/content-pages/be/handler"
	contentpagesrepo "github.com/zenGate-Global/wedding-admin/domains/content-pages/be/repo"
	contentpagesservice "github.com/zenGate-Global/wedding-admin/domains/content-pages/be/service"
	eventshandler "github.com/zenGate-Global/wedding-admin/domains/events/be/handler"
	eventsrepo "github.com/zenGate-Global/wedding-admin/domains/events/be/repo"
	eventsservice "github.com/zenGate-Global/wedding-admin/domains/events/be/service"
	reportshandler "github.com/zenGate-Global/wedding-admin/domains/reports/be/handler"
	reportsrepo "github.com/zenGate-Global/wedding-admin/domains/reports/be/repo"
	reportsservice "github.com/zenGate-Global/wedding-admin/domains/reports/be/service"
	rsvpshandler "github.com/zenGate-Global/wedding-admin/domains/rsvps/be/handler"
	rsvpsrepo "github.com/zenGate-Global/wedding-admin/domains/rsvps/be/repo"
	rsvpsservice "github.com/zenGate-Global/wedding-admin/domains/rsvps/be/service"
	sectionshandler "github.com/zenGate-Global/wedding-admin/domains/sections/be/handler"
	sectionsrepo "github.com/zenGate-Global/wedding-admin/domains/sections/be/repo"
	sectionsservice "github.com/zenGate-Global/wedding-admin/domains/sections/be/service"
	platformlogging "github.com/zenGate-Global/wedding-admin/platform/go/logging"
	platformmiddleware "github.com/zenGate-Global/wedding-admin/platform/go/middleware"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
)

func main() {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "wedding-admin-api",
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.AutoMigrate {
		if err := persistence.MigrateUp(persistence.MigrationConfig{DatabaseURL: cfg.DatabaseURL, Schema: cfg.DatabaseSchema}); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString:      cfg.DatabaseURL,
		Schema:          cfg.DatabaseSchema,
		ApplicationName: "wedding-admin-api",
		MaxConns:        cfg.DatabaseMaxConns,
	})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)
	db := persistence.NewDB(pool)

	publisher, err := buildPublisher(cfg, logger)
	if err != nil {
		logger.Fatal("init event publisher", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close event publisher", zap.Error(err))
		}
	}()

	reportCache, redisClient, err := buildCache(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	archive, archiveCloser, err := buildArchive(ctx, cfg)
	if err != nil {
		logger.Fatal("init export archive", zap.Error(err))
	}
	defer archiveCloser.Close()

	pageStore, err := persistence.NewContentPageStore(db)
	if err != nil {
		logger.Fatal("init content page store", zap.Error(err))
	}
	sectionStore, err := persistence.NewSectionStore(db)
	if err != nil {
		logger.Fatal("init section store", zap.Error(err))
	}
	eventStore, err := persistence.NewEventStore(db)
	if err != nil {
		logger.Fatal("init event store", zap.Error(err))
	}
	activityStore, err := persistence.NewActivityStore(db)
	if err != nil {
		logger.Fatal("init activity store", zap.Error(err))
	}
	rsvpStore, err := persistence.NewRSVPStore(db)
	if err != nil {
		logger.Fatal("init rsvp store", zap.Error(err))
	}

	pageService := contentpagesservice.New(contentpagesrepo.NewPostgresRepository(pageStore), publisher)
	sectionService := sectionsservice.New(sectionsrepo.NewPostgresRepository(sectionStore))
	eventService := eventsservice.New(eventsrepo.NewPostgresRepository(eventStore), publisher)
	activityService := activitiesservice.New(activitiesrepo.NewPostgresRepository(activityStore), publisher, reportCache)
	rsvpService := rsvpsservice.New(rsvpsrepo.NewPostgresRepository(rsvpStore, activityStore), publisher, reportCache)
	reportService := reportsservice.New(reportsrepo.NewPostgresRepository(activityStore, rsvpStore), reportCache, archive, cfg.ReportCacheTTL)

	var exportMiddleware []func(http.Handler) http.Handler
	if redisClient != nil {
		exportMiddleware = append(exportMiddleware, platformmiddleware.RateLimit(redisClient, platformmiddleware.RateLimitConfig{
			Name:   "rsvp-export",
			Limit:  cfg.ExportRateLimit,
			Window: cfg.ExportRateWindow,
		}, logger))
	}

	authMiddleware, err := buildAuthMiddleware(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init auth", zap.Error(err))
	}

	readiness := map[string]readinessCheck{"postgres": db.Ping}
	if redisClient != nil {
		readiness["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if archive != nil {
		readiness["storage"] = archive.Check
	}

	router, err := newRouter(routerDeps{
		auth:           authMiddleware,
		corsOrigins:    cfg.CORSAllowedOrigins,
		requestTimeout: cfg.RequestTimeout,
		readiness:      readiness,
		domains: map[string]routeRegistrar{
			"content-pages": contentpageshandler.New(pageService, logger),
			"sections":      sectionshandler.New(sectionService, logger),
			"events":        eventshandler.New(eventService, logger),
			"activities":    activitieshandler.New(activityService, logger),
			"rsvps":         rsvpshandler.New(rsvpService, logger),
			"reports":       reportshandler.New(reportService, logger, exportMiddleware...),
		},
	}, logger)
	if err != nil {
		logger.Fatal("build router", zap.Error(err))
	}

	scheduler, err := startScheduler(
		cfg.CapacityAlertSchedule,
		newCapacityAlertJob(rsvpService, publisher, cfg.CapacityAlertThreshold, logger.Named("jobs")),
		logger,
	)
	if err != nil {
		logger.Fatal("schedule background jobs", zap.Error(err))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	<-scheduler.Stop().Done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
