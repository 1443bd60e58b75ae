package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/config"
	"github.com/agrovida/hidrofresa/internal/livefeed"
	"github.com/agrovida/hidrofresa/internal/notify"
	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
	"github.com/agrovida/hidrofresa/internal/repository/sheets"
	"github.com/agrovida/hidrofresa/internal/scheduler"
	"github.com/agrovida/hidrofresa/internal/server/handlers"
	"github.com/agrovida/hidrofresa/internal/server/router"
	authsvc "github.com/agrovida/hidrofresa/internal/service/auth"
	catalogsvc "github.com/agrovida/hidrofresa/internal/service/catalog"
	recordsvc "github.com/agrovida/hidrofresa/internal/service/records"
	reportingsvc "github.com/agrovida/hidrofresa/internal/service/reporting"
	"github.com/agrovida/hidrofresa/internal/service/session"
	tasksvc "github.com/agrovida/hidrofresa/internal/service/tasks"
	"github.com/agrovida/hidrofresa/pkg/clients/gemini"
	"github.com/agrovida/hidrofresa/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	docs, err := mongodb.NewDocumentStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, cfg.MongoDB.AppID)
	if err != nil {
		baseLogger.Fatal("failed to init document store", zap.Error(err))
	}
	defer func() {
		if err := docs.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	hub := livefeed.NewHub(baseLogger.Named("livefeed"))
	docs.SetEventSink(hub)

	notifyCenter := notify.NewCenter(hub, baseLogger.Named("notify"))

	photos, err := mongodb.NewPhotoStore(docs.Client(), cfg.MongoDB.DBName, cfg.MongoDB.AppID)
	if err != nil {
		baseLogger.Fatal("failed to init photo store", zap.Error(err))
	}

	var aiClient gemini.Client
	if cfg.AI.GeminiKey != "" {
		aiClient = gemini.NewClient(cfg.AI.GeminiKey)
		baseLogger.Info("gemini ai client enabled")
	} else {
		baseLogger.Warn("gemini api key missing, ai suggestions disabled")
	}

	var exporter sheets.Exporter
	if cfg.Sheets.SpreadsheetID != "" {
		exporter, err = sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
	}

	tokenTTL, err := time.ParseDuration(cfg.Auth.TokenTTL)
	if err != nil {
		baseLogger.Fatal("invalid JWT_TOKEN_TTL", zap.Error(err))
	}

	authService := authsvc.NewService(docs, cfg.Auth.JWTSecret, tokenTTL, baseLogger.Named("svc.auth"))
	sessions := session.NewStore(docs, notifyCenter, baseLogger.Named("svc.session"))
	catalogService := catalogsvc.NewService(docs, baseLogger.Named("svc.catalog"))
	recordService := recordsvc.NewService(docs, aiClient, baseLogger.Named("svc.records"))
	taskService := tasksvc.NewService(docs, aiClient, baseLogger.Named("svc.tasks"))
	reportingService := reportingsvc.NewService(docs, exporter, baseLogger.Named("svc.reporting"))

	engine := router.New(router.Handlers{
		Auth:    handlers.NewAuthHandler(authService, sessions, baseLogger.Named("handlers.auth")),
		Catalog: handlers.NewCatalogHandler(catalogService, docs, baseLogger.Named("handlers.catalog")),
		Records: handlers.NewRecordsHandler(recordService, notifyCenter, baseLogger.Named("handlers.records")),
		Tasks:   handlers.NewTasksHandler(taskService, notifyCenter, baseLogger.Named("handlers.tasks")),
		Reports: handlers.NewReportsHandler(reportingService, baseLogger.Named("handlers.reports")),
		Users:   handlers.NewUsersHandler(sessions, baseLogger.Named("handlers.users")),
		Stream:  handlers.NewStreamHandler(hub, notifyCenter, baseLogger.Named("handlers.stream")),
		Files:   handlers.NewFilesHandler(photos, baseLogger.Named("handlers.files")),
	}, authService, docs, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingService, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     engine,
		ReadTimeout: 15 * time.Second,
		// Write timeout stays off so live event streams can outlive it;
		// regular handlers are bounded by their own contexts.
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
