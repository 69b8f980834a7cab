// Command server runs the compliance review engine's HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	actionhandler "lexaudit/internal/action/handler"
	actionmetrics "lexaudit/internal/action/metrics"
	actionservice "lexaudit/internal/action/service"
	actionstore "lexaudit/internal/action/store"
	compliancehandler "lexaudit/internal/compliance/handler"
	compliancemetrics "lexaudit/internal/compliance/metrics"
	complianceservice "lexaudit/internal/compliance/service"
	"lexaudit/internal/compliance/storage"
	compliancestore "lexaudit/internal/compliance/store"
	"lexaudit/internal/identity"
	"lexaudit/internal/platform/config"
	"lexaudit/internal/platform/httpserver"
	"lexaudit/internal/platform/logger"
	platformmetrics "lexaudit/internal/platform/metrics"
	"lexaudit/internal/platform/middleware"
	reviewhandler "lexaudit/internal/review/handler"
	reviewmetrics "lexaudit/internal/review/metrics"
	"lexaudit/internal/review/renderer"
	reviewservice "lexaudit/internal/review/service"
	reviewstore "lexaudit/internal/review/store"
	taxonomyhandler "lexaudit/internal/taxonomy/handler"
	taxonomyservice "lexaudit/internal/taxonomy/service"
	taxonomystore "lexaudit/internal/taxonomy/store"
	texthandler "lexaudit/internal/text/handler"
	textmetrics "lexaudit/internal/text/metrics"
	textservice "lexaudit/internal/text/service"
	textstore "lexaudit/internal/text/store"
	"lexaudit/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Error("ping database", "error", err.Error())
		os.Exit(1)
	}

	runner := tx.NewRunner(db)
	files := storage.NewDisk(cfg.StorageDir)

	texts := textstore.NewPostgres(db)
	reviews := reviewstore.NewPostgres(db)
	compliance := compliancestore.NewPostgres(db)
	actions := actionstore.NewPostgres(db)
	domains := taxonomystore.NewPostgres(db)

	cascade := textservice.NewCascadeDeleter(texts, reviews, compliance, actions, files, runner)

	reviewSvc := reviewservice.New(reviews, texts, domains,
		renderer.NewFile(cfg.StorageDir), runner, reviewmetrics.New())
	complianceSvc := complianceservice.New(compliance, texts, files, runner, compliancemetrics.New())
	textSvc := textservice.New(texts, domains, cascade, textmetrics.New())
	actionSvc := actionservice.New(actions, texts, runner, actionmetrics.New())
	taxonomySvc := taxonomyservice.New(domains, texts)

	httpMetrics := platformmetrics.New()
	resolver := identity.NewResolver(cfg.JWTSigningKey)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(config.RequestTimeout))
	router.Use(httpMetrics.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor(resolver, log))
		reviewhandler.New(reviewSvc, log).Register(r)
		compliancehandler.New(complianceSvc, log).Register(r)
		texthandler.New(textSvc, log).Register(r)
		actionhandler.New(actionSvc, log).Register(r)
		taxonomyhandler.New(taxonomySvc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
