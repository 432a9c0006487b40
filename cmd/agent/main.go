package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/app"
	"github.com/cascadegear/storesync/internal/config"
	"github.com/cascadegear/storesync/internal/coordinator"
	"github.com/cascadegear/storesync/internal/printing"
	"github.com/cascadegear/storesync/internal/render"
	"github.com/cascadegear/storesync/internal/repository/exports"
	"github.com/cascadegear/storesync/internal/repository/supabase"
	"github.com/cascadegear/storesync/internal/scheduler"
	"github.com/cascadegear/storesync/internal/server/handlers"
	"github.com/cascadegear/storesync/internal/server/router"
	fulfillmentsvc "github.com/cascadegear/storesync/internal/service/fulfillment"
	inventorysvc "github.com/cascadegear/storesync/internal/service/inventory"
	salessvc "github.com/cascadegear/storesync/internal/service/sales"
	shippingsvc "github.com/cascadegear/storesync/internal/service/shipping"
	"github.com/cascadegear/storesync/internal/watch"
	"github.com/cascadegear/storesync/pkg/clients/fedex"
	"github.com/cascadegear/storesync/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	appCtx := app.New(cfg)

	store := supabase.NewClient(cfg.Supabase, baseLogger.Named("repo.supabase"))
	locator := watch.NewLocator(baseLogger.Named("watch"))
	reader := exports.NewReader(baseLogger.Named("repo.exports"))

	renderer := render.NewRenderer(baseLogger.Named("render"))
	dispatcher := printing.NewDispatcher(cfg.Printing.GhostscriptPath, baseLogger.Named("printing.dispatch"))
	printers := printing.NewPowerShellLister(baseLogger.Named("printing.list"))

	inventorySvc := inventorysvc.NewService(locator, reader, store, baseLogger.Named("svc.inventory"))
	salesSvc := salessvc.NewService(locator, reader, store, baseLogger.Named("svc.sales"))
	fulfillmentSvc := fulfillmentsvc.NewService(store, renderer, dispatcher, printers, baseLogger.Named("svc.fulfillment"))

	carrier := fedex.NewClient(cfg.FedEx, baseLogger.Named("clients.fedex"))
	shippingSvc := shippingsvc.NewService(store, carrier, dispatcher, printers, baseLogger.Named("svc.shipping"))

	console := coordinator.NewManager(baseLogger.Named("console"))
	coord := coordinator.New(appCtx.Mailbox, console, baseLogger.Named("coordinator"))

	sched := scheduler.NewScheduler(appCtx, inventorySvc, salesSvc, fulfillmentSvc, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start polling worker", zap.Error(err))
	}
	defer sched.Stop()

	adminHandler := handlers.NewAdminHandler(appCtx, sched, shippingSvc, console, baseLogger.Named("handlers.admin"))
	engine := router.New(adminHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         "127.0.0.1:" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go coord.Run(ctx)

	go func() {
		baseLogger.Info("admin server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("admin server crashed", zap.Error(err))
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
