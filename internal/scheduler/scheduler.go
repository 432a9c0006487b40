package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/app"
	"github.com/cascadegear/storesync/internal/service/fulfillment"
	"github.com/cascadegear/storesync/internal/service/inventory"
	"github.com/cascadegear/storesync/internal/service/sales"
)

// The register's sales export covers every location, so the daily summary is
// filed under a combined store name.
const combinedSalesStore = "All Stores"

// A cycle's store and carrier calls all block; this bounds a wedged cycle
// without cancelling anything mid-operation.
const cycleTimeout = 4 * time.Minute

// Scheduler runs the fixed-interval polling worker: inventory sync, sales
// sync and order fulfillment in sequence, each fault-isolated. Cycles never
// overlap; a still-running cycle makes the next tick a no-op.
type Scheduler struct {
	cron           *cron.Cron
	app            *app.Context
	inventorySvc   *inventory.Service
	salesSvc       *sales.Service
	fulfillmentSvc *fulfillment.Service
	logger         *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(appCtx *app.Context, inventorySvc *inventory.Service, salesSvc *sales.Service, fulfillmentSvc *fulfillment.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:           cron.New(),
		app:            appCtx,
		inventorySvc:   inventorySvc,
		salesSvc:       salesSvc,
		fulfillmentSvc: fulfillmentSvc,
		logger:         logger,
	}
}

// Start schedules the polling cycle and begins ticking.
func (s *Scheduler) Start() error {
	interval := s.app.Config().Polling.IntervalSeconds
	spec := fmt.Sprintf("@every %ds", interval)

	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(s.RunCycle))
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("schedule polling cycle: %w", err)
	}

	s.logger.Info("polling worker started", zap.Int("interval_seconds", interval))
	s.cron.Start()
	return nil
}

// Stop stops scheduling new cycles. A cycle already running finishes; the
// stop takes effect between cycles.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping polling worker")
	s.cron.Stop()
}

// RunCycle executes one full cycle against the current configuration
// snapshot. Each step's error is logged at its own boundary and never
// terminates the loop.
func (s *Scheduler) RunCycle() {
	cfg := s.app.Config()

	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	if _, err := s.inventorySvc.Sync(ctx, cfg.Store.WatchFolder, cfg.Store.FilePattern); err != nil {
		s.logger.Error("inventory sync failed", zap.Error(err))
	}

	if _, err := s.salesSvc.Sync(ctx, cfg.Store.WatchFolder, cfg.Store.SalesFilePattern, combinedSalesStore); err != nil {
		s.logger.Error("sales sync failed", zap.Error(err))
	}

	processed, err := s.fulfillmentSvc.PollOnce(ctx, fulfillment.PollOptions{
		Location:        cfg.Store.Name,
		OutputDir:       cfg.Store.OutputDir,
		PrintingEnabled: cfg.Printing.Enabled,
		PrinterName:     cfg.Printing.PrinterName,
	})
	if err != nil {
		s.logger.Error("order fulfillment failed", zap.Error(err))
	} else if processed > 0 {
		s.logger.Info("orders processed this cycle", zap.Int("count", processed))
	}
}
