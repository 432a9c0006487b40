package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/domain/models"
	"github.com/cascadegear/storesync/internal/printing"
	"github.com/cascadegear/storesync/internal/repository/supabase"
)

// Renderer produces the printable order document.
type Renderer interface {
	Invoice(order models.Order, outDir string) (string, error)
}

// Dispatcher submits a rendered document to a named printer queue.
type Dispatcher interface {
	Send(ctx context.Context, pdfPath, printerName string) error
}

// PollOptions is the per-cycle configuration snapshot the engine works from.
type PollOptions struct {
	Location        string
	OutputDir       string
	PrintingEnabled bool
	PrinterName     string
}

// Service discovers unprinted orders and drives each one through document
// rendering, printer dispatch and the durable printed commit.
type Service struct {
	store      supabase.Store
	renderer   Renderer
	dispatcher Dispatcher
	printers   printing.Lister
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires a new order fulfillment engine.
func NewService(store supabase.Store, renderer Renderer, dispatcher Dispatcher, printers printing.Lister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		renderer:   renderer,
		dispatcher: dispatcher,
		printers:   printers,
		logger:     logger,
		now:        time.Now,
	}
}

// PollOnce queries the remote store for unprinted orders scoped to this
// location and processes each independently. A failed order is logged and
// skipped; it stays unprinted and is picked up again on the next poll, with
// no retry cap. Returns the number of orders fully processed.
func (s *Service) PollOnce(ctx context.Context, opts PollOptions) (int, error) {
	orders, err := s.store.ListUnprintedOrders(ctx, opts.Location)
	if err != nil {
		return 0, fmt.Errorf("poll orders: %w", err)
	}
	if len(orders) == 0 {
		return 0, nil
	}

	s.logger.Info("unprinted orders found",
		zap.Int("count", len(orders)),
		zap.String("location", opts.Location))

	processed := 0
	for _, order := range orders {
		if err := s.processOrder(ctx, order, opts); err != nil {
			s.logger.Error("order processing failed",
				zap.String("order", order.OrderNumber),
				zap.Error(err))
			continue
		}
		processed++
		s.logger.Info("order processed", zap.String("order", order.OrderNumber))
	}

	return processed, nil
}

// processOrder renders the document, dispatches it when printing is enabled,
// and only then commits printed=true. Any failure before the commit leaves
// the order unprinted for the next poll.
func (s *Service) processOrder(ctx context.Context, order models.Order, opts PollOptions) error {
	pdfPath, err := s.renderer.Invoice(order, opts.OutputDir)
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}

	if opts.PrintingEnabled {
		printer := printing.Resolve(opts.PrinterName, s.printers.AvailablePrinters())
		if err := s.dispatcher.Send(ctx, pdfPath, printer); err != nil {
			return fmt.Errorf("print dispatch: %w", err)
		}
	}

	return s.commitPrinted(ctx, order.ID, pdfPath)
}

// commitPrinted attempts the full field set, degrading once to the reduced
// set when the store's schema does not know pdf_path.
func (s *Service) commitPrinted(ctx context.Context, orderID, pdfPath string) error {
	printedAt := s.now()

	err := s.store.MarkPrinted(ctx, orderID, printedAt, pdfPath)
	if err == nil {
		return nil
	}

	var schemaErr *supabase.SchemaError
	if !errors.As(err, &schemaErr) {
		return fmt.Errorf("mark printed: %w", err)
	}

	s.logger.Warn("store rejected field, retrying with reduced set",
		zap.String("column", schemaErr.Column))
	if err := s.store.MarkPrintedBasic(ctx, orderID, printedAt); err != nil {
		return fmt.Errorf("mark printed (reduced): %w", err)
	}
	return nil
}
