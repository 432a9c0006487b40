package shipping

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/config"
	"github.com/cascadegear/storesync/internal/domain/models"
	"github.com/cascadegear/storesync/internal/printing"
	"github.com/cascadegear/storesync/internal/repository/supabase"
	"github.com/cascadegear/storesync/pkg/clients/fedex"
)

// ErrTrackingExists means the order already carries a tracking number and the
// caller did not explicitly allow a reissue. Issuing a second label is always
// a confirmable operation, never an automatic overwrite.
var ErrTrackingExists = errors.New("order already has a tracking number")

// ErrNotConfigured means carrier credentials are missing from configuration.
var ErrNotConfigured = errors.New("fedex credentials not configured")

// ErrNoShippingAddress means the order has no carrier destination.
var ErrNoShippingAddress = errors.New("order has no shipping address")

// IssueParams describes one operator-initiated label issuance.
type IssueParams struct {
	OrderID      string
	WeightLB     float64 // 0 derives the weight from the order items
	AllowReissue bool
}

// LabelResult reports a completed issuance.
type LabelResult struct {
	TrackingNumber string
	LabelPath      string
	Printed        bool
}

// Dispatcher submits a label document to a named printer queue.
type Dispatcher interface {
	Send(ctx context.Context, pdfPath, printerName string) error
}

// Service issues carrier shipping labels for orders with shipping lines.
type Service struct {
	store      supabase.Store
	carrier    fedex.Client
	dispatcher Dispatcher
	printers   printing.Lister
	logger     *zap.Logger
}

// NewService wires a new shipping label issuer.
func NewService(store supabase.Store, carrier fedex.Client, dispatcher Dispatcher, printers printing.Lister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, carrier: carrier, dispatcher: dispatcher, printers: printers, logger: logger}
}

// IssueLabel authenticates with the carrier, creates a shipment for the
// order, writes the label artifact to the output directory and persists the
// tracking number. The order's previous tracking number is left untouched
// until the new one is confirmed persisted.
func (s *Service) IssueLabel(ctx context.Context, cfg *config.Config, params IssueParams) (*LabelResult, error) {
	if cfg.FedEx.APIKey == "" || cfg.FedEx.SecretKey == "" || cfg.FedEx.AccountNumber == "" {
		return nil, ErrNotConfigured
	}

	order, err := s.store.GetOrder(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}

	if order.ShippingAddr == nil {
		return nil, ErrNoShippingAddress
	}
	if order.TrackingNumber != "" && !params.AllowReissue {
		return nil, fmt.Errorf("%w: %s", ErrTrackingExists, order.TrackingNumber)
	}

	shipFrom := ShipFromLocation(cfg.Store.Name, *order)
	shipper, ok := cfg.FedEx.Shippers[shipFrom]
	if !ok || shipper.Street == "" {
		return nil, fmt.Errorf("no shipper profile configured for %s", shipFrom)
	}

	weight := params.WeightLB
	if weight <= 0 {
		weight = EstimateWeight(*order)
	}

	token, err := s.carrier.Token(ctx)
	if err != nil {
		return nil, err
	}

	shipment, err := s.carrier.CreateShipment(ctx, token, fedex.ShipmentParams{
		Shipper: shipper,
		Recipient: fedex.Recipient{
			Name:     order.CustomerName(),
			Phone:    order.Phone,
			Address1: order.ShippingAddr.Address1,
			Address2: order.ShippingAddr.Address2,
			City:     order.ShippingAddr.City,
			State:    order.ShippingAddr.State,
			Zip:      order.ShippingAddr.ZipCode,
		},
		WeightLB: weight,
	})
	if err != nil {
		return nil, err
	}

	result := &LabelResult{TrackingNumber: shipment.TrackingNumber}

	if len(shipment.Label) > 0 {
		labelPath, err := s.saveLabel(cfg.Store.OutputDir, order.OrderNumber, shipment.Label)
		if err != nil {
			return nil, err
		}
		result.LabelPath = labelPath
	}

	if shipment.TrackingNumber != "" {
		if err := s.store.SetTrackingNumber(ctx, order.ID, shipment.TrackingNumber); err != nil {
			return nil, fmt.Errorf("persist tracking number: %w", err)
		}
	}

	if cfg.Printing.PrinterName != "" && result.LabelPath != "" {
		printer := printing.Resolve(cfg.Printing.PrinterName, s.printers.AvailablePrinters())
		if err := s.dispatcher.Send(ctx, result.LabelPath, printer); err != nil {
			// Label and tracking are already durable; printing is best-effort here.
			s.logger.Warn("label created but failed to print",
				zap.String("order", order.OrderNumber),
				zap.String("label", result.LabelPath),
				zap.Error(err))
		} else {
			result.Printed = true
		}
	}

	s.logger.Info("shipping label issued",
		zap.String("order", order.OrderNumber),
		zap.String("tracking", result.TrackingNumber),
		zap.Float64("weight_lb", weight),
		zap.String("ship_from", shipFrom))
	return result, nil
}

func (s *Service) saveLabel(outDir, orderNumber string, label []byte) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("shipping_label_%s_%s.pdf", orderNumber, time.Now().Format("20060102_150405"))
	path := filepath.Join(outDir, filename)
	if err := os.WriteFile(path, label, 0o644); err != nil {
		return "", fmt.Errorf("save label: %w", err)
	}
	return path, nil
}

// ShipFromLocation picks the carrier "from" location: the configured store
// when it names a real site, else any location carried on the order or its
// shipping lines, else Toppenish.
func ShipFromLocation(storeName string, order models.Order) string {
	switch strings.ToLower(strings.TrimSpace(storeName)) {
	case "yakima":
		return models.LocationYakima
	case "toppenish":
		return models.LocationToppenish
	}

	switch strings.ToLower(strings.TrimSpace(order.OrderLocation)) {
	case "yakima":
		return models.LocationYakima
	case "toppenish":
		return models.LocationToppenish
	}

	for _, item := range order.Items {
		if item.Fulfillment.Shipping != nil && item.Fulfillment.Shipping.ShipFrom != "" {
			return item.Fulfillment.Shipping.ShipFrom
		}
	}

	return models.LocationToppenish
}

// EstimateWeight derives a package weight from the order lines: half a pound
// per unit when the item carries no weight, one pound minimum.
func EstimateWeight(order models.Order) float64 {
	var total float64
	for _, item := range order.Items {
		weight := item.Weight
		if weight <= 0 {
			weight = 0.5
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += weight * float64(qty)
	}
	if total < 1 {
		total = 1.0
	}
	return math.Round(total*10) / 10
}
