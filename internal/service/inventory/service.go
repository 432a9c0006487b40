package inventory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/domain/models"
	"github.com/cascadegear/storesync/internal/repository/exports"
	"github.com/cascadegear/storesync/internal/repository/supabase"
	"github.com/cascadegear/storesync/internal/watch"
)

// Every inventory export carries two sentinel marker rows proving which
// location produced it. The primary-location marker must show quantity 1 and
// the secondary-location marker quantity 0 for the file to be trusted.
const (
	primaryMarkerName   = "toppenish"
	primaryMarkerSKU    = "99999"
	secondaryMarkerName = "yakima"
	secondaryMarkerSKU  = "9999"
)

// Verdict is the three-way outcome of marker validation.
type Verdict int

const (
	// VerdictValid means the export is from the primary location and safe to sync.
	VerdictValid Verdict = iota
	// VerdictWrongSource means the export belongs to the other location.
	VerdictWrongSource
	// VerdictUnmarked means one or both sentinel rows are missing.
	VerdictUnmarked
)

// Validation carries the verdict plus a human-readable reason.
type Validation struct {
	Verdict Verdict
	Reason  string
}

// Validate scans parsed export rows for the two sentinel markers and applies
// the decision table: primary=1 and secondary=0 is valid; secondary=1 means
// the wrong location's export; a missing marker means the file cannot be
// trusted at all.
func Validate(rows []exports.Row) Validation {
	var primaryQty, secondaryQty *int

	for _, row := range rows {
		name := strings.ToLower(row.String("Product Name"))
		sku := row.String("SKU")

		if strings.Contains(name, primaryMarkerName) && sku == primaryMarkerSKU {
			qty := row.Int("Total Stock")
			primaryQty = &qty
		}
		if strings.Contains(name, secondaryMarkerName) && sku == secondaryMarkerSKU {
			qty := row.Int("Total Stock")
			secondaryQty = &qty
		}
	}

	if primaryQty == nil || secondaryQty == nil {
		return Validation{Verdict: VerdictUnmarked, Reason: "no inventory ID markers found"}
	}

	if *primaryQty == 1 && *secondaryQty == 0 {
		return Validation{Verdict: VerdictValid, Reason: fmt.Sprintf("correct inventory file (Toppenish=%d, Yakima=%d)", *primaryQty, *secondaryQty)}
	}

	if *secondaryQty == 1 {
		return Validation{Verdict: VerdictWrongSource, Reason: fmt.Sprintf("wrong inventory file detected (Yakima=%d, Toppenish=%d)", *secondaryQty, *primaryQty)}
	}

	return Validation{Verdict: VerdictWrongSource, Reason: fmt.Sprintf("invalid marker quantities (Toppenish=%d, Yakima=%d)", *primaryQty, *secondaryQty)}
}

func isMarker(row exports.Row) bool {
	name := strings.ToLower(row.String("Product Name"))
	sku := row.String("SKU")
	return (strings.Contains(name, primaryMarkerName) && sku == primaryMarkerSKU) ||
		(strings.Contains(name, secondaryMarkerName) && sku == secondaryMarkerSKU)
}

// MapRecords converts export rows to canonical inventory records. Marker rows
// and rows without a SKU are dropped.
func MapRecords(rows []exports.Row) []models.InventoryRecord {
	records := make([]models.InventoryRecord, 0, len(rows))
	for _, row := range rows {
		if isMarker(row) {
			continue
		}
		sku := row.String("SKU")
		if sku == "" {
			continue
		}
		records = append(records, models.InventoryRecord{
			ProductName: row.String("Product Name"),
			SKU:         sku,
			Vendor:      row.String("Vendor"),
			Brand:       row.String("Brand"),
			Price:       row.Float("Price"),
			Cost:        row.Float("Cost"),
			TotalStock:  row.Int("Total Stock"),
			Committed:   row.Int("Committed"),
			OpenStock:   row.Int("Open Stock"),
			QtyOnOrder:  row.Int("Qty On Order"),
			GrossMargin: row.Percent("Gross Margin"),
			TotalRetail: row.Float("Total Retail"),
			TotalCost:   row.Float("Total Cost"),
		})
	}
	return records
}

// Service runs the locate -> validate -> upsert -> cleanup pipeline.
type Service struct {
	locator *watch.Locator
	reader  *exports.Reader
	store   supabase.Store
	logger  *zap.Logger
}

// NewService wires a new inventory synchronizer.
func NewService(locator *watch.Locator, reader *exports.Reader, store supabase.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{locator: locator, reader: reader, store: store, logger: logger}
}

// Sync locates the newest inventory export, validates its markers and upserts
// its records keyed by sku. Every candidate file is deleted after a committed
// upsert or a definitive rejection; a store failure leaves all files in place
// for the next cycle. Returns true when records were committed.
func (s *Service) Sync(ctx context.Context, folder, pattern string) (bool, error) {
	authoritative, candidates, err := s.locator.Locate(folder, pattern)
	if err != nil {
		return false, err
	}
	if authoritative == "" {
		return false, nil
	}

	s.logger.Info("inventory export found",
		zap.Int("candidates", len(candidates)),
		zap.String("authoritative", authoritative))

	rows, err := s.reader.ReadRows(authoritative)
	if err != nil {
		return false, fmt.Errorf("read inventory export: %w", err)
	}

	validation := Validate(rows)
	switch validation.Verdict {
	case VerdictWrongSource:
		s.logger.Warn("wrong inventory file, not syncing", zap.String("reason", validation.Reason))
		s.locator.DeleteAll(candidates)
		return false, nil
	case VerdictUnmarked:
		s.logger.Warn("unverified inventory file, not syncing", zap.String("reason", validation.Reason))
		s.locator.DeleteAll(candidates)
		return false, nil
	}

	records := MapRecords(rows)
	if len(records) == 0 {
		s.logger.Warn("no valid records in inventory export")
		return false, nil
	}

	if err := s.store.UpsertInventory(ctx, records); err != nil {
		// Files stay put so the next cycle can retry.
		return false, fmt.Errorf("sync inventory: %w", err)
	}

	s.logger.Info("inventory synced", zap.Int("records", len(records)))
	s.locator.DeleteAll(candidates)
	return true, nil
}
