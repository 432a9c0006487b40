package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/domain/models"
	"github.com/cascadegear/storesync/internal/repository/exports"
	"github.com/cascadegear/storesync/internal/repository/supabase"
	"github.com/cascadegear/storesync/internal/watch"
)

const (
	transIDColumn = "Trans ID"
	totalRowLabel = "Total"
	dateLayout    = "2006-01-02"
)

// dateLayouts are tried in order against the register's Date column.
var dateLayouts = []string{"01/02/2006", "1/2/2006", "2006-01-02", "01-02-2006"}

// ErrNoTransactions means the export held no transaction rows to aggregate.
var ErrNoTransactions = errors.New("no transaction rows found in sales export")

// Aggregate reduces one day of register transactions to a single summary.
// The synthetic Total row, when present, supplies the totals directly;
// otherwise they are summed from the transaction rows (the two paths agree,
// the Total row is just a cross-check the register provides).
func Aggregate(rows []exports.Row, storeName string) (*models.DailySalesSummary, error) {
	var totalRow exports.Row
	transactions := make([]exports.Row, 0, len(rows))
	for _, row := range rows {
		if row.String(transIDColumn) == totalRowLabel {
			if totalRow == nil {
				totalRow = row
			}
			continue
		}
		transactions = append(transactions, row)
	}

	if len(transactions) == 0 {
		return nil, ErrNoTransactions
	}

	reportDate := parseReportDate(transactions[0].String("Date"))

	source := transactions
	if totalRow != nil {
		source = []exports.Row{totalRow}
	}

	var qtySold int
	sales := decimal.Zero
	cogs := decimal.Zero
	grossProfit := decimal.Zero
	discounts := decimal.Zero
	tax := decimal.Zero
	receipts := decimal.Zero
	for _, row := range source {
		qtySold += row.Int("Qty Sold")
		sales = sales.Add(decimal.NewFromFloat(row.Float("Sales")))
		cogs = cogs.Add(decimal.NewFromFloat(row.Float("COGS")))
		grossProfit = grossProfit.Add(decimal.NewFromFloat(row.Float("Gross Profit")))
		discounts = discounts.Add(decimal.NewFromFloat(row.Float("Disc&Mkd")))
		tax = tax.Add(decimal.NewFromFloat(row.Float("Tax")))
		receipts = receipts.Add(decimal.NewFromFloat(row.Float("Receipt Total")))
	}

	avgMargin := decimal.Zero
	if sales.IsPositive() {
		avgMargin = grossProfit.Div(sales).Mul(decimal.NewFromInt(100))
	}

	return &models.DailySalesSummary{
		StoreName:         storeName,
		ReportDate:        reportDate.Format(dateLayout),
		TotalTransactions: len(transactions),
		TotalQtySold:      qtySold,
		TotalSales:        round2(sales),
		TotalCOGS:         round2(cogs),
		TotalGrossProfit:  round2(grossProfit),
		AvgGrossMargin:    round2(avgMargin),
		TotalDiscounts:    round2(discounts),
		TotalTax:          round2(tax),
		TotalReceipts:     round2(receipts),
	}, nil
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func parseReportDate(value string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	// Unparseable register dates fall back to today.
	return time.Now()
}

// Service runs the locate -> aggregate -> upsert -> cleanup pipeline for the
// daily sales export.
type Service struct {
	locator *watch.Locator
	reader  *exports.Reader
	store   supabase.Store
	logger  *zap.Logger
}

// NewService wires a new sales aggregator.
func NewService(locator *watch.Locator, reader *exports.Reader, store supabase.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{locator: locator, reader: reader, store: store, logger: logger}
}

// Sync processes the newest sales export into one daily summary keyed by
// (store, date). A parse failure upserts nothing and keeps the files; after a
// committed upsert every candidate file is deleted.
func (s *Service) Sync(ctx context.Context, folder, pattern, storeName string) (bool, error) {
	authoritative, candidates, err := s.locator.Locate(folder, pattern)
	if err != nil {
		return false, err
	}
	if authoritative == "" {
		return false, nil
	}

	s.logger.Info("sales export found", zap.String("authoritative", authoritative))

	rows, err := s.reader.ReadRows(authoritative)
	if err != nil {
		return false, fmt.Errorf("read sales export: %w", err)
	}

	summary, err := Aggregate(rows, storeName)
	if err != nil {
		return false, fmt.Errorf("process sales export: %w", err)
	}

	if err := s.store.UpsertDailySales(ctx, *summary); err != nil {
		return false, fmt.Errorf("sync sales: %w", err)
	}

	s.logger.Info("sales synced",
		zap.String("report_date", summary.ReportDate),
		zap.Int("transactions", summary.TotalTransactions),
		zap.Float64("receipts", summary.TotalReceipts))
	s.locator.DeleteAll(candidates)
	return true, nil
}
