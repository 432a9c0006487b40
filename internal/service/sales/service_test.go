package sales

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cascadegear/storesync/internal/domain/models"
	"github.com/cascadegear/storesync/internal/repository/exports"
	"github.com/cascadegear/storesync/internal/watch"
)

type mockStore struct {
	sales      []models.DailySalesSummary
	failUpsert error
}

func (m *mockStore) UpsertInventory(context.Context, []models.InventoryRecord) error { return nil }

func (m *mockStore) UpsertDailySales(_ context.Context, summary models.DailySalesSummary) error {
	if m.failUpsert != nil {
		return m.failUpsert
	}
	m.sales = append(m.sales, summary)
	return nil
}

func (m *mockStore) ListUnprintedOrders(context.Context, string) ([]models.Order, error) {
	return nil, nil
}
func (m *mockStore) GetOrder(context.Context, string) (*models.Order, error)       { return nil, nil }
func (m *mockStore) MarkPrinted(context.Context, string, time.Time, string) error  { return nil }
func (m *mockStore) MarkPrintedBasic(context.Context, string, time.Time) error     { return nil }
func (m *mockStore) SetTrackingNumber(context.Context, string, string) error       { return nil }

var salesHeader = []any{
	"Trans ID", "Date", "Qty Sold", "Sales", "COGS",
	"Gross Profit", "Disc&Mkd", "Tax", "Receipt Total",
}

func transaction(id, date string, qty int, sales, cogs, gp, disc, tax, receipt string) []any {
	return []any{id, date, qty, sales, cogs, gp, disc, tax, receipt}
}

func writeSalesExport(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()
	file := excelize.NewFile()
	sheet := file.GetSheetName(0)
	all := append([][]any{salesHeader}, rows...)
	for i, cells := range all {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, file.SetSheetRow(sheet, addr, &cells))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, file.SaveAs(path))
	require.NoError(t, file.Close())
	return path
}

func readRows(t *testing.T, path string) []exports.Row {
	t.Helper()
	rows, err := exports.NewReader(nil).ReadRows(path)
	require.NoError(t, err)
	return rows
}

func TestAggregate_TotalRowSuppliesTotals(t *testing.T) {
	dir := t.TempDir()
	path := writeSalesExport(t, dir, "Sales by Transaction.xlsx", [][]any{
		transaction("1001", "06/15/2026", 2, "$2,250.00", "$1,650.00", "$600.00", "$10.00", "$191.25", "$2,441.25"),
		transaction("1002", "06/15/2026", 3, "$2,250.00", "$1,650.00", "$600.00", "$5.00", "$191.25", "$2,441.25"),
		transaction("Total", "", 5, "$4,500.00", "$3,300.00", "$1,200.00", "$15.00", "$382.50", "$4,882.50"),
	})

	summary, err := Aggregate(readRows(t, path), "All Stores")
	require.NoError(t, err)

	assert.Equal(t, "All Stores", summary.StoreName)
	assert.Equal(t, "2026-06-15", summary.ReportDate)
	assert.Equal(t, 2, summary.TotalTransactions, "the Total row is not a transaction")
	assert.Equal(t, 5, summary.TotalQtySold)
	assert.InDelta(t, 4500.0, summary.TotalSales, 0.001)
	assert.InDelta(t, 3300.0, summary.TotalCOGS, 0.001)
	assert.InDelta(t, 1200.0, summary.TotalGrossProfit, 0.001)
	assert.InDelta(t, 26.67, summary.AvgGrossMargin, 0.001)
	assert.InDelta(t, 15.0, summary.TotalDiscounts, 0.001)
	assert.InDelta(t, 382.5, summary.TotalTax, 0.001)
	assert.InDelta(t, 4882.5, summary.TotalReceipts, 0.001)
}

func TestAggregate_SumsTransactionsWithoutTotalRow(t *testing.T) {
	dir := t.TempDir()
	path := writeSalesExport(t, dir, "Sales by Transaction.xlsx", [][]any{
		transaction("1001", "6/5/2026", 1, "$100.10", "$60.00", "$40.10", "$0.00", "$8.51", "$108.61"),
		transaction("1002", "6/5/2026", 2, "$200.20", "$120.00", "$80.20", "$0.00", "$17.02", "$217.22"),
	})

	summary, err := Aggregate(readRows(t, path), "All Stores")
	require.NoError(t, err)

	assert.Equal(t, "2026-06-05", summary.ReportDate)
	assert.Equal(t, 2, summary.TotalTransactions)
	assert.Equal(t, 3, summary.TotalQtySold)
	assert.InDelta(t, 300.30, summary.TotalSales, 0.001)
	assert.InDelta(t, 120.30, summary.TotalGrossProfit, 0.001)
	assert.InDelta(t, 40.06, summary.AvgGrossMargin, 0.001)
	assert.InDelta(t, 325.83, summary.TotalReceipts, 0.001)
}

func TestAggregate_ZeroSalesZeroMargin(t *testing.T) {
	dir := t.TempDir()
	path := writeSalesExport(t, dir, "Sales by Transaction.xlsx", [][]any{
		transaction("1001", "06/15/2026", 0, "$0.00", "$0.00", "$0.00", "$0.00", "$0.00", "$0.00"),
	})

	summary, err := Aggregate(readRows(t, path), "All Stores")
	require.NoError(t, err)
	assert.Zero(t, summary.AvgGrossMargin)
}

func TestAggregate_NoTransactions(t *testing.T) {
	dir := t.TempDir()
	path := writeSalesExport(t, dir, "Sales by Transaction.xlsx", [][]any{
		transaction("Total", "", 0, "$0.00", "$0.00", "$0.00", "$0.00", "$0.00", "$0.00"),
	})

	_, err := Aggregate(readRows(t, path), "All Stores")
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestAggregate_ISODateAccepted(t *testing.T) {
	dir := t.TempDir()
	path := writeSalesExport(t, dir, "Sales by Transaction.xlsx", [][]any{
		transaction("1001", "2026-06-15", 1, "$10.00", "$6.00", "$4.00", "$0.00", "$0.85", "$10.85"),
	})

	summary, err := Aggregate(readRows(t, path), "All Stores")
	require.NoError(t, err)
	assert.Equal(t, "2026-06-15", summary.ReportDate)
}

func TestSync_CommitsAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	writeSalesExport(t, dir, "Sales by Transaction (1).xlsx", [][]any{
		transaction("1001", "06/15/2026", 1, "$10.00", "$6.00", "$4.00", "$0.00", "$0.85", "$10.85"),
	})

	store := &mockStore{}
	svc := NewService(watch.NewLocator(nil), exports.NewReader(nil), store, nil)
	synced, err := svc.Sync(context.Background(), dir, "Sales by Transaction", "All Stores")
	require.NoError(t, err)
	assert.True(t, synced)

	require.Len(t, store.sales, 1)
	assert.Equal(t, "All Stores", store.sales[0].StoreName)

	remaining, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestSync_EmptyExportKeepsFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeSalesExport(t, dir, "Sales by Transaction.xlsx", nil)

	store := &mockStore{}
	svc := NewService(watch.NewLocator(nil), exports.NewReader(nil), store, nil)
	synced, err := svc.Sync(context.Background(), dir, "Sales by Transaction", "All Stores")
	require.Error(t, err)
	assert.False(t, synced)
	assert.Empty(t, store.sales)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
