package models

// DailySalesSummary aggregates one day of register transactions for one store.
// The remote store keeps a single row per (store_name, report_date); re-syncing
// the same day overwrites it.
type DailySalesSummary struct {
	StoreName         string  `json:"store_name"`
	ReportDate        string  `json:"report_date"` // YYYY-MM-DD
	TotalTransactions int     `json:"total_transactions"`
	TotalQtySold      int     `json:"total_qty_sold"`
	TotalSales        float64 `json:"total_sales"`
	TotalCOGS         float64 `json:"total_cogs"`
	TotalGrossProfit  float64 `json:"total_gross_profit"`
	AvgGrossMargin    float64 `json:"avg_gross_margin"` // percent
	TotalDiscounts    float64 `json:"total_discounts"`
	TotalTax          float64 `json:"total_tax"`
	TotalReceipts     float64 `json:"total_receipts"`
}
