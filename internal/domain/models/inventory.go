package models

// InventoryRecord is one canonical inventory row, keyed by SKU. Records are
// fully recomputed from each validated export snapshot and upserted; the sync
// engine never deletes them.
type InventoryRecord struct {
	ProductName string  `json:"product_name"`
	SKU         string  `json:"sku"`
	Vendor      string  `json:"vendor"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	Cost        float64 `json:"cost"`
	TotalStock  int     `json:"total_stock"`
	Committed   int     `json:"committed"`
	OpenStock   int     `json:"open_stock"`
	QtyOnOrder  int     `json:"qty_on_order"`
	GrossMargin float64 `json:"gross_margin"` // fraction 0-1
	TotalRetail float64 `json:"total_retail"`
	TotalCost   float64 `json:"total_cost"`
}
