package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/domain/models"
)

const (
	pageMargin = 54.0 // 0.75 inch, in points
	rowHeight  = 18.0
)

// Renderer produces the printable order document handed to warehouse staff.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer wires a new invoice renderer.
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger}
}

// Invoice renders the order to a PDF under outDir, named by order number and
// timestamp, and returns the file path.
func (r *Renderer) Invoice(order models.Order, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("order_%s_%s.pdf", order.OrderNumber, time.Now().Format("20060102_150405"))
	path := filepath.Join(outDir, filename)

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	width, height := pdf.GetPageSize()

	y := drawHeader(pdf, order, width)
	y = drawCustomer(pdf, order, y)

	for _, group := range groupItems(order.Items) {
		y = drawFulfillmentGroup(pdf, group, width, height, y)
	}

	drawTotals(pdf, order, width, y)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write order document: %w", err)
	}

	r.logger.Info("order document rendered",
		zap.String("order", order.OrderNumber),
		zap.String("path", path))
	return path, nil
}

func drawHeader(pdf *fpdf.Fpdf, order models.Order, width float64) float64 {
	y := 96.0

	pdf.SetFont("Helvetica", "B", 42)
	pdf.SetTextColor(26, 26, 26)
	textRight(pdf, width-pageMargin, y, "INVOICE")

	y += 18
	pdf.SetDrawColor(44, 62, 80)
	pdf.SetLineWidth(2)
	pdf.Line(pageMargin, y, width-pageMargin, y)

	y += 20
	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(85, 85, 85)
	textRight(pdf, width-pageMargin, y, "Order #"+order.OrderNumber)

	return y + 12
}

func drawCustomer(pdf *fpdf.Fpdf, order models.Order, y float64) float64 {
	fields := [][2]string{
		{"NAME", order.CustomerName()},
		{"EMAIL", order.Email},
		{"NUMBER", orDefault(order.Phone, "N/A")},
	}
	for _, field := range fields {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(102, 102, 102)
		pdf.Text(pageMargin, y, field[0])
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(pageMargin+76, y, field[1])
		y += rowHeight
	}

	if addr := order.ShippingAddr; addr != nil {
		y += 14
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(102, 102, 102)
		pdf.Text(pageMargin, y, "SHIPPING ADDRESS")
		y += rowHeight

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(0, 0, 0)
		lines := []string{addr.Address1}
		if addr.Address2 != "" {
			lines = append(lines, addr.Address2)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", addr.City, addr.State, addr.ZipCode))
		for _, line := range lines {
			pdf.Text(pageMargin, y, line)
			y += 14
		}
	}

	return y + 28
}

type itemGroup struct {
	label    string
	location string // right-aligned bar annotation, pickup groups only
	color    [3]int
	items    []models.OrderItem
}

// groupItems buckets order lines by fulfillment method (pickup further split
// by location) in the fixed render order shipping, delivery, pickup Yakima,
// pickup Toppenish, then anything unrecognized.
func groupItems(items []models.OrderItem) []itemGroup {
	buckets := map[string][]models.OrderItem{}
	var extras []string
	for _, item := range items {
		key := string(item.Fulfillment.Method)
		if item.Fulfillment.Method == models.FulfillmentPickup && item.Fulfillment.Pickup != nil {
			key = "pickup_" + item.Fulfillment.Pickup.Location
		}
		if _, known := buckets[key]; !known && !knownGroupKey(key) {
			extras = append(extras, key)
		}
		buckets[key] = append(buckets[key], item)
	}

	ordered := append([]string{"shipping", "delivery", "pickup_" + models.LocationYakima, "pickup_" + models.LocationToppenish}, extras...)

	var groups []itemGroup
	for _, key := range ordered {
		bucket, ok := buckets[key]
		if !ok {
			continue
		}
		groups = append(groups, makeGroup(key, bucket))
	}
	return groups
}

func knownGroupKey(key string) bool {
	switch key {
	case "shipping", "delivery", "pickup_" + models.LocationYakima, "pickup_" + models.LocationToppenish:
		return true
	}
	return false
}

func makeGroup(key string, items []models.OrderItem) itemGroup {
	switch key {
	case "shipping":
		return itemGroup{label: "SHIPPING", color: [3]int{139, 0, 0}, items: items}
	case "delivery":
		return itemGroup{label: "LOCAL DELIVERY", color: [3]int{44, 62, 80}, items: items}
	case "pickup_" + models.LocationYakima:
		return itemGroup{label: "LOCAL PICKUP", location: "YAKIMA", color: [3]int{0, 0, 139}, items: items}
	case "pickup_" + models.LocationToppenish:
		return itemGroup{label: "LOCAL PICKUP", location: "TOPPENISH", color: [3]int{0, 0, 139}, items: items}
	default:
		return itemGroup{label: key, color: [3]int{153, 153, 153}, items: items}
	}
}

func drawFulfillmentGroup(pdf *fpdf.Fpdf, group itemGroup, width, height, y float64) float64 {
	pdf.SetFillColor(group.color[0], group.color[1], group.color[2])
	pdf.RoundedRect(pageMargin, y, width-2*pageMargin, 25, 4, "1234", "F")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(255, 255, 255)
	pdf.Text(pageMargin+8, y+17, group.label)
	if group.location != "" {
		textRight(pdf, width-pageMargin-8, y+17, group.location)
	}
	y += 42

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.Text(pageMargin, y, "ITEM")
	pdf.Text(pageMargin+168, y, "QTY")
	pdf.Text(pageMargin+204, y, "SKU")
	textRight(pdf, width-252, y, "PRICE")
	textRight(pdf, width-144, y, "SHIPPING")
	textRight(pdf, width-pageMargin, y, "AMOUNT")

	y += 6
	pdf.SetDrawColor(221, 221, 221)
	pdf.SetLineWidth(0.5)
	pdf.Line(pageMargin, y, width-pageMargin, y)
	y += rowHeight

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, item := range group.items {
		shippingCost := item.LineShippingCost()
		amount := item.Price*float64(item.Quantity) + shippingCost

		pdf.Text(pageMargin, y, item.Name)
		pdf.Text(pageMargin+168, y, strconv.Itoa(item.Quantity))
		pdf.Text(pageMargin+204, y, orDefault(item.SKU, "N/A"))
		textRight(pdf, width-252, y, fmt.Sprintf("%.2f", item.Price))
		if shippingCost > 0 {
			textRight(pdf, width-144, y, fmt.Sprintf("%.2f", shippingCost))
		} else {
			textRight(pdf, width-144, y, "FREE")
		}
		textRight(pdf, width-pageMargin, y, fmt.Sprintf("%.2f", amount))
		y += rowHeight
	}

	pdf.Line(pageMargin, y-10, width-pageMargin, y-10)
	y += 14

	if y > height-216 {
		pdf.AddPage()
		y = 72
	}
	return y
}

func drawTotals(pdf *fpdf.Fpdf, order models.Order, width, y float64) {
	y += 10
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(85, 85, 85)
	pdf.Text(pageMargin, y, "Sub Total")
	textRight(pdf, width-pageMargin, y, fmt.Sprintf("$%.2f", order.Subtotal))

	if order.TaxAmount > 0 {
		y += 16
		pdf.Text(pageMargin, y, "Tax (8.5%)")
		textRight(pdf, width-pageMargin, y, fmt.Sprintf("$%.2f", order.TaxAmount))
	}
	if order.Discount > 0 {
		y += 16
		pdf.Text(pageMargin, y, "Discount")
		textRight(pdf, width-pageMargin, y, fmt.Sprintf("-$%.2f", order.Discount))
	}

	y += 10
	pdf.SetDrawColor(44, 62, 80)
	pdf.SetLineWidth(2)
	pdf.Line(pageMargin, y, width-pageMargin, y)

	y += 22
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(26, 26, 26)
	pdf.Text(pageMargin, y, "TOTAL")
	textRight(pdf, width-pageMargin, y, fmt.Sprintf("$%.2f", order.Total))
}

func textRight(pdf *fpdf.Fpdf, x, y float64, s string) {
	pdf.Text(x-pdf.GetStringWidth(s), y, s)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
