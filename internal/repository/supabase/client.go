package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/config"
	"github.com/cascadegear/storesync/internal/domain/models"
)

const (
	inventoryTable = "inventory"
	salesTable     = "daily_sales"
	ordersTable    = "orders"
)

// schemaMismatchCode is returned by PostgREST when an update names a column
// the deployed schema does not have.
const schemaMismatchCode = "PGRST204"

// Store is the remote store surface consumed by the sync and fulfillment
// services.
type Store interface {
	UpsertInventory(ctx context.Context, records []models.InventoryRecord) error
	UpsertDailySales(ctx context.Context, summary models.DailySalesSummary) error
	ListUnprintedOrders(ctx context.Context, location string) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	MarkPrinted(ctx context.Context, id string, at time.Time, pdfPath string) error
	MarkPrintedBasic(ctx context.Context, id string, at time.Time) error
	SetTrackingNumber(ctx context.Context, id, trackingNumber string) error
}

// SchemaError signals that the store rejected a field the deployed schema
// does not know, so the caller can retry once with a reduced field set.
type SchemaError struct {
	Column  string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("store schema mismatch on column %q: %s", e.Column, e.Message)
}

// apiError mirrors a PostgREST error payload.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Client is a resty-backed PostgREST client for the retail remote store.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient builds a remote store client from the configured Supabase
// project URL and service key.
func NewClient(cfg config.SupabaseConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := strings.TrimSuffix(cfg.URL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base + "/rest/v1").
		SetHeader("apikey", cfg.Key).
		SetHeader("Authorization", "Bearer "+cfg.Key).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{http: restyClient, logger: logger}
}

// UpsertInventory inserts or updates the full record batch keyed by sku.
func (c *Client) UpsertInventory(ctx context.Context, records []models.InventoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	apiErr := new(apiError)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetQueryParam("on_conflict", "sku").
		SetBody(records).
		SetError(apiErr).
		Post("/" + inventoryTable)
	if err != nil {
		return fmt.Errorf("upsert inventory: %w", err)
	}
	return c.checkResponse(resp, apiErr, "upsert inventory")
}

// UpsertDailySales inserts or updates the one-row-per-day aggregate keyed by
// (store_name, report_date).
func (c *Client) UpsertDailySales(ctx context.Context, summary models.DailySalesSummary) error {
	apiErr := new(apiError)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetQueryParam("on_conflict", "store_name,report_date").
		SetBody([]models.DailySalesSummary{summary}).
		SetError(apiErr).
		Post("/" + salesTable)
	if err != nil {
		return fmt.Errorf("upsert daily sales: %w", err)
	}
	return c.checkResponse(resp, apiErr, "upsert daily sales")
}

// ListUnprintedOrders returns orders with printed=false scoped to this
// location or the shared "both" designation, newest first. An unrecognized
// location disables the filter, matching the storefront's behavior for
// unconfigured installs.
func (c *Client) ListUnprintedOrders(ctx context.Context, location string) ([]models.Order, error) {
	var orders []models.Order
	apiErr := new(apiError)

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("printed", "eq.false").
		SetQueryParam("order", "created_at.desc").
		SetResult(&orders).
		SetError(apiErr)

	normalized := strings.ToLower(strings.TrimSpace(location))
	if normalized == "yakima" || normalized == "toppenish" {
		req.SetQueryParam("or", fmt.Sprintf("(order_location.eq.%s,order_location.eq.both)", normalized))
	}

	resp, err := req.Get("/" + ordersTable)
	if err != nil {
		return nil, fmt.Errorf("list unprinted orders: %w", err)
	}
	if err := c.checkResponse(resp, apiErr, "list unprinted orders"); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var orders []models.Order
	apiErr := new(apiError)

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("id", "eq."+id).
		SetResult(&orders).
		SetError(apiErr).
		Get("/" + ordersTable)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	if err := c.checkResponse(resp, apiErr, "get order"); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("order %s not found", id)
	}
	return &orders[0], nil
}

// MarkPrinted commits the full printed field set for an order.
func (c *Client) MarkPrinted(ctx context.Context, id string, at time.Time, pdfPath string) error {
	return c.updateOrder(ctx, id, map[string]any{
		"printed":    true,
		"printed_at": at.Format(time.RFC3339),
		"pdf_path":   pdfPath,
	})
}

// MarkPrintedBasic commits the reduced field set, used after the store
// rejected pdf_path as an unknown column.
func (c *Client) MarkPrintedBasic(ctx context.Context, id string, at time.Time) error {
	return c.updateOrder(ctx, id, map[string]any{
		"printed":    true,
		"printed_at": at.Format(time.RFC3339),
	})
}

// SetTrackingNumber persists a confirmed carrier tracking number. The
// previous value is only ever replaced, never cleared.
func (c *Client) SetTrackingNumber(ctx context.Context, id, trackingNumber string) error {
	return c.updateOrder(ctx, id, map[string]any{
		"tracking_number": trackingNumber,
	})
}

func (c *Client) updateOrder(ctx context.Context, id string, fields map[string]any) error {
	apiErr := new(apiError)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		SetBody(fields).
		SetError(apiErr).
		Patch("/" + ordersTable)
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	return c.checkResponse(resp, apiErr, "update order")
}

func (c *Client) checkResponse(resp *resty.Response, apiErr *apiError, op string) error {
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}

	if apiErr != nil && apiErr.Code == schemaMismatchCode {
		return &SchemaError{Column: columnFromMessage(apiErr.Message), Message: apiErr.Message}
	}

	message := resp.Status()
	if apiErr != nil && apiErr.Message != "" {
		message = apiErr.Message
	}
	c.logger.Debug("store request failed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode()),
		zap.String("message", message))
	return fmt.Errorf("%s: store error: status=%d message=%s", op, resp.StatusCode(), message)
}

// columnFromMessage pulls the offending column name out of a PostgREST
// message like: Could not find the 'pdf_path' column of 'orders'.
func columnFromMessage(message string) string {
	start := strings.Index(message, "'")
	if start < 0 {
		return ""
	}
	rest := message[start+1:]
	end := strings.Index(rest, "'")
	if end < 0 {
		return ""
	}
	return rest[:end]
}
