package fedex

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/cascadegear/storesync/internal/config"
)

const (
	productionBaseURL = "https://apis.fedex.com"
	sandboxBaseURL    = "https://apis-sandbox.fedex.com"

	tokenPath = "/oauth/token"
	shipPath  = "/ship/v1/shipments"

	// A cached token is considered expired this long before its granted
	// lifetime so an in-flight request never carries a stale one.
	tokenSafetyMargin = 300 * time.Second
)

// Recipient is the carrier "to" address built from an order.
type Recipient struct {
	Name     string
	Phone    string
	Address1 string
	Address2 string
	City     string
	State    string
	Zip      string
}

// Dimensions are optional package measurements in inches.
type Dimensions struct {
	Length int
	Width  int
	Height int
}

// ShipmentParams describes one label request.
type ShipmentParams struct {
	Shipper    config.ShipperProfile
	Recipient  Recipient
	WeightLB   float64
	Dimensions *Dimensions
}

// ShipmentResult carries the fields consumed from the carrier's response.
type ShipmentResult struct {
	TrackingNumber string
	Label          []byte // decoded PDF label document
}

// Client exposes the FedEx shipping operations used by the application.
type Client interface {
	Token(ctx context.Context) (string, error)
	CreateShipment(ctx context.Context, token string, params ShipmentParams) (*ShipmentResult, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient    *resty.Client
	apiKey        string
	secretKey     string
	accountNumber string
	logger        *zap.Logger

	mu           sync.Mutex
	cachedToken  string
	tokenExpires time.Time
}

// Option customizes an APIClient.
type Option func(*APIClient)

// WithBaseURL overrides the carrier endpoint, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *APIClient) {
		c.httpClient.SetBaseURL(baseURL)
	}
}

// NewClient builds a FedEx API client using the provided configuration values.
func NewClient(cfg config.FedExConfig, logger *zap.Logger, opts ...Option) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := productionBaseURL
	if cfg.Sandbox {
		baseURL = sandboxBaseURL
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second)

	client := &APIClient{
		httpClient:    restyClient,
		apiKey:        cfg.APIKey,
		secretKey:     cfg.SecretKey,
		accountNumber: cfg.AccountNumber,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type apiError struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *apiError) message() string {
	if e == nil || len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Message
}

// Token returns a cached OAuth2 access token, requesting a new one through
// the client-credentials grant only when the slot is empty or expired.
func (c *APIClient) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachedToken != "" && time.Now().Before(c.tokenExpires) {
		return c.cachedToken, nil
	}

	result := new(tokenResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.apiKey,
			"client_secret": c.secretKey,
		}).
		SetResult(result).
		SetError(apiErr).
		Post(tokenPath)
	if err != nil {
		return "", fmt.Errorf("fedex authentication: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("fedex authentication failed: status=%d message=%s", resp.StatusCode(), apiErr.message())
	}

	expiresIn := result.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}

	c.cachedToken = result.AccessToken
	c.tokenExpires = time.Now().Add(time.Duration(expiresIn)*time.Second - tokenSafetyMargin)
	c.logger.Info("fedex authenticated", zap.Time("token_expires", c.tokenExpires))
	return c.cachedToken, nil
}

type shipmentResponse struct {
	Output struct {
		TransactionShipments []struct {
			MasterTrackingNumber string `json:"masterTrackingNumber"`
			PieceResponses       []struct {
				PackageDocuments []struct {
					EncodedLabel string `json:"encodedLabel"`
				} `json:"packageDocuments"`
			} `json:"pieceResponses"`
		} `json:"transactionShipments"`
	} `json:"output"`
}

// CreateShipment submits a FedEx Ground shipment and returns the master
// tracking number plus the decoded 4x6 PDF label.
func (c *APIClient) CreateShipment(ctx context.Context, token string, params ShipmentParams) (*ShipmentResult, error) {
	result := new(shipmentResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("X-locale", "en_US").
		SetBody(c.buildShipmentRequest(params)).
		SetResult(result).
		SetError(apiErr).
		Post(shipPath)
	if err != nil {
		return nil, fmt.Errorf("fedex create shipment: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fedex shipment creation failed: status=%d message=%s", resp.StatusCode(), apiErr.message())
	}

	shipments := result.Output.TransactionShipments
	if len(shipments) == 0 {
		return nil, fmt.Errorf("fedex shipment creation returned no shipments")
	}

	shipment := shipments[0]
	out := &ShipmentResult{TrackingNumber: shipment.MasterTrackingNumber}

	if len(shipment.PieceResponses) > 0 && len(shipment.PieceResponses[0].PackageDocuments) > 0 {
		encoded := shipment.PieceResponses[0].PackageDocuments[0].EncodedLabel
		label, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode label document: %w", err)
		}
		out.Label = label
	}

	c.logger.Info("fedex shipment created", zap.String("tracking", out.TrackingNumber))
	return out, nil
}

func (c *APIClient) buildShipmentRequest(params ShipmentParams) map[string]any {
	shipper := params.Shipper
	recipient := params.Recipient

	recipientStreets := []string{recipient.Address1}
	if recipient.Address2 != "" {
		recipientStreets = append(recipientStreets, recipient.Address2)
	}

	contactName := shipper.Contact
	if contactName == "" {
		contactName = shipper.Company
	}

	packageLine := map[string]any{
		"weight": map[string]any{
			"units": "LB",
			"value": params.WeightLB,
		},
	}
	if d := params.Dimensions; d != nil {
		packageLine["dimensions"] = map[string]any{
			"length": d.Length,
			"width":  d.Width,
			"height": d.Height,
			"units":  "IN",
		}
	}

	return map[string]any{
		"labelResponseOptions": "LABEL",
		"requestedShipment": map[string]any{
			"shipper": map[string]any{
				"contact": map[string]any{
					"personName":  contactName,
					"phoneNumber": shipper.Phone,
					"companyName": shipper.Company,
				},
				"address": map[string]any{
					"streetLines":         []string{shipper.Street},
					"city":                shipper.City,
					"stateOrProvinceCode": shipper.State,
					"postalCode":          shipper.Zip,
					"countryCode":         "US",
				},
			},
			"recipients": []map[string]any{{
				"contact": map[string]any{
					"personName":  recipient.Name,
					"phoneNumber": recipient.Phone,
				},
				"address": map[string]any{
					"streetLines":         recipientStreets,
					"city":                recipient.City,
					"stateOrProvinceCode": recipient.State,
					"postalCode":          recipient.Zip,
					"countryCode":         "US",
					"residential":         true,
				},
			}},
			"shipDatestamp":          time.Now().Format("2006-01-02"),
			"serviceType":            "FEDEX_GROUND",
			"packagingType":          "YOUR_PACKAGING",
			"pickupType":             "USE_SCHEDULED_PICKUP",
			"blockInsightVisibility": false,
			"shippingChargesPayment": map[string]any{
				"paymentType": "SENDER",
				"payor": map[string]any{
					"responsibleParty": map[string]any{
						"accountNumber": map[string]any{
							"value": c.accountNumber,
						},
					},
				},
			},
			"labelSpecification": map[string]any{
				"imageType":      "PDF",
				"labelStockType": "PAPER_4X6",
			},
			"requestedPackageLineItems": []map[string]any{packageLine},
		},
		"accountNumber": map[string]any{
			"value": c.accountNumber,
		},
	}
}
