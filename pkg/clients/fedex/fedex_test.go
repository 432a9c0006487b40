package fedex

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadegear/storesync/internal/config"
)

func testCredentials() config.FedExConfig {
	return config.FedExConfig{
		APIKey:        "key",
		SecretKey:     "secret",
		AccountNumber: "123456789",
	}
}

func TestToken_CachedAcrossCalls(t *testing.T) {
	var tokenRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "key", r.FormValue("client_id"))
		assert.Equal(t, "secret", r.FormValue("client_secret"))

		tokenRequests++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, tokenRequests)
	}))
	defer server.Close()

	client := NewClient(testCredentials(), nil, WithBaseURL(server.URL))

	first, err := client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", first)

	second, err := client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", second)
	assert.Equal(t, 1, tokenRequests, "a live token is reused, not re-requested")
}

func TestToken_ShortLivedTokenRefetched(t *testing.T) {
	var tokenRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		tokenRequests++
		w.Header().Set("Content-Type", "application/json")
		// Shorter than the safety margin, so it is expired on arrival.
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":60}`, tokenRequests)
	}))
	defer server.Close()

	client := NewClient(testCredentials(), nil, WithBaseURL(server.URL))

	_, err := client.Token(context.Background())
	require.NoError(t, err)
	_, err = client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, tokenRequests)
}

func TestToken_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"code":"NOT.AUTHORIZED.ERROR","message":"bad credentials"}]}`))
	}))
	defer server.Close()

	client := NewClient(testCredentials(), nil, WithBaseURL(server.URL))

	_, err := client.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")
}

func shipmentParams() ShipmentParams {
	return ShipmentParams{
		Shipper: config.ShipperProfile{
			Company: "Cascade Gear Toppenish",
			Street:  "20 Main St",
			City:    "Toppenish",
			State:   "WA",
			Zip:     "98948",
			Phone:   "5095550002",
		},
		Recipient: Recipient{
			Name:     "Dana Reyes",
			Phone:    "5095551234",
			Address1: "88 Pine Ave",
			City:     "Seattle",
			State:    "WA",
			Zip:      "98101",
		},
		WeightLB: 2.4,
	}
}

func TestCreateShipment_ParsesTrackingAndLabel(t *testing.T) {
	label := []byte("%PDF-1.4 fake label")
	var requestBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ship/v1/shipments", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &requestBody))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"output":{"transactionShipments":[{"masterTrackingNumber":"794612345678","pieceResponses":[{"packageDocuments":[{"encodedLabel":%q}]}]}]}}`,
			base64.StdEncoding.EncodeToString(label))
	}))
	defer server.Close()

	client := NewClient(testCredentials(), nil, WithBaseURL(server.URL))

	result, err := client.CreateShipment(context.Background(), "tok-1", shipmentParams())
	require.NoError(t, err)
	assert.Equal(t, "794612345678", result.TrackingNumber)
	assert.Equal(t, label, result.Label)

	shipment := requestBody["requestedShipment"].(map[string]any)
	assert.Equal(t, "FEDEX_GROUND", shipment["serviceType"])
	assert.Equal(t, "YOUR_PACKAGING", shipment["packagingType"])

	account := requestBody["accountNumber"].(map[string]any)
	assert.Equal(t, "123456789", account["value"])

	lineItems := shipment["requestedPackageLineItems"].([]any)
	require.Len(t, lineItems, 1)
	weight := lineItems[0].(map[string]any)["weight"].(map[string]any)
	assert.InDelta(t, 2.4, weight["value"].(float64), 0.001)
	assert.Equal(t, "LB", weight["units"])
}

func TestCreateShipment_DimensionsIncludedWhenSet(t *testing.T) {
	var requestBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &requestBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":{"transactionShipments":[{"masterTrackingNumber":"794600000001"}]}}`))
	}))
	defer server.Close()

	client := NewClient(testCredentials(), nil, WithBaseURL(server.URL))

	params := shipmentParams()
	params.Dimensions = &Dimensions{Length: 12, Width: 10, Height: 4}
	_, err := client.CreateShipment(context.Background(), "tok-1", params)
	require.NoError(t, err)

	shipment := requestBody["requestedShipment"].(map[string]any)
	lineItems := shipment["requestedPackageLineItems"].([]any)
	dims := lineItems[0].(map[string]any)["dimensions"].(map[string]any)
	assert.Equal(t, "IN", dims["units"])
	assert.InDelta(t, 12, dims["length"].(float64), 0.001)
}

func TestCreateShipment_NoLabelDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":{"transactionShipments":[{"masterTrackingNumber":"794600000002"}]}}`))
	}))
	defer server.Close()

	client := NewClient(testCredentials(), nil, WithBaseURL(server.URL))

	result, err := client.CreateShipment(context.Background(), "tok-1", shipmentParams())
	require.NoError(t, err)
	assert.Equal(t, "794600000002", result.TrackingNumber)
	assert.Empty(t, result.Label)
}

func TestCreateShipment_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":{"transactionShipments":[]}}`))
	}))
	defer server.Close()

	client := NewClient(testCredentials(), nil, WithBaseURL(server.URL))

	_, err := client.CreateShipment(context.Background(), "tok-1", shipmentParams())
	assert.Error(t, err)
}

func TestCreateShipment_CarrierError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"code":"SHIPMENT.VALIDATION.ERROR","message":"postal code invalid"}]}`))
	}))
	defer server.Close()

	client := NewClient(testCredentials(), nil, WithBaseURL(server.URL))

	_, err := client.CreateShipment(context.Background(), "tok-1", shipmentParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postal code invalid")
}
