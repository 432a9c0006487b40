package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Known fulfillment locations. Pickup and ship-from locations arrive from the
// storefront either as a numeric code or a free-text name; both forms are
// accepted everywhere.
const (
	LocationYakima    = "Yakima"
	LocationToppenish = "Toppenish"
)

// FulfillmentMethod enumerates how an order line reaches the customer.
type FulfillmentMethod string

const (
	FulfillmentPickup   FulfillmentMethod = "pickup"
	FulfillmentDelivery FulfillmentMethod = "delivery"
	FulfillmentShipping FulfillmentMethod = "shipping"
)

// Address is a storefront shipping/delivery address.
type Address struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
}

// Fulfillment is the explicit tagged variant for an order line's fulfillment
// payload, parsed once at the store boundary. Exactly one of the detail
// pointers matching Method is set.
type Fulfillment struct {
	Method   FulfillmentMethod
	Pickup   *PickupDetails
	Delivery *DeliveryDetails
	Shipping *ShippingDetails
}

// PickupDetails carries the normalized pickup location name.
type PickupDetails struct {
	Location string
}

// DeliveryDetails carries the local delivery destination.
type DeliveryDetails struct {
	Address Address
}

// ShippingDetails carries the carrier destination and per-line shipping cost.
type ShippingDetails struct {
	Address      Address
	ShippingCost float64
	ShipFrom     string // normalized location name, empty when unspecified
}

type rawFulfillment struct {
	Method         string          `json:"method"`
	Location       json.RawMessage `json:"location"`
	PickupLocation json.RawMessage `json:"pickupLocation"`
	ShipFrom       json.RawMessage `json:"shipFrom"`
	Address        *Address        `json:"address"`
	ShippingCost   float64         `json:"shippingCost"`
}

// NormalizeLocation maps a numeric code or free-text name onto a canonical
// location name. Unknown values fall back to Toppenish, matching the
// storefront's default fulfillment site.
func NormalizeLocation(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if asNumber == 1 {
			return LocationYakima
		}
		return LocationToppenish
	}
	var asText string
	if err := json.Unmarshal(raw, &asText); err != nil {
		return LocationToppenish
	}
	switch strings.ToLower(strings.TrimSpace(asText)) {
	case "1", "yakima":
		return LocationYakima
	case "":
		return ""
	default:
		return LocationToppenish
	}
}

// UnmarshalJSON decodes the storefront's loosely-typed fulfillment payload
// into the tagged variant.
func (f *Fulfillment) UnmarshalJSON(data []byte) error {
	var raw rawFulfillment
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode fulfillment: %w", err)
	}

	f.Method = FulfillmentMethod(strings.ToLower(strings.TrimSpace(raw.Method)))
	f.Pickup, f.Delivery, f.Shipping = nil, nil, nil

	switch f.Method {
	case FulfillmentPickup:
		location := NormalizeLocation(raw.Location)
		if location == "" {
			location = NormalizeLocation(raw.PickupLocation)
		}
		if location == "" {
			location = LocationToppenish
		}
		f.Pickup = &PickupDetails{Location: location}
	case FulfillmentDelivery:
		details := &DeliveryDetails{}
		if raw.Address != nil {
			details.Address = *raw.Address
		}
		f.Delivery = details
	case FulfillmentShipping:
		details := &ShippingDetails{ShippingCost: raw.ShippingCost}
		if raw.Address != nil {
			details.Address = *raw.Address
		}
		details.ShipFrom = NormalizeLocation(raw.ShipFrom)
		if details.ShipFrom == "" {
			details.ShipFrom = NormalizeLocation(raw.Location)
		}
		f.Shipping = details
	}

	return nil
}

// MarshalJSON re-emits the storefront wire shape so payloads survive a
// round-trip through the engine untouched in meaning.
func (f Fulfillment) MarshalJSON() ([]byte, error) {
	out := map[string]any{"method": string(f.Method)}
	switch f.Method {
	case FulfillmentPickup:
		if f.Pickup != nil {
			out["location"] = f.Pickup.Location
		}
	case FulfillmentDelivery:
		if f.Delivery != nil {
			out["address"] = f.Delivery.Address
		}
	case FulfillmentShipping:
		if f.Shipping != nil {
			out["address"] = f.Shipping.Address
			out["shippingCost"] = f.Shipping.ShippingCost
			if f.Shipping.ShipFrom != "" {
				out["shipFrom"] = f.Shipping.ShipFrom
			}
		}
	}
	return json.Marshal(out)
}

// OrderItem is one line of an order.
type OrderItem struct {
	Name         string      `json:"name"`
	SKU          string      `json:"sku"`
	Quantity     int         `json:"quantity"`
	Price        float64     `json:"price"`
	Weight       float64     `json:"weight,omitempty"` // pounds, per unit
	ShippingCost float64     `json:"shippingCost,omitempty"`
	Fulfillment  Fulfillment `json:"fulfillment"`
}

// LineShippingCost returns the shipping charge for this line. Older storefront
// payloads carry the cost on the item rather than inside the fulfillment
// object.
func (i OrderItem) LineShippingCost() float64 {
	if i.Fulfillment.Shipping != nil && i.Fulfillment.Shipping.ShippingCost > 0 {
		return i.Fulfillment.Shipping.ShippingCost
	}
	return i.ShippingCost
}

// Order mirrors the remote store's orders table. The engine owns only the
// printed, printed_at, pdf_path and tracking_number fields; printed moves
// false->true exactly once in the normal flow.
type Order struct {
	ID             string      `json:"id"`
	OrderNumber    string      `json:"order_number"`
	Items          []OrderItem `json:"items"`
	FirstName      string      `json:"customer_first_name"`
	LastName       string      `json:"customer_last_name"`
	Email          string      `json:"customer_email"`
	Phone          string      `json:"customer_phone"`
	ShippingAddr   *Address    `json:"customer_shipping_address"`
	PaymentStatus  string      `json:"payment_status"`
	Subtotal       float64     `json:"subtotal"`
	TaxAmount      float64     `json:"tax_amount"`
	Discount       float64     `json:"discount"`
	Total          float64     `json:"total"`
	Printed        bool        `json:"printed"`
	PrintedAt      *time.Time  `json:"printed_at"`
	PDFPath        string      `json:"pdf_path,omitempty"`
	TrackingNumber string      `json:"tracking_number,omitempty"`
	OrderLocation  string      `json:"order_location"`
	CreatedAt      time.Time   `json:"created_at"`
}

// CustomerName joins the customer's first and last name.
func (o Order) CustomerName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// HasShippingItems reports whether any line uses carrier shipping.
func (o Order) HasShippingItems() bool {
	for _, item := range o.Items {
		if item.Fulfillment.Method == FulfillmentShipping {
			return true
		}
	}
	return false
}
