package logistics

import (
	"strings"
	"time"
)

type Product struct {
	ProductID    string    `json:"product_id" db:"product_id"`
	BrandName    string    `json:"brand_name" db:"brand_name"`
	ProductName  string    `json:"product_name" db:"product_name"`
	SKU          string    `json:"sku" db:"sku"`
	Active       bool      `json:"active" db:"active"`
	UnitCost     float64   `json:"unit_cost" db:"unit_cost"`
	OnHand       int       `json:"on_hand" db:"on_hand"`
	ReorderPoint int       `json:"reorder_point" db:"reorder_point"`
	WarehouseID  string    `json:"warehouse_id" db:"warehouse_id"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type ShipmentStatus string

const (
	StatusPending   ShipmentStatus = "pending"
	StatusInTransit ShipmentStatus = "in_transit"
	StatusDelayed   ShipmentStatus = "delayed"
	StatusException ShipmentStatus = "exception"
	StatusDelivered ShipmentStatus = "delivered"
	StatusReceived  ShipmentStatus = "received"
	StatusCancelled ShipmentStatus = "cancelled"
)

// Shipment is either an outbound customer order or an inbound purchase order.
type Shipment struct {
	ShipmentID       string         `json:"shipment_id" db:"shipment_id"`
	BrandName        string         `json:"brand_name" db:"brand_name"`
	OrderID          string         `json:"order_id" db:"order_id"`
	Direction        Direction      `json:"direction" db:"direction"`
	Status           ShipmentStatus `json:"status" db:"status"`
	WarehouseID      string         `json:"warehouse_id" db:"warehouse_id"`
	SKU              string         `json:"sku" db:"sku"`
	ExpectedQuantity int            `json:"expected_quantity" db:"expected_quantity"`
	ReceivedQuantity int            `json:"received_quantity" db:"received_quantity"`
	UnitCost         float64        `json:"unit_cost" db:"unit_cost"`
	ExpectedDate     *time.Time     `json:"expected_date,omitempty" db:"expected_date"`
	ArrivalDate      *time.Time     `json:"arrival_date,omitempty" db:"arrival_date"`
	CreatedDate      time.Time      `json:"created_date" db:"created_date"`
}

// Closed reports whether the shipment no longer needs attention.
func (s *Shipment) Closed() bool {
	switch s.Status {
	case StatusDelivered, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// Overdue reports whether an open shipment has passed its expected date.
func (s *Shipment) Overdue(now time.Time) bool {
	return !s.Closed() && s.ExpectedDate != nil && s.ExpectedDate.Before(now)
}

// Projection selects how much of the upstream dataset a page load needs.
type Projection string

const (
	// ProjectionFull is used by fast and full page loads.
	ProjectionFull Projection = "full"
	// ProjectionSummary is the reduced row set used to fingerprint and prompt.
	ProjectionSummary Projection = "summary"
)

// Filter narrows the upstream dataset. It is opaque to the insight cache except
// that the brand always participates in the fingerprint.
type Filter struct {
	Brand string `json:"brand"`
}

type DatasetQuery struct {
	Namespace  string     `json:"namespace"`
	Filter     Filter     `json:"filter"`
	Projection Projection `json:"projection"`
}

// Summary is the projection summary that feeds the fingerprint. Counts come from
// aggregate queries so they do not depend on the row limit of the projection.
type Summary struct {
	ProductCount  int `json:"product_count"`
	ShipmentCount int `json:"shipment_count"`
}

func (s Summary) Features() map[string]float64 {
	return map[string]float64{
		"product_count":  float64(s.ProductCount),
		"shipment_count": float64(s.ShipmentCount),
	}
}

type Dataset struct {
	Products  []Product  `json:"products"`
	Shipments []Shipment `json:"shipments"`
	Summary   Summary    `json:"summary"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// ApplyBrandFilter keeps rows whose brand matches f.Brand case-insensitively.
// An empty brand keeps everything.
func ApplyBrandFilter(ds *Dataset, f Filter) *Dataset {
	brand := strings.TrimSpace(f.Brand)
	if ds == nil || brand == "" {
		return ds
	}
	out := &Dataset{Summary: ds.Summary, FetchedAt: ds.FetchedAt}
	for _, p := range ds.Products {
		if strings.EqualFold(strings.TrimSpace(p.BrandName), brand) {
			out.Products = append(out.Products, p)
		}
	}
	for _, s := range ds.Shipments {
		if strings.EqualFold(strings.TrimSpace(s.BrandName), brand) {
			out.Shipments = append(out.Shipments, s)
		}
	}
	return out
}
