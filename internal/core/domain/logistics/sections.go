package logistics

import (
	"sort"
	"time"
)

// ReorderSuggestion is one line of the replenishment plan.
type ReorderSuggestion struct {
	SKU            string  `json:"sku"`
	ProductName    string  `json:"product_name"`
	OnHand         int     `json:"on_hand"`
	ReorderPoint   int     `json:"reorder_point"`
	SuggestedUnits int     `json:"suggested_units"`
	EstimatedCost  float64 `json:"estimated_cost"`
}

// AtRiskOrders returns open outbound shipments that are overdue, delayed or in exception,
// most overdue first.
func AtRiskOrders(ds *Dataset, now time.Time, limit int) []Shipment {
	var out []Shipment
	for i := range ds.Shipments {
		s := ds.Shipments[i]
		if s.Direction != DirectionInbound && atRiskOrder(&s, now) {
			out = append(out, s)
		}
	}
	sortByExpected(out)
	return head(out, limit)
}

// LateShipments returns graded-late shipments in either direction, most overdue first.
func LateShipments(ds *Dataset, now time.Time, limit int) []Shipment {
	var out []Shipment
	for i := range ds.Shipments {
		s := ds.Shipments[i]
		if grade(&s, now) == gradeLate {
			out = append(out, s)
		}
	}
	sortByExpected(out)
	return head(out, limit)
}

// DelayedInbound returns open purchase orders that are overdue or flagged delayed.
func DelayedInbound(ds *Dataset, now time.Time, limit int) []Shipment {
	var out []Shipment
	for i := range ds.Shipments {
		s := ds.Shipments[i]
		if s.Direction == DirectionInbound && !s.Closed() && (s.Overdue(now) || s.Status == StatusDelayed) {
			out = append(out, s)
		}
	}
	sortByExpected(out)
	return head(out, limit)
}

// RecentShipments returns the newest shipments by creation date.
func RecentShipments(ds *Dataset, limit int) []Shipment {
	out := append([]Shipment(nil), ds.Shipments...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedDate.After(out[j].CreatedDate) })
	return head(out, limit)
}

// LowStockProducts returns active products at or below their reorder point,
// deepest shortfall first.
func LowStockProducts(ds *Dataset, limit int) []Product {
	var out []Product
	for _, p := range ds.Products {
		if p.Active && p.OnHand <= p.ReorderPoint {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OnHand-out[i].ReorderPoint < out[j].OnHand-out[j].ReorderPoint
	})
	return head(out, limit)
}

// ReorderPlan suggests restocking each low-stock product back to twice its reorder point.
func ReorderPlan(ds *Dataset, limit int) []ReorderSuggestion {
	low := LowStockProducts(ds, 0)
	out := make([]ReorderSuggestion, 0, len(low))
	for i := range low {
		p := &low[i]
		units := suggestedUnits(p)
		if units == 0 {
			continue
		}
		out = append(out, ReorderSuggestion{
			SKU:            p.SKU,
			ProductName:    p.ProductName,
			OnHand:         p.OnHand,
			ReorderPoint:   p.ReorderPoint,
			SuggestedUnits: units,
			EstimatedCost:  round(float64(units)*p.UnitCost, 2),
		})
	}
	return head(out, limit)
}

func sortByExpected(s []Shipment) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i].ExpectedDate, s[j].ExpectedDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}

// head returns at most limit items; limit <= 0 returns everything.
func head[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	if s == nil {
		return []T{}
	}
	return s
}
