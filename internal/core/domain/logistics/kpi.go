package logistics

import (
	"math"
	"sort"
	"time"
)

// KPI names. Pages select a subset; namespaces fingerprint on a smaller subset.
const (
	KPIProductCount                  = "product_count"
	KPIShipmentCount                 = "shipment_count"
	KPIOrderCount                    = "order_count"
	KPIAtRiskOrderCount              = "at_risk_order_count"
	KPIOpenPOCount                   = "open_po_count"
	KPIUnfulfillableSKUCount         = "unfulfillable_sku_count"
	KPIActiveProductCount            = "active_product_count"
	KPIInactiveProductCount          = "inactive_product_count"
	KPILowStockCount                 = "low_stock_count"
	KPIStockoutCount                 = "stockout_count"
	KPIReorderUnits                  = "reorder_units"
	KPITotalInventoryValue           = "total_inventory_value"
	KPIOnTimeCount                   = "on_time_count"
	KPILateCount                     = "late_count"
	KPIOnTimeRate                    = "on_time_rate"
	KPIInboundCount                  = "inbound_count"
	KPIReceivedCount                 = "received_count"
	KPIDelayedCount                  = "delayed_count"
	KPIDiscrepancyCount              = "discrepancy_count"
	KPIWarehouseCount                = "warehouse_count"
	KPIUnderperformingWarehouseCount = "underperforming_warehouse_count"
	KPIAvgOnTimeRate                 = "avg_on_time_rate"
)

// UnderperformingOnTimeRate is the on-time percentage below which a warehouse is flagged.
const UnderperformingOnTimeRate = 85.0

type KPIs map[string]float64

// Select copies the named KPIs; missing names are reported as 0.
func (k KPIs) Select(names ...string) KPIs {
	out := make(KPIs, len(names))
	for _, n := range names {
		out[n] = k[n]
	}
	return out
}

// ComputeKPIs derives every page KPI from a dataset in one pass over each collection.
// Product and shipment counts prefer the aggregate summary over the row count.
func ComputeKPIs(ds *Dataset, now time.Time) KPIs {
	k := KPIs{}
	if ds == nil {
		return k
	}

	bySKU := make(map[string]*Product, len(ds.Products))
	warehouses := map[string]struct{}{}
	var active, inactive, lowStock, stockout, reorderUnits int
	var inventoryValue float64
	for i := range ds.Products {
		p := &ds.Products[i]
		bySKU[p.SKU] = p
		if p.WarehouseID != "" {
			warehouses[p.WarehouseID] = struct{}{}
		}
		if p.OnHand > 0 {
			inventoryValue += float64(p.OnHand) * p.UnitCost
		}
		if !p.Active {
			inactive++
			continue
		}
		active++
		if p.OnHand <= 0 {
			stockout++
		}
		if p.OnHand <= p.ReorderPoint {
			lowStock++
			reorderUnits += suggestedUnits(p)
		}
	}

	var orders, atRisk, openPO, inbound, received, delayed, discrepancy, onTime, late int
	unfulfillable := map[string]struct{}{}
	for i := range ds.Shipments {
		s := &ds.Shipments[i]
		if s.WarehouseID != "" {
			warehouses[s.WarehouseID] = struct{}{}
		}
		switch grade(s, now) {
		case gradeOnTime:
			onTime++
		case gradeLate:
			late++
		}
		switch s.Direction {
		case DirectionInbound:
			inbound++
			if s.Status == StatusReceived {
				received++
				if s.ReceivedQuantity != s.ExpectedQuantity {
					discrepancy++
				}
			}
			if !s.Closed() {
				openPO++
				if s.Overdue(now) || s.Status == StatusDelayed {
					delayed++
				}
			}
		default:
			orders++
			if atRiskOrder(s, now) {
				atRisk++
			}
			if !s.Closed() {
				if p, ok := bySKU[s.SKU]; !ok || !p.Active || p.OnHand <= 0 {
					unfulfillable[s.SKU] = struct{}{}
				}
			}
		}
	}

	productCount := ds.Summary.ProductCount
	if productCount == 0 {
		productCount = len(ds.Products)
	}
	shipmentCount := ds.Summary.ShipmentCount
	if shipmentCount == 0 {
		shipmentCount = len(ds.Shipments)
	}

	perf := WarehousePerformance(ds, now)
	var graded, underperforming int
	var rateSum float64
	for _, w := range perf {
		if w.OnTime+w.Late == 0 {
			continue
		}
		graded++
		rateSum += w.OnTimeRate
		if w.OnTimeRate < UnderperformingOnTimeRate {
			underperforming++
		}
	}
	avgRate := 0.0
	if graded > 0 {
		avgRate = round(rateSum/float64(graded), 1)
	}

	k[KPIProductCount] = float64(productCount)
	k[KPIShipmentCount] = float64(shipmentCount)
	k[KPIOrderCount] = float64(orders)
	k[KPIAtRiskOrderCount] = float64(atRisk)
	k[KPIOpenPOCount] = float64(openPO)
	k[KPIUnfulfillableSKUCount] = float64(len(unfulfillable))
	k[KPIActiveProductCount] = float64(active)
	k[KPIInactiveProductCount] = float64(inactive)
	k[KPILowStockCount] = float64(lowStock)
	k[KPIStockoutCount] = float64(stockout)
	k[KPIReorderUnits] = float64(reorderUnits)
	k[KPITotalInventoryValue] = round(inventoryValue, 2)
	k[KPIOnTimeCount] = float64(onTime)
	k[KPILateCount] = float64(late)
	k[KPIOnTimeRate] = rate(onTime, late)
	k[KPIInboundCount] = float64(inbound)
	k[KPIReceivedCount] = float64(received)
	k[KPIDelayedCount] = float64(delayed)
	k[KPIDiscrepancyCount] = float64(discrepancy)
	k[KPIWarehouseCount] = float64(len(warehouses))
	k[KPIUnderperformingWarehouseCount] = float64(underperforming)
	k[KPIAvgOnTimeRate] = avgRate
	return k
}

// WarehouseStats is the per-warehouse SLA breakdown.
type WarehouseStats struct {
	WarehouseID string  `json:"warehouse_id"`
	Shipments   int     `json:"shipments"`
	OnTime      int     `json:"on_time"`
	Late        int     `json:"late"`
	OnTimeRate  float64 `json:"on_time_rate"`
}

// WarehousePerformance groups shipments by warehouse, sorted by ascending on-time rate.
func WarehousePerformance(ds *Dataset, now time.Time) []WarehouseStats {
	if ds == nil {
		return nil
	}
	byID := map[string]*WarehouseStats{}
	for i := range ds.Shipments {
		s := &ds.Shipments[i]
		if s.WarehouseID == "" {
			continue
		}
		w, ok := byID[s.WarehouseID]
		if !ok {
			w = &WarehouseStats{WarehouseID: s.WarehouseID}
			byID[s.WarehouseID] = w
		}
		w.Shipments++
		switch grade(s, now) {
		case gradeOnTime:
			w.OnTime++
		case gradeLate:
			w.Late++
		}
	}
	out := make([]WarehouseStats, 0, len(byID))
	for _, w := range byID {
		w.OnTimeRate = rate(w.OnTime, w.Late)
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OnTimeRate != out[j].OnTimeRate {
			return out[i].OnTimeRate < out[j].OnTimeRate
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return out
}

type slaGrade int

const (
	gradeNone slaGrade = iota
	gradeOnTime
	gradeLate
)

func grade(s *Shipment, now time.Time) slaGrade {
	if s.ExpectedDate == nil || s.Status == StatusCancelled {
		return gradeNone
	}
	if s.ArrivalDate != nil {
		if s.ArrivalDate.After(*s.ExpectedDate) {
			return gradeLate
		}
		return gradeOnTime
	}
	if s.Overdue(now) {
		return gradeLate
	}
	return gradeNone
}

func atRiskOrder(s *Shipment, now time.Time) bool {
	if s.Closed() {
		return false
	}
	return s.Overdue(now) || s.Status == StatusDelayed || s.Status == StatusException
}

func suggestedUnits(p *Product) int {
	if p.ReorderPoint <= 0 {
		return 0
	}
	units := 2*p.ReorderPoint - p.OnHand
	if units < 0 {
		return 0
	}
	return units
}

func rate(good, bad int) float64 {
	if good+bad == 0 {
		return 0
	}
	return round(float64(good)/float64(good+bad)*100, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
