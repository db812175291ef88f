package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/logistics"
)

const (
	PageDashboard     = "dashboard"
	PageOrders        = "orders"
	PageInventory     = "inventory"
	PageSLA           = "sla"
	PageReplenishment = "replenishment"
	PageInbound       = "inbound"
	PageWarehouses    = "warehouses"
	PageReports       = "reports"
)

// SectionFunc derives one page section from a brand-filtered dataset.
type SectionFunc func(ds *logistics.Dataset, now time.Time) any

// Page describes one logical page: the KPIs it shows, the sections it renders and the
// insight namespace it reads from.
type Page struct {
	Name      string
	Namespace string
	// KPIs are shown on the page and passed to the prompt, in this order.
	KPIs     []string
	Sections map[string]SectionFunc
	// Focus tells the model what this page is about.
	Focus string
}

// MaxInsights is the insight cap of the page's namespace.
func (p Page) MaxInsights() int {
	ns, _ := insight.LookupNamespace(p.Namespace)
	return ns.MaxInsights
}

// PromptKPIs returns the KPIs the prompt and the fingerprint depend on: the page KPIs plus
// every numeric field of the namespace schema.
func (p Page) PromptKPIs(all logistics.KPIs) logistics.KPIs {
	names := append([]string(nil), p.KPIs...)
	ns, _ := insight.LookupNamespace(p.Namespace)
	for _, f := range ns.Schema {
		if _, ok := all[f.Name]; ok {
			names = append(names, f.Name)
		}
	}
	return all.Select(names...)
}

// BuildSections evaluates every section of the page.
func (p Page) BuildSections(ds *logistics.Dataset, now time.Time) map[string]any {
	out := make(map[string]any, len(p.Sections))
	for name, fn := range p.Sections {
		out[name] = fn(ds, now)
	}
	return out
}

func atRiskOrders(limit int) SectionFunc {
	return func(ds *logistics.Dataset, now time.Time) any { return logistics.AtRiskOrders(ds, now, limit) }
}

func lateShipments(limit int) SectionFunc {
	return func(ds *logistics.Dataset, now time.Time) any { return logistics.LateShipments(ds, now, limit) }
}

func delayedInbound(limit int) SectionFunc {
	return func(ds *logistics.Dataset, now time.Time) any { return logistics.DelayedInbound(ds, now, limit) }
}

func recentShipments(limit int) SectionFunc {
	return func(ds *logistics.Dataset, _ time.Time) any { return logistics.RecentShipments(ds, limit) }
}

func lowStock(limit int) SectionFunc {
	return func(ds *logistics.Dataset, _ time.Time) any { return logistics.LowStockProducts(ds, limit) }
}

func reorderPlan(limit int) SectionFunc {
	return func(ds *logistics.Dataset, _ time.Time) any { return logistics.ReorderPlan(ds, limit) }
}

func warehousePerformance(ds *logistics.Dataset, now time.Time) any {
	perf := logistics.WarehousePerformance(ds, now)
	if perf == nil {
		return []logistics.WarehouseStats{}
	}
	return perf
}

var pages = map[string]Page{
	PageDashboard: {
		Name:      PageDashboard,
		Namespace: insight.NamespaceDashboard,
		KPIs: []string{
			logistics.KPIProductCount, logistics.KPIShipmentCount, logistics.KPIOrderCount,
			logistics.KPIAtRiskOrderCount, logistics.KPIUnfulfillableSKUCount, logistics.KPILowStockCount,
			logistics.KPIOnTimeRate, logistics.KPITotalInventoryValue,
		},
		Sections: map[string]SectionFunc{
			"at_risk_orders":   atRiskOrders(5),
			"low_stock":        lowStock(5),
			"recent_shipments": recentShipments(10),
		},
		Focus: "overall operational health across orders, inventory and fulfillment",
	},
	PageOrders: {
		Name:      PageOrders,
		Namespace: insight.NamespaceOrders,
		KPIs: []string{
			logistics.KPIOrderCount, logistics.KPIAtRiskOrderCount, logistics.KPIOpenPOCount,
			logistics.KPIUnfulfillableSKUCount, logistics.KPILateCount,
		},
		Sections: map[string]SectionFunc{
			"at_risk_orders": atRiskOrders(20),
			"late_shipments": lateShipments(20),
		},
		Focus: "order fulfillment risk, late orders and SKUs that cannot ship",
	},
	PageInventory: {
		Name:      PageInventory,
		Namespace: insight.NamespaceInventory,
		KPIs: []string{
			logistics.KPIProductCount, logistics.KPIActiveProductCount, logistics.KPIInactiveProductCount,
			logistics.KPILowStockCount, logistics.KPIStockoutCount, logistics.KPITotalInventoryValue,
		},
		Sections: map[string]SectionFunc{
			"low_stock_products": lowStock(25),
		},
		Focus: "stock health, stockouts and capital tied up in inventory",
	},
	PageSLA: {
		Name:      PageSLA,
		Namespace: insight.NamespaceSLA,
		KPIs: []string{
			logistics.KPIShipmentCount, logistics.KPIOnTimeCount, logistics.KPILateCount, logistics.KPIOnTimeRate,
		},
		Sections: map[string]SectionFunc{
			"late_shipments":        lateShipments(20),
			"warehouse_performance": warehousePerformance,
		},
		Focus: "delivery SLA compliance and the warehouses driving late shipments",
	},
	PageReplenishment: {
		Name:      PageReplenishment,
		Namespace: insight.NamespaceReplenishment,
		KPIs: []string{
			logistics.KPIProductCount, logistics.KPILowStockCount, logistics.KPIStockoutCount, logistics.KPIReorderUnits,
		},
		Sections: map[string]SectionFunc{
			"reorder_plan": reorderPlan(25),
		},
		Focus: "replenishment priorities, reorder quantities and stockout prevention",
	},
	PageInbound: {
		Name:      PageInbound,
		Namespace: insight.NamespaceInbound,
		KPIs: []string{
			logistics.KPIInboundCount, logistics.KPIReceivedCount, logistics.KPIDelayedCount,
			logistics.KPIDiscrepancyCount, logistics.KPIOpenPOCount,
		},
		Sections: map[string]SectionFunc{
			"delayed_inbound": delayedInbound(20),
		},
		Focus: "inbound purchase orders, receiving delays and quantity discrepancies",
	},
	PageWarehouses: {
		Name:      PageWarehouses,
		Namespace: insight.NamespaceWarehouses,
		KPIs: []string{
			logistics.KPIWarehouseCount, logistics.KPIShipmentCount,
			logistics.KPIUnderperformingWarehouseCount, logistics.KPIAvgOnTimeRate,
		},
		Sections: map[string]SectionFunc{
			"warehouse_performance": warehousePerformance,
		},
		Focus: "warehouse throughput and which facilities fall below the on-time target",
	},
	PageReports: {
		Name:      PageReports,
		Namespace: insight.NamespaceReports,
		KPIs: []string{
			logistics.KPIProductCount, logistics.KPIShipmentCount, logistics.KPIAtRiskOrderCount,
			logistics.KPILowStockCount, logistics.KPIOnTimeRate, logistics.KPITotalInventoryValue,
			logistics.KPIReorderUnits,
		},
		Sections: map[string]SectionFunc{
			"warehouse_performance": warehousePerformance,
			"reorder_plan":          reorderPlan(10),
		},
		Focus: "an executive summary of the period across every operational area",
	},
}

// LookupPage resolves a page name case-insensitively.
func LookupPage(name string) (Page, error) {
	p, ok := pages[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Page{}, fmt.Errorf("%w: %q", ErrUnknownPage, name)
	}
	return p, nil
}

// PageNames lists every page, sorted.
func PageNames() []string {
	out := make([]string, 0, len(pages))
	for name := range pages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
