package insight

import (
	"strings"
	"time"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/fingerprint"
)

const (
	NamespaceDashboard     = "dashboard-insights"
	NamespaceOrders        = "orders-insights"
	NamespaceInventory     = "inventory-insights"
	NamespaceSLA           = "sla-insights"
	NamespaceReplenishment = "replenishment-insights"
	NamespaceInbound       = "inbound-insights"
	NamespaceWarehouses    = "warehouses-insights"
	NamespaceReports       = "reports-insights"
)

// DefaultTTL applies to namespaces missing from the TTL table.
const DefaultTTL = 20 * time.Minute

// DefaultMaxInsights applies to namespaces missing from the registry.
const DefaultMaxInsights = 3

const namespaceSuffix = "-insights"

// Namespace describes one logical page's insight family.
type Namespace struct {
	Name        string
	TTL         time.Duration
	MaxInsights int
	Schema      fingerprint.Schema
}

// Root strips the "-insights" suffix: "orders-insights" -> "orders".
func (n Namespace) Root() string { return NamespaceRoot(n.Name) }

func NamespaceRoot(name string) string {
	return strings.TrimSuffix(name, namespaceSuffix)
}

func schema(numeric ...string) fingerprint.Schema {
	s := fingerprint.Schema{{Name: fingerprint.BrandField, Kind: fingerprint.Categorical}}
	for _, n := range numeric {
		s = append(s, fingerprint.Field{Name: n, Kind: fingerprint.Numeric})
	}
	return append(s, fingerprint.Field{Name: fingerprint.ClockBucketField, Kind: fingerprint.Numeric})
}

var namespaces = map[string]Namespace{
	NamespaceOrders: {
		Name: NamespaceOrders, TTL: 15 * time.Minute, MaxInsights: 3,
		Schema: schema("order_count", "at_risk_order_count", "open_po_count", "unfulfillable_sku_count"),
	},
	NamespaceInbound: {
		Name: NamespaceInbound, TTL: 20 * time.Minute, MaxInsights: 3,
		Schema: schema("inbound_count", "received_count", "delayed_count", "discrepancy_count"),
	},
	NamespaceDashboard: {
		Name: NamespaceDashboard, TTL: 20 * time.Minute, MaxInsights: 5,
		Schema: schema("product_count", "shipment_count", "at_risk_order_count", "unfulfillable_sku_count"),
	},
	NamespaceSLA: {
		Name: NamespaceSLA, TTL: 25 * time.Minute, MaxInsights: 3,
		Schema: schema("shipment_count", "on_time_count", "late_count", "on_time_rate"),
	},
	NamespaceInventory: {
		Name: NamespaceInventory, TTL: 30 * time.Minute, MaxInsights: 3,
		Schema: schema("product_count", "active_product_count", "inactive_product_count", "low_stock_count"),
	},
	NamespaceReplenishment: {
		Name: NamespaceReplenishment, TTL: 30 * time.Minute, MaxInsights: 3,
		Schema: schema("product_count", "low_stock_count", "stockout_count", "reorder_units"),
	},
	NamespaceWarehouses: {
		Name: NamespaceWarehouses, TTL: 30 * time.Minute, MaxInsights: 3,
		Schema: schema("warehouse_count", "shipment_count", "underperforming_warehouse_count", "avg_on_time_rate"),
	},
	NamespaceReports: {
		Name: NamespaceReports, TTL: 60 * time.Minute, MaxInsights: 5,
		Schema: schema("product_count", "shipment_count", "at_risk_order_count", "low_stock_count"),
	},
}

// LookupNamespace returns the registered namespace. Unknown names get the default TTL,
// the default insight cap and an empty schema (all descriptor keys, sorted).
func LookupNamespace(name string) (Namespace, bool) {
	ns, ok := namespaces[name]
	if !ok {
		return Namespace{Name: name, TTL: DefaultTTL, MaxInsights: DefaultMaxInsights}, false
	}
	return ns, true
}

// Namespaces lists every registered namespace name.
func Namespaces() []string {
	out := make([]string, 0, len(namespaces))
	for name := range namespaces {
		out = append(out, name)
	}
	return out
}

// DefaultTTLs returns a copy of the per-namespace TTL table.
func DefaultTTLs() map[string]time.Duration {
	out := make(map[string]time.Duration, len(namespaces))
	for name, ns := range namespaces {
		out[name] = ns.TTL
	}
	return out
}

// DefaultSchemas returns a copy of the per-namespace fingerprint schemas.
func DefaultSchemas() map[string]fingerprint.Schema {
	out := make(map[string]fingerprint.Schema, len(namespaces))
	for name, ns := range namespaces {
		out[name] = append(fingerprint.Schema(nil), ns.Schema...)
	}
	return out
}
