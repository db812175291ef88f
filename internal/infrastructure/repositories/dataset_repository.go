package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/logistics"
	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

const brandPredicate = "($1 = '' OR LOWER(TRIM(brand_name)) = LOWER(TRIM($1)))"

// The summary projection reads the same rows as the full projection with only the columns
// KPI evaluation needs, so both produce identical fingerprints.
var (
	productColumns = map[logistics.Projection]string{
		logistics.ProjectionFull: `product_id, brand_name, product_name, sku, active, unit_cost, on_hand,
			reorder_point, COALESCE(warehouse_id, '') AS warehouse_id, updated_at`,
		logistics.ProjectionSummary: `brand_name, sku, active, unit_cost, on_hand, reorder_point,
			COALESCE(warehouse_id, '') AS warehouse_id`,
	}
	shipmentColumns = map[logistics.Projection]string{
		logistics.ProjectionFull: `shipment_id, brand_name, COALESCE(order_id, '') AS order_id, direction, status,
			COALESCE(warehouse_id, '') AS warehouse_id, sku, expected_quantity, received_quantity, unit_cost,
			expected_date, arrival_date, created_date`,
		logistics.ProjectionSummary: `brand_name, direction, status, COALESCE(warehouse_id, '') AS warehouse_id, sku,
			expected_quantity, received_quantity, expected_date, arrival_date`,
	}
)

// DatasetQueryConfig bounds the upstream queries.
type DatasetQueryConfig struct {
	ProductLimit  int
	ShipmentLimit int
	QueryTimeout  time.Duration
}

// DatasetRepository reads products and shipments from the analytical datastore.
type DatasetRepository struct {
	db  *sqlx.DB
	cfg DatasetQueryConfig
	now func() time.Time
}

var _ ports.DatasetRepository = (*DatasetRepository)(nil)

func NewDatasetRepository(db *sqlx.DB, cfg DatasetQueryConfig) *DatasetRepository {
	if cfg.ProductLimit <= 0 {
		cfg.ProductLimit = 5000
	}
	if cfg.ShipmentLimit <= 0 {
		cfg.ShipmentLimit = 10000
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 15 * time.Second
	}
	return &DatasetRepository{db: db, cfg: cfg, now: time.Now}
}

func productsQuery(p logistics.Projection) string {
	return fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY sku LIMIT $2`, columnsFor(productColumns, p), brandPredicate)
}

func shipmentsQuery(p logistics.Projection) string {
	return fmt.Sprintf(`SELECT %s FROM shipments WHERE %s ORDER BY created_date DESC LIMIT $2`, columnsFor(shipmentColumns, p), brandPredicate)
}

func summaryQuery() string {
	return fmt.Sprintf(`SELECT
		(SELECT COUNT(*) FROM products WHERE %[1]s) AS product_count,
		(SELECT COUNT(*) FROM shipments WHERE %[1]s) AS shipment_count`, brandPredicate)
}

func columnsFor(cols map[logistics.Projection]string, p logistics.Projection) string {
	if c, ok := cols[p]; ok {
		return c
	}
	return cols[logistics.ProjectionFull]
}

type summaryRow struct {
	ProductCount  int `db:"product_count"`
	ShipmentCount int `db:"shipment_count"`
}

func (r *DatasetRepository) FetchDataset(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	brand := strings.TrimSpace(q.Filter.Brand)
	ds := &logistics.Dataset{FetchedAt: r.now().UTC()}

	if err := r.db.SelectContext(ctx, &ds.Products, productsQuery(q.Projection), brand, r.cfg.ProductLimit); err != nil {
		return nil, fmt.Errorf("%w: products: %v", ports.ErrUpstreamFetch, err)
	}
	if err := r.db.SelectContext(ctx, &ds.Shipments, shipmentsQuery(q.Projection), brand, r.cfg.ShipmentLimit); err != nil {
		return nil, fmt.Errorf("%w: shipments: %v", ports.ErrUpstreamFetch, err)
	}
	var counts summaryRow
	if err := r.db.GetContext(ctx, &counts, summaryQuery(), brand); err != nil {
		return nil, fmt.Errorf("%w: summary: %v", ports.ErrUpstreamFetch, err)
	}
	ds.Summary = logistics.Summary{ProductCount: counts.ProductCount, ShipmentCount: counts.ShipmentCount}
	return ds, nil
}
