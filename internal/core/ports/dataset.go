package ports

import (
	"context"
	"errors"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/logistics"
)

// ErrUpstreamFetch wraps every failure of the analytical datastore.
var ErrUpstreamFetch = errors.New("upstream fetch failed")

// DatasetRepository loads products and shipments from the analytical datastore.
type DatasetRepository interface {
	FetchDataset(ctx context.Context, q logistics.DatasetQuery) (*logistics.Dataset, error)
}
