// Package catalog reads product metadata and live stock from the remote
// catalog service.
package catalog

import (
	"context"

	"github.com/go-faster/errors"

	"shopping-cart/model"
)

// ErrNotFound is returned when the catalog has no record for an id.
var ErrNotFound = errors.New("catalog: not found")

// Catalog is the read-only view of products and stock used by the cart.
type Catalog interface {
	Product(ctx context.Context, id int64) (model.Product, error)
	Stock(ctx context.Context, id int64) (model.Stock, error)
}
