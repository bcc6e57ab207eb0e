package service

import (
	"context"

	"shopping-cart/model"
)

// CartService is the surface the UI layer talks to.
type CartService interface {
	Cart() model.Cart
	Subscribe(fn func(model.Cart)) (cancel func())

	AddProduct(ctx context.Context, productID int64) error
	RemoveProduct(ctx context.Context, productID int64) error
	UpdateQuantity(ctx context.Context, productID int64, amount int) error
}
