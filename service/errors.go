package service

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrCatalogLookup: the catalog could not return the product.
	ErrCatalogLookup = errors.New("catalog lookup failed")
	// ErrStockLookup: the catalog could not return stock for the product.
	ErrStockLookup = errors.New("stock lookup failed")
	// ErrNotFound: the product is not in the cart.
	ErrNotFound = errors.New("product not in cart")
	// ErrOutOfStock: the requested amount exceeds available stock.
	ErrOutOfStock = errors.New("requested quantity out of stock")
	// ErrPersist: the snapshot could not be written; memory was left as it was.
	ErrPersist = errors.New("snapshot write failed")
)

// Messages shown to the user when an operation is rejected.
const (
	MsgAddFailed    = "could not add product"
	MsgRemoveFailed = "could not remove product"
	MsgUpdateFailed = "could not update product quantity"
	MsgOutOfStock   = "requested quantity out of stock"
)

const (
	opAdd    = "add"
	opRemove = "remove"
	opUpdate = "update"
)

// OperationError describes a rejected cart operation. Kind is one of the
// Err* sentinels (nil for a recovered panic) and matches with errors.Is.
type OperationError struct {
	Op        string
	ProductID int64
	Kind      error
	Err       error
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s product %d", e.Op, e.ProductID)
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OperationError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *OperationError) Unwrap() error { return e.Err }

// message picks the notification text for a failed operation.
func message(op string, err error) string {
	if errors.Is(err, ErrOutOfStock) {
		return MsgOutOfStock
	}
	switch op {
	case opAdd:
		return MsgAddFailed
	case opRemove:
		return MsgRemoveFailed
	default:
		return MsgUpdateFailed
	}
}

// Message is the text shown to the user for this failure. It never
// includes the underlying cause.
func (e *OperationError) Message() string {
	return message(e.Op, e)
}
