package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is a cart entry. Amount is the quantity held in the cart and is
// zero on values returned by the catalog.
type Product struct {
	ID     int64           `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Image  string          `json:"image"`
	Amount int             `json:"amount"`
}

// productJSON is the wire shape of Product; price is a bare JSON number.
type productJSON struct {
	ID     int64       `json:"id"`
	Title  string      `json:"title"`
	Price  json.Number `json:"price"`
	Image  string      `json:"image"`
	Amount int         `json:"amount"`
}

// MarshalJSON writes the price as a number rather than decimal's quoted string.
// Decoding goes through the default path, which accepts either form.
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(productJSON{
		ID:     p.ID,
		Title:  p.Title,
		Price:  json.Number(p.Price.String()),
		Image:  p.Image,
		Amount: p.Amount,
	})
}

// Stock is the live availability of one product.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// Cart is an ordered list of products in insertion order.
type Cart []Product

// Index returns the position of the entry with the given id, or -1.
func (c Cart) Index(id int64) int {
	for i, p := range c {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of c; modifying the copy does not affect c.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
