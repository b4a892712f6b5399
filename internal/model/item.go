package model

import "time"

// Item represents a catalog entry tracked by quantity.
//
// InitialQuantity is the number of units owned at baseline; it is set at
// creation and only ever raised by an explicit restock. Quantity is the
// number of units currently on the shelf, i.e. not checked out on an
// active lease. The store guarantees 0 <= Quantity <= InitialQuantity.
type Item struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Category        string     `json:"category,omitempty"`
	EstimatedPrice  float64    `json:"estimated_price,omitempty"`
	InitialQuantity int        `json:"initial_quantity"`
	Quantity        int        `json:"quantity"`
	ImageMime       string     `json:"image_mime,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// Missing returns the number of units not on the shelf, as derived from
// the catalog counters alone. Per the accounting invariant this must match
// the sum of non-expired active lease quantities for the item.
func (i Item) Missing() int {
	return i.InitialQuantity - i.Quantity
}
