package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the local record of a verified purchase. It is created exactly
// once, after the payment callback signature checks out, and is immutable
// thereafter. PaymentReference carries a unique constraint so duplicate
// callback deliveries cannot create duplicate orders.
type Order struct {
	ID               string
	UserID           string
	Items            []Item
	TotalAmount      decimal.Decimal
	PaymentReference string
	CreatedAt        time.Time
}

// Item is a single purchased line, priced with the unit price that was
// recorded in the remote order snapshot at checkout time.
type Item struct {
	ProductID string          `json:"id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
