package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lolobw32/ecom-oslan/internal/customer"
)

type Item struct {
	OrderID         string          `json:"orderId"`
	ProductID       string          `json:"productId"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
	Size            string          `json:"size"`
}

type Order struct {
	ID string `json:"id"`
	// UserID is empty for guest orders.
	UserID          string          `json:"userId,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          Status          `json:"status"`
	ShippingAddress customer.Info   `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
	Items           []Item          `json:"items,omitempty"`

	// Set by admin listings from the customer's profile.
	ProfileEmail string `json:"profileEmail,omitempty"`
	ProfileName  string `json:"profileName,omitempty"`
}

const unknownCustomer = "Client inconnu"

// CustomerName prefers the name given at checkout, then the profile, then the
// profile email.
func (o Order) CustomerName() string {
	if o.ShippingAddress.FirstName != "" && o.ShippingAddress.LastName != "" {
		return o.ShippingAddress.FirstName + " " + o.ShippingAddress.LastName
	}
	if name := strings.TrimSpace(o.ProfileName); name != "" {
		return name
	}
	if o.ProfileEmail != "" {
		return o.ProfileEmail
	}
	return unknownCustomer
}

// Summary aggregates non-cancelled orders over a period.
type Summary struct {
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int             `json:"orderCount"`
}
