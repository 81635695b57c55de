// Package pricing derives cart totals. Everything here is a pure function of
// its inputs.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Lolobw32/ecom-oslan/internal/cart"
)

// PriceLookup resolves a product id to its unit price. Only exact ids are
// considered.
type PriceLookup interface {
	UnitPrice(productID string) (decimal.Decimal, bool)
}

// PriceFunc adapts a function to PriceLookup.
type PriceFunc func(productID string) (decimal.Decimal, bool)

func (f PriceFunc) UnitPrice(productID string) (decimal.Decimal, bool) { return f(productID) }

type Rules struct {
	Promos           Promos
	FreeShippingFrom decimal.Decimal
	FlatShippingFee  decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		Promos: Promos{
			"START":   decimal.RequireFromString("0.15"),
			"OSLAN10": decimal.RequireFromString("0.10"),
			"OSLAN20": decimal.RequireFromString("0.20"),
		},
		FreeShippingFrom: decimal.NewFromInt(50),
		FlatShippingFee:  decimal.RequireFromString("4.99"),
	}
}

type Quote struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	ShippingFee   decimal.Decimal `json:"shippingFee"`
	Total         decimal.Decimal `json:"total"`
	PromoCode     string          `json:"promoCode,omitempty"`
	PromoFraction decimal.Decimal `json:"promoFraction"`
	ItemCount     int             `json:"itemCount"`
	// Unpriced lists cart product ids missing from the catalog.
	Unpriced []string `json:"unpriced,omitempty"`
}

func (q Quote) FreeShipping() bool { return q.ShippingFee.IsZero() }

type Engine struct {
	rules Rules
}

func NewEngine(rules Rules) *Engine {
	if rules.Promos == nil {
		rules.Promos = Promos{}
	}
	return &Engine{rules: rules}
}

// ValidatePromo returns the normalized code, or ErrInvalidPromo.
func (e *Engine) ValidatePromo(code string) (string, decimal.Decimal, error) {
	normalized, fraction, ok := e.rules.Promos.Lookup(code)
	if !ok {
		return "", decimal.Zero, ErrInvalidPromo
	}
	return normalized, fraction, nil
}

// Quote prices items. An unknown applied promo contributes no discount.
func (e *Engine) Quote(items []cart.Item, prices PriceLookup, promo string) Quote {
	q := Quote{
		Subtotal:      decimal.Zero,
		Discount:      decimal.Zero,
		PromoFraction: decimal.Zero,
	}

	for _, it := range items {
		q.ItemCount += it.Quantity
		price, ok := prices.UnitPrice(it.ProductID)
		if !ok {
			q.Unpriced = append(q.Unpriced, it.ProductID)
			continue
		}
		q.Subtotal = q.Subtotal.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	if code, fraction, ok := e.rules.Promos.Lookup(promo); ok {
		q.PromoCode = code
		q.PromoFraction = fraction
		q.Discount = decimal.Min(q.Subtotal.Mul(fraction), q.Subtotal)
	}

	q.ShippingFee = e.rules.FlatShippingFee
	if q.Subtotal.GreaterThanOrEqual(e.rules.FreeShippingFrom) {
		q.ShippingFee = decimal.Zero
	}

	q.Total = q.Subtotal.Sub(q.Discount).Add(q.ShippingFee)
	return q
}
