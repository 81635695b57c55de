package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidPromo = errors.New("invalid promo code")

// Promos maps an upper-cased code to its discount fraction in [0,1).
type Promos map[string]decimal.Decimal

// NormalizeCode trims and upper-cases user input.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup matches code case-insensitively.
func (p Promos) Lookup(code string) (string, decimal.Decimal, bool) {
	code = NormalizeCode(code)
	if code == "" {
		return "", decimal.Zero, false
	}
	fraction, ok := p[code]
	if !ok {
		return "", decimal.Zero, false
	}
	return code, fraction, true
}
