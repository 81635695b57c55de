package cart

import "strings"

// Well-known session storage keys.
const (
	KeyCart      = "cart"
	KeyCount     = "cartItems"
	KeyCelebrate = "showCartConfetti"
)

const DefaultSize = "M"

// MaxQuantity caps a single cart line.
const MaxQuantity = 999

// Item is one cart line. At most one Item exists per (ProductID, Size).
type Item struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

func (it Item) sameLine(productID, size string) bool {
	return it.ProductID == productID && it.Size == size
}

// Count sums the quantities of items.
func Count(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// normalizeSize trims size and keeps its case, so "xl" and "XL" are separate
// lines.
func normalizeSize(size, def string) string {
	size = strings.TrimSpace(size)
	if size == "" {
		return def
	}
	return size
}
