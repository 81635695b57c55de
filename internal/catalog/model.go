package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryHomme Category = "Homme"
	CategoryFemme Category = "Femme"
)

// LowStockBelow is the quantity under which the product page warns.
const LowStockBelow = 5

type Product struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	SizeStock     map[string]int  `json:"sizeStock"`
	Images        []string        `json:"images"`
	ImageURL      string          `json:"imageUrl"`
	Category      Category        `json:"category"`
	IsPreorder    bool            `json:"isPreorder"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
}

var (
	ErrInvalidTitle    = errors.New("title is required")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidCategory = errors.New("category must be Homme or Femme")
	ErrInvalidStock    = errors.New("size stock must not be negative")
)

// Prepare applies the back-office save rules: the total stock is the sum of
// the per-size stock and the first image is the primary one.
func (p *Product) Prepare() error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return ErrInvalidTitle
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	switch p.Category {
	case CategoryHomme, CategoryFemme, "":
	default:
		return ErrInvalidCategory
	}

	if p.SizeStock == nil {
		p.SizeStock = map[string]int{}
	}
	if len(p.SizeStock) > 0 {
		total := 0
		for _, qty := range p.SizeStock {
			if qty < 0 {
				return ErrInvalidStock
			}
			total += qty
		}
		p.StockQuantity = total
	}
	if p.StockQuantity < 0 {
		return ErrInvalidStock
	}

	if p.Images == nil {
		p.Images = []string{}
	}
	p.ImageURL = ""
	if len(p.Images) > 0 {
		p.ImageURL = p.Images[0]
	}
	return nil
}

type StockStatus string

const (
	StockInStock  StockStatus = "in_stock"
	StockLow      StockStatus = "low_stock"
	StockOut      StockStatus = "out_of_stock"
	StockPreorder StockStatus = "preorder"
)

type Availability struct {
	Status   StockStatus `json:"status"`
	CanOrder bool        `json:"canOrder"`
}

// Availability is what the product page shows. A preorder can always be
// ordered.
func (p Product) Availability() Availability {
	switch {
	case p.IsPreorder:
		return Availability{Status: StockPreorder, CanOrder: true}
	case p.StockQuantity <= 0:
		return Availability{Status: StockOut, CanOrder: false}
	case p.StockQuantity < LowStockBelow:
		return Availability{Status: StockLow, CanOrder: true}
	default:
		return Availability{Status: StockInStock, CanOrder: true}
	}
}

// Index is an exact-id price lookup over a product listing.
type Index map[string]Product

func NewIndex(products []Product) Index {
	idx := make(Index, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

func (idx Index) UnitPrice(productID string) (decimal.Decimal, bool) {
	p, ok := idx[productID]
	if !ok {
		return decimal.Zero, false
	}
	return p.Price, true
}
