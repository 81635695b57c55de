// Package resolve maps a cart's symbolic product id onto a catalog product.
//
// The chain is exact id, then title substring, then keyword heuristics. The
// keyword step exists for carts written before products had database ids
// (slugs like "tshirt-blanc") and is a placeholder until the matching rules
// are settled; keep it out of pricing.
package resolve

import (
	"strings"

	"github.com/Lolobw32/ecom-oslan/internal/catalog"
)

type Match string

const (
	MatchExact   Match = "exact"
	MatchTitle   Match = "title"
	MatchKeyword Match = "keyword"
)

func DefaultKeywords() []string { return []string{"blanc", "noir"} }

// Strategy is one step of the resolution chain.
type Strategy interface {
	Name() Match
	Resolve(productID string, products []catalog.Product) (catalog.Product, bool)
}

type Resolver struct {
	chain []Strategy
}

// New builds the default chain: exact id, title substring, then keywords.
func New(keywords []string) *Resolver {
	return NewWithChain(ExactID{}, TitleSubstring{}, Keywords{Words: keywords})
}

func NewWithChain(chain ...Strategy) *Resolver {
	return &Resolver{chain: chain}
}

// Resolve returns the first product any strategy matches, and which strategy
// matched.
func (r *Resolver) Resolve(productID string, products []catalog.Product) (catalog.Product, Match, bool) {
	for _, s := range r.chain {
		if p, ok := s.Resolve(productID, products); ok {
			return p, s.Name(), true
		}
	}
	return catalog.Product{}, "", false
}

type ExactID struct{}

func (ExactID) Name() Match { return MatchExact }

func (ExactID) Resolve(productID string, products []catalog.Product) (catalog.Product, bool) {
	for _, p := range products {
		if p.ID == productID {
			return p, true
		}
	}
	return catalog.Product{}, false
}

// TitleSubstring matches when the de-slugged id and the lower-cased title
// contain one another.
type TitleSubstring struct{}

func (TitleSubstring) Name() Match { return MatchTitle }

func (TitleSubstring) Resolve(productID string, products []catalog.Product) (catalog.Product, bool) {
	needle := deslug(productID)
	if needle == "" {
		return catalog.Product{}, false
	}
	for _, p := range products {
		title := strings.ToLower(strings.TrimSpace(p.Title))
		if title == "" {
			continue
		}
		if strings.Contains(title, needle) || strings.Contains(needle, title) {
			return p, true
		}
	}
	return catalog.Product{}, false
}

// Keywords tries the configured words in order. For each word present in the
// id it returns the first product whose title carries that word; when no title
// does, the next word is tried.
type Keywords struct {
	Words []string
}

func (Keywords) Name() Match { return MatchKeyword }

func (k Keywords) Resolve(productID string, products []catalog.Product) (catalog.Product, bool) {
	id := strings.ToLower(productID)
	for _, w := range k.Words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || !strings.Contains(id, w) {
			continue
		}
		for _, p := range products {
			if strings.Contains(strings.ToLower(p.Title), w) {
				return p, true
			}
		}
	}
	return catalog.Product{}, false
}

func deslug(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.NewReplacer("-", " ", "_", " ").Replace(id)
	return strings.Join(strings.Fields(id), " ")
}
