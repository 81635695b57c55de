package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lolobw32/ecom-oslan/internal/catalog"
)

var products = []catalog.Product{
	{ID: "9b1c", Title: "T-shirt Signature Oslan Blanc"},
	{ID: "4f2e", Title: "T-shirt Signature Oslan Noir"},
	{ID: "77aa", Title: "Casquette"},
}

func TestResolver_Chain(t *testing.T) {
	r := New(DefaultKeywords())

	tests := map[string]struct {
		productID string
		wantID    string
		wantMatch Match
		wantOK    bool
	}{
		"exact id":                {"4f2e", "4f2e", MatchExact, true},
		"slug contained in title": {"casquette", "77aa", MatchTitle, true},
		"title contained in slug": {"casquette-oslan-2024", "77aa", MatchTitle, true},
		"keyword blanc":           {"tshirt-blanc-femme", "9b1c", MatchKeyword, true},
		"keyword noir":            {"tshirt-noir-homme", "4f2e", MatchKeyword, true},
		"unresolved is dropped":   {"sweat-rouge", "", "", false},
		"empty id":                {"", "", "", false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p, match, ok := r.Resolve(tc.productID, products)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantMatch, match)
			assert.Equal(t, tc.wantID, p.ID)
		})
	}
}

func TestResolver_NeverFallsBackToFirstProduct(t *testing.T) {
	r := New(nil)
	_, _, ok := r.Resolve("tshirt-blanc", products)
	assert.False(t, ok)
}

func TestResolver_CustomChain(t *testing.T) {
	r := NewWithChain(ExactID{})
	_, _, ok := r.Resolve("casquette", products)
	assert.False(t, ok)

	p, match, ok := r.Resolve("77aa", products)
	assert.True(t, ok)
	assert.Equal(t, MatchExact, match)
	assert.Equal(t, "Casquette", p.Title)
}

func TestKeywords_FallsThroughToNextWord(t *testing.T) {
	onlyNoir := []catalog.Product{{ID: "4f2e", Title: "T-shirt Signature Oslan Noir"}}
	k := Keywords{Words: DefaultKeywords()}

	p, ok := k.Resolve("tshirt-blanc-noir", onlyNoir)
	assert.True(t, ok)
	assert.Equal(t, "4f2e", p.ID)
}
