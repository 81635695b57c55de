package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Lolobw32/ecom-oslan/internal/catalog"
)

type productResponse struct {
	catalog.Product
	Availability catalog.Availability `json:"availability"`
}

// ListProducts lists active products, optionally narrowed with ?category=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	products, err := h.d.Products.List(ctx, true)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		if category != "" && !strings.EqualFold(string(p.Category), category) {
			continue
		}
		out = append(out, productResponse{Product: p, Availability: p.Availability()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	ctx, cancel := h.requestContext(r)
	defer cancel()

	p, err := h.d.Products.Get(ctx, productID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if !p.IsActive {
		writeError(w, r, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Product: p, Availability: p.Availability()})
}
