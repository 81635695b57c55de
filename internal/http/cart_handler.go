package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/cart"
	"github.com/Lolobw32/ecom-oslan/internal/pricing"
	"github.com/Lolobw32/ecom-oslan/internal/storefront"
)

type cartResponse struct {
	Items []cart.Item `json:"items"`
	// Quote is nil while the catalog cannot be reached.
	Quote   *pricing.Quote `json:"quote"`
	Count   int            `json:"count"`
	Warning string         `json:"warning,omitempty"`
}

// writeCart renders the cart. A catalog outage still shows the items, just
// without prices.
func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, status int, v storefront.View, err error) {
	if err != nil && !errors.Is(err, storefront.ErrCatalogUnavailable) {
		h.writeDomainError(w, r, err)
		return
	}
	items := v.Items
	if items == nil {
		items = []cart.Item{}
	}
	resp := cartResponse{Items: items, Count: cart.Count(items)}
	if err != nil {
		h.logger.Warn("cart priced without catalog", zap.Error(err))
		resp.Warning = "prices are temporarily unavailable"
	} else {
		q := v.Quote
		resp.Quote = &q
	}
	writeJSON(w, status, resp)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	v, err := h.session(r).Cart(ctx)
	h.writeCart(w, r, http.StatusOK, v, err)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	v, err := h.session(r).AddItem(ctx, req.ProductID, req.Size)
	h.writeCart(w, r, http.StatusOK, v, err)
}

func cartIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "index must be an integer")
		return 0, false
	}
	return i, true
}

type changeQuantityRequest struct {
	Delta int `json:"delta"`
}

// ChangeCartQuantity applies a +1/-1 delta. Going below one removes the line.
func (h *Handler) ChangeCartQuantity(w http.ResponseWriter, r *http.Request) {
	index, ok := cartIndex(w, r)
	if !ok {
		return
	}
	var req changeQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Delta == 0 {
		writeError(w, r, http.StatusBadRequest, "delta must not be zero")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	v, err := h.session(r).ChangeQuantity(ctx, index, req.Delta)
	h.writeCart(w, r, http.StatusOK, v, err)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	index, ok := cartIndex(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	v, err := h.session(r).RemoveItem(ctx, index)
	h.writeCart(w, r, http.StatusOK, v, err)
}

type promoRequest struct {
	Code string `json:"code"`
}

func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	v, err := h.session(r).ApplyPromo(ctx, req.Code)
	h.writeCart(w, r, http.StatusOK, v, err)
}

// TakeCelebrate reports and clears the one-shot "item added" flag.
func (h *Handler) TakeCelebrate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	writeJSON(w, http.StatusOK, map[string]bool{"celebrate": h.session(r).TakeCelebrate(ctx)})
}
