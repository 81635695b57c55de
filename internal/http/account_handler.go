package httpapi

import (
	"net/http"

	"github.com/Lolobw32/ecom-oslan/internal/customer"
	"github.com/Lolobw32/ecom-oslan/internal/middleware"
	"github.com/Lolobw32/ecom-oslan/internal/order"
)

// GetProfile returns the profile page: display name, location, stored
// details and order history.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())

	ctx, cancel := h.requestContext(r)
	defer cancel()

	ov, err := h.d.Profiles.Overview(ctx, u.ID, u.Email)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())

	var info customer.Info
	if !decodeJSON(w, r, &info) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.d.Profiles.Save(ctx, u.ID, info); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	ov, err := h.d.Profiles.Overview(ctx, u.ID, u.Email)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())

	ctx, cancel := h.requestContext(r)
	defer cancel()

	orders, err := h.d.Orders.ListByUser(ctx, u.ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}
