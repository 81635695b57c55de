package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Lolobw32/ecom-oslan/internal/admin"
	"github.com/Lolobw32/ecom-oslan/internal/catalog"
	"github.com/Lolobw32/ecom-oslan/internal/order"
)

type Admin interface {
	KPIs(ctx context.Context, days int) (admin.KPIs, error)
	Products(ctx context.Context) ([]catalog.Product, error)
	SaveProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	SetProductActive(ctx context.Context, productID string, active bool) error
	DeleteProduct(ctx context.Context, productID string) error
	Orders(ctx context.Context, status string) ([]order.Order, error)
	Order(ctx context.Context, orderID string) (*order.Order, error)
	SetOrderStatus(ctx context.Context, orderID, status string) error
}

type adminOrder struct {
	order.Order
	CustomerName string `json:"customerName"`
}

func (h *Handler) AdminKPIs(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	k, err := h.d.Admin.KPIs(ctx, days)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	orders, err := h.d.Admin.Orders(ctx, r.URL.Query().Get("status"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]adminOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, adminOrder{Order: o, CustomerName: o.CustomerName()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	o, err := h.d.Admin.Order(ctx, chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminOrder{Order: *o, CustomerName: o.CustomerName()})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) AdminSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.d.Admin.SetOrderStatus(ctx, chi.URLParam(r, "orderId"), req.Status); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	products, err := h.d.Admin.Products(ctx)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = ""
	h.saveProduct(w, r, http.StatusCreated, p)
}

func (h *Handler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "productId")
	h.saveProduct(w, r, http.StatusOK, p)
}

func (h *Handler) saveProduct(w http.ResponseWriter, r *http.Request, status int, p catalog.Product) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	saved, err := h.d.Admin.SaveProduct(ctx, p)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, status, saved)
}

func (h *Handler) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.d.Admin.DeleteProduct(ctx, chi.URLParam(r, "productId")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activeRequest struct {
	IsActive *bool `json:"isActive"`
}

func (h *Handler) AdminSetProductActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		writeError(w, r, http.StatusBadRequest, "missing isActive")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.d.Admin.SetProductActive(ctx, chi.URLParam(r, "productId"), *req.IsActive); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
