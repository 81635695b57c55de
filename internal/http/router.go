// Package httpapi exposes the storefront, profile and back-office over JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/analytics"
	"github.com/Lolobw32/ecom-oslan/internal/catalog"
	"github.com/Lolobw32/ecom-oslan/internal/customer"
	"github.com/Lolobw32/ecom-oslan/internal/middleware"
	"github.com/Lolobw32/ecom-oslan/internal/order"
	"github.com/Lolobw32/ecom-oslan/internal/profile"
	"github.com/Lolobw32/ecom-oslan/internal/storefront"
)

const defaultRequestTimeout = 5 * time.Second

type Sessions interface {
	Get(sessionID string) *storefront.Session
}

type Products interface {
	List(ctx context.Context, activeOnly bool) ([]catalog.Product, error)
	Get(ctx context.Context, productID string) (catalog.Product, error)
}

type Profiles interface {
	Overview(ctx context.Context, userID, email string) (profile.Overview, error)
	Save(ctx context.Context, userID string, info customer.Info) error
}

type OrderHistory interface {
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
}

type PageViews interface {
	TrackPageView(ctx context.Context, pv analytics.PageView) (string, error)
}

// Deps wires the router. Admin, Profiles and PageViews may be nil to leave
// their routes out.
type Deps struct {
	Sessions  Sessions
	Products  Products
	Profiles  Profiles
	Orders    OrderHistory
	PageViews PageViews
	Admin     Admin

	Verifier middleware.TokenVerifier
	Roles    middleware.RoleLookup

	AllowOrigins   []string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

type Handler struct {
	d       Deps
	timeout time.Duration
	logger  *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Handler{d: d, timeout: timeout, logger: d.Logger.Named("http")}
}

func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)
	allow := d.AllowOrigins
	if len(allow) == 0 {
		allow = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(middleware.Recover(h.logger))
	r.Use(middleware.CORS(allow))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{productId}", h.GetProduct)

		if d.PageViews != nil {
			r.Post("/analytics/pageview", h.TrackPageView)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionID)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Post("/items", h.AddCartItem)
				r.Patch("/items/{index}", h.ChangeCartQuantity)
				r.Delete("/items/{index}", h.RemoveCartItem)
				r.Post("/promo", h.ApplyPromo)
				r.Get("/celebrate", h.TakeCelebrate)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", h.CheckoutState)
				r.Post("/open", h.OpenCheckout)
				r.Post("/close", h.CloseCheckout)
				r.Post("/signin", h.CheckoutSignIn)
				r.Post("/signup", h.CheckoutSignUp)
				r.Put("/identity", h.SetIdentity)
				r.Put("/address", h.SetAddress)
				r.Put("/payment", h.SetPayment)
				r.Post("/next", h.AdvanceCheckout)
				r.Post("/back", h.BackCheckout)
				r.Post("/confirm", h.ConfirmCheckout)
			})
		})

		if d.Profiles != nil {
			r.Route("/me", func(r chi.Router) {
				r.Use(middleware.RequireUser(d.Verifier))
				r.Get("/profile", h.GetProfile)
				r.Put("/profile", h.SaveProfile)
				r.Get("/orders", h.MyOrders)
			})
		}

		if d.Admin != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireUser(d.Verifier))
				r.Use(middleware.RequireAdmin(d.Roles, h.logger))

				r.Get("/kpis", h.AdminKPIs)
				r.Get("/orders", h.AdminListOrders)
				r.Get("/orders/{orderId}", h.AdminGetOrder)
				r.Patch("/orders/{orderId}/status", h.AdminSetOrderStatus)
				r.Get("/products", h.AdminListProducts)
				r.Post("/products", h.AdminCreateProduct)
				r.Put("/products/{productId}", h.AdminUpdateProduct)
				r.Delete("/products/{productId}", h.AdminDeleteProduct)
				r.Patch("/products/{productId}/active", h.AdminSetProductActive)
			})
		}
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "oslan-storefront",
	})
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) session(r *http.Request) *storefront.Session {
	return h.d.Sessions.Get(middleware.GetSessionID(r.Context()))
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	middleware.WriteError(w, r, status, msg)
}
