// Package storefront holds per-browser-session state: the cart, the applied
// promo code and the checkout in progress.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/auth"
	"github.com/Lolobw32/ecom-oslan/internal/cart"
	"github.com/Lolobw32/ecom-oslan/internal/catalog"
	"github.com/Lolobw32/ecom-oslan/internal/checkout"
	"github.com/Lolobw32/ecom-oslan/internal/customer"
	"github.com/Lolobw32/ecom-oslan/internal/kv"
	"github.com/Lolobw32/ecom-oslan/internal/orderflow"
	"github.com/Lolobw32/ecom-oslan/internal/pricing"
)

var ErrCatalogUnavailable = errors.New("catalog unavailable")

type ProductLister interface {
	List(ctx context.Context, activeOnly bool) ([]catalog.Product, error)
}

type Submitter interface {
	Submit(ctx context.Context, s orderflow.Submission) (orderflow.Result, error)
}

// Deps is shared by every session of a Registry.
type Deps struct {
	Storage   kv.Provider
	Catalog   ProductLister
	Pricing   *pricing.Engine
	Workflow  Submitter
	Authority auth.Authority
	Profiles  checkout.ProfileStore
	// CartObserver, when set, builds a count observer per session.
	CartObserver func(sessionID string) cart.CountObserver
	DefaultSize  string
	// IdleTTL enables Registry.Sweep. Zero keeps sessions for the process
	// lifetime.
	IdleTTL time.Duration
	Logger  *zap.Logger
}

// View is the cart as the storefront renders it.
type View struct {
	Items []cart.Item   `json:"items"`
	Quote pricing.Quote `json:"quote"`
}

type Session struct {
	id       string
	cart     *cart.Store
	auth     *auth.Client
	checkout *checkout.Controller
	catalog  ProductLister
	engine   *pricing.Engine
	workflow Submitter

	mu    sync.Mutex
	promo string
}

func newSession(id string, d Deps) *Session {
	storage := d.Storage.ForSession(id)
	logger := d.Logger.With(zap.String("session_id", id))

	opts := []cart.Option{}
	if d.DefaultSize != "" {
		opts = append(opts, cart.WithDefaultSize(d.DefaultSize))
	}
	if d.CartObserver != nil {
		opts = append(opts, cart.WithObserver(d.CartObserver(id)))
	}

	client := auth.NewClient(d.Authority, storage)
	return &Session{
		id:       id,
		cart:     cart.NewStore(storage, logger, opts...),
		auth:     client,
		checkout: checkout.NewController(client, d.Profiles, logger),
		catalog:  d.Catalog,
		engine:   d.Pricing,
		workflow: d.Workflow,
	}
}

func (s *Session) ID() string                     { return s.id }
func (s *Session) Auth() *auth.Client             { return s.auth }
func (s *Session) Checkout() *checkout.Controller { return s.checkout }

func (s *Session) Promo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promo
}

func (s *Session) ClearPromo() {
	s.mu.Lock()
	s.promo = ""
	s.mu.Unlock()
}

// Quote prices the current cart against the active catalog.
func (s *Session) Quote(ctx context.Context) (pricing.Quote, error) {
	v, err := s.view(ctx, s.cart.Get(ctx))
	return v.Quote, err
}

func (s *Session) Cart(ctx context.Context) (View, error) {
	return s.view(ctx, s.cart.Get(ctx))
}

func (s *Session) view(ctx context.Context, items []cart.Item) (View, error) {
	v := View{Items: items}
	products, err := s.catalog.List(ctx, true)
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	v.Quote = s.engine.Quote(items, catalog.NewIndex(products), s.Promo())
	return v, nil
}

// AddItem also arms the one-shot confirmation flag.
func (s *Session) AddItem(ctx context.Context, productID, size string) (View, error) {
	items, err := s.cart.AddOrIncrement(ctx, productID, size)
	if err != nil {
		return View{}, err
	}
	if err := s.cart.MarkCelebrate(ctx); err != nil {
		return View{}, err
	}
	return s.view(ctx, items)
}

func (s *Session) ChangeQuantity(ctx context.Context, index, delta int) (View, error) {
	items, err := s.cart.ChangeQuantity(ctx, index, delta)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, items)
}

func (s *Session) RemoveItem(ctx context.Context, index int) (View, error) {
	items, err := s.cart.Remove(ctx, index)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, items)
}

// ApplyPromo keeps the previous code when the new one is unknown and returns
// pricing.ErrInvalidPromo.
func (s *Session) ApplyPromo(ctx context.Context, code string) (View, error) {
	normalized, _, err := s.engine.ValidatePromo(code)
	if err != nil {
		v, verr := s.Cart(ctx)
		if verr != nil {
			return v, verr
		}
		return v, err
	}
	s.mu.Lock()
	s.promo = normalized
	s.mu.Unlock()
	return s.Cart(ctx)
}

func (s *Session) TakeCelebrate(ctx context.Context) bool {
	return s.cart.TakeCelebrate(ctx)
}

func (s *Session) CartCount(ctx context.Context) int {
	return s.cart.Count(ctx)
}

func (s *Session) OpenCheckout(ctx context.Context) (checkout.State, error) {
	return s.checkout.Open(ctx)
}

func (s *Session) CloseCheckout() checkout.State {
	return s.checkout.Close()
}

// Confirm places the order with this session as cart and promo holder.
func (s *Session) Confirm(ctx context.Context) (orderflow.Result, error) {
	return s.checkout.Confirm(ctx, func(ctx context.Context, info customer.Info, userID string) (orderflow.Result, error) {
		return s.workflow.Submit(ctx, orderflow.Submission{
			Cart:     s.cart,
			Promo:    s,
			Customer: info,
			UserID:   userID,
		})
	})
}
