// Package admin backs the back-office: KPIs, the product editor and order
// management. Callers must already be checked for the admin role.
package admin

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/catalog"
	"github.com/Lolobw32/ecom-oslan/internal/order"
)

const DefaultPeriodDays = 7

type Products interface {
	List(ctx context.Context, activeOnly bool) ([]catalog.Product, error)
	Create(ctx context.Context, p *catalog.Product) error
	Update(ctx context.Context, p catalog.Product) error
	SetActive(ctx context.Context, productID string, active bool) error
	Delete(ctx context.Context, productID string) error
}

type Orders interface {
	List(ctx context.Context, status order.Status) ([]order.Order, error)
	GetByID(ctx context.Context, orderID string) (*order.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status order.Status) error
	Summary(ctx context.Context, since time.Time) (order.Summary, error)
}

type Visitors interface {
	UniqueVisitors(ctx context.Context, since time.Time) (int, error)
}

type KPIs struct {
	PeriodDays     int             `json:"periodDays"`
	Since          time.Time       `json:"since"`
	Revenue        decimal.Decimal `json:"revenue"`
	OrderCount     int             `json:"orderCount"`
	UniqueVisitors int             `json:"uniqueVisitors"`
}

type Service struct {
	products Products
	orders   Orders
	visitors Visitors
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(products Products, orders Orders, visitors Visitors, logger *zap.Logger) *Service {
	return &Service{
		products: products,
		orders:   orders,
		visitors: visitors,
		logger:   logger.Named("admin"),
		now:      time.Now,
	}
}

// KPIs covers the last days (DefaultPeriodDays when days < 1). Cancelled
// orders are excluded. A visitor count failure leaves it at zero.
func (s *Service) KPIs(ctx context.Context, days int) (KPIs, error) {
	if days < 1 {
		days = DefaultPeriodDays
	}
	since := s.now().AddDate(0, 0, -days)

	sum, err := s.orders.Summary(ctx, since)
	if err != nil {
		return KPIs{}, err
	}
	k := KPIs{
		PeriodDays: days,
		Since:      since,
		Revenue:    sum.Revenue,
		OrderCount: sum.OrderCount,
	}

	if s.visitors != nil {
		n, err := s.visitors.UniqueVisitors(ctx, since)
		if err != nil {
			s.logger.Warn("unique visitors unavailable", zap.Error(err))
		} else {
			k.UniqueVisitors = n
		}
	}
	return k, nil
}

func (s *Service) Products(ctx context.Context) ([]catalog.Product, error) {
	return s.products.List(ctx, false)
}

// SaveProduct creates the product when it has no id yet, else replaces it.
func (s *Service) SaveProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if err := p.Prepare(); err != nil {
		return catalog.Product{}, err
	}
	if p.ID == "" {
		if err := s.products.Create(ctx, &p); err != nil {
			return catalog.Product{}, err
		}
		s.logger.Info("product created", zap.String("product_id", p.ID))
		return p, nil
	}
	if err := s.products.Update(ctx, p); err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

func (s *Service) SetProductActive(ctx context.Context, productID string, active bool) error {
	return s.products.SetActive(ctx, productID, active)
}

func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	if err := s.products.Delete(ctx, productID); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", productID))
	return nil
}

// Orders lists orders newest first. An empty or "all" filter lists every
// status.
func (s *Service) Orders(ctx context.Context, status string) ([]order.Order, error) {
	var st order.Status
	if f := strings.TrimSpace(status); f != "" && !strings.EqualFold(f, "all") {
		var err error
		if st, err = order.ParseStatus(f); err != nil {
			return nil, err
		}
	}
	return s.orders.List(ctx, st)
}

func (s *Service) Order(ctx context.Context, orderID string) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (s *Service) SetOrderStatus(ctx context.Context, orderID, status string) error {
	st, err := order.ParseStatus(status)
	if err != nil {
		return err
	}
	if err := s.orders.UpdateStatus(ctx, orderID, st); err != nil {
		return err
	}
	s.logger.Info("order status changed", zap.String("order_id", orderID), zap.String("status", string(st)))
	return nil
}
