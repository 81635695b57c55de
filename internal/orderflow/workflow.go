package orderflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/cart"
	"github.com/Lolobw32/ecom-oslan/internal/catalog"
	"github.com/Lolobw32/ecom-oslan/internal/customer"
	"github.com/Lolobw32/ecom-oslan/internal/order"
	"github.com/Lolobw32/ecom-oslan/internal/resolve"
)

type Catalog interface {
	List(ctx context.Context, activeOnly bool) ([]catalog.Product, error)
	Stock(ctx context.Context, productID string) (int, error)
	UpdateStock(ctx context.Context, productID string, quantity int) error
}

type Orders interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	CreateItems(ctx context.Context, items []order.Item) error
}

type Cart interface {
	Get(ctx context.Context) []cart.Item
	Clear(ctx context.Context) error
}

type PromoClearer interface {
	ClearPromo()
}

// Notifier announces placed orders. Failures never fail the submission.
type Notifier interface {
	OrderPlaced(ctx context.Context, o order.Order) error
}

type Submission struct {
	Cart     Cart
	Promo    PromoClearer
	Customer customer.Info
	// UserID is empty for guest checkout.
	UserID string
}

type Result struct {
	OrderID   string          `json:"orderId"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	Dropped   []string        `json:"dropped,omitempty"`
}

type Workflow struct {
	catalog  Catalog
	orders   Orders
	resolver *resolve.Resolver
	notifier Notifier
	atomic   bool
	logger   *zap.Logger
}

type Option func(*Workflow)

func WithNotifier(n Notifier) Option {
	return func(w *Workflow) { w.notifier = n }
}

// WithAtomicWrites writes the order and its items in one transaction when the
// order repository supports it.
func WithAtomicWrites(enabled bool) Option {
	return func(w *Workflow) { w.atomic = enabled }
}

func New(c Catalog, orders Orders, resolver *resolve.Resolver, logger *zap.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		catalog:  c,
		orders:   orders,
		resolver: resolver,
		logger:   logger.Named("orderflow"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type line struct {
	item    cart.Item
	product catalog.Product
}

// Submit turns the cart into a pending order. Once the order insert starts
// the caller's cancellation no longer applies.
func (w *Workflow) Submit(ctx context.Context, s Submission) (Result, error) {
	products, err := w.catalog.List(ctx, true)
	if err != nil {
		w.logger.Error("catalog fetch failed", zap.Error(err))
		return Result{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	var (
		res   Result
		lines []line
	)
	for _, it := range s.Cart.Get(ctx) {
		p, match, ok := w.resolver.Resolve(it.ProductID, products)
		if !ok {
			w.logger.Warn("dropping unresolved cart item", zap.String("product_id", it.ProductID))
			res.Dropped = append(res.Dropped, it.ProductID)
			continue
		}
		if match != resolve.MatchExact {
			w.logger.Warn("cart item resolved by fallback",
				zap.String("product_id", it.ProductID),
				zap.String("resolved_id", p.ID),
				zap.String("match", string(match)),
			)
		}
		lines = append(lines, line{item: it, product: p})
	}
	if len(lines) == 0 {
		return res, ErrCartInvalid
	}

	total := decimal.Zero
	items := make([]order.Item, 0, len(lines))
	for _, ln := range lines {
		total = total.Add(ln.product.Price.Mul(decimal.NewFromInt(int64(ln.item.Quantity))))
		items = append(items, order.Item{
			ProductID:       ln.product.ID,
			Quantity:        ln.item.Quantity,
			PriceAtPurchase: ln.product.Price,
			Size:            ln.item.Size,
		})
		res.ItemCount += ln.item.Quantity
	}
	res.Total = total

	ctx = context.WithoutCancel(ctx)

	o := &order.Order{
		UserID:          s.UserID,
		TotalAmount:     total,
		Status:          order.StatusPending,
		ShippingAddress: s.Customer,
		Items:           items,
	}
	if err := w.persist(ctx, o); err != nil {
		return res, err
	}
	res.OrderID = o.ID

	for _, ln := range lines {
		w.decrementStock(ctx, ln.product.ID, ln.item.Quantity)
	}

	if err := s.Cart.Clear(ctx); err != nil {
		w.logger.Error("clear cart after order", zap.String("order_id", o.ID), zap.Error(err))
	}
	if s.Promo != nil {
		s.Promo.ClearPromo()
	}

	if w.notifier != nil {
		if err := w.notifier.OrderPlaced(ctx, *o); err != nil {
			w.logger.Warn("order placed notification failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	w.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("total", total.StringFixed(2)),
		zap.Int("items", res.ItemCount),
	)
	return res, nil
}

func (w *Workflow) persist(ctx context.Context, o *order.Order) error {
	if aw, ok := w.orders.(order.AtomicWriter); ok && w.atomic {
		if err := aw.CreateWithItems(ctx, o); err != nil {
			w.logger.Error("create order with items", zap.Error(err))
			return submissionError(err)
		}
		return nil
	}

	if err := w.orders.CreateOrder(ctx, o); err != nil {
		w.logger.Error("create order", zap.Error(err))
		return submissionError(err)
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	if err := w.orders.CreateItems(ctx, o.Items); err != nil {
		w.logger.Error("create order items, order left pending without items",
			zap.String("order_id", o.ID), zap.Error(err))
		return &ItemsError{OrderID: o.ID, Err: err}
	}
	return nil
}

func submissionError(err error) error {
	if errors.Is(err, order.ErrPermissionDenied) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
}

// decrementStock is a read-then-write floored at zero. Failures are logged
// and never retried.
func (w *Workflow) decrementStock(ctx context.Context, productID string, qty int) {
	current, err := w.catalog.Stock(ctx, productID)
	if err != nil {
		w.logger.Error("read stock", zap.String("product_id", productID), zap.Error(err))
		return
	}
	next := max(current-qty, 0)
	if err := w.catalog.UpdateStock(ctx, productID, next); err != nil {
		w.logger.Error("update stock", zap.String("product_id", productID), zap.Error(err))
	}
}
