package orderflow

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Lolobw32/ecom-oslan/internal/cart"
	"github.com/Lolobw32/ecom-oslan/internal/catalog"
	"github.com/Lolobw32/ecom-oslan/internal/customer"
	"github.com/Lolobw32/ecom-oslan/internal/order"
	"github.com/Lolobw32/ecom-oslan/internal/resolve"
)

type fakeCatalog struct {
	products []catalog.Product
	listErr  error

	stock     map[string]int
	stockErr  map[string]error
	updateErr map[string]error
	updates   []string
}

func (f *fakeCatalog) List(context.Context, bool) ([]catalog.Product, error) {
	return f.products, f.listErr
}

func (f *fakeCatalog) Stock(_ context.Context, id string) (int, error) {
	if err := f.stockErr[id]; err != nil {
		return 0, err
	}
	return f.stock[id], nil
}

func (f *fakeCatalog) UpdateStock(_ context.Context, id string, qty int) error {
	f.updates = append(f.updates, id)
	if err := f.updateErr[id]; err != nil {
		return err
	}
	f.stock[id] = qty
	return nil
}

type fakeOrders struct {
	createOrderFn func(ctx context.Context, o *order.Order) error
	createItemsFn func(ctx context.Context, items []order.Item) error

	orders []order.Order
	items  []order.Item
}

func (f *fakeOrders) CreateOrder(ctx context.Context, o *order.Order) error {
	if f.createOrderFn != nil {
		if err := f.createOrderFn(ctx, o); err != nil {
			return err
		}
	}
	if o.ID == "" {
		o.ID = "order-1"
	}
	f.orders = append(f.orders, *o)
	return nil
}

func (f *fakeOrders) CreateItems(ctx context.Context, items []order.Item) error {
	if f.createItemsFn != nil {
		if err := f.createItemsFn(ctx, items); err != nil {
			return err
		}
	}
	f.items = append(f.items, items...)
	return nil
}

type atomicOrders struct {
	fakeOrders
	createWithItemsFn func(ctx context.Context, o *order.Order) error
	atomicCalls       int
}

func (f *atomicOrders) CreateWithItems(ctx context.Context, o *order.Order) error {
	f.atomicCalls++
	if f.createWithItemsFn != nil {
		return f.createWithItemsFn(ctx, o)
	}
	o.ID = "order-tx"
	return nil
}

type fakeCart struct {
	items    []cart.Item
	cleared  bool
	clearErr error
}

func (f *fakeCart) Get(context.Context) []cart.Item { return f.items }

func (f *fakeCart) Clear(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	f.items = nil
	return nil
}

type fakePromo struct{ cleared bool }

func (f *fakePromo) ClearPromo() { f.cleared = true }

type fakeNotifier struct {
	placed []order.Order
	err    error
}

func (f *fakeNotifier) OrderPlaced(_ context.Context, o order.Order) error {
	f.placed = append(f.placed, o)
	return f.err
}

func products() []catalog.Product {
	return []catalog.Product{
		{ID: "p-1", Title: "T-Shirt Oslan Blanc", Price: decimal.RequireFromString("45")},
		{ID: "p-2", Title: "Hoodie Oslan Noir", Price: decimal.RequireFromString("70")},
	}
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: products(),
		stock:    map[string]int{"p-1": 10, "p-2": 1},
	}
}

func info() customer.Info {
	return customer.Info{
		FirstName: "Ada", LastName: "Lovelace", Phone: "0600000000", Email: "ada@example.com",
		Address: "1 rue de Paris", City: "Paris", Zip: "75001", Country: "France",
		PaymentMethod: customer.PaymentCard,
	}
}

func newWorkflow(c Catalog, o Orders, opts ...Option) (*Workflow, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(c, o, resolve.New(resolve.DefaultKeywords()), zap.New(core), opts...), logs
}

func TestWorkflowSubmit_Success(t *testing.T) {
	cat := newCatalog()
	orders := &fakeOrders{}
	notifier := &fakeNotifier{}
	w, _ := newWorkflow(cat, orders, WithNotifier(notifier))

	c := &fakeCart{items: []cart.Item{
		{ProductID: "p-1", Size: "M", Quantity: 2},
		{ProductID: "p-2", Size: "L", Quantity: 3},
	}}
	promo := &fakePromo{}

	res, err := w.Submit(context.Background(), Submission{Cart: c, Promo: promo, Customer: info(), UserID: "u-1"})
	require.NoError(t, err)

	assert.Equal(t, "order-1", res.OrderID)
	assert.Equal(t, "300", res.Total.String())
	assert.Equal(t, 5, res.ItemCount)
	assert.Empty(t, res.Dropped)

	require.Len(t, orders.orders, 1)
	assert.Equal(t, order.StatusPending, orders.orders[0].Status)
	assert.Equal(t, "u-1", orders.orders[0].UserID)
	assert.Equal(t, "Ada", orders.orders[0].ShippingAddress.FirstName)

	require.Len(t, orders.items, 2)
	for _, it := range orders.items {
		assert.Equal(t, "order-1", it.OrderID)
	}
	assert.Equal(t, "L", orders.items[1].Size)
	assert.Equal(t, "70", orders.items[1].PriceAtPurchase.String())

	assert.Equal(t, 8, cat.stock["p-1"])
	assert.Equal(t, 0, cat.stock["p-2"], "stock floors at zero")

	assert.True(t, c.cleared)
	assert.True(t, promo.cleared)
	require.Len(t, notifier.placed, 1)
	assert.Equal(t, "order-1", notifier.placed[0].ID)
}

func TestWorkflowSubmit_ResolvesSymbolicIDs(t *testing.T) {
	cat := newCatalog()
	orders := &fakeOrders{}
	w, logs := newWorkflow(cat, orders)

	c := &fakeCart{items: []cart.Item{
		{ProductID: "tshirt-blanc", Size: "M", Quantity: 1},
		{ProductID: "hoodie-oslan-noir", Size: "S", Quantity: 1},
		{ProductID: "casquette-rouge", Size: "M", Quantity: 1},
	}}

	res, err := w.Submit(context.Background(), Submission{Cart: c, Customer: info()})
	require.NoError(t, err)

	assert.Equal(t, []string{"casquette-rouge"}, res.Dropped)
	assert.Equal(t, "115", res.Total.String())
	require.Len(t, orders.items, 2)
	assert.Equal(t, "p-1", orders.items[0].ProductID)
	assert.Equal(t, "p-2", orders.items[1].ProductID)

	assert.Equal(t, 1, logs.FilterMessage("dropping unresolved cart item").Len())
	assert.Equal(t, 2, logs.FilterMessage("cart item resolved by fallback").Len())
}

func TestWorkflowSubmit_CatalogUnavailable(t *testing.T) {
	cat := newCatalog()
	cat.listErr = errors.New("connection refused")
	orders := &fakeOrders{}
	w, _ := newWorkflow(cat, orders)

	items := []cart.Item{{ProductID: "p-1", Size: "M", Quantity: 1}}
	c := &fakeCart{items: items}

	_, err := w.Submit(context.Background(), Submission{Cart: c, Customer: info()})
	require.ErrorIs(t, err, ErrCatalogUnavailable)

	assert.Empty(t, orders.orders)
	assert.False(t, c.cleared)
	assert.Equal(t, items, c.items)
}

func TestWorkflowSubmit_CartInvalid(t *testing.T) {
	tests := map[string][]cart.Item{
		"empty cart":           nil,
		"nothing resolves":     {{ProductID: "casquette-rouge", Size: "M", Quantity: 1}},
		"never first fallback": {{ProductID: "zzz", Size: "M", Quantity: 4}},
	}

	for name, items := range tests {
		t.Run(name, func(t *testing.T) {
			orders := &fakeOrders{}
			w, _ := newWorkflow(newCatalog(), orders)
			c := &fakeCart{items: items}

			_, err := w.Submit(context.Background(), Submission{Cart: c, Customer: info()})
			require.ErrorIs(t, err, ErrCartInvalid)
			assert.Empty(t, orders.orders)
			assert.False(t, c.cleared)
		})
	}
}

func TestWorkflowSubmit_OrderCreateFails(t *testing.T) {
	tests := map[string]struct {
		err       error
		wantIs    error
		wantNotIs error
	}{
		"permission denied": {
			err:       order.ErrPermissionDenied,
			wantIs:    ErrPermissionDenied,
			wantNotIs: ErrSubmissionFailed,
		},
		"generic": {
			err:       errors.New("timeout"),
			wantIs:    ErrSubmissionFailed,
			wantNotIs: ErrPermissionDenied,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cat := newCatalog()
			orders := &fakeOrders{createOrderFn: func(context.Context, *order.Order) error { return tc.err }}
			w, _ := newWorkflow(cat, orders)
			c := &fakeCart{items: []cart.Item{{ProductID: "p-1", Size: "M", Quantity: 1}}}
			promo := &fakePromo{}

			_, err := w.Submit(context.Background(), Submission{Cart: c, Promo: promo, Customer: info()})
			require.ErrorIs(t, err, tc.wantIs)
			assert.NotErrorIs(t, err, tc.wantNotIs)

			assert.Empty(t, orders.items)
			assert.Empty(t, cat.updates)
			assert.False(t, c.cleared)
			assert.False(t, promo.cleared)
		})
	}
}

func TestWorkflowSubmit_ItemsFailLeavesOrder(t *testing.T) {
	cat := newCatalog()
	itemsErr := errors.New("insert failed")
	orders := &fakeOrders{createItemsFn: func(context.Context, []order.Item) error { return itemsErr }}
	w, _ := newWorkflow(cat, orders)
	c := &fakeCart{items: []cart.Item{{ProductID: "p-1", Size: "M", Quantity: 1}}}

	_, err := w.Submit(context.Background(), Submission{Cart: c, Customer: info()})
	require.ErrorIs(t, err, ErrSubmissionFailed)
	require.ErrorIs(t, err, itemsErr)

	var ie *ItemsError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "order-1", ie.OrderID)

	assert.Len(t, orders.orders, 1, "order row is not rolled back")
	assert.False(t, c.cleared)
	assert.Empty(t, cat.updates)
}

func TestWorkflowSubmit_StockFailureDoesNotBlockOthers(t *testing.T) {
	cat := newCatalog()
	cat.stockErr = map[string]error{"p-1": errors.New("read failed")}
	cat.updateErr = map[string]error{}
	orders := &fakeOrders{}
	w, logs := newWorkflow(cat, orders)
	c := &fakeCart{items: []cart.Item{
		{ProductID: "p-1", Size: "M", Quantity: 1},
		{ProductID: "p-2", Size: "M", Quantity: 1},
	}}

	_, err := w.Submit(context.Background(), Submission{Cart: c, Customer: info()})
	require.NoError(t, err)

	assert.Equal(t, []string{"p-2"}, cat.updates)
	assert.Equal(t, 0, cat.stock["p-2"])
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessage("read stock").Len())
	assert.True(t, c.cleared)
}

func TestWorkflowSubmit_DetachesAfterValidation(t *testing.T) {
	cat := newCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	orders := &fakeOrders{
		createOrderFn: func(context.Context, *order.Order) error {
			cancel()
			return nil
		},
		createItemsFn: func(ctx context.Context, _ []order.Item) error {
			return ctx.Err()
		},
	}
	w, _ := newWorkflow(cat, orders)
	c := &fakeCart{items: []cart.Item{{ProductID: "p-1", Size: "M", Quantity: 1}}}

	_, err := w.Submit(ctx, Submission{Cart: c, Customer: info()})
	require.NoError(t, err)
	assert.True(t, c.cleared)
}

func TestWorkflowSubmit_AtomicWrites(t *testing.T) {
	cat := newCatalog()
	orders := &atomicOrders{}
	w, _ := newWorkflow(cat, orders, WithAtomicWrites(true))
	c := &fakeCart{items: []cart.Item{{ProductID: "p-1", Size: "M", Quantity: 1}}}

	res, err := w.Submit(context.Background(), Submission{Cart: c, Customer: info()})
	require.NoError(t, err)
	assert.Equal(t, "order-tx", res.OrderID)
	assert.Equal(t, 1, orders.atomicCalls)
	assert.Empty(t, orders.orders)
}

func TestWorkflowSubmit_AtomicDisabledUsesSeparateWrites(t *testing.T) {
	orders := &atomicOrders{}
	w, _ := newWorkflow(newCatalog(), orders)
	c := &fakeCart{items: []cart.Item{{ProductID: "p-1", Size: "M", Quantity: 1}}}

	_, err := w.Submit(context.Background(), Submission{Cart: c, Customer: info()})
	require.NoError(t, err)
	assert.Zero(t, orders.atomicCalls)
	assert.Len(t, orders.orders, 1)
}

func TestWorkflowSubmit_NotifierFailureIsBestEffort(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("broker down")}
	w, logs := newWorkflow(newCatalog(), &fakeOrders{}, WithNotifier(notifier))
	c := &fakeCart{items: []cart.Item{{ProductID: "p-1", Size: "M", Quantity: 1}}}

	_, err := w.Submit(context.Background(), Submission{Cart: c, Customer: info()})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("order placed notification failed").Len())
}
