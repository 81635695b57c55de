package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/kv"
)

var (
	ErrIndexOutOfRange  = errors.New("cart index out of range")
	ErrMissingProduct   = errors.New("missing productId")
	ErrQuantityTooLarge = errors.New("quantity too large")
)

// CountObserver is told the new item count after every save.
type CountObserver func(ctx context.Context, count int)

// Store is the session cart persisted as one JSON value under KeyCart, with the
// derived item count cached under KeyCount.
type Store struct {
	storage     kv.Storage
	logger      *zap.Logger
	defaultSize string
	observers   []CountObserver
}

type Option func(*Store)

func WithDefaultSize(size string) Option {
	return func(s *Store) {
		if size = strings.TrimSpace(size); size != "" {
			s.defaultSize = size
		}
	}
}

func WithObserver(o CountObserver) Option {
	return func(s *Store) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

func NewStore(storage kv.Storage, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		storage:     storage,
		logger:      logger.Named("cart"),
		defaultSize: DefaultSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the persisted cart. Missing, unreadable or malformed data reads
// as an empty cart.
func (s *Store) Get(ctx context.Context) []Item {
	raw, ok, err := s.storage.Get(ctx, KeyCart)
	if err != nil {
		s.logger.Warn("read cart failed, treating as empty", zap.Error(err))
		return []Item{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []Item{}
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("malformed cart in storage, treating as empty", zap.Error(err))
		return []Item{}
	}

	clean := s.normalize(items)
	if len(clean) != len(items) {
		s.logger.Warn("dropped invalid cart lines",
			zap.Int("stored", len(items)),
			zap.Int("kept", len(clean)))
	}
	return clean
}

// Save persists items, refreshes the count cache and notifies observers. Lines
// with a quantity below 1 are never written.
func (s *Store) Save(ctx context.Context, items []Item) error {
	clean := s.normalize(items)

	body, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.storage.Set(ctx, KeyCart, string(body)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	count := Count(clean)
	if err := s.storage.Set(ctx, KeyCount, strconv.Itoa(count)); err != nil {
		return fmt.Errorf("save cart count: %w", err)
	}

	for _, o := range s.observers {
		o(ctx, count)
	}
	return nil
}

func (s *Store) AddOrIncrement(ctx context.Context, productID, size string) ([]Item, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrMissingProduct
	}
	size = normalizeSize(size, s.defaultSize)

	items := s.Get(ctx)
	merged := false
	for i := range items {
		if items[i].sameLine(productID, size) {
			if items[i].Quantity >= MaxQuantity {
				return nil, ErrQuantityTooLarge
			}
			items[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, Item{ProductID: productID, Size: size, Quantity: 1})
	}

	if err := s.Save(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// ChangeQuantity adds delta to the line at index. A line that would drop
// below 1 is removed; one that would exceed MaxQuantity is left unchanged and
// ErrQuantityTooLarge is returned.
func (s *Store) ChangeQuantity(ctx context.Context, index, delta int) ([]Item, error) {
	items := s.Get(ctx)
	if index < 0 || index >= len(items) {
		return nil, ErrIndexOutOfRange
	}
	if delta > MaxQuantity-items[index].Quantity {
		return nil, ErrQuantityTooLarge
	}

	if next := items[index].Quantity + delta; next < 1 {
		items = append(items[:index], items[index+1:]...)
	} else {
		items[index].Quantity = next
	}

	if err := s.Save(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Remove deletes the line at index. Indices shift after every mutation.
func (s *Store) Remove(ctx context.Context, index int) ([]Item, error) {
	items := s.Get(ctx)
	if index < 0 || index >= len(items) {
		return nil, ErrIndexOutOfRange
	}
	items = append(items[:index], items[index+1:]...)

	if err := s.Save(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.Save(ctx, []Item{})
}

// Count reads the cached item count, recomputing it from the cart when the
// cache is missing or unreadable.
func (s *Store) Count(ctx context.Context) int {
	raw, ok, err := s.storage.Get(ctx, KeyCount)
	if err == nil && ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 0 {
			return n
		}
	}
	return Count(s.Get(ctx))
}

// MarkCelebrate arms the one-shot confirmation animation flag.
func (s *Store) MarkCelebrate(ctx context.Context) error {
	if err := s.storage.Set(ctx, KeyCelebrate, "true"); err != nil {
		return fmt.Errorf("set celebrate flag: %w", err)
	}
	return nil
}

// TakeCelebrate reports whether the flag was armed and disarms it.
func (s *Store) TakeCelebrate(ctx context.Context) bool {
	raw, ok, err := s.storage.Get(ctx, KeyCelebrate)
	if err != nil || !ok {
		return false
	}
	if err := s.storage.Delete(ctx, KeyCelebrate); err != nil {
		s.logger.Warn("clear celebrate flag failed", zap.Error(err))
	}
	return raw == "true"
}

// normalize drops lines without a product or with a quantity below 1, fills
// the default size and merges duplicate lines in first-seen order. Quantities
// are clamped to MaxQuantity.
func (s *Store) normalize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		if it.ProductID == "" || it.Quantity < 1 {
			continue
		}
		it.Size = normalizeSize(it.Size, s.defaultSize)
		it.Quantity = min(it.Quantity, MaxQuantity)

		dup := false
		for i := range out {
			if out[i].sameLine(it.ProductID, it.Size) {
				out[i].Quantity = min(out[i].Quantity+it.Quantity, MaxQuantity)
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return out
}
