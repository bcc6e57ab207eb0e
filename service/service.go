package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-faster/errors"

	"shopping-cart/catalog"
	"shopping-cart/model"
	"shopping-cart/notify"
	"shopping-cart/store"
)

// DefaultSnapshotKey is the store key the cart snapshot lives under.
const DefaultSnapshotKey = "@RocketShoes:cart"

// Option configures a CartStore.
type Option func(*CartStore)

func WithSnapshotKey(key string) Option {
	return func(s *CartStore) {
		if key != "" {
			s.key = key
		}
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *CartStore) {
		if n != nil {
			s.notify = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *CartStore) {
		if l != nil {
			s.log = l
		}
	}
}

// CartStore owns the cart contents. Mutations are serialised and each one
// persists the full cart before the new state becomes visible.
type CartStore struct {
	store   store.Store
	catalog catalog.Catalog
	notify  notify.Notifier
	log     *slog.Logger
	key     string

	// mu is held for the whole of a mutating operation, catalog calls included.
	mu    sync.Mutex
	state atomic.Pointer[model.Cart]

	subMu   sync.Mutex
	subs    map[int]func(model.Cart)
	nextSub int
}

var _ CartService = (*CartStore)(nil)

// NewCartStore builds a CartStore and loads the persisted snapshot. A missing,
// unreadable or malformed snapshot yields an empty cart.
func NewCartStore(ctx context.Context, st store.Store, cat catalog.Catalog, opts ...Option) (*CartStore, error) {
	if st == nil {
		return nil, errors.New("service: snapshot store is required")
	}
	if cat == nil {
		return nil, errors.New("service: catalog is required")
	}
	s := &CartStore{
		store:   st,
		catalog: cat,
		notify:  notify.LogNotifier{},
		log:     slog.Default(),
		key:     DefaultSnapshotKey,
		subs:    map[int]func(model.Cart){},
	}
	for _, opt := range opts {
		opt(s)
	}

	initial := s.load(ctx)
	s.state.Store(&initial)
	return s, nil
}

func (s *CartStore) load(ctx context.Context) model.Cart {
	data, err := s.store.Get(ctx, s.key)
	if errors.Is(err, store.ErrNotFound) {
		return model.Cart{}
	}
	if err != nil {
		s.log.WarnContext(ctx, "cart snapshot unreadable, starting empty", slog.String("key", s.key), slog.Any("err", err))
		return model.Cart{}
	}

	var raw model.Cart
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.WarnContext(ctx, "cart snapshot malformed, starting empty", slog.String("key", s.key), slog.Any("err", err))
		return model.Cart{}
	}

	out := make(model.Cart, 0, len(raw))
	for _, p := range raw {
		if p.Amount < 1 || out.Index(p.ID) >= 0 {
			s.log.WarnContext(ctx, "dropping invalid snapshot entry", slog.Int64("product_id", p.ID), slog.Int("amount", p.Amount))
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *CartStore) current() model.Cart {
	return *s.state.Load()
}

// Cart returns a copy of the committed cart. It never waits on a running
// operation.
func (s *CartStore) Cart() model.Cart {
	return s.current().Clone()
}

// Subscribe registers fn to receive every committed cart in commit order.
// fn runs while the operation lock is held and must not call back into the
// store's mutating methods.
func (s *CartStore) Subscribe(fn func(model.Cart)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// AddProduct puts one unit of the product in the cart. A product already in
// the cart goes through the same stock check as UpdateQuantity.
func (s *CartStore) AddProduct(ctx context.Context, productID int64) error {
	return s.run(ctx, opAdd, productID, func(cur model.Cart) (model.Cart, error) {
		if i := cur.Index(productID); i >= 0 {
			return s.setAmount(ctx, opAdd, cur, i, cur[i].Amount+1)
		}

		p, err := s.catalog.Product(ctx, productID)
		if err != nil {
			return nil, &OperationError{Op: opAdd, ProductID: productID, Kind: ErrCatalogLookup, Err: err}
		}
		p.ID = productID
		p.Amount = 1

		next := make(model.Cart, 0, len(cur)+1)
		next = append(next, cur...)
		return append(next, p), nil
	})
}

// RemoveProduct drops the entry for productID.
func (s *CartStore) RemoveProduct(ctx context.Context, productID int64) error {
	return s.run(ctx, opRemove, productID, func(cur model.Cart) (model.Cart, error) {
		i := cur.Index(productID)
		if i < 0 {
			return nil, &OperationError{Op: opRemove, ProductID: productID, Kind: ErrNotFound}
		}
		next := make(model.Cart, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		return append(next, cur[i+1:]...), nil
	})
}

// UpdateQuantity sets the amount of a product already in the cart. Amounts
// below one are ignored; use RemoveProduct to take a product out.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID int64, amount int) error {
	return s.run(ctx, opUpdate, productID, func(cur model.Cart) (model.Cart, error) {
		i := cur.Index(productID)
		if i < 0 {
			return nil, &OperationError{Op: opUpdate, ProductID: productID, Kind: ErrNotFound}
		}
		if amount < 1 {
			return nil, nil
		}
		return s.setAmount(ctx, opUpdate, cur, i, amount)
	})
}

func (s *CartStore) setAmount(ctx context.Context, op string, cur model.Cart, i, amount int) (model.Cart, error) {
	id := cur[i].ID
	st, err := s.catalog.Stock(ctx, id)
	if err != nil {
		return nil, &OperationError{Op: op, ProductID: id, Kind: ErrStockLookup, Err: err}
	}
	if amount > st.Amount {
		return nil, &OperationError{
			Op:        op,
			ProductID: id,
			Kind:      ErrOutOfStock,
			Err:       errors.Errorf("requested %d, available %d", amount, st.Amount),
		}
	}
	next := cur.Clone()
	next[i].Amount = amount
	return next, nil
}

// run executes one mutating operation. Any failure, panics included, is
// reported to the notifier after the operation lock is released and leaves
// the committed cart untouched.
func (s *CartStore) run(ctx context.Context, op string, productID int64, fn func(model.Cart) (model.Cart, error)) error {
	err := s.apply(ctx, op, productID, fn)
	if err != nil {
		s.reject(ctx, op, productID, err)
	}
	return err
}

// apply runs fn under the operation lock. fn returns the next cart, or nil
// for a no-op. A context cancelled while waiting for the lock aborts the
// operation before fn runs.
func (s *CartStore) apply(ctx context.Context, op string, productID int64, fn func(model.Cart) (model.Cart, error)) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = &OperationError{Op: op, ProductID: productID, Err: errors.Errorf("panic: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return &OperationError{Op: op, ProductID: productID, Err: err}
	}

	next, err := fn(s.current())
	if err != nil || next == nil {
		return err
	}
	if err := s.commit(ctx, next); err != nil {
		return &OperationError{Op: op, ProductID: productID, Kind: ErrPersist, Err: err}
	}

	s.log.DebugContext(ctx, "cart committed",
		slog.String("op", op),
		slog.Int64("product_id", productID),
		slog.Int("items", len(next)),
	)
	return nil
}

// commit writes the snapshot and only then publishes next.
func (s *CartStore) commit(ctx context.Context, next model.Cart) error {
	data, err := json.Marshal(next)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := s.store.Set(ctx, s.key, data); err != nil {
		return err
	}
	s.state.Store(&next)
	s.emit(ctx, next)
	return nil
}

func (s *CartStore) emit(ctx context.Context, cart model.Cart) {
	s.subMu.Lock()
	fns := make([]func(model.Cart), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.ErrorContext(ctx, "cart subscriber panicked", slog.Any("panic", r))
				}
			}()
			fn(cart.Clone())
		}()
	}
}

func (s *CartStore) reject(ctx context.Context, op string, productID int64, err error) {
	s.log.WarnContext(ctx, "cart operation rejected",
		slog.String("op", op),
		slog.Int64("product_id", productID),
		slog.Any("err", err),
	)
	s.notify.Error(ctx, message(op, err))
}
