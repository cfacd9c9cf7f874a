package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory ledger persistence adapter. Product locks are per-product mutexes;
// writes made under a lock are applied together when the callback succeeds.
type Repository struct {
	mu           sync.RWMutex
	products     map[int64]*productEntry
	reservations map[string]*domain.Reservation

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	clock func() time.Time
}

type productEntry struct {
	product   *domain.Product
	createdAt time.Time
	updatedAt time.Time
}

// Option configures the in-memory repository.
type Option func(*Repository)

// WithClock overrides the timestamp source used for metadata.
func WithClock(clock func() time.Time) Option {
	return func(r *Repository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		products:     map[int64]*productEntry{},
		reservations: map[string]*domain.Reservation{},
		locks:        map[int64]*sync.Mutex{},
		clock:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Repository) WithProductLock(ctx context.Context, productID int64, fn func(ctx context.Context, locked ports.LockedProduct) error) error {
	if fn == nil {
		return errors.New("product lock callback is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := r.productLock(productID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	entry, ok := r.products[productID]
	var snapshot *domain.Product
	if ok {
		snapshot = entry.product.Clone()
	}
	r.mu.RUnlock()
	if !ok {
		return ports.ErrProductNotFound
	}

	tx := &lockedProduct{
		repo:         r,
		product:      snapshot,
		reservations: map[string]*domain.Reservation{},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.commit(tx)
}

func (r *Repository) commit(tx *lockedProduct) error {
	if tx.savedProduct == nil && len(tx.reservations) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock().UTC()
	if tx.savedProduct != nil {
		entry, ok := r.products[tx.savedProduct.ID]
		if !ok {
			return ports.ErrProductNotFound
		}
		entry.product = tx.savedProduct
		entry.updatedAt = now
	}
	for id, reservation := range tx.reservations {
		r.reservations[id] = reservation
	}
	return nil
}

func (r *Repository) CreateProduct(_ context.Context, product *domain.Product) (*projection.Projection[*domain.Product], error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; ok {
		return nil, ports.ErrProductExists
	}
	now := r.clock().UTC()
	entry := &productEntry{product: product.Clone(), createdAt: now, updatedAt: now}
	r.products[product.ID] = entry
	return projection.New(entry.product.Clone(), entry.createdAt, entry.updatedAt), nil
}

func (r *Repository) GetProduct(_ context.Context, id int64) (*projection.Projection[*domain.Product], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.products[id]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	return projection.New(entry.product.Clone(), entry.createdAt, entry.updatedAt), nil
}

func (r *Repository) ListReorderCandidates(_ context.Context, limit int) ([]*projection.Projection[*domain.Product], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*projection.Projection[*domain.Product], 0)
	for _, entry := range r.products {
		if entry.product.NeedsReorder() {
			list = append(list, projection.New(entry.product.Clone(), entry.createdAt, entry.updatedAt))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Entity.ID < list[j].Entity.ID })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *Repository) GetReservation(_ context.Context, id string) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reservation, ok := r.reservations[id]
	if !ok {
		return nil, ports.ErrReservationNotFound
	}
	return reservation.Clone(), nil
}

func (r *Repository) ListExpiredReservations(_ context.Context, query ports.ExpiredQuery) ([]*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Reservation
	for id, reservation := range r.reservations {
		if id <= query.AfterID || !reservation.IsExpired(query.Now) {
			continue
		}
		list = append(list, reservation.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if query.Limit > 0 && len(list) > query.Limit {
		list = list[:query.Limit]
	}
	return list, nil
}

func (r *Repository) productLock(productID int64) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	lock, ok := r.locks[productID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[productID] = lock
	}
	return lock
}

// lockedProduct buffers writes made while a product lock is held.
type lockedProduct struct {
	repo         *Repository
	product      *domain.Product
	savedProduct *domain.Product
	reservations map[string]*domain.Reservation
}

func (t *lockedProduct) Product() *domain.Product {
	return t.product
}

func (t *lockedProduct) GetReservation(_ context.Context, id string) (*domain.Reservation, error) {
	if pending, ok := t.reservations[id]; ok {
		return pending.Clone(), nil
	}
	t.repo.mu.RLock()
	reservation, ok := t.repo.reservations[id]
	t.repo.mu.RUnlock()
	if !ok || reservation.ProductID != t.product.ID {
		return nil, ports.ErrReservationNotFound
	}
	return reservation.Clone(), nil
}

func (t *lockedProduct) GetReservations(ctx context.Context, ids []string) ([]*domain.Reservation, error) {
	list := make([]*domain.Reservation, 0, len(ids))
	for _, id := range ids {
		reservation, err := t.GetReservation(ctx, id)
		if errors.Is(err, ports.ErrReservationNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		list = append(list, reservation)
	}
	return list, nil
}

func (t *lockedProduct) SaveProduct(_ context.Context, product *domain.Product) error {
	if product == nil || product.ID != t.product.ID {
		return errors.New("product does not match the locked product")
	}
	if err := product.Validate(); err != nil {
		return err
	}
	t.savedProduct = product.Clone()
	return nil
}

func (t *lockedProduct) SaveReservation(_ context.Context, reservation *domain.Reservation) error {
	if reservation == nil || reservation.ProductID != t.product.ID {
		return errors.New("reservation does not belong to the locked product")
	}
	t.reservations[reservation.ID] = reservation.Clone()
	return nil
}
