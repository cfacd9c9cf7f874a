package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists products and reservations in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed ledger repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&productRecord{}, &reservationRecord{})
	}
	return repo
}

// productRecord maps the stock counters of a product.
type productRecord struct {
	ID             int64          `gorm:"primaryKey;column:id;autoIncrement:false"`
	Name           string         `gorm:"column:name"`
	UnitPriceMinor int64          `gorm:"column:unit_price_minor"`
	Currency       string         `gorm:"column:currency;type:char(3)"`
	Categories     pq.StringArray `gorm:"column:categories;type:text[]"`
	TotalStock     int64          `gorm:"column:total_stock;check:chk_inventory_products_stock,reserved_stock <= total_stock"`
	ReservedStock  int64          `gorm:"column:reserved_stock"`
	ReorderPoint   int64          `gorm:"column:reorder_point"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;index"`
}

func (productRecord) TableName() string { return "inventory_products" }

// reservationRecord maps a stock reservation. The status/expiry index serves the expiry sweep.
type reservationRecord struct {
	ID          string     `gorm:"primaryKey;column:id;size:64"`
	ProductID   int64      `gorm:"column:product_id;index"`
	Quantity    int64      `gorm:"column:quantity"`
	RequesterID string     `gorm:"column:requester_id;index"`
	Status      string     `gorm:"column:status;type:varchar(16);index:idx_stock_reservations_status_expiry"`
	ExpiresAt   *time.Time `gorm:"column:expires_at;index:idx_stock_reservations_status_expiry"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (reservationRecord) TableName() string { return "stock_reservations" }

// WithProductLock runs fn inside a transaction holding a row lock on the product.
func (r *Repository) WithProductLock(ctx context.Context, productID int64, fn func(ctx context.Context, locked ports.LockedProduct) error) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if fn == nil {
		return errors.New("product lock callback is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record productRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrProductNotFound
			}
			return err
		}
		product, err := record.toDomain()
		if err != nil {
			return err
		}
		return fn(ctx, &lockedProduct{tx: tx, product: product})
	})
}

// CreateProduct inserts a new product; an existing id yields ports.ErrProductExists.
func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) (*projection.Projection[*domain.Product], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	record := toProductRecord(product)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrProductExists
	}
	return r.GetProduct(ctx, product.ID)
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*projection.Projection[*domain.Product], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return record.toProjection()
}

// ListReorderCandidates compares available stock, total minus reserved, with the reorder point.
func (r *Repository) ListReorderCandidates(ctx context.Context, limit int) ([]*projection.Projection[*domain.Product], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).
		Where("total_stock - reserved_stock <= reorder_point").
		Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []productRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]*projection.Projection[*domain.Product], 0, len(records))
	for i := range records {
		p, err := records[i].toProjection()
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

func (r *Repository) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record reservationRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrReservationNotFound
		}
		return nil, err
	}
	return record.toDomain()
}

// ListExpiredReservations pages ACTIVE reservations due at query.Now, ordered by id.
func (r *Repository) ListExpiredReservations(ctx context.Context, query ports.ExpiredQuery) ([]*domain.Reservation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	stmt := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", string(domain.StatusActive), query.Now).
		Order("id")
	if query.AfterID != "" {
		stmt = stmt.Where("id > ?", query.AfterID)
	}
	if query.Limit > 0 {
		stmt = stmt.Limit(query.Limit)
	}
	var records []reservationRecord
	if err := stmt.Find(&records).Error; err != nil {
		return nil, err
	}
	return toReservations(records)
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres inventory repository not configured")
	}
	return nil
}

// lockedProduct scopes reads and writes to the transaction holding the product row lock.
type lockedProduct struct {
	tx      *gorm.DB
	product *domain.Product
}

func (l *lockedProduct) Product() *domain.Product {
	return l.product
}

func (l *lockedProduct) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	var record reservationRecord
	err := l.tx.WithContext(ctx).First(&record, "id = ? AND product_id = ?", id, l.product.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrReservationNotFound
		}
		return nil, err
	}
	return record.toDomain()
}

func (l *lockedProduct) GetReservations(ctx context.Context, ids []string) ([]*domain.Reservation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var records []reservationRecord
	err := l.tx.WithContext(ctx).
		Where("product_id = ? AND id = ANY(?)", l.product.ID, pq.Array(ids)).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toReservations(records)
}

func (l *lockedProduct) SaveProduct(ctx context.Context, product *domain.Product) error {
	if product == nil || product.ID != l.product.ID {
		return errors.New("product does not match the locked product")
	}
	if err := product.Validate(); err != nil {
		return err
	}
	record := toProductRecord(product)
	return l.tx.WithContext(ctx).Model(&productRecord{}).Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":             record.Name,
			"unit_price_minor": record.UnitPriceMinor,
			"currency":         record.Currency,
			"categories":       record.Categories,
			"total_stock":      record.TotalStock,
			"reserved_stock":   record.ReservedStock,
			"reorder_point":    record.ReorderPoint,
			"updated_at":       gorm.Expr("NOW()"),
		}).Error
}

func (l *lockedProduct) SaveReservation(ctx context.Context, reservation *domain.Reservation) error {
	if reservation == nil || reservation.ProductID != l.product.ID {
		return errors.New("reservation does not belong to the locked product")
	}
	record := toReservationRecord(reservation)
	return l.tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":     record.Status,
				"expires_at": record.ExpiresAt,
				"updated_at": record.UpdatedAt,
			}),
		}).Create(&record).Error
}

func toProductRecord(p *domain.Product) productRecord {
	return productRecord{
		ID:             p.ID,
		Name:           p.Name,
		UnitPriceMinor: p.UnitPrice.MinorUnits(),
		Currency:       p.UnitPrice.Currency(),
		Categories:     pq.StringArray(p.Categories),
		TotalStock:     p.TotalStock.Int64(),
		ReservedStock:  p.ReservedStock.Int64(),
		ReorderPoint:   p.ReorderPoint.Int64(),
	}
}

func (r productRecord) toDomain() (*domain.Product, error) {
	price, err := money.Of(r.UnitPriceMinor, r.Currency)
	if err != nil {
		return nil, err
	}
	var categories []string
	if len(r.Categories) > 0 {
		categories = append(categories, r.Categories...)
	}
	return &domain.Product{
		ID:            r.ID,
		Name:          r.Name,
		UnitPrice:     price,
		Categories:    categories,
		TotalStock:    money.Quantity(r.TotalStock),
		ReservedStock: money.Quantity(r.ReservedStock),
		ReorderPoint:  money.Quantity(r.ReorderPoint),
	}, nil
}

func (r productRecord) toProjection() (*projection.Projection[*domain.Product], error) {
	product, err := r.toDomain()
	if err != nil {
		return nil, err
	}
	return projection.New(product, r.CreatedAt, r.UpdatedAt), nil
}

func toReservationRecord(res *domain.Reservation) reservationRecord {
	return reservationRecord{
		ID:          res.ID,
		ProductID:   res.ProductID,
		Quantity:    res.Quantity.Int64(),
		RequesterID: res.RequesterID,
		Status:      string(res.Status),
		ExpiresAt:   res.ExpiresAt,
		CreatedAt:   res.CreatedAt,
		UpdatedAt:   res.UpdatedAt,
	}
}

func (r reservationRecord) toDomain() (*domain.Reservation, error) {
	status := domain.Status(r.Status)
	if !domain.IsValidStatus(status) {
		return nil, fmt.Errorf("reservation %s has unknown status %q", r.ID, r.Status)
	}
	res := &domain.Reservation{
		ID:          r.ID,
		ProductID:   r.ProductID,
		Quantity:    money.Quantity(r.Quantity),
		RequesterID: r.RequesterID,
		Status:      status,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.ExpiresAt != nil {
		expiresAt := r.ExpiresAt.UTC()
		res.ExpiresAt = &expiresAt
	}
	return res, nil
}

func toReservations(records []reservationRecord) ([]*domain.Reservation, error) {
	list := make([]*domain.Reservation, 0, len(records))
	for i := range records {
		res, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, nil
}
