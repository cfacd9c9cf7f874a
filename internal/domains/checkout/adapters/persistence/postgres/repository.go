package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"
)

var _ ports.CouponRepository = (*Repository)(nil)

// Repository persists coupons in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed coupon repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&couponRecord{})
	}
	return repo
}

// couponRecord stores the rate as an exact numeric.
type couponRecord struct {
	Code      string          `gorm:"primaryKey;column:code;size:64"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(6,4)"`
	Active    bool            `gorm:"column:active;index"`
	ExpiresAt *time.Time      `gorm:"column:expires_at"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (couponRecord) TableName() string { return "coupons" }

func (r *Repository) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record couponRecord
	if err := r.db.WithContext(ctx).First(&record, "code = ?", domain.NormalizeCouponCode(code)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrCouponNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// SaveCoupon inserts or updates a coupon by code.
func (r *Repository) SaveCoupon(ctx context.Context, coupon *domain.Coupon) (*domain.Coupon, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, errors.New("coupon is nil")
	}
	record := toRecord(coupon)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.Assignments(map[string]any{
				"rate":       record.Rate,
				"active":     record.Active,
				"expires_at": record.ExpiresAt,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetCoupon(ctx, record.Code)
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres coupon repository not configured")
	}
	return nil
}

func toRecord(c *domain.Coupon) couponRecord {
	return couponRecord{
		Code:      domain.NormalizeCouponCode(c.Code),
		Rate:      c.Rate,
		Active:    c.Active,
		ExpiresAt: c.ExpiresAt,
	}
}

func (r couponRecord) toDomain() *domain.Coupon {
	c := &domain.Coupon{
		Code:   r.Code,
		Rate:   r.Rate,
		Active: r.Active,
	}
	if r.ExpiresAt != nil {
		expiresAt := r.ExpiresAt.UTC()
		c.ExpiresAt = &expiresAt
	}
	return c
}
