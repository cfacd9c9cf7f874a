package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&reservationRecord{},
		&couponRecord{},
	)
}

// Product schema mirrors the inventory Postgres adapter.
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

// Reservation schema mirrors the inventory Postgres adapter.
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

// Coupon schema mirrors the checkout Postgres adapter.
type couponRecord struct {
	Code      string          `gorm:"primaryKey;column:code;size:64"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(6,4)"`
	Active    bool            `gorm:"column:active;index"`
	ExpiresAt *time.Time      `gorm:"column:expires_at"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (couponRecord) TableName() string { return "coupons" }
