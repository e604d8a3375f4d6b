package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem captures the immutable snapshot of one product line at order
// time. Rows carry both the order and sub-order keys so the same table
// serves buyer-facing flat listings and per-seller item lists.
type OrderItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	SubOrderID uuid.UUID `gorm:"column:sub_order_id;type:uuid;not null;index"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SellerID   uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`

	Name     string          `gorm:"column:name;not null"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity int             `gorm:"column:quantity;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
