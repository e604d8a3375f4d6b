package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
)

// Payment tracks collection of buyer money. One row per order with
// SubOrderID NULL (the order-level aggregate payment) plus one row per
// sub-order for the seller's portion.
type Payment struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	SubOrderID *uuid.UUID `gorm:"column:sub_order_id;type:uuid;index"`

	Amount decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Method enums.PaymentMethod `gorm:"column:method;type:text;not null;default:'COD'"`
	Status enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'UNPAID'"`

	// TransactionUUID correlates the order-level payment with the external
	// gateway callback. Regenerated on every gateway checkout attempt.
	TransactionUUID *string    `gorm:"column:transaction_uuid;index"`
	PaidAt          *time.Time `gorm:"column:paid_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
