package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
)

// SubOrder is the slice of an order belonging to one seller. It is the unit
// of seller-facing status, buyer payment tracking, and payout settlement.
type SubOrder struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID  uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	SellerID uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`

	Status enums.SubOrderStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`

	Subtotal decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	// PayableAmount is subtotal minus platform commission. Zeroed exactly
	// once, when the payout settles.
	PayableAmount decimal.Decimal    `gorm:"column:payable_amount;type:numeric(12,2);not null"`
	PayoutStatus  enums.PayoutStatus `gorm:"column:payout_status;type:text;not null;default:'UNPAID';index"`
	PayoutDate    *time.Time         `gorm:"column:payout_date"`

	Items   []OrderItem `gorm:"foreignKey:SubOrderID;constraint:OnDelete:CASCADE"`
	Payment *Payment    `gorm:"foreignKey:SubOrderID;references:ID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *SubOrder) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
