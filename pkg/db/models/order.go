package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
)

// Order is the buyer-facing aggregate root produced from a cart. Its status
// is a rollup over the per-seller sub-orders; money fields are snapshots
// taken at creation time.
type Order struct {
	ID      uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	Total   decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Status  enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING';index"`

	ShippingName    *string `gorm:"column:shipping_name"`
	ShippingAddress *string `gorm:"column:shipping_address"`
	ShippingCity    *string `gorm:"column:shipping_city"`
	ShippingPhone   *string `gorm:"column:shipping_phone"`

	// ExpiresAt is set only while the order is PENDING and checkout has not
	// completed; the expiry sweep cancels any order past this deadline.
	ExpiresAt   *time.Time `gorm:"column:expires_at;index"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`

	SubOrders []SubOrder  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment   *Payment    `gorm:"foreignKey:OrderID;references:ID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
