package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the catalog listing this core consumes. Only Count is mutated
// here, and only through the stock reservation path.
type Product struct {
	ID       uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SellerID uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	Name     string          `gorm:"column:name;not null"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Count    int             `gorm:"column:count;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
