package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
)

// OrderSummary exposes the aggregate fields returned in order lists.
type OrderSummary struct {
	ID        uuid.UUID         `json:"id"`
	BuyerID   uuid.UUID         `json:"buyer_id"`
	Total     decimal.Decimal   `json:"total"`
	Status    enums.OrderStatus `json:"status"`
	ItemCount int               `json:"item_count"`
	Payment   *PaymentSummary   `json:"payment,omitempty"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// PaymentSummary is the compact payment projection used in lists.
type PaymentSummary struct {
	Method enums.PaymentMethod `json:"method"`
	Status enums.PaymentStatus `json:"status"`
}

// OrderList wraps paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// SellerOrderSlice is a seller's view of one order: the order shell plus
// only their own sub-order.
type SellerOrderSlice struct {
	OrderID   uuid.UUID         `json:"order_id"`
	BuyerID   uuid.UUID         `json:"buyer_id"`
	Status    enums.OrderStatus `json:"order_status"`
	SubOrder  models.SubOrder   `json:"sub_order"`
	CreatedAt time.Time         `json:"created_at"`
}

// SellerOrderList wraps a seller's paginated order slices.
type SellerOrderList struct {
	Orders     []SellerOrderSlice `json:"orders"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// StatusUpdateInput carries a lifecycle transition request.
type StatusUpdateInput struct {
	OrderID    uuid.UUID
	SubOrderID *uuid.UUID
	Target     string
	ActorID    uuid.UUID
	ActorRole  enums.Role
}

// ExpiryInfo reports the remaining checkout window for a pending order.
type ExpiryInfo struct {
	OrderID          uuid.UUID         `json:"order_id"`
	Status           enums.OrderStatus `json:"status"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	RemainingSeconds int64             `json:"remaining_seconds"`
	Expired          bool              `json:"expired"`
}
