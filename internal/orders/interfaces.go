package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/pagination"
)

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateSubOrders(ctx context.Context, subOrders []models.SubOrder) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	CreatePayments(ctx context.Context, payments []models.Payment) error

	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindSubOrder(ctx context.Context, subOrderID uuid.UUID) (*models.SubOrder, error)
	FindSubOrdersByOrder(ctx context.Context, orderID uuid.UUID) ([]models.SubOrder, error)
	FindOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	FindOrderItemsBySubOrder(ctx context.Context, subOrderID uuid.UUID) ([]models.OrderItem, error)

	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*SellerOrderList, error)
	ListAllOrders(ctx context.Context, params pagination.Params) (*OrderList, error)

	FindExpiredPendingOrders(ctx context.Context, now time.Time) ([]models.Order, error)

	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateOrderStatusGuarded(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	ClearExpiryGuarded(ctx context.Context, orderID uuid.UUID) (bool, error)
	UpdateSubOrder(ctx context.Context, subOrderID uuid.UUID, updates map[string]any) error
}
