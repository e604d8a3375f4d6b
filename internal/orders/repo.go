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

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateSubOrders(ctx context.Context, subOrders []models.SubOrder) error {
	if len(subOrders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&subOrders).Error
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreatePayments(ctx context.Context, payments []models.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&payments).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("SubOrders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("SubOrders.Items").
		Preload("SubOrders.Payment").
		Preload("Items").
		Preload("Payment", "sub_order_id IS NULL").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindSubOrder(ctx context.Context, subOrderID uuid.UUID) (*models.SubOrder, error) {
	var subOrder models.SubOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where("id = ?", subOrderID).
		First(&subOrder).Error
	if err != nil {
		return nil, err
	}
	return &subOrder, nil
}

func (r *repository) FindSubOrdersByOrder(ctx context.Context, orderID uuid.UUID) ([]models.SubOrder, error) {
	var subOrders []models.SubOrder
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&subOrders).Error
	if err != nil {
		return nil, err
	}
	return subOrders, nil
}

func (r *repository) FindOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindOrderItemsBySubOrder(ctx context.Context, subOrderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("sub_order_id = ?", subOrderID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Preload("Payment", "sub_order_id IS NULL").
		Where("buyer_id = ?", buyerID)
	return r.listOrders(ctx, query, params)
}

func (r *repository) ListAllOrders(ctx context.Context, params pagination.Params) (*OrderList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Preload("Payment", "sub_order_id IS NULL")
	return r.listOrders(ctx, query, params)
}

func (r *repository) listOrders(_ context.Context, query *gorm.DB, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Order
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &OrderList{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		summary := OrderSummary{
			ID:        row.ID,
			BuyerID:   row.BuyerID,
			Total:     row.Total,
			Status:    row.Status,
			ItemCount: len(row.Items),
			ExpiresAt: row.ExpiresAt,
			CreatedAt: row.CreatedAt,
		}
		if row.Payment != nil {
			summary.Payment = &PaymentSummary{
				Method: row.Payment.Method,
				Status: row.Payment.Status,
			}
		}
		list.Orders = append(list.Orders, summary)
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*SellerOrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where("seller_id = ?", sellerID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var subOrders []models.SubOrder
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&subOrders).Error
	if err != nil {
		return nil, err
	}

	hasMore := len(subOrders) > limit
	if hasMore {
		subOrders = subOrders[:limit]
	}

	list := &SellerOrderList{}
	for _, subOrder := range subOrders {
		var order models.Order
		if err := r.db.WithContext(ctx).First(&order, "id = ?", subOrder.OrderID).Error; err != nil {
			return nil, err
		}
		list.Orders = append(list.Orders, SellerOrderSlice{
			OrderID:   order.ID,
			BuyerID:   order.BuyerID,
			Status:    order.Status,
			SubOrder:  subOrder,
			CreatedAt: order.CreatedAt,
		})
	}
	if hasMore && len(subOrders) > 0 {
		last := subOrders[len(subOrders)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) FindExpiredPendingOrders(ctx context.Context, now time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", enums.OrderStatusPending, now).
		Order("expires_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

// UpdateOrderStatusGuarded performs a conditional status transition. The
// returned bool reports whether this call won the transition; false means
// a concurrent writer moved the order away from the expected status first.
func (r *repository) UpdateOrderStatusGuarded(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClearExpiryGuarded removes the checkout deadline while the order is still
// PENDING. A false return means the expiry sweep already claimed the order.
func (r *repository) ClearExpiryGuarded(ctx context.Context, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Update("expires_at", nil)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateSubOrder(ctx context.Context, subOrderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SubOrder{}).
		Where("id = ?", subOrderID).
		Updates(updates).Error
}
