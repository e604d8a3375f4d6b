package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
)

// Repository defines persistence operations payment processing needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindSubOrder(ctx context.Context, subOrderID uuid.UUID) (*models.SubOrder, error)
	FindOrderPayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	FindSubOrderPayment(ctx context.Context, subOrderID uuid.UUID) (*models.Payment, error)
	FindSubOrderPayments(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)

	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	ClearExpiryGuarded(ctx context.Context, orderID uuid.UUID) (bool, error)
	UpdatePayment(ctx context.Context, paymentID uuid.UUID, updates map[string]any) error
	UpdatePaymentsByOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	MarkOrderPaymentsPaid(ctx context.Context, orderID uuid.UUID, paidAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
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
		Where("id = ?", subOrderID).
		First(&subOrder).Error
	if err != nil {
		return nil, err
	}
	return &subOrder, nil
}

// FindOrderPayment returns the order-level aggregate payment row.
func (r *repository) FindOrderPayment(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND sub_order_id IS NULL", orderID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindSubOrderPayment(ctx context.Context, subOrderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("sub_order_id = ?", subOrderID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindSubOrderPayments(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND sub_order_id IS NOT NULL", orderID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
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

func (r *repository) UpdatePayment(ctx context.Context, paymentID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Updates(updates).Error
}

func (r *repository) UpdatePaymentsByOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}

// MarkOrderPaymentsPaid settles every payment row of the order, order-level
// and per-sub-order alike. Already-paid rows keep their original paid_at.
func (r *repository) MarkOrderPaymentsPaid(ctx context.Context, orderID uuid.UUID, paidAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, enums.PaymentStatusUnpaid).
		Updates(map[string]any{
			"status":  enums.PaymentStatusPaid,
			"paid_at": paidAt,
		}).Error
}
