package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
)

// SellerAggregate is one row of the per-seller settlement rollup.
type SellerAggregate struct {
	SellerID      uuid.UUID       `gorm:"column:seller_id"`
	TotalRevenue  decimal.Decimal `gorm:"column:total_revenue"`
	TotalPayable  decimal.Decimal `gorm:"column:total_payable"`
	SubOrderCount int             `gorm:"column:sub_order_count"`
}

// Repository defines persistence operations for payout settlement.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	AggregateEligible(ctx context.Context) ([]SellerAggregate, error)
	FindEligibleSubOrders(ctx context.Context, sellerID uuid.UUID) ([]models.SubOrder, error)
	SettleSubOrders(ctx context.Context, subOrderIDs []uuid.UUID, payoutDate time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payouts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// AggregateEligible rolls up every seller's completed, not-yet-settled
// sub-orders into one row per seller.
func (r *repository) AggregateEligible(ctx context.Context) ([]SellerAggregate, error) {
	var rows []SellerAggregate
	err := r.db.WithContext(ctx).
		Model(&models.SubOrder{}).
		Select("seller_id, SUM(subtotal) AS total_revenue, SUM(payable_amount) AS total_payable, COUNT(*) AS sub_order_count").
		Where("status = ? AND payout_status = ?", enums.SubOrderStatusCompleted, enums.PayoutStatusUnpaid).
		Group("seller_id").
		Order("seller_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindEligibleSubOrders(ctx context.Context, sellerID uuid.UUID) ([]models.SubOrder, error) {
	var subOrders []models.SubOrder
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND status = ? AND payout_status = ?",
			sellerID, enums.SubOrderStatusCompleted, enums.PayoutStatusUnpaid).
		Order("created_at ASC").
		Find(&subOrders).Error
	if err != nil {
		return nil, err
	}
	return subOrders, nil
}

// SettleSubOrders marks the given sub-orders paid out and zeroes their
// payable balance. The payout_status guard makes concurrent settlements of
// the same seller affect each row at most once; the returned count is how
// many rows this call actually settled.
func (r *repository) SettleSubOrders(ctx context.Context, subOrderIDs []uuid.UUID, payoutDate time.Time) (int64, error) {
	if len(subOrderIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.SubOrder{}).
		Where("id IN ? AND payout_status = ?", subOrderIDs, enums.PayoutStatusUnpaid).
		Updates(map[string]any{
			"payout_status":  enums.PayoutStatusPaid,
			"payout_date":    payoutDate,
			"payable_amount": decimal.Zero,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
