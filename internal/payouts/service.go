package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service settles what the platform owes sellers for completed sub-orders.
type Service interface {
	Summary(ctx context.Context) ([]SellerPayoutSummary, error)
	PaySeller(ctx context.Context, sellerID uuid.UUID) (*SettlementResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.OrderFlowMetrics
	now     func() time.Time
}

// NewService builds a payouts service with the required dependencies.
func NewService(repo Repository, tx txRunner, flowMetrics *metrics.OrderFlowMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		metrics: flowMetrics,
		now:     time.Now,
	}, nil
}

// Summary reports every seller's outstanding balance. Revenue and payable
// come straight from the stored sub-order amounts, so the commission shown
// is exactly what settlement will withhold.
func (s *service) Summary(ctx context.Context) ([]SellerPayoutSummary, error) {
	aggregates, err := s.repo.AggregateEligible(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate payout balances")
	}

	summaries := make([]SellerPayoutSummary, 0, len(aggregates))
	for _, row := range aggregates {
		summaries = append(summaries, SellerPayoutSummary{
			SellerID:      row.SellerID,
			TotalRevenue:  row.TotalRevenue,
			Commission:    row.TotalRevenue.Sub(row.TotalPayable),
			PayableAmount: row.TotalPayable,
			SubOrderCount: row.SubOrderCount,
		})
	}
	return summaries, nil
}

// PaySeller settles one seller's whole outstanding balance in a single
// transaction. Settling a seller with nothing owed is a successful no-op so
// the operation can be retried safely.
func (s *service) PaySeller(ctx context.Context, sellerID uuid.UUID) (*SettlementResult, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	result := &SettlementResult{SellerID: sellerID, TotalPaid: decimal.Zero}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		eligible, err := repo.FindEligibleSubOrders(ctx, sellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load eligible sub-orders")
		}
		if len(eligible) == 0 {
			result.NoUnpaidBalance = true
			return nil
		}

		total := decimal.Zero
		ids := make([]uuid.UUID, 0, len(eligible))
		for _, subOrder := range eligible {
			total = total.Add(subOrder.PayableAmount)
			ids = append(ids, subOrder.ID)
		}

		payoutDate := s.now().UTC()
		settled, err := repo.SettleSubOrders(ctx, ids, payoutDate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle sub-orders")
		}
		if settled != int64(len(ids)) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout settled concurrently")
		}

		result.TotalPaid = total
		result.SettledCount = len(ids)
		result.PayoutDate = &payoutDate
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.SettledCount > 0 {
		s.metrics.IncPayoutsSettled()
	}
	return result, nil
}
