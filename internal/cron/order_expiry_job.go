package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/orders"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/logger"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderExpiryJobParams configure the abandoned-order sweep.
type OrderExpiryJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repo        orders.Repository
	Releaser    orders.StockReleaser
	FlowMetrics *metrics.OrderFlowMetrics
}

// NewOrderExpiryJob builds the cron job that cancels pending orders whose
// checkout deadline has passed and returns their reserved stock.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	releaser := params.Releaser
	if releaser == nil {
		releaser = orders.NewStockReleaser()
	}
	return &orderExpiryJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repo,
		releaser:    releaser,
		flowMetrics: params.FlowMetrics,
		now:         time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg        *logger.Logger
	db          txRunner
	repo        orders.Repository
	releaser    orders.StockReleaser
	flowMetrics *metrics.OrderFlowMetrics
	now         func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

// Run sweeps every pending order past its deadline. Each order is cancelled
// in its own transaction so one poisoned row cannot wedge the whole sweep.
func (j *orderExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.repo.FindExpiredPendingOrders(ctx, now)
	if err != nil {
		return fmt.Errorf("query expired pending orders: %w", err)
	}

	var errs error
	cancelled := 0
	for _, order := range expired {
		won, err := j.expireOrder(ctx, order, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		if won {
			cancelled++
			j.flowMetrics.IncOrdersExpired()
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"expired": len(expired), "cancelled": cancelled})
	j.logg.Info(logCtx, "order expiry sweep complete")
	return errs
}

// expireOrder re-checks the order inside the transaction: a buyer may have
// checked out or cancelled between the sweep query and this point.
func (j *orderExpiryJob) expireOrder(ctx context.Context, order models.Order, now time.Time) (bool, error) {
	won := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		current, err := repo.FindOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if current.Status != enums.OrderStatusPending {
			return nil
		}
		if current.ExpiresAt == nil || current.ExpiresAt.After(now) {
			return nil
		}
		won, err = orders.CancelInTx(ctx, tx, repo, j.releaser, current, now)
		return err
	})
	if err != nil {
		return false, err
	}
	return won, nil
}
