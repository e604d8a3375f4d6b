package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/checkout/reservation"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockReleaser returns reserved stock when an order or sub-order is cancelled.
type StockReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type stockReleaserImpl struct{}

// NewStockReleaser exposes the default stock release implementation.
func NewStockReleaser() StockReleaser {
	return stockReleaserImpl{}
}

func (stockReleaserImpl) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return reservation.Release(ctx, tx, productID, qty)
}

// Service defines lifecycle and read operations on the order aggregate.
type Service interface {
	GetOrder(ctx context.Context, orderID, actorID uuid.UUID, role enums.Role) (*models.Order, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*SellerOrderList, error)
	ListAllOrders(ctx context.Context, params pagination.Params) (*OrderList, error)
	UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, actorID uuid.UUID, role enums.Role) (*models.Order, error)
	Expiry(ctx context.Context, orderID, actorID uuid.UUID, role enums.Role) (*ExpiryInfo, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	releaser StockReleaser
	now      func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, releaser StockReleaser) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if releaser == nil {
		releaser = NewStockReleaser()
	}
	return &service{
		repo:     repo,
		tx:       tx,
		releaser: releaser,
		now:      time.Now,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, actorID uuid.UUID, role enums.Role) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrderDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	switch role {
	case enums.RoleAdmin:
		return order, nil
	case enums.RoleBuyer:
		if order.BuyerID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
		}
		return order, nil
	case enums.RoleSeller:
		for _, subOrder := range order.SubOrders {
			if subOrder.SellerID == actorID {
				return order, nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
	}
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListBuyerOrders(ctx, buyerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return list, nil
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*SellerOrderList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListSellerOrders(ctx, sellerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	return list, nil
}

func (s *service) ListAllOrders(ctx context.Context, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListAllOrders(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// UpdateStatus applies one lifecycle transition. Sellers move their own
// sub-order; admins move the order-level status directly. Buyers are
// read-only and rejected before any lookup.
func (s *service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	switch input.ActorRole {
	case enums.RoleSeller:
		if input.SubOrderID == nil || *input.SubOrderID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sub-order id required for seller transitions")
		}
		target, err := enums.ParseSubOrderStatus(input.Target)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		return s.transitionSubOrder(ctx, input.OrderID, *input.SubOrderID, input.ActorID, target)
	case enums.RoleAdmin:
		target, err := enums.ParseOrderStatus(input.Target)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		return s.transitionOrder(ctx, input.OrderID, target)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "status transitions require seller or admin role")
	}
}

func (s *service) transitionSubOrder(ctx context.Context, orderID, subOrderID, sellerID uuid.UUID, target enums.SubOrderStatus) (*models.Order, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		subOrder, err := repo.FindSubOrder(ctx, subOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sub-order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-order")
		}
		if subOrder.OrderID != orderID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sub-order not found")
		}
		if subOrder.SellerID != sellerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "sub-order does not belong to seller")
		}
		if err := validateSubOrderTransition(subOrder.Status, target); err != nil {
			return err
		}

		now := s.now().UTC()
		updates := map[string]any{"status": target}

		if target == enums.SubOrderStatusCancelled {
			for _, item := range subOrder.Items {
				if err := s.releaser.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		if err := repo.UpdateSubOrder(ctx, subOrder.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sub-order status")
		}

		if target == enums.SubOrderStatusCompleted {
			return s.rollUpCompletion(ctx, repo, orderID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindOrderDetail(ctx, orderID)
}

// rollUpCompletion promotes the order to COMPLETED once every sub-order is
// COMPLETED. Runs in the same tx as the final sub-order transition.
func (s *service) rollUpCompletion(ctx context.Context, repo Repository, orderID uuid.UUID, now time.Time) error {
	subOrders, err := repo.FindSubOrdersByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload sub-orders")
	}
	for _, subOrder := range subOrders {
		if subOrder.Status != enums.SubOrderStatusCompleted {
			return nil
		}
	}
	if err := repo.UpdateOrder(ctx, orderID, map[string]any{
		"status":       enums.OrderStatusCompleted,
		"completed_at": now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "roll up order completion")
	}
	return nil
}

func (s *service) transitionOrder(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if err := validateOrderTransition(order.Status, target); err != nil {
			return err
		}

		now := s.now().UTC()
		if target == enums.OrderStatusCancelled {
			won, err := CancelInTx(ctx, tx, repo, s.releaser, order, now)
			if err != nil {
				return err
			}
			if !won {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
			}
			return nil
		}

		updates := map[string]any{}
		if target == enums.OrderStatusCompleted {
			updates["completed_at"] = now
		}
		won, err := repo.UpdateOrderStatusGuarded(ctx, orderID, order.Status, target, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindOrderDetail(ctx, orderID)
}

// CancelOrder cancels a whole order, restoring every reserved unit. Buyers
// may cancel their own order while it is still PENDING or CONFIRMED; admins
// may cancel any non-terminal order.
func (s *service) CancelOrder(ctx context.Context, orderID, actorID uuid.UUID, role enums.Role) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		switch role {
		case enums.RoleAdmin:
		case enums.RoleBuyer:
			if order.BuyerID != actorID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
			}
			if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusConfirmed {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
		}

		if err := validateOrderTransition(order.Status, enums.OrderStatusCancelled); err != nil {
			return err
		}

		won, err := CancelInTx(ctx, tx, repo, s.releaser, order, s.now().UTC())
		if err != nil {
			return err
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindOrderDetail(ctx, orderID)
}

// CancelInTx marks the order and its live sub-orders CANCELLED and restores
// the stock every non-cancelled sub-order still holds. Shared by admin/buyer
// cancellation and the expiry sweep; the surrounding tx provides atomicity.
// The guarded order update makes concurrent cancellations settle to exactly
// one winner.
func CancelInTx(ctx context.Context, tx *gorm.DB, repo Repository, releaser StockReleaser, order *models.Order, now time.Time) (bool, error) {
	won, err := repo.UpdateOrderStatusGuarded(ctx, order.ID, order.Status, enums.OrderStatusCancelled, map[string]any{
		"cancelled_at": now,
		"expires_at":   nil,
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if !won {
		return false, nil
	}

	subOrders, err := repo.FindSubOrdersByOrder(ctx, order.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-orders")
	}
	for _, subOrder := range subOrders {
		if subOrder.Status == enums.SubOrderStatusCancelled {
			continue
		}
		items, err := repo.FindOrderItemsBySubOrder(ctx, subOrder.ID)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-order items")
		}
		for _, item := range items {
			if err := releaser.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return false, err
			}
		}
		if err := repo.UpdateSubOrder(ctx, subOrder.ID, map[string]any{
			"status": enums.SubOrderStatusCancelled,
		}); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel sub-order")
		}
	}
	return true, nil
}

// Expiry reports how long a pending order has before the sweep cancels it.
func (s *service) Expiry(ctx context.Context, orderID, actorID uuid.UUID, role enums.Role) (*ExpiryInfo, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if role != enums.RoleAdmin && order.BuyerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
	}

	info := &ExpiryInfo{
		OrderID:   order.ID,
		Status:    order.Status,
		ExpiresAt: order.ExpiresAt,
	}
	if order.Status == enums.OrderStatusCancelled {
		info.Expired = true
		return info, nil
	}
	if order.Status == enums.OrderStatusPending && order.ExpiresAt != nil {
		remaining := order.ExpiresAt.Sub(s.now().UTC())
		if remaining <= 0 {
			info.Expired = true
		} else {
			info.RemainingSeconds = int64(remaining.Seconds())
		}
	}
	return info, nil
}
