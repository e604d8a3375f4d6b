package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service processes buyer payments: checkout submission, gateway callback
// verification, and manual status changes.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	VerifyPayment(ctx context.Context, input VerifyInput) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, input StatusInput) (*models.Order, error)
}

type service struct {
	repo          Repository
	tx            txRunner
	gateways      map[enums.PaymentMethod]Gateway
	returnBaseURL string
	metrics       *metrics.OrderFlowMetrics
	now           func() time.Time
}

// ServiceParams bundles the payments service dependencies.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Gateways      map[enums.PaymentMethod]Gateway
	ReturnBaseURL string
	Metrics       *metrics.OrderFlowMetrics
}

// NewService builds a payments service with the required dependencies.
// Gateways may be nil; checkout with a gateway method then fails with a
// dependency error while COD keeps working.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:          params.Repo,
		tx:            params.Tx,
		gateways:      params.Gateways,
		returnBaseURL: strings.TrimRight(params.ReturnBaseURL, "/"),
		metrics:       params.Metrics,
		now:           time.Now,
	}, nil
}

// Checkout attaches shipping details and a payment method to a pending order.
// Gateway methods produce a redirect URL and a fresh transaction reference;
// COD completes immediately. Clearing the expiry deadline is guarded so that
// checkout and the expiry sweep settle to exactly one winner.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.Shipping.IsComplete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping information incomplete")
	}

	order, err := s.repo.FindOrder(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerID != input.BuyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be checked out").
			WithDetails(map[string]any{"status": order.Status})
	}

	transactionUUID := uuid.NewString()
	redirectURL := ""
	if input.Method.IsGateway() {
		gateway, ok := s.gateways[input.Method]
		if !ok || gateway == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured").
				WithDetails(map[string]any{"method": input.Method})
		}
		// The gateway round-trip happens before the transaction so a slow or
		// failing rail never holds database locks.
		redirect, err := gateway.Begin(ctx, GatewayBeginRequest{
			OrderID:         order.ID,
			TransactionUUID: transactionUUID,
			Amount:          order.Total,
			SuccessURL:      s.returnURL(input.SuccessURL, "/payment/success"),
			FailureURL:      s.returnURL(input.FailureURL, "/payment/failure"),
		})
		if err != nil {
			return nil, err
		}
		redirectURL = redirect.RedirectURL
		if redirect.TransactionRef != "" {
			transactionUUID = redirect.TransactionRef
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		won, err := repo.ClearExpiryGuarded(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear order expiry")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order expired before checkout completed")
		}

		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"shipping_name":    input.Shipping.Name,
			"shipping_address": input.Shipping.Address,
			"shipping_city":    input.Shipping.City,
			"shipping_phone":   input.Shipping.Phone,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store shipping details")
		}

		if err := repo.UpdatePaymentsByOrder(ctx, order.ID, map[string]any{
			"method": input.Method,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment method")
		}

		payment, err := repo.FindOrderPayment(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order payment")
		}
		updates := map[string]any{"transaction_uuid": nil}
		if input.Method.IsGateway() {
			updates["transaction_uuid"] = transactionUUID
		}
		if err := repo.UpdatePayment(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	detail, err := s.repo.FindOrderDetail(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return &CheckoutResult{Order: detail, RedirectURL: redirectURL}, nil
}

func (s *service) returnURL(explicit, fallbackPath string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	if s.returnBaseURL == "" {
		return ""
	}
	return s.returnBaseURL + fallbackPath
}

// VerifyPayment resolves a gateway callback against the order's recorded
// transaction. A confirmed match settles every payment row of the order;
// any mismatch leaves state untouched and reports a verification failure.
// Replayed callbacks for an already-paid order are accepted as no-ops.
func (s *service) VerifyPayment(ctx context.Context, input VerifyInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(input.Payload) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification payload required")
	}

	order, err := s.repo.FindOrder(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if input.Role != enums.RoleAdmin && order.BuyerID != input.ActorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
	}

	payment, err := s.repo.FindOrderPayment(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order payment")
	}
	if !payment.Method.IsGateway() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not using a gateway payment method")
	}
	if payment.Status == enums.PaymentStatusPaid {
		return s.repo.FindOrderDetail(ctx, order.ID)
	}
	if payment.TransactionUUID == nil || *payment.TransactionUUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout has not been initiated for this order")
	}

	gateway, ok := s.gateways[payment.Method]
	if !ok || gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured").
			WithDetails(map[string]any{"method": payment.Method})
	}

	confirmation, err := gateway.Confirm(ctx, input.Payload)
	if err != nil {
		return nil, err
	}
	if !confirmation.Completed ||
		confirmation.TransactionUUID != *payment.TransactionUUID ||
		!confirmation.Amount.Equal(payment.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "payment verification failed").
			WithDetails(map[string]any{
				"expected_transaction": *payment.TransactionUUID,
				"received_transaction": confirmation.TransactionUUID,
			})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkOrderPaymentsPaid(ctx, order.ID, s.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle order payments")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPaymentsVerified(payment.Method.String())
	return s.repo.FindOrderDetail(ctx, order.ID)
}

// UpdatePaymentStatus applies a manual payment status change. Sellers mark
// their own COD sub-order payment; admins move the whole order either way.
// Buyers never change payment state by hand.
func (s *service) UpdatePaymentStatus(ctx context.Context, input StatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	switch input.Role {
	case enums.RoleSeller:
		if input.SubOrderID == nil || *input.SubOrderID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sub-order id required for seller payment updates")
		}
		return s.sellerPaymentUpdate(ctx, input.OrderID, *input.SubOrderID, input.ActorID, input.Target)
	case enums.RoleAdmin:
		return s.adminPaymentUpdate(ctx, input.OrderID, input.Target)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment status updates require seller or admin role")
	}
}

func (s *service) sellerPaymentUpdate(ctx context.Context, orderID, subOrderID, sellerID uuid.UUID, target enums.PaymentStatus) (*models.Order, error) {
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

		payment, err := repo.FindSubOrderPayment(ctx, subOrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-order payment")
		}
		if payment.Method.IsGateway() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "gateway payments settle through verification")
		}

		if err := repo.UpdatePayment(ctx, payment.ID, s.statusUpdates(target)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sub-order payment")
		}
		return s.rollUpOrderPayment(ctx, repo, orderID, target)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindOrderDetail(ctx, orderID)
}

// rollUpOrderPayment keeps the order-level payment consistent with its
// sub-order rows: PAID once every sub-order payment is PAID, UNPAID the
// moment any of them is not.
func (s *service) rollUpOrderPayment(ctx context.Context, repo Repository, orderID uuid.UUID, target enums.PaymentStatus) error {
	orderPayment, err := repo.FindOrderPayment(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order payment")
	}

	next := enums.PaymentStatusUnpaid
	if target == enums.PaymentStatusPaid {
		subPayments, err := repo.FindSubOrderPayments(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-order payments")
		}
		next = enums.PaymentStatusPaid
		for _, subPayment := range subPayments {
			if subPayment.Status != enums.PaymentStatusPaid {
				next = enums.PaymentStatusUnpaid
				break
			}
		}
	}

	if next == orderPayment.Status {
		return nil
	}
	if err := repo.UpdatePayment(ctx, orderPayment.ID, s.statusUpdates(next)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "roll up order payment")
	}
	return nil
}

func (s *service) adminPaymentUpdate(ctx context.Context, orderID uuid.UUID, target enums.PaymentStatus) (*models.Order, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindOrderPayment(ctx, orderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order payment")
		}
		if err := repo.UpdatePaymentsByOrder(ctx, orderID, s.statusUpdates(target)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payments")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindOrderDetail(ctx, orderID)
}

func (s *service) statusUpdates(target enums.PaymentStatus) map[string]any {
	updates := map[string]any{"status": target}
	if target == enums.PaymentStatusPaid {
		updates["paid_at"] = s.now().UTC()
	} else {
		updates["paid_at"] = nil
	}
	return updates
}
