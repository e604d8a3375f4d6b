package checkout

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/checkout/reservation"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/orders"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/products"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/commission"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.Request) error
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.Request) error {
	return reservation.Reserve(ctx, tx, requests)
}

// Service executes order creation: catalog lookup, stock reservation, and
// per-seller decomposition, all inside one transaction.
type Service interface {
	CreateOrder(ctx context.Context, buyerID uuid.UUID, lines []LineInput) (*models.Order, error)
}

type service struct {
	tx          txRunner
	ordersRepo  orders.Repository
	productRepo products.Repository
	reservation reservationRunner
	policy      commission.Policy
	pendingTTL  time.Duration
	metrics     *metrics.OrderFlowMetrics
	now         func() time.Time
}

// ServiceParams configure the checkout service.
type ServiceParams struct {
	Tx          txRunner
	OrdersRepo  orders.Repository
	ProductRepo products.Repository
	Reservation reservationRunner
	Policy      *commission.Policy
	PendingTTL  time.Duration
	Metrics     *metrics.OrderFlowMetrics
}

const defaultPendingTTL = 30 * time.Minute

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	res := params.Reservation
	if res == nil {
		res = reservationEngine{}
	}
	policy := commission.Default()
	if params.Policy != nil {
		policy = *params.Policy
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &service{
		tx:          params.Tx,
		ordersRepo:  params.OrdersRepo,
		productRepo: params.ProductRepo,
		reservation: res,
		policy:      policy,
		pendingTTL:  ttl,
		metrics:     params.Metrics,
		now:         time.Now,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, buyerID uuid.UUID, lines []LineInput) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order contains no items")
	}
	merged, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		ids := make([]uuid.UUID, 0, len(merged))
		for _, line := range merged {
			ids = append(ids, line.ProductID)
		}
		catalog, err := productRepo.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		productsByID := make(map[uuid.UUID]models.Product, len(catalog))
		for _, product := range catalog {
			productsByID[product.ID] = product
		}
		for _, line := range merged {
			if _, ok := productsByID[line.ProductID]; !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID)).
					WithDetails(map[string]any{"product_id": line.ProductID.String()})
			}
		}

		requests := make([]reservation.Request, 0, len(merged))
		for _, line := range merged {
			requests = append(requests, reservation.Request{ProductID: line.ProductID, Qty: line.Quantity})
		}
		if err := s.reservation.Reserve(ctx, tx, requests); err != nil {
			return err
		}

		buckets := groupBySeller(merged, productsByID)

		total := decimal.Zero
		for _, bucket := range buckets {
			total = total.Add(bucket.subtotal)
		}

		expiresAt := s.now().UTC().Add(s.pendingTTL)
		order := &models.Order{
			BuyerID:   buyerID,
			Total:     total,
			Status:    enums.OrderStatusPending,
			ExpiresAt: &expiresAt,
		}
		if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		subOrders := make([]models.SubOrder, 0, len(buckets))
		for _, bucket := range buckets {
			subOrders = append(subOrders, models.SubOrder{
				OrderID:       order.ID,
				SellerID:      bucket.sellerID,
				Status:        enums.SubOrderStatusPending,
				Subtotal:      bucket.subtotal,
				PayableAmount: s.policy.PayableAmount(bucket.subtotal),
				PayoutStatus:  enums.PayoutStatusUnpaid,
			})
		}
		if err := ordersRepo.CreateSubOrders(ctx, subOrders); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sub-orders")
		}

		subOrderBySeller := make(map[uuid.UUID]models.SubOrder, len(subOrders))
		for _, subOrder := range subOrders {
			subOrderBySeller[subOrder.SellerID] = subOrder
		}

		var items []models.OrderItem
		payments := make([]models.Payment, 0, len(subOrders)+1)
		for _, bucket := range buckets {
			subOrder := subOrderBySeller[bucket.sellerID]
			for _, line := range bucket.lines {
				product := productsByID[line.ProductID]
				items = append(items, models.OrderItem{
					OrderID:    order.ID,
					SubOrderID: subOrder.ID,
					ProductID:  product.ID,
					SellerID:   product.SellerID,
					Name:       product.Name,
					Price:      product.Price,
					Quantity:   line.Quantity,
				})
			}
			subOrderID := subOrder.ID
			payments = append(payments, models.Payment{
				OrderID:    order.ID,
				SubOrderID: &subOrderID,
				Amount:     bucket.subtotal,
				Method:     enums.PaymentMethodCOD,
				Status:     enums.PaymentStatusUnpaid,
			})
		}
		if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		payments = append(payments, models.Payment{
			OrderID: order.ID,
			Amount:  total,
			Method:  enums.PaymentMethodCOD,
			Status:  enums.PaymentStatusUnpaid,
		})
		if err := ordersRepo.CreatePayments(ctx, payments); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment records")
		}

		created, err = ordersRepo.FindOrderDetail(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncOrdersCreated()
	}
	return created, nil
}

type sellerBucket struct {
	sellerID uuid.UUID
	lines    []LineInput
	subtotal decimal.Decimal
}

// mergeLines collapses duplicate product lines and validates quantities.
func mergeLines(lines []LineInput) ([]LineInput, error) {
	index := map[uuid.UUID]int{}
	merged := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// groupBySeller buckets order lines by the owning seller and computes each
// bucket's subtotal from the snapshot prices. Buckets are sorted by seller
// id so sub-order creation order is deterministic.
func groupBySeller(lines []LineInput, productsByID map[uuid.UUID]models.Product) []sellerBucket {
	bySeller := map[uuid.UUID]*sellerBucket{}
	for _, line := range lines {
		product := productsByID[line.ProductID]
		bucket, ok := bySeller[product.SellerID]
		if !ok {
			bucket = &sellerBucket{sellerID: product.SellerID, subtotal: decimal.Zero}
			bySeller[product.SellerID] = bucket
		}
		bucket.lines = append(bucket.lines, line)
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		bucket.subtotal = bucket.subtotal.Add(lineTotal)
	}

	buckets := make([]sellerBucket, 0, len(bySeller))
	for _, bucket := range bySeller {
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].sellerID.String() < buckets[j].sellerID.String()
	})
	return buckets
}
