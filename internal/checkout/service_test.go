package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/orders"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/products"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.SubOrder{},
		&models.OrderItem{},
		&models.Payment{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Tx:          db.NewWithConn(conn),
		OrdersRepo:  orders.NewRepository(conn),
		ProductRepo: products.NewRepository(conn),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, conn *gorm.DB, sellerID uuid.UUID, name string, price int64, count int) models.Product {
	t.Helper()
	product := models.Product{
		SellerID: sellerID,
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Count:    count,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestCreateOrderDecomposesBySeller(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	sellerX := uuid.New()
	sellerY := uuid.New()
	productA := seedProduct(t, conn, sellerX, "Product A", 50, 10)
	productB := seedProduct(t, conn, sellerY, "Product B", 30, 5)
	buyer := uuid.New()

	order, err := svc.CreateOrder(ctx, buyer, []LineInput{
		{ProductID: productA.ID, Quantity: 2},
		{ProductID: productB.ID, Quantity: 1},
	})
	require.NoError(t, err)

	require.True(t, order.Total.Equal(decimal.NewFromInt(130)), "total %s", order.Total)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.NotNil(t, order.ExpiresAt)
	require.Len(t, order.SubOrders, 2)
	require.Len(t, order.Items, 2)

	bySeller := map[uuid.UUID]models.SubOrder{}
	for _, subOrder := range order.SubOrders {
		bySeller[subOrder.SellerID] = subOrder
	}
	x := bySeller[sellerX]
	require.True(t, x.Subtotal.Equal(decimal.NewFromInt(100)), "seller x subtotal %s", x.Subtotal)
	require.True(t, x.PayableAmount.Equal(decimal.NewFromInt(95)), "seller x payable %s", x.PayableAmount)
	y := bySeller[sellerY]
	require.True(t, y.Subtotal.Equal(decimal.NewFromInt(30)), "seller y subtotal %s", y.Subtotal)
	require.True(t, y.PayableAmount.Equal(decimal.RequireFromString("28.5")), "seller y payable %s", y.PayableAmount)

	// Stock decremented.
	var a, b models.Product
	require.NoError(t, conn.First(&a, "id = ?", productA.ID).Error)
	require.NoError(t, conn.First(&b, "id = ?", productB.ID).Error)
	require.Equal(t, 8, a.Count)
	require.Equal(t, 4, b.Count)

	// One payment per sub-order plus one order-level row, all UNPAID.
	var payments []models.Payment
	require.NoError(t, conn.Where("order_id = ?", order.ID).Find(&payments).Error)
	require.Len(t, payments, 3)
	orderLevel := 0
	for _, payment := range payments {
		require.Equal(t, enums.PaymentStatusUnpaid, payment.Status)
		if payment.SubOrderID == nil {
			orderLevel++
			require.True(t, payment.Amount.Equal(decimal.NewFromInt(130)))
		}
	}
	require.Equal(t, 1, orderLevel)
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	product := seedProduct(t, conn, uuid.New(), "Product", 10, 10)

	order, err := svc.CreateOrder(ctx, uuid.New(), []LineInput{
		{ProductID: product.ID, Quantity: 2},
		{ProductID: product.ID, Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	require.Equal(t, 5, order.Items[0].Quantity)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	require.Equal(t, 5, reloaded.Count)
}

func TestCreateOrderInsufficientStockLeavesNothingBehind(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	product := seedProduct(t, conn, uuid.New(), "Product", 20, 10)

	_, err := svc.CreateOrder(ctx, uuid.New(), []LineInput{
		{ProductID: product.ID, Quantity: 11},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	require.Equal(t, 10, reloaded.Count)

	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.CreateOrder(context.Background(), uuid.New(), []LineInput{
		{ProductID: uuid.New(), Quantity: 1},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateOrderEmptyLines(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.CreateOrder(context.Background(), uuid.New(), nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
