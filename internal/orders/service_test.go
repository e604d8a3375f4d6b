package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
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
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type seededOrder struct {
	order     models.Order
	subOrders []models.SubOrder
	products  []models.Product
}

// seedOrder persists a two-seller order whose stock has already been
// reserved (counts reflect the decrement).
func seedOrder(t *testing.T, conn *gorm.DB, buyerID uuid.UUID) seededOrder {
	t.Helper()

	sellerX := uuid.New()
	sellerY := uuid.New()
	productA := models.Product{SellerID: sellerX, Name: "Product A", Price: decimal.NewFromInt(50), Count: 8}
	productB := models.Product{SellerID: sellerY, Name: "Product B", Price: decimal.NewFromInt(30), Count: 4}
	for _, p := range []*models.Product{&productA, &productB} {
		require.NoError(t, conn.Create(p).Error)
	}

	expires := time.Now().UTC().Add(30 * time.Minute)
	order := models.Order{
		BuyerID:   buyerID,
		Total:     decimal.NewFromInt(130),
		Status:    enums.OrderStatusPending,
		ExpiresAt: &expires,
	}
	require.NoError(t, conn.Create(&order).Error)

	subX := models.SubOrder{
		OrderID: order.ID, SellerID: sellerX,
		Status:   enums.SubOrderStatusPending,
		Subtotal: decimal.NewFromInt(100), PayableAmount: decimal.NewFromInt(95),
		PayoutStatus: enums.PayoutStatusUnpaid,
	}
	subY := models.SubOrder{
		OrderID: order.ID, SellerID: sellerY,
		Status:   enums.SubOrderStatusPending,
		Subtotal: decimal.NewFromInt(30), PayableAmount: decimal.RequireFromString("28.5"),
		PayoutStatus: enums.PayoutStatusUnpaid,
	}
	for _, s := range []*models.SubOrder{&subX, &subY} {
		require.NoError(t, conn.Create(s).Error)
	}

	items := []models.OrderItem{
		{OrderID: order.ID, SubOrderID: subX.ID, ProductID: productA.ID, SellerID: sellerX, Name: productA.Name, Price: productA.Price, Quantity: 2},
		{OrderID: order.ID, SubOrderID: subY.ID, ProductID: productB.ID, SellerID: sellerY, Name: productB.Name, Price: productB.Price, Quantity: 1},
	}
	require.NoError(t, conn.Create(&items).Error)

	subXID := subX.ID
	subYID := subY.ID
	payments := []models.Payment{
		{OrderID: order.ID, SubOrderID: &subXID, Amount: subX.Subtotal, Method: enums.PaymentMethodCOD, Status: enums.PaymentStatusUnpaid},
		{OrderID: order.ID, SubOrderID: &subYID, Amount: subY.Subtotal, Method: enums.PaymentMethodCOD, Status: enums.PaymentStatusUnpaid},
		{OrderID: order.ID, Amount: order.Total, Method: enums.PaymentMethodCOD, Status: enums.PaymentStatusUnpaid},
	}
	require.NoError(t, conn.Create(&payments).Error)

	return seededOrder{
		order:     order,
		subOrders: []models.SubOrder{subX, subY},
		products:  []models.Product{productA, productB},
	}
}

func TestSellerTransitionsOwnSubOrder(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	seeded := seedOrder(t, conn, uuid.New())
	subX := seeded.subOrders[0]

	id := subX.ID
	order, err := svc.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:    seeded.order.ID,
		SubOrderID: &id,
		Target:     "CONFIRMED",
		ActorID:    subX.SellerID,
		ActorRole:  enums.RoleSeller,
	})
	require.NoError(t, err)

	var updated models.SubOrder
	require.NoError(t, conn.First(&updated, "id = ?", subX.ID).Error)
	require.Equal(t, enums.SubOrderStatusConfirmed, updated.Status)
	// Order-level status is untouched by a single sub-order move.
	require.Equal(t, enums.OrderStatusPending, order.Status)
}

func TestSellerCannotSkipStates(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	seeded := seedOrder(t, conn, uuid.New())
	subX := seeded.subOrders[0]

	id := subX.ID
	_, err := svc.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:    seeded.order.ID,
		SubOrderID: &id,
		Target:     "DELIVERED",
		ActorID:    subX.SellerID,
		ActorRole:  enums.RoleSeller,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestSellerCannotTouchForeignSubOrder(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	seeded := seedOrder(t, conn, uuid.New())
	subX := seeded.subOrders[0]

	id := subX.ID
	_, err := svc.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:    seeded.order.ID,
		SubOrderID: &id,
		Target:     "CONFIRMED",
		ActorID:    uuid.New(),
		ActorRole:  enums.RoleSeller,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestBuyerCannotTransition(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	buyer := uuid.New()
	seeded := seedOrder(t, conn, buyer)

	_, err := svc.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:   seeded.order.ID,
		Target:    "CONFIRMED",
		ActorID:   buyer,
		ActorRole: enums.RoleBuyer,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestOrderCompletesWhenEverySubOrderCompletes(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	seeded := seedOrder(t, conn, uuid.New())

	advance := func(subOrder models.SubOrder, targets ...string) {
		id := subOrder.ID
		for _, target := range targets {
			_, err := svc.UpdateStatus(ctx, StatusUpdateInput{
				OrderID:    seeded.order.ID,
				SubOrderID: &id,
				Target:     target,
				ActorID:    subOrder.SellerID,
				ActorRole:  enums.RoleSeller,
			})
			require.NoError(t, err)
		}
	}

	steps := []string{"CONFIRMED", "SHIPPED", "DELIVERED", "COMPLETED"}
	advance(seeded.subOrders[0], steps...)

	// One completed seller does not complete the order.
	var order models.Order
	require.NoError(t, conn.First(&order, "id = ?", seeded.order.ID).Error)
	require.Equal(t, enums.OrderStatusPending, order.Status)

	advance(seeded.subOrders[1], steps...)

	require.NoError(t, conn.First(&order, "id = ?", seeded.order.ID).Error)
	require.Equal(t, enums.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.CompletedAt)
}

func TestSubOrderCancellationRestoresItsStock(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	seeded := seedOrder(t, conn, uuid.New())
	subX := seeded.subOrders[0]

	id := subX.ID
	_, err := svc.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:    seeded.order.ID,
		SubOrderID: &id,
		Target:     "CANCELLED",
		ActorID:    subX.SellerID,
		ActorRole:  enums.RoleSeller,
	})
	require.NoError(t, err)

	var productA models.Product
	require.NoError(t, conn.First(&productA, "id = ?", seeded.products[0].ID).Error)
	require.Equal(t, 10, productA.Count) // 8 reserved-adjusted + 2 restored

	var productB models.Product
	require.NoError(t, conn.First(&productB, "id = ?", seeded.products[1].ID).Error)
	require.Equal(t, 4, productB.Count)
}

func TestAdminOverridesOrderStatus(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	seeded := seedOrder(t, conn, uuid.New())

	order, err := svc.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:   seeded.order.ID,
		Target:    "CONFIRMED",
		ActorID:   uuid.New(),
		ActorRole: enums.RoleAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, order.Status)

	// Terminal states refuse further transitions.
	_, err = svc.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:   seeded.order.ID,
		Target:    "PENDING",
		ActorID:   uuid.New(),
		ActorRole: enums.RoleAdmin,
	})
	require.Error(t, err)
}

func TestBuyerCancelRestoresAllStock(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	buyer := uuid.New()
	seeded := seedOrder(t, conn, buyer)

	order, err := svc.CancelOrder(ctx, seeded.order.ID, buyer, enums.RoleBuyer)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, order.Status)
	require.NotNil(t, order.CancelledAt)
	require.Nil(t, order.ExpiresAt)

	var productA, productB models.Product
	require.NoError(t, conn.First(&productA, "id = ?", seeded.products[0].ID).Error)
	require.NoError(t, conn.First(&productB, "id = ?", seeded.products[1].ID).Error)
	require.Equal(t, 10, productA.Count)
	require.Equal(t, 5, productB.Count)

	for _, subOrder := range order.SubOrders {
		require.Equal(t, enums.SubOrderStatusCancelled, subOrder.Status)
	}

	// A second cancel is a state conflict, and stock is not restored twice.
	_, err = svc.CancelOrder(ctx, seeded.order.ID, buyer, enums.RoleBuyer)
	require.Error(t, err)
	require.NoError(t, conn.First(&productA, "id = ?", seeded.products[0].ID).Error)
	require.Equal(t, 10, productA.Count)
}

func TestForeignBuyerCannotCancel(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	seeded := seedOrder(t, conn, uuid.New())

	_, err := svc.CancelOrder(ctx, seeded.order.ID, uuid.New(), enums.RoleBuyer)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestGetOrderAuthorization(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	buyer := uuid.New()
	seeded := seedOrder(t, conn, buyer)

	_, err := svc.GetOrder(ctx, seeded.order.ID, buyer, enums.RoleBuyer)
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, seeded.order.ID, seeded.subOrders[0].SellerID, enums.RoleSeller)
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, seeded.order.ID, uuid.New(), enums.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, seeded.order.ID, uuid.New(), enums.RoleBuyer)
	require.Error(t, err)

	_, err = svc.GetOrder(ctx, uuid.New(), buyer, enums.RoleBuyer)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestExpiryReadout(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	buyer := uuid.New()
	seeded := seedOrder(t, conn, buyer)

	info, err := svc.Expiry(ctx, seeded.order.ID, buyer, enums.RoleBuyer)
	require.NoError(t, err)
	require.False(t, info.Expired)
	require.Greater(t, info.RemainingSeconds, int64(0))

	// Past-deadline pending order reads as expired even before the sweep runs.
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, conn.Model(&models.Order{}).Where("id = ?", seeded.order.ID).Update("expires_at", past).Error)

	info, err = svc.Expiry(ctx, seeded.order.ID, buyer, enums.RoleBuyer)
	require.NoError(t, err)
	require.True(t, info.Expired)
	require.Zero(t, info.RemainingSeconds)
}
