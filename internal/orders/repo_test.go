package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/pagination"
)

func TestListBuyerOrdersPaginates(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	buyer := uuid.New()
	for i := 0; i < 3; i++ {
		order := models.Order{
			BuyerID:   buyer,
			Total:     decimal.NewFromInt(int64(100 + i)),
			Status:    enums.OrderStatusPending,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, conn.Create(&order).Error)
	}
	// Foreign order must not leak into the buyer's list.
	other := models.Order{BuyerID: uuid.New(), Total: decimal.NewFromInt(999), Status: enums.OrderStatusPending}
	require.NoError(t, conn.Create(&other).Error)

	first, err := repo.ListBuyerOrders(ctx, buyer, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListBuyerOrders(ctx, buyer, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	require.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, summary := range append(first.Orders, second.Orders...) {
		require.Equal(t, buyer, summary.BuyerID)
		require.False(t, seen[summary.ID], "duplicate order in pages")
		seen[summary.ID] = true
	}
}

func TestListSellerOrdersReturnsOwnSliceOnly(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seeded := seedOrder(t, conn, uuid.New())
	sellerX := seeded.subOrders[0].SellerID

	list, err := repo.ListSellerOrders(ctx, sellerX, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)

	slice := list.Orders[0]
	require.Equal(t, seeded.order.ID, slice.OrderID)
	require.Equal(t, sellerX, slice.SubOrder.SellerID)
	require.True(t, slice.SubOrder.Subtotal.Equal(decimal.NewFromInt(100)))
	require.Len(t, slice.SubOrder.Items, 1)
}

func TestUpdateOrderStatusGuarded(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seeded := seedOrder(t, conn, uuid.New())

	won, err := repo.UpdateOrderStatusGuarded(ctx, seeded.order.ID, enums.OrderStatusPending, enums.OrderStatusConfirmed, nil)
	require.NoError(t, err)
	require.True(t, won)

	// The same guard loses once the status moved on.
	won, err = repo.UpdateOrderStatusGuarded(ctx, seeded.order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled, nil)
	require.NoError(t, err)
	require.False(t, won)

	var order models.Order
	require.NoError(t, conn.First(&order, "id = ?", seeded.order.ID).Error)
	require.Equal(t, enums.OrderStatusConfirmed, order.Status)
}

func TestClearExpiryGuarded(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	seeded := seedOrder(t, conn, uuid.New())

	won, err := repo.ClearExpiryGuarded(ctx, seeded.order.ID)
	require.NoError(t, err)
	require.True(t, won)

	var order models.Order
	require.NoError(t, conn.First(&order, "id = ?", seeded.order.ID).Error)
	require.Nil(t, order.ExpiresAt)

	// Non-pending orders are out of reach for the guard.
	require.NoError(t, conn.Model(&models.Order{}).Where("id = ?", seeded.order.ID).Update("status", enums.OrderStatusConfirmed).Error)
	won, err = repo.ClearExpiryGuarded(ctx, seeded.order.ID)
	require.NoError(t, err)
	require.False(t, won)
}

func TestFindExpiredPendingOrders(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	expired := models.Order{BuyerID: uuid.New(), Total: decimal.NewFromInt(10), Status: enums.OrderStatusPending, ExpiresAt: &past}
	alive := models.Order{BuyerID: uuid.New(), Total: decimal.NewFromInt(10), Status: enums.OrderStatusPending, ExpiresAt: &future}
	confirmed := models.Order{BuyerID: uuid.New(), Total: decimal.NewFromInt(10), Status: enums.OrderStatusConfirmed, ExpiresAt: &past}
	for _, o := range []*models.Order{&expired, &alive, &confirmed} {
		require.NoError(t, conn.Create(o).Error)
	}

	rows, err := repo.FindExpiredPendingOrders(ctx, now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, expired.ID, rows[0].ID)
}
