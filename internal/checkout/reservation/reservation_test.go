package reservation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
)

func TestReserveDecrementsStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := uuid.New()
	productB := uuid.New()

	seedProduct(t, db, productA, 5)
	seedProduct(t, db, productB, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Request{
			{ProductID: productA, Qty: 3},
			{ProductID: productB, Qty: 1},
		})
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	if got := loadCount(t, db, productA); got != 2 {
		t.Fatalf("expected product a count 2, got %d", got)
	}
	if got := loadCount(t, db, productB); got != 0 {
		t.Fatalf("expected product b count 0, got %d", got)
	}
}

func TestReserveInsufficientStockRollsBackEverything(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := uuid.New()
	productB := uuid.New()

	seedProduct(t, db, productA, 5)
	seedProduct(t, db, productB, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Request{
			{ProductID: productA, Qty: 2},
			{ProductID: productB, Qty: 3},
		})
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	// The first line's decrement must have rolled back with the tx.
	if got := loadCount(t, db, productA); got != 5 {
		t.Fatalf("expected product a count restored to 5, got %d", got)
	}
	if got := loadCount(t, db, productB); got != 1 {
		t.Fatalf("expected product b count untouched, got %d", got)
	}
}

func TestReserveUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Request{{ProductID: uuid.New(), Qty: 1}})
	})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	seedProduct(t, db, product, 5)

	err := Reserve(ctx, db, []Request{{ProductID: product, Qty: 0}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReleaseRestoresStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	seedProduct(t, db, product, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Release(ctx, tx, product, 3)
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := loadCount(t, db, product); got != 5 {
		t.Fatalf("expected count 5 after release, got %d", got)
	}

	// Zero qty is a no-op, not an error.
	if err := Release(ctx, db, product, 0); err != nil {
		t.Fatalf("release zero qty: %v", err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reservation_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, id uuid.UUID, count int) {
	t.Helper()
	product := models.Product{
		ID:       id,
		SellerID: uuid.New(),
		Name:     "product " + id.String()[:8],
		Price:    decimal.NewFromInt(100),
		Count:    count,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func loadCount(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.Count
}
