package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}

func TestFindByIDs(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := uuid.New()
	a := models.Product{SellerID: seller, Name: "Thangka print", Price: decimal.NewFromInt(1200), Count: 4}
	b := models.Product{SellerID: seller, Name: "Singing bowl", Price: decimal.NewFromInt(800), Count: 2}
	for _, p := range []*models.Product{&a, &b} {
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}

	found, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 products, got %d", len(found))
	}

	none, err := repo.FindByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("find with empty ids: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no products for empty input, got %d", len(none))
	}
}

func TestListBySeller(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := uuid.New()
	other := uuid.New()
	for _, p := range []models.Product{
		{SellerID: seller, Name: "Pashmina shawl", Price: decimal.NewFromInt(2500), Count: 10},
		{SellerID: other, Name: "Khukuri", Price: decimal.NewFromInt(3000), Count: 1},
	} {
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}

	listed, err := repo.ListBySeller(ctx, seller)
	if err != nil {
		t.Fatalf("list by seller: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Pashmina shawl" {
		t.Fatalf("unexpected listing %+v", listed)
	}
}
