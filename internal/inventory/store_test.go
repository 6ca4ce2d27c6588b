package inventory

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"braintech-system/internal/database"
	"braintech-system/internal/database/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, quantity int) models.Product {
	t.Helper()
	product := models.Product{Name: "Fuse", BuyPrice: 8, SellPrice: 10, Quantity: quantity}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestDecrementStock(t *testing.T) {
	db := newTestDB(t)
	store := NewStore()
	product := seedProduct(t, db, 5)

	if err := store.DecrementStock(db, product.ID, 3); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}

	loaded, err := store.ProductByID(db, product.ID)
	if err != nil {
		t.Fatalf("ProductByID: %v", err)
	}
	if loaded.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", loaded.Quantity)
	}
}

func TestDecrementStockInsufficient(t *testing.T) {
	db := newTestDB(t)
	store := NewStore()
	product := seedProduct(t, db, 2)

	err := store.DecrementStock(db, product.ID, 3)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	loaded, _ := store.ProductByID(db, product.ID)
	if loaded.Quantity != 2 {
		t.Errorf("quantity = %d, want 2 unchanged", loaded.Quantity)
	}
}

func TestDecrementStockToZero(t *testing.T) {
	db := newTestDB(t)
	store := NewStore()
	product := seedProduct(t, db, 4)

	if err := store.DecrementStock(db, product.ID, 4); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}

	loaded, _ := store.ProductByID(db, product.ID)
	if loaded.Quantity != 0 {
		t.Errorf("quantity = %d, want 0", loaded.Quantity)
	}

	if err := store.DecrementStock(db, product.ID, 1); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock at zero stock", err)
	}
}

func TestIncrementStock(t *testing.T) {
	db := newTestDB(t)
	store := NewStore()
	product := seedProduct(t, db, 1)

	if err := store.IncrementStock(db, product.ID, 6); err != nil {
		t.Fatalf("IncrementStock: %v", err)
	}

	loaded, _ := store.ProductByID(db, product.ID)
	if loaded.Quantity != 7 {
		t.Errorf("quantity = %d, want 7", loaded.Quantity)
	}
}

func TestProductForUpdateMissing(t *testing.T) {
	db := newTestDB(t)
	store := NewStore()

	_, err := store.ProductForUpdate(db, 123)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want gorm.ErrRecordNotFound", err)
	}
}
