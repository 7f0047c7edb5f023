package cart

import (
	"errors"
	"testing"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&product.Category{}, &product.Product{}, &Cart{}, &CartItem{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, active bool) *product.Product {
	t.Helper()

	cat := product.Category{Name: name, Slug: name + "-category", IsActive: true}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	p := product.Product{
		Name:       name,
		Slug:       name,
		Price:      price,
		Stock:      100,
		CategoryID: cat.ID,
		IsActive:   active,
	}
	if err := db.Omit("Category").Create(&p).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return &p
}

func newCartService(t *testing.T) (*Service, *gorm.DB) {
	db := newTestDB(t)
	return NewService(db, nil, &config.Config{}), db
}

func TestAddToCartCreatesItem(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "bananas", 4900, true)

	resp, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	if len(resp.Items) != 1 {
		t.Fatalf("item count = %d, want 1", len(resp.Items))
	}
	if resp.Items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", resp.Items[0].Quantity)
	}
	if resp.Totals.SubTotal != 9800 {
		t.Errorf("subtotal = %d, want 9800", resp.Totals.SubTotal)
	}
}

func TestAddToCartIncrementsExistingItem(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "milk", 6500, true)

	if _, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	resp, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	if len(resp.Items) != 1 {
		t.Fatalf("item count = %d, want 1 merged row", len(resp.Items))
	}
	if resp.Items[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4", resp.Items[0].Quantity)
	}
}

func TestAddToCartFoldsIntoRowInsertedMeanwhile(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "milk", 6500, true)

	c, err := svc.GetOrCreateCart(1)
	if err != nil {
		t.Fatalf("GetOrCreateCart() error = %v", err)
	}

	// A row another request slipped in between lookup and insert
	if err := db.Create(&CartItem{CartID: c.ID, ProductID: p.ID, Quantity: 1}).Error; err != nil {
		t.Fatalf("failed to insert cart item: %v", err)
	}

	resp, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	if len(resp.Items) != 1 {
		t.Fatalf("item count = %d, want 1 merged row", len(resp.Items))
	}
	if resp.Items[0].Quantity != 3 {
		t.Errorf("quantity = %d, want 3", resp.Items[0].Quantity)
	}
}

func TestAddToCartRejectsInactiveProduct(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "discontinued", 1000, false)

	_, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("AddToCart() error = %v, want ErrNotFound", err)
	}
}

func TestAddToCartRejectsUnknownProduct(t *testing.T) {
	svc, _ := newCartService(t)

	_, err := svc.AddToCart(1, &AddToCartRequest{ProductID: 999, Quantity: 1})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("AddToCart() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateCartItemQuantity(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "chips", 3500, true)

	resp, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	updated, err := svc.UpdateCartItem(1, resp.Items[0].ID, &UpdateCartItemRequest{Quantity: 5})
	if err != nil {
		t.Fatalf("UpdateCartItem() error = %v", err)
	}
	if updated.Items[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", updated.Items[0].Quantity)
	}
}

func TestUpdateCartItemRejectsZeroQuantity(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "chips", 3500, true)

	resp, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	_, err = svc.UpdateCartItem(1, resp.Items[0].ID, &UpdateCartItemRequest{Quantity: 0})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("UpdateCartItem() error = %v, want ErrValidation", err)
	}
}

func TestUpdateCartItemOfOtherUserFails(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "chips", 3500, true)

	resp, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	_, err = svc.UpdateCartItem(2, resp.Items[0].ID, &UpdateCartItemRequest{Quantity: 2})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateCartItem() by non-owner error = %v, want ErrNotFound", err)
	}
}

func TestRemoveFromCart(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "chips", 3500, true)

	resp, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	after, err := svc.RemoveFromCart(1, resp.Items[0].ID)
	if err != nil {
		t.Fatalf("RemoveFromCart() error = %v", err)
	}
	if len(after.Items) != 0 {
		t.Errorf("item count after remove = %d, want 0", len(after.Items))
	}

	if _, err := svc.RemoveFromCart(1, resp.Items[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("RemoveFromCart() twice error = %v, want ErrNotFound", err)
	}
}

func TestClearCart(t *testing.T) {
	svc, db := newCartService(t)
	a := seedProduct(t, db, "a", 1000, true)
	b := seedProduct(t, db, "b", 2000, true)

	if _, err := svc.AddToCart(1, &AddToCartRequest{ProductID: a.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	if _, err := svc.AddToCart(1, &AddToCartRequest{ProductID: b.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	if err := svc.ClearCart(1); err != nil {
		t.Fatalf("ClearCart() error = %v", err)
	}

	resp, err := svc.GetCart(1)
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(resp.Items) != 0 || resp.Totals.SubTotal != 0 {
		t.Errorf("cart not empty after clear: %d items, subtotal %d", len(resp.Items), resp.Totals.SubTotal)
	}
}

func TestGetCartReflectsCurrentPrices(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "milk", 6500, true)

	if _, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	if err := db.Model(&product.Product{}).Where("id = ?", p.ID).Update("price", 7000).Error; err != nil {
		t.Fatalf("failed to update price: %v", err)
	}

	resp, err := svc.GetCart(1)
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}

	if resp.Items[0].Price != 7000 {
		t.Errorf("item price = %d, want current price 7000", resp.Items[0].Price)
	}
	if resp.Totals.SubTotal != 14000 {
		t.Errorf("subtotal = %d, want 14000", resp.Totals.SubTotal)
	}
}

func TestGetCartItemCountWithoutCache(t *testing.T) {
	svc, db := newCartService(t)
	a := seedProduct(t, db, "a", 1000, true)
	b := seedProduct(t, db, "b", 2000, true)

	if _, err := svc.AddToCart(1, &AddToCartRequest{ProductID: a.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	if _, err := svc.AddToCart(1, &AddToCartRequest{ProductID: b.ID, Quantity: 3}); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	count, err := svc.GetCartItemCount(1)
	if err != nil {
		t.Fatalf("GetCartItemCount() error = %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	svc, db := newCartService(t)
	p := seedProduct(t, db, "chips", 3500, true)

	if _, err := svc.AddToCart(1, &AddToCartRequest{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	other, err := svc.GetCart(2)
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(other.Items) != 0 {
		t.Errorf("user 2 cart has %d items, want 0", len(other.Items))
	}
}
