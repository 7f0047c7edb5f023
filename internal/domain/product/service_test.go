package product

import (
	"errors"
	"testing"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain"
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

	if err := db.AutoMigrate(&Category{}, &Product{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) (fruits, snacks Category) {
	t.Helper()

	fruits = Category{Name: "Fruits", Slug: "fruits", SortOrder: 1, IsActive: true}
	snacks = Category{Name: "Snacks", Slug: "snacks", SortOrder: 2, IsActive: true}
	hidden := Category{Name: "Seasonal", Slug: "seasonal", IsActive: false}
	for _, c := range []*Category{&fruits, &snacks, &hidden} {
		if err := db.Create(c).Error; err != nil {
			t.Fatalf("failed to seed category: %v", err)
		}
	}

	products := []Product{
		{Name: "Bananas", Slug: "bananas", Description: "Fresh robusta bananas", Price: 4900, Stock: 50, CategoryID: fruits.ID, IsActive: true},
		{Name: "Mangoes", Slug: "mangoes", Description: "Alphonso mangoes", Price: 24900, Stock: 20, CategoryID: fruits.ID, IsActive: true},
		{Name: "Banana Chips", Slug: "banana-chips", Description: "Kerala style chips", Price: 3500, Stock: 80, CategoryID: snacks.ID, IsActive: true},
		{Name: "Old Stock", Slug: "old-stock", Price: 1000, CategoryID: snacks.ID, IsActive: false},
	}
	for i := range products {
		if err := db.Omit("Category").Create(&products[i]).Error; err != nil {
			t.Fatalf("failed to seed product: %v", err)
		}
	}

	return fruits, snacks
}

func TestGetProductsExcludesInactive(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db, &config.Config{})

	resp, err := svc.GetProducts(&ProductListRequest{})
	if err != nil {
		t.Fatalf("GetProducts() error = %v", err)
	}

	if resp.Pagination.Total != 3 {
		t.Errorf("total = %d, want 3 active products", resp.Pagination.Total)
	}
	for _, p := range resp.Products {
		if !p.IsActive {
			t.Errorf("inactive product %q in listing", p.Name)
		}
	}
}

func TestGetProductsFilters(t *testing.T) {
	db := newTestDB(t)
	fruits, _ := seedCatalog(t, db)
	svc := NewService(db, &config.Config{})

	tests := []struct {
		name      string
		req       ProductListRequest
		wantNames []string
	}{
		{
			name:      "by category",
			req:       ProductListRequest{CategoryID: fruits.ID, SortBy: "price", SortOrder: "asc"},
			wantNames: []string{"Bananas", "Mangoes"},
		},
		{
			name:      "search is case-insensitive and matches description",
			req:       ProductListRequest{Search: "KERALA"},
			wantNames: []string{"Banana Chips"},
		},
		{
			name:      "price range",
			req:       ProductListRequest{MinPrice: 4000, MaxPrice: 10000},
			wantNames: []string{"Bananas"},
		},
		{
			name:      "sort by price descending",
			req:       ProductListRequest{SortBy: "price", SortOrder: "desc"},
			wantNames: []string{"Mangoes", "Bananas", "Banana Chips"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetProducts(&tt.req)
			if err != nil {
				t.Fatalf("GetProducts() error = %v", err)
			}
			if len(resp.Products) != len(tt.wantNames) {
				t.Fatalf("got %d products, want %d", len(resp.Products), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if resp.Products[i].Name != want {
					t.Errorf("product[%d] = %q, want %q", i, resp.Products[i].Name, want)
				}
			}
		})
	}
}

func TestGetProductsPagination(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db, &config.Config{})

	resp, err := svc.GetProducts(&ProductListRequest{Page: 2, Limit: 2, SortBy: "name", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("GetProducts() error = %v", err)
	}

	if len(resp.Products) != 1 {
		t.Errorf("page 2 size = %d, want 1", len(resp.Products))
	}
	pg := resp.Pagination
	if pg.Total != 3 || pg.TotalPages != 2 || pg.HasNext || !pg.HasPrev {
		t.Errorf("pagination = %+v, want total 3, pages 2, prev only", pg)
	}
}

func TestGetProductByIDAndSlug(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db, &config.Config{})

	bySlug, err := svc.GetProductBySlug("bananas")
	if err != nil {
		t.Fatalf("GetProductBySlug() error = %v", err)
	}
	if bySlug.Category.Slug != "fruits" {
		t.Errorf("category not preloaded, got %+v", bySlug.Category)
	}

	byID, err := svc.GetProduct(bySlug.ID)
	if err != nil {
		t.Fatalf("GetProduct() error = %v", err)
	}
	if byID.Slug != "bananas" {
		t.Errorf("GetProduct() slug = %q, want bananas", byID.Slug)
	}
}

func TestGetProductHidesInactive(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db, &config.Config{})

	if _, err := svc.GetProductBySlug("old-stock"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetProductBySlug() for inactive error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetProduct(999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetProduct() for unknown error = %v, want ErrNotFound", err)
	}
}

func TestGetCategories(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewCategoryService(db, &config.Config{})

	categories, err := svc.GetCategories()
	if err != nil {
		t.Fatalf("GetCategories() error = %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("category count = %d, want 2 active", len(categories))
	}
	if categories[0].Slug != "fruits" || categories[1].Slug != "snacks" {
		t.Errorf("categories not in sort order: %q, %q", categories[0].Slug, categories[1].Slug)
	}
}

func TestGetCategoriesWithProductCount(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewCategoryService(db, &config.Config{})

	result, err := svc.GetCategoriesWithProductCount()
	if err != nil {
		t.Fatalf("GetCategoriesWithProductCount() error = %v", err)
	}

	counts := make(map[string]int64)
	for _, c := range result {
		counts[c.Slug] = c.ProductCount
	}
	if counts["fruits"] != 2 {
		t.Errorf("fruits count = %d, want 2", counts["fruits"])
	}
	// Inactive products are excluded from the count
	if counts["snacks"] != 1 {
		t.Errorf("snacks count = %d, want 1", counts["snacks"])
	}
}

func TestGetCategoryHidesInactive(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewCategoryService(db, &config.Config{})

	if _, err := svc.GetCategoryBySlug("seasonal"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetCategoryBySlug() for inactive error = %v, want ErrNotFound", err)
	}

	cat, err := svc.GetCategoryBySlug("fruits")
	if err != nil {
		t.Fatalf("GetCategoryBySlug() error = %v", err)
	}
	if _, err := svc.GetCategory(cat.ID); err != nil {
		t.Errorf("GetCategory() error = %v", err)
	}
}
