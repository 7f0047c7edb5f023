// internal/domain/product/category_service.go
package product

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain"
	"gorm.io/gorm"
)

// CategoryService handles category browsing
type CategoryService struct {
	db     *gorm.DB
	config *config.Config
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, cfg *config.Config) *CategoryService {
	return &CategoryService{
		db:     db,
		config: cfg,
	}
}

// CategoryWithProductCount represents a category with its active product count
type CategoryWithProductCount struct {
	Category
	ProductCount int64 `json:"product_count"`
}

// GetCategories retrieves all active categories
func (s *CategoryService) GetCategories() ([]Category, error) {
	var categories []Category

	err := s.db.Model(&Category{}).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	return categories, nil
}

// GetCategoriesWithProductCount retrieves active categories with the count
// of active products in each
func (s *CategoryService) GetCategoriesWithProductCount() ([]CategoryWithProductCount, error) {
	categories, err := s.GetCategories()
	if err != nil {
		return nil, err
	}

	result := make([]CategoryWithProductCount, 0, len(categories))
	for _, cat := range categories {
		var productCount int64
		s.db.Model(&Product{}).
			Where("category_id = ? AND is_active = ?", cat.ID, true).
			Count(&productCount)

		result = append(result, CategoryWithProductCount{
			Category:     cat,
			ProductCount: productCount,
		})
	}

	return result, nil
}

// GetCategory retrieves a single active category by ID
func (s *CategoryService) GetCategory(id uint) (*Category, error) {
	var category Category
	result := s.db.Where("id = ? AND is_active = ?", id, true).First(&category)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", result.Error)
	}

	return &category, nil
}

// GetCategoryBySlug retrieves a single active category by slug
func (s *CategoryService) GetCategoryBySlug(slug string) (*Category, error) {
	var category Category
	result := s.db.Where("slug = ? AND is_active = ?", slug, true).First(&category)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", result.Error)
	}

	return &category, nil
}
