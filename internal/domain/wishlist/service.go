package wishlist

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// Service handles wishlist business logic
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	cartService *cart.Service
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		cartService: cart.NewService(db, redisClient, cfg),
	}
}

// ErrAlreadySaved is returned when adding a product already on the wishlist.
var ErrAlreadySaved = errors.New("product already in wishlist")

// WishlistItemResponse represents a wishlist item with product details
type WishlistItemResponse struct {
	ID           uint             `json:"id"`
	ProductID    uint             `json:"product_id"`
	Product      *product.Product `json:"product,omitempty"`
	IsAvailable  bool             `json:"is_available"`
	CurrentPrice int64            `json:"current_price"`
	AddedAt      time.Time        `json:"added_at"`
}

// WishlistResponse represents a wishlist with its items
type WishlistResponse struct {
	ID        uint                   `json:"id"`
	UserID    uint                   `json:"user_id"`
	Items     []WishlistItemResponse `json:"items"`
	Count     int                    `json:"count"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// AddToWishlistRequest represents add to wishlist request
type AddToWishlistRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// GetOrCreateWishlist returns the user's wishlist container, creating an
// empty one on first access.
func (s *Service) GetOrCreateWishlist(userID uint) (*Wishlist, error) {
	var w Wishlist
	err := s.db.Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}

	w = Wishlist{UserID: userID}
	if err := s.db.Create(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := s.db.Where("user_id = ?", userID).First(&w).Error; err != nil {
				return nil, fmt.Errorf("failed to load wishlist: %w", err)
			}
			return &w, nil
		}
		return nil, fmt.Errorf("failed to create wishlist: %w", err)
	}

	return &w, nil
}

// GetWishlist retrieves the user's wishlist with product details
func (s *Service) GetWishlist(userID uint) (*WishlistResponse, error) {
	w, err := s.GetOrCreateWishlist(userID)
	if err != nil {
		return nil, err
	}

	var dbItems []WishlistItem
	err = s.db.Where("wishlist_id = ?", w.ID).Order("created_at DESC").Find(&dbItems).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve wishlist items: %w", err)
	}

	items := make([]WishlistItemResponse, 0, len(dbItems))
	for _, item := range dbItems {
		resp := WishlistItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			AddedAt:   item.CreatedAt,
		}

		var prod product.Product
		if err := s.db.Preload("Category").Where("id = ?", item.ProductID).First(&prod).Error; err == nil {
			resp.Product = &prod
			resp.IsAvailable = prod.IsActive
			resp.CurrentPrice = prod.Price
		}

		items = append(items, resp)
	}

	return &WishlistResponse{
		ID:        w.ID,
		UserID:    w.UserID,
		Items:     items,
		Count:     len(items),
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}, nil
}

// AddToWishlist saves a product on the user's wishlist. Saving the same
// product again is rejected.
func (s *Service) AddToWishlist(userID uint, req *AddToWishlistRequest) (*WishlistItemResponse, error) {
	// Validate product exists and is active
	var prod product.Product
	result := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", result.Error)
	}

	w, err := s.GetOrCreateWishlist(userID)
	if err != nil {
		return nil, err
	}

	var existingItem WishlistItem
	if s.db.Where("wishlist_id = ? AND product_id = ?", w.ID, req.ProductID).First(&existingItem).Error == nil {
		return nil, ErrAlreadySaved
	}

	item := WishlistItem{
		WishlistID: w.ID,
		ProductID:  req.ProductID,
	}

	if err := s.db.Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySaved
		}
		return nil, fmt.Errorf("failed to add item to wishlist: %w", err)
	}

	return &WishlistItemResponse{
		ID:           item.ID,
		ProductID:    item.ProductID,
		Product:      &prod,
		IsAvailable:  prod.IsActive,
		CurrentPrice: prod.Price,
		AddedAt:      item.CreatedAt,
	}, nil
}

// RemoveFromWishlist removes an item by its id, scoped to the caller's
// wishlist
func (s *Service) RemoveFromWishlist(userID, itemID uint) error {
	w, err := s.GetOrCreateWishlist(userID)
	if err != nil {
		return err
	}

	result := s.db.Where("id = ? AND wishlist_id = ?", itemID, w.ID).Delete(&WishlistItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove item from wishlist: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ClearWishlist removes all items from the user's wishlist
func (s *Service) ClearWishlist(userID uint) error {
	w, err := s.GetOrCreateWishlist(userID)
	if err != nil {
		return err
	}

	return s.db.Where("wishlist_id = ?", w.ID).Delete(&WishlistItem{}).Error
}

// GetWishlistCount returns the number of saved products
func (s *Service) GetWishlistCount(userID uint) (int64, error) {
	w, err := s.GetOrCreateWishlist(userID)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.db.Model(&WishlistItem{}).Where("wishlist_id = ?", w.ID).Count(&count).Error
	return count, err
}

// IsInWishlist checks if a product is on the user's wishlist
func (s *Service) IsInWishlist(userID, productID uint) (bool, error) {
	w, err := s.GetOrCreateWishlist(userID)
	if err != nil {
		return false, err
	}

	var count int64
	err = s.db.Model(&WishlistItem{}).
		Where("wishlist_id = ? AND product_id = ?", w.ID, productID).
		Count(&count).Error
	return count > 0, err
}

// MoveToCart moves a saved product into the cart and removes it from the
// wishlist
func (s *Service) MoveToCart(userID, itemID uint, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	w, err := s.GetOrCreateWishlist(userID)
	if err != nil {
		return err
	}

	var item WishlistItem
	err = s.db.Where("id = ? AND wishlist_id = ?", itemID, w.ID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to load wishlist item: %w", err)
	}

	_, err = s.cartService.AddToCart(userID, &cart.AddToCartRequest{
		ProductID: item.ProductID,
		Quantity:  quantity,
	})
	if err != nil {
		return fmt.Errorf("failed to add item to cart: %w", err)
	}

	return s.RemoveFromWishlist(userID, itemID)
}
