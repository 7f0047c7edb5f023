// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
	}
}

// CartItemResponse represents a cart item with product details. Price and
// subtotal reflect the product's current price, not the price at add time.
type CartItemResponse struct {
	ID        uint             `json:"id"`
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     int64            `json:"price"`
	Subtotal  int64            `json:"subtotal"`
	Product   *product.Product `json:"product,omitempty"`
	AddedAt   time.Time        `json:"added_at"`
}

// CartResponse represents a shopping cart with items and totals
type CartResponse struct {
	ID        uint               `json:"id"`
	UserID    uint               `json:"user_id"`
	Items     []CartItemResponse `json:"items"`
	Totals    CartTotals         `json:"totals"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// GetOrCreateCart returns the user's cart container, creating an empty one
// on first access.
func (s *Service) GetOrCreateCart(userID uint) (*Cart, error) {
	var c Cart
	err := s.db.Where("user_id = ?", userID).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	c = Cart{UserID: userID}
	if err := s.db.Create(&c).Error; err != nil {
		// Lost a create race; reload the winner's row
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := s.db.Where("user_id = ?", userID).First(&c).Error; err != nil {
				return nil, fmt.Errorf("failed to load cart: %w", err)
			}
			return &c, nil
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return &c, nil
}

// GetCart retrieves the user's cart with product details and totals
func (s *Service) GetCart(userID uint) (*CartResponse, error) {
	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	var dbItems []CartItem
	if err := s.db.Where("cart_id = ?", c.ID).Order("created_at ASC").Find(&dbItems).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}

	items := make([]CartItemResponse, 0, len(dbItems))
	for _, item := range dbItems {
		var prod product.Product
		err := s.db.Preload("Category").Where("id = ?", item.ProductID).First(&prod).Error
		if err != nil {
			continue // Product removed from catalog; skip the stale row
		}

		items = append(items, CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     prod.Price,
			Subtotal:  prod.Price * int64(item.Quantity),
			Product:   &prod,
			AddedAt:   item.CreatedAt,
		})
	}

	return &CartResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     items,
		Totals:    s.calculateTotals(items),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}

// AddToCart adds a product to the user's cart. Adding a product already in
// the cart increments its quantity.
func (s *Service) AddToCart(userID uint, req *AddToCartRequest) (*CartResponse, error) {
	// Validate product exists and is active
	var prod product.Product
	result := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", result.Error)
	}

	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	newItem := CartItem{
		CartID:    c.ID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}
	if err := s.db.Create(&newItem).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to add cart item: %w", err)
		}
		// Product already in the cart, possibly via a concurrent add that
		// won the (cart_id, product_id) index; fold into the existing row
		result := s.db.Model(&CartItem{}).
			Where("cart_id = ? AND product_id = ?", c.ID, req.ProductID).
			Update("quantity", gorm.Expr("quantity + ?", req.Quantity))
		if result.Error != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", result.Error)
		}
	}

	s.invalidateCountCache(userID)

	return s.GetCart(userID)
}

// UpdateCartItem replaces the quantity of a cart item
func (s *Service) UpdateCartItem(userID, itemID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}

	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	item, err := s.getItem(c.ID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(item).Update("quantity", req.Quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	s.invalidateCountCache(userID)

	return s.GetCart(userID)
}

// RemoveFromCart removes an item from the user's cart
func (s *Service) RemoveFromCart(userID, itemID uint) (*CartResponse, error) {
	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	item, err := s.getItem(c.ID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Delete(item).Error; err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	s.invalidateCountCache(userID)

	return s.GetCart(userID)
}

// ClearCart removes all items from the user's cart
func (s *Service) ClearCart(userID uint) error {
	c, err := s.GetOrCreateCart(userID)
	if err != nil {
		return err
	}

	if err := s.db.Where("cart_id = ?", c.ID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.invalidateCountCache(userID)
	return nil
}

// GetCartItemCount returns the total quantity across the cart, served from
// Redis when cached.
func (s *Service) GetCartItemCount(userID uint) (int, error) {
	ctx := context.Background()
	key := s.countCacheKey(userID)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.Atoi(cached); err == nil {
				return count, nil
			}
		}
	}

	cartResponse, err := s.GetCart(userID)
	if err != nil {
		return 0, err
	}

	count := cartResponse.Totals.TotalQuantity

	if s.redisClient != nil {
		s.redisClient.Set(ctx, key, count, 5*time.Minute)
	}

	return count, nil
}

// getItem loads an item scoped to the given cart. Items of other carts are
// reported as missing.
func (s *Service) getItem(cartID, itemID uint) (*CartItem, error) {
	var item CartItem
	err := s.db.Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	return &item, nil
}

func (s *Service) calculateTotals(items []CartItemResponse) CartTotals {
	var totals CartTotals

	totals.ItemCount = len(items)
	for _, item := range items {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal += item.Subtotal
	}

	return totals
}

func (s *Service) countCacheKey(userID uint) string {
	return fmt.Sprintf("cart:count:%d", userID)
}

func (s *Service) invalidateCountCache(userID uint) {
	if s.redisClient == nil {
		return
	}
	s.redisClient.Del(context.Background(), s.countCacheKey(userID))
}
