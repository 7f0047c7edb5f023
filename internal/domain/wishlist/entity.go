package wishlist

import (
	"time"
)

// Wishlist is a per-user container created lazily on first access
type Wishlist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items []WishlistItem `gorm:"foreignKey:WishlistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
}

// WishlistItem represents a saved product. Unlike cart items there is no
// quantity; a product is either saved or not.
type WishlistItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	WishlistID uint      `gorm:"not null;index;uniqueIndex:idx_wishlist_product" json:"wishlist_id"`
	ProductID  uint      `gorm:"not null;index;uniqueIndex:idx_wishlist_product" json:"product_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides
func (Wishlist) TableName() string     { return "wishlists" }
func (WishlistItem) TableName() string { return "wishlist_items" }
