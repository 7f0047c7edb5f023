// internal/domain/order/service.go
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/ordernum"
	"gorm.io/gorm"
)

// maxOrderNumberRetries bounds regeneration attempts on a unique collision.
const maxOrderNumberRetries = 5

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateOrderRequest represents checkout data
type CreateOrderRequest struct {
	DeliveryAddressID uint          `json:"delivery_address_id" binding:"required"`
	DeliverySlotDate  string        `json:"delivery_slot_date" binding:"required"`
	DeliverySlotTime  string        `json:"delivery_slot_time" binding:"required"`
	PaymentMethod     PaymentMethod `json:"payment_method"`
}

// UpdateStatusRequest represents an order status change
type UpdateStatusRequest struct {
	Status  OrderStatus `json:"status" binding:"required"`
	Message string      `json:"message"`
}

// OrderListResponse represents order list response with pagination
type OrderListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// TrackingResponse represents the current status plus the full history
type TrackingResponse struct {
	OrderID     uint            `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Status      OrderStatus     `json:"status"`
	History     []OrderTracking `json:"history"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// CreateOrder places an order from the user's cart. The whole sequence runs
// in one transaction: snapshot cart, freeze prices, compute totals, allocate
// a unique order number, write the initial tracking row and clear the cart.
// Any failure rolls everything back.
func (s *Service) CreateOrder(userID uint, req *CreateOrderRequest) (*Order, error) {
	if req.PaymentMethod == "" {
		req.PaymentMethod = PaymentMethodUPI
	}
	if !IsValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, req.PaymentMethod)
	}
	if req.DeliverySlotDate == "" || req.DeliverySlotTime == "" {
		return nil, fmt.Errorf("%w: delivery slot is required", domain.ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", req.DeliverySlotDate); err != nil {
		return nil, fmt.Errorf("%w: delivery slot date must be YYYY-MM-DD", domain.ErrValidation)
	}

	// Start transaction
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Load the caller's cart items before touching anything
	var userCart cart.Cart
	if err := tx.Where("user_id = ?", userID).First(&userCart).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var cartItems []cart.CartItem
	if err := tx.Where("cart_id = ?", userCart.ID).Order("created_at ASC").Find(&cartItems).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	if len(cartItems) == 0 {
		tx.Rollback()
		return nil, domain.ErrEmptyCart
	}

	// Resolve the delivery address strictly by owner. No fallback: an
	// address the caller does not own fails the whole checkout.
	var addr user.Address
	if err := tx.Where("id = ? AND user_id = ?", req.DeliveryAddressID, userID).First(&addr).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load address: %w", err)
	}

	// Freeze item prices
	var subtotal int64
	orderItems := make([]OrderItem, 0, len(cartItems))
	for _, item := range cartItems {
		var prod product.Product
		if err := tx.Where("id = ? AND is_active = ?", item.ProductID, true).First(&prod).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: product %d is no longer available", domain.ErrValidation, item.ProductID)
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}

		lineSubtotal := prod.Price * int64(item.Quantity)
		subtotal += lineSubtotal
		orderItems = append(orderItems, OrderItem{
			ProductID:   prod.ID,
			ProductName: prod.Name,
			Quantity:    item.Quantity,
			Price:       prod.Price,
			Subtotal:    lineSubtotal,
		})
	}

	deliveryFee := s.config.Pricing.DeliveryFee
	discount := subtotal * s.config.Pricing.DiscountPercent / 100
	tax := subtotal * s.config.Pricing.TaxPercent / 100
	total := subtotal + deliveryFee - discount + tax

	now := time.Now().UTC()
	addressID := addr.ID
	newOrder := Order{
		UserID:            userID,
		Status:            OrderStatusPlaced,
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     PaymentStatusPending,
		SubtotalAmount:    subtotal,
		DeliveryFee:       deliveryFee,
		DiscountAmount:    discount,
		TaxAmount:         tax,
		TotalAmount:       total,
		DeliveryAddressID: &addressID,
		DeliveryAddress: Address{
			Name:         addr.Name,
			Phone:        addr.Phone,
			AddressLine1: addr.AddressLine1,
			AddressLine2: addr.AddressLine2,
			City:         addr.City,
			State:        addr.State,
			PostalCode:   addr.PostalCode,
			Country:      addr.Country,
		},
		DeliverySlotDate: req.DeliverySlotDate,
		DeliverySlotTime: req.DeliverySlotTime,
	}

	// Allocate a collision-safe order number. A unique violation rolls
	// back to the savepoint and retries with a fresh candidate.
	if err := s.insertWithUniqueNumber(tx, &newOrder, now); err != nil {
		tx.Rollback()
		return nil, err
	}

	for i := range orderItems {
		orderItems[i].OrderID = newOrder.ID
		if err := tx.Create(&orderItems[i]).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	// Initial tracking entry; delivery estimated for 14:00 on the order day
	estimated := time.Date(now.Year(), now.Month(), now.Day(), 14, 0, 0, 0, time.UTC)
	tracking := OrderTracking{
		OrderID:           newOrder.ID,
		Status:            OrderStatusPlaced,
		Message:           "Order placed successfully",
		EstimatedDelivery: &estimated,
	}
	if err := tx.Create(&tracking).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create tracking entry: %w", err)
	}

	// Clear the cart as part of the same transaction
	if err := tx.Where("cart_id = ?", userCart.ID).Delete(&cart.CartItem{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	// Load complete order with relationships
	if err := s.db.Preload("Items").Preload("Tracking").First(&newOrder, newOrder.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load complete order: %w", err)
	}

	return &newOrder, nil
}

// insertWithUniqueNumber inserts the order, regenerating the number on a
// unique collision. Savepoints keep the enclosing transaction usable after
// a failed insert.
func (s *Service) insertWithUniqueNumber(tx *gorm.DB, o *Order, now time.Time) error {
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		o.ID = 0
		o.OrderNumber = ordernum.Generate(now)

		if err := tx.SavePoint("order_insert").Error; err != nil {
			return fmt.Errorf("failed to create savepoint: %w", err)
		}

		err := tx.Create(o).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := tx.RollbackTo("order_insert").Error; err != nil {
			return fmt.Errorf("failed to roll back to savepoint: %w", err)
		}
	}

	return fmt.Errorf("failed to allocate a unique order number after %d attempts", maxOrderNumberRetries)
}

// GetUserOrders retrieves the user's orders, newest first
func (s *Service) GetUserOrders(userID uint, page, limit int) (*OrderListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var orders []Order
	var total int64

	query := s.db.Model(&Order{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	err := query.
		Preload("Items").
		Preload("Tracking", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &OrderListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// GetOrder retrieves one of the user's orders with items and full tracking
// history. Orders of other users are reported as missing.
func (s *Service) GetOrder(userID, orderID uint) (*Order, error) {
	var o Order
	result := s.db.
		Preload("Items").
		Preload("Tracking", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&o)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &o, nil
}

// GetOrderByNumber retrieves one of the user's orders by its number
func (s *Service) GetOrderByNumber(userID uint, orderNumber string) (*Order, error) {
	var o Order
	result := s.db.
		Preload("Items").
		Preload("Tracking", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("order_number = ? AND user_id = ?", orderNumber, userID).
		First(&o)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &o, nil
}

// GetTracking returns the order's current status and its history in
// chronological order
func (s *Service) GetTracking(userID, orderID uint) (*TrackingResponse, error) {
	o, err := s.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	return &TrackingResponse{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		History:     o.Tracking,
	}, nil
}

// UpdateOrderStatus appends a tracking entry and advances Order.status in
// one transaction. The ledger and the denormalized status column never
// diverge. The load, the transition check and the guarded write all happen
// inside the transaction so two concurrent updates cannot both pass the
// same check.
func (s *Service) UpdateOrderStatus(orderID uint, req *UpdateStatusRequest) (*Order, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var o Order
	if err := tx.First(&o, orderID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if !isValidStatusTransition(o.Status, req.Status) {
		tx.Rollback()
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, o.Status, req.Status)
	}

	message := req.Message
	if message == "" {
		message = defaultStatusMessage(req.Status)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status": req.Status,
	}
	if req.Status == OrderStatusDelivered {
		updates["delivered_at"] = now
		// COD settles on handover
		if o.PaymentMethod == PaymentMethodCOD {
			updates["payment_status"] = PaymentStatusPaid
		}
	}

	// Guard on the status just read; a racing update that committed first
	// makes this a no-op and the transition is rejected
	result := tx.Model(&Order{}).
		Where("id = ? AND status = ?", orderID, o.Status).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, fmt.Errorf("%w: order status changed concurrently", domain.ErrInvalidTransition)
	}

	tracking := OrderTracking{
		OrderID: orderID,
		Status:  req.Status,
		Message: message,
	}
	if err := tx.Create(&tracking).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create tracking entry: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return s.GetOrder(o.UserID, orderID)
}

// CancelOrder cancels one of the user's orders if it has not progressed past
// packing
func (s *Service) CancelOrder(userID, orderID uint, reason string) (*Order, error) {
	o, err := s.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	if !o.CanBeCancelled() {
		return nil, fmt.Errorf("%w: order in status %s cannot be cancelled", domain.ErrInvalidTransition, o.Status)
	}

	message := "Order cancelled"
	if reason != "" {
		message = fmt.Sprintf("Order cancelled: %s", reason)
	}

	return s.UpdateOrderStatus(orderID, &UpdateStatusRequest{
		Status:  OrderStatusCancelled,
		Message: message,
	})
}

// isValidStatusTransition encodes the order lifecycle: placed, confirmed,
// packed, out_for_delivery, delivered, with cancellation possible until the
// order leaves the warehouse.
func isValidStatusTransition(from, to OrderStatus) bool {
	validTransitions := map[OrderStatus][]OrderStatus{
		OrderStatusPlaced: {
			OrderStatusConfirmed,
			OrderStatusCancelled,
		},
		OrderStatusConfirmed: {
			OrderStatusPacked,
			OrderStatusCancelled,
		},
		OrderStatusPacked: {
			OrderStatusOutForDelivery,
			OrderStatusCancelled,
		},
		OrderStatusOutForDelivery: {
			OrderStatusDelivered,
		},
	}

	for _, status := range validTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}

func defaultStatusMessage(status OrderStatus) string {
	switch status {
	case OrderStatusConfirmed:
		return "Order confirmed"
	case OrderStatusPacked:
		return "Order packed"
	case OrderStatusOutForDelivery:
		return "Order out for delivery"
	case OrderStatusDelivered:
		return "Order delivered"
	case OrderStatusCancelled:
		return "Order cancelled"
	default:
		return "Order placed successfully"
	}
}
