// internal/domain/order/entity.go
package order

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPacked         OrderStatus = "packed"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// PaymentMethod represents how the customer pays
type PaymentMethod string

const (
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetbanking PaymentMethod = "netbanking"
	PaymentMethodWallet     PaymentMethod = "wallet"
	PaymentMethodCOD        PaymentMethod = "cod"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order represents a placed order. All amounts are frozen at creation time
// in minor units (paise); later catalog price changes never touch them.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID        uint          `gorm:"not null;index" json:"user_id"`
	Status        OrderStatus   `gorm:"not null;default:'placed'" json:"status"`
	PaymentMethod PaymentMethod `gorm:"not null;size:20;default:'upi'" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending'" json:"payment_status"`

	// Financial Information
	SubtotalAmount int64 `gorm:"not null" json:"subtotal_amount"`
	DeliveryFee    int64 `gorm:"default:0" json:"delivery_fee"`
	DiscountAmount int64 `gorm:"default:0" json:"discount_amount"`
	TaxAmount      int64 `gorm:"default:0" json:"tax_amount"`
	TotalAmount    int64 `gorm:"not null" json:"total_amount"`

	// Delivery address: FK goes NULL if the address book entry is later
	// deleted, the embedded snapshot survives.
	DeliveryAddressID *uint   `gorm:"index" json:"delivery_address_id"`
	DeliveryAddress   Address `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`

	// Delivery slot chosen at checkout
	DeliverySlotDate string `gorm:"size:20" json:"delivery_slot_date"`
	DeliverySlotTime string `gorm:"size:50" json:"delivery_slot_time"`

	// Timestamps
	DeliveredAt *time.Time     `json:"delivered_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items    []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	Tracking []OrderTracking `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"tracking,omitempty"`
}

// OrderItem represents one product line frozen at checkout
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	ProductName string    `gorm:"not null;size:255" json:"product_name"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Price       int64     `gorm:"not null" json:"price"`    // Unit price at checkout
	Subtotal    int64     `gorm:"not null" json:"subtotal"` // Quantity * Price
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrderTracking is the append-only status ledger of an order
type OrderTracking struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	OrderID           uint        `gorm:"not null;index" json:"order_id"`
	Status            OrderStatus `gorm:"not null" json:"status"`
	Message           string      `gorm:"type:text" json:"message"`
	EstimatedDelivery *time.Time  `json:"estimated_delivery"`
	CreatedAt         time.Time   `json:"created_at"`
}

// Address is the delivery snapshot embedded in Order
type Address struct {
	Name         string `gorm:"size:100" json:"name"`
	Phone        string `gorm:"size:20" json:"phone"`
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:100" json:"country"`
}

// TableName overrides
func (Order) TableName() string         { return "orders" }
func (OrderItem) TableName() string     { return "order_items" }
func (OrderTracking) TableName() string { return "order_tracking" }

// GetFormattedTotal returns total amount as float
func (o *Order) GetFormattedTotal() float64 {
	return float64(o.TotalAmount) / 100
}

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPlaced ||
		o.Status == OrderStatusConfirmed ||
		o.Status == OrderStatusPacked
}

// IsCompleted checks if order reached a terminal state
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

// IsValidPaymentMethod reports whether m is an accepted payment method.
func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodUPI, PaymentMethodNetbanking, PaymentMethodWallet, PaymentMethodCOD:
		return true
	}
	return false
}
