package order

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
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

	err = db.AutoMigrate(
		&user.Address{},
		&product.Category{}, &product.Product{},
		&cart.Cart{}, &cart.CartItem{},
		&Order{}, &OrderItem{}, &OrderTracking{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Pricing: config.PricingConfig{
			DeliveryFee:     4000,
			TaxPercent:      18,
			DiscountPercent: 0,
		},
	}
}

type fixture struct {
	db      *gorm.DB
	svc     *Service
	cartSvc *cart.Service
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	cfg := testConfig()
	return &fixture{
		db:      db,
		svc:     NewService(db, cfg),
		cartSvc: cart.NewService(db, nil, cfg),
	}
}

func (f *fixture) seedProduct(t *testing.T, name string, price int64, active bool) *product.Product {
	t.Helper()

	cat := product.Category{Name: name, Slug: name + "-category", IsActive: true}
	if err := f.db.Create(&cat).Error; err != nil {
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
	if err := f.db.Omit("Category").Create(&p).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return &p
}

func (f *fixture) seedAddress(t *testing.T, userID uint) *user.Address {
	t.Helper()

	addr := user.Address{
		UserID:       userID,
		Type:         "home",
		Name:         "Asha Rao",
		Phone:        "+919876543210",
		AddressLine1: "14 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		PostalCode:   "560001",
		Country:      "India",
		IsDefault:    true,
	}
	if err := f.db.Create(&addr).Error; err != nil {
		t.Fatalf("failed to seed address: %v", err)
	}
	return &addr
}

func (f *fixture) addToCart(t *testing.T, userID, productID uint, qty int) {
	t.Helper()

	if _, err := f.cartSvc.AddToCart(userID, &cart.AddToCartRequest{ProductID: productID, Quantity: qty}); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
}

func checkoutRequest(addrID uint) *CreateOrderRequest {
	return &CreateOrderRequest{
		DeliveryAddressID: addrID,
		DeliverySlotDate:  "2026-08-29",
		DeliverySlotTime:  "10:00-12:00",
	}
}

func TestCreateOrderTotals(t *testing.T) {
	f := newFixture(t)
	a := f.seedProduct(t, "apples", 10000, true)
	b := f.seedProduct(t, "bread", 5000, true)
	addr := f.seedAddress(t, 1)

	f.addToCart(t, 1, a.ID, 2)
	f.addToCart(t, 1, b.ID, 1)

	o, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if o.SubtotalAmount != 25000 {
		t.Errorf("subtotal = %d, want 25000", o.SubtotalAmount)
	}
	if o.DeliveryFee != 4000 {
		t.Errorf("delivery fee = %d, want 4000", o.DeliveryFee)
	}
	if o.DiscountAmount != 0 {
		t.Errorf("discount = %d, want 0", o.DiscountAmount)
	}
	if o.TaxAmount != 4500 {
		t.Errorf("tax = %d, want 4500", o.TaxAmount)
	}
	if o.TotalAmount != 33500 {
		t.Errorf("total = %d, want 33500", o.TotalAmount)
	}

	if o.Status != OrderStatusPlaced {
		t.Errorf("status = %s, want placed", o.Status)
	}
	if o.PaymentMethod != PaymentMethodUPI {
		t.Errorf("payment method = %s, want default upi", o.PaymentMethod)
	}
	if o.PaymentStatus != PaymentStatusPending {
		t.Errorf("payment status = %s, want pending", o.PaymentStatus)
	}
	if !strings.HasPrefix(o.OrderNumber, "ORD-") {
		t.Errorf("order number %q missing ORD- prefix", o.OrderNumber)
	}
	if len(o.Items) != 2 {
		t.Fatalf("item count = %d, want 2", len(o.Items))
	}
	if o.Items[0].ProductName != "apples" || o.Items[0].Price != 10000 || o.Items[0].Subtotal != 20000 {
		t.Errorf("first item = %+v, want apples at 10000 x2", o.Items[0])
	}
	if o.DeliveryAddress.City != "Bengaluru" || o.DeliveryAddress.PostalCode != "560001" {
		t.Errorf("address snapshot = %+v, want copied from address book", o.DeliveryAddress)
	}
}

func TestCreateOrderWritesInitialTracking(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 1)

	o, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if len(o.Tracking) != 1 {
		t.Fatalf("tracking entries = %d, want 1", len(o.Tracking))
	}
	entry := o.Tracking[0]
	if entry.Status != OrderStatusPlaced {
		t.Errorf("tracking status = %s, want placed", entry.Status)
	}
	if entry.Message != "Order placed successfully" {
		t.Errorf("tracking message = %q", entry.Message)
	}
	if entry.EstimatedDelivery == nil {
		t.Fatal("estimated delivery not set")
	}
	est := entry.EstimatedDelivery.UTC()
	if est.Hour() != 14 || est.Minute() != 0 {
		t.Errorf("estimated delivery = %v, want 14:00 UTC", est)
	}
}

func TestCreateOrderClearsCart(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 3)

	if _, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID)); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	resp, err := f.cartSvc.GetCart(1)
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("cart has %d items after checkout, want 0", len(resp.Items))
	}
}

func TestCreateOrderFreezesPrices(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 2)

	o, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if err := f.db.Model(&product.Product{}).Where("id = ?", p.ID).Update("price", 9900).Error; err != nil {
		t.Fatalf("failed to update price: %v", err)
	}

	reloaded, err := f.svc.GetOrder(1, o.ID)
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if reloaded.Items[0].Price != 6500 {
		t.Errorf("frozen price = %d, want 6500", reloaded.Items[0].Price)
	}
	if reloaded.SubtotalAmount != 13000 {
		t.Errorf("frozen subtotal = %d, want 13000", reloaded.SubtotalAmount)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	addr := f.seedAddress(t, 1)

	// No cart at all
	if _, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID)); !errors.Is(err, domain.ErrEmptyCart) {
		t.Errorf("CreateOrder() without cart error = %v, want ErrEmptyCart", err)
	}

	// Cart exists but holds nothing
	if _, err := f.cartSvc.GetOrCreateCart(1); err != nil {
		t.Fatalf("GetOrCreateCart() error = %v", err)
	}
	if _, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID)); !errors.Is(err, domain.ErrEmptyCart) {
		t.Errorf("CreateOrder() with empty cart error = %v, want ErrEmptyCart", err)
	}
}

func TestCreateOrderForeignAddressLeavesCartIntact(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	otherAddr := f.seedAddress(t, 2)
	f.addToCart(t, 1, p.ID, 1)

	_, err := f.svc.CreateOrder(1, checkoutRequest(otherAddr.ID))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("CreateOrder() with foreign address error = %v, want ErrNotFound", err)
	}

	resp, err := f.cartSvc.GetCart(1)
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("cart has %d items after failed checkout, want 1", len(resp.Items))
	}

	var count int64
	if err := f.db.Model(&Order{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if count != 0 {
		t.Errorf("order count = %d after failed checkout, want 0", count)
	}
}

func TestCreateOrderRollsBackOnTrackingFailure(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 1)

	// Break the tracking table so the insert fails after the order and its
	// items have been written inside the transaction
	if err := f.db.Migrator().DropTable(&OrderTracking{}); err != nil {
		t.Fatalf("failed to drop tracking table: %v", err)
	}

	if _, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID)); err == nil {
		t.Fatal("CreateOrder() succeeded without a tracking table")
	}

	var orders, items int64
	if err := f.db.Model(&Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if err := f.db.Model(&OrderItem{}).Count(&items).Error; err != nil {
		t.Fatalf("failed to count order items: %v", err)
	}
	if orders != 0 || items != 0 {
		t.Errorf("found %d orders and %d items after failed checkout, want none", orders, items)
	}

	resp, err := f.cartSvc.GetCart(1)
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("cart has %d items after failed checkout, want 1", len(resp.Items))
	}
}

func TestCreateOrderUnknownAddress(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	f.addToCart(t, 1, p.ID, 1)

	if _, err := f.svc.CreateOrder(1, checkoutRequest(999)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("CreateOrder() with unknown address error = %v, want ErrNotFound", err)
	}
}

func TestCreateOrderDeactivatedProduct(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 1)

	if err := f.db.Model(&product.Product{}).Where("id = ?", p.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate product: %v", err)
	}

	_, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CreateOrder() with deactivated product error = %v, want ErrValidation", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 1)

	tests := []struct {
		name string
		req  *CreateOrderRequest
	}{
		{
			name: "unknown payment method",
			req: &CreateOrderRequest{
				DeliveryAddressID: addr.ID,
				DeliverySlotDate:  "2026-08-29",
				DeliverySlotTime:  "10:00-12:00",
				PaymentMethod:     "cheque",
			},
		},
		{
			name: "missing slot",
			req: &CreateOrderRequest{
				DeliveryAddressID: addr.ID,
			},
		},
		{
			name: "malformed slot date",
			req: &CreateOrderRequest{
				DeliveryAddressID: addr.ID,
				DeliverySlotDate:  "29/08/2026",
				DeliverySlotTime:  "10:00-12:00",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateOrder(1, tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("CreateOrder() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestOrderNumbersAreUnique(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		f.addToCart(t, 1, p.ID, 1)
		o, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
		if err != nil {
			t.Fatalf("CreateOrder() #%d error = %v", i, err)
		}
		if seen[o.OrderNumber] {
			t.Fatalf("duplicate order number %q", o.OrderNumber)
		}
		seen[o.OrderNumber] = true
	}
}

func TestGetUserOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)

	var numbers []string
	for i := 0; i < 3; i++ {
		f.addToCart(t, 1, p.ID, 1)
		o, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
		if err != nil {
			t.Fatalf("CreateOrder() error = %v", err)
		}
		numbers = append(numbers, o.OrderNumber)
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := f.svc.GetUserOrders(1, 1, 20)
	if err != nil {
		t.Fatalf("GetUserOrders() error = %v", err)
	}
	if len(resp.Orders) != 3 {
		t.Fatalf("order count = %d, want 3", len(resp.Orders))
	}
	if resp.Orders[0].OrderNumber != numbers[2] || resp.Orders[2].OrderNumber != numbers[0] {
		t.Error("orders not in newest-first order")
	}
}

func TestGetUserOrdersPagination(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)

	for i := 0; i < 5; i++ {
		f.addToCart(t, 1, p.ID, 1)
		if _, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID)); err != nil {
			t.Fatalf("CreateOrder() error = %v", err)
		}
	}

	resp, err := f.svc.GetUserOrders(1, 2, 2)
	if err != nil {
		t.Fatalf("GetUserOrders() error = %v", err)
	}
	if len(resp.Orders) != 2 {
		t.Errorf("page size = %d, want 2", len(resp.Orders))
	}
	pg := resp.Pagination
	if pg.Total != 5 || pg.TotalPages != 3 || !pg.HasNext || !pg.HasPrev {
		t.Errorf("pagination = %+v, want total 5, pages 3, next and prev", pg)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 1)

	o, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if _, err := f.svc.GetOrder(2, o.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetOrder() by non-owner error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.GetOrderByNumber(2, o.OrderNumber); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetOrderByNumber() by non-owner error = %v, want ErrNotFound", err)
	}

	byNumber, err := f.svc.GetOrderByNumber(1, o.OrderNumber)
	if err != nil {
		t.Fatalf("GetOrderByNumber() error = %v", err)
	}
	if byNumber.ID != o.ID {
		t.Errorf("GetOrderByNumber() id = %d, want %d", byNumber.ID, o.ID)
	}
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 1)

	req := checkoutRequest(addr.ID)
	req.PaymentMethod = PaymentMethodCOD
	o, err := f.svc.CreateOrder(1, req)
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	steps := []OrderStatus{
		OrderStatusConfirmed,
		OrderStatusPacked,
		OrderStatusOutForDelivery,
		OrderStatusDelivered,
	}
	for _, status := range steps {
		if o, err = f.svc.UpdateOrderStatus(o.ID, &UpdateStatusRequest{Status: status}); err != nil {
			t.Fatalf("UpdateOrderStatus(%s) error = %v", status, err)
		}
		if o.Status != status {
			t.Errorf("status = %s, want %s", o.Status, status)
		}
	}

	if len(o.Tracking) != 5 {
		t.Errorf("tracking entries = %d, want 5", len(o.Tracking))
	}
	if o.Tracking[len(o.Tracking)-1].Status != OrderStatusDelivered {
		t.Error("last tracking entry is not delivered")
	}
	if o.DeliveredAt == nil {
		t.Error("DeliveredAt not set on delivery")
	}
	if o.PaymentStatus != PaymentStatusPaid {
		t.Errorf("payment status = %s, want paid for delivered COD order", o.PaymentStatus)
	}

	tr, err := f.svc.GetTracking(1, o.ID)
	if err != nil {
		t.Fatalf("GetTracking() error = %v", err)
	}
	if tr.Status != OrderStatusDelivered || len(tr.History) != 5 {
		t.Errorf("tracking response = status %s with %d entries, want delivered with 5", tr.Status, len(tr.History))
	}
}

func TestUpdateOrderStatusRejectsSkips(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 1)

	o, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	_, err = f.svc.UpdateOrderStatus(o.ID, &UpdateStatusRequest{Status: OrderStatusDelivered})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("UpdateOrderStatus(placed->delivered) error = %v, want ErrInvalidTransition", err)
	}

	if _, err := f.svc.UpdateOrderStatus(999, &UpdateStatusRequest{Status: OrderStatusConfirmed}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateOrderStatus() on unknown order error = %v, want ErrNotFound", err)
	}
}

func TestUpdateOrderStatusGuardsAgainstStaleStatus(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 1)

	o, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if _, err := f.svc.UpdateOrderStatus(o.ID, &UpdateStatusRequest{Status: OrderStatusConfirmed}); err != nil {
		t.Fatalf("UpdateOrderStatus() error = %v", err)
	}

	// Replaying the same transition must fail now that the status moved on
	_, err = f.svc.UpdateOrderStatus(o.ID, &UpdateStatusRequest{Status: OrderStatusConfirmed})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("replayed UpdateOrderStatus() error = %v, want ErrInvalidTransition", err)
	}

	reloaded, err := f.svc.GetOrder(1, o.ID)
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if len(reloaded.Tracking) != 2 {
		t.Errorf("tracking entries = %d, want 2", len(reloaded.Tracking))
	}
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 1)

	o, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	cancelled, err := f.svc.CancelOrder(1, o.ID, "changed my mind")
	if err != nil {
		t.Fatalf("CancelOrder() error = %v", err)
	}
	if cancelled.Status != OrderStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	last := cancelled.Tracking[len(cancelled.Tracking)-1]
	if !strings.Contains(last.Message, "changed my mind") {
		t.Errorf("tracking message = %q, want the reason included", last.Message)
	}
}

func TestCancelOrderAfterDispatchRejected(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "milk", 6500, true)
	addr := f.seedAddress(t, 1)
	f.addToCart(t, 1, p.ID, 1)

	o, err := f.svc.CreateOrder(1, checkoutRequest(addr.ID))
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	for _, status := range []OrderStatus{OrderStatusConfirmed, OrderStatusPacked, OrderStatusOutForDelivery} {
		if _, err := f.svc.UpdateOrderStatus(o.ID, &UpdateStatusRequest{Status: status}); err != nil {
			t.Fatalf("UpdateOrderStatus(%s) error = %v", status, err)
		}
	}

	if _, err := f.svc.CancelOrder(1, o.ID, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("CancelOrder() after dispatch error = %v, want ErrInvalidTransition", err)
	}

	if _, err := f.svc.CancelOrder(2, o.ID, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("CancelOrder() by non-owner error = %v, want ErrNotFound", err)
	}
}
