package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

type orderTestEnv struct {
	svc         *OrderService
	orderRepo   *mockOrderRepo
	cartRepo    *mockCartRepo
	productRepo *mockProductRepo
	couponRepo  *mockCouponRepo
	govRepo     *mockGovRepo
	promoRepo   *mockPromotionRepo
	notifyRepo  *mockNotificationRepo
}

func newOrderTestEnv(policy FreeShippingPolicy, taxRate decimal.Decimal) *orderTestEnv {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &orderTestEnv{
		orderRepo:   newMockOrderRepo(),
		cartRepo:    newMockCartRepo(),
		productRepo: newMockProductRepo(),
		couponRepo:  newMockCouponRepo(),
		govRepo:     newMockGovRepo(),
		promoRepo:   newMockPromotionRepo(),
		notifyRepo:  newMockNotificationRepo(),
	}
	notifySvc := NewNotificationService(env.notifyRepo, &mockPublisher{}, log)
	env.svc = NewOrderService(
		env.orderRepo,
		env.cartRepo,
		env.productRepo,
		env.couponRepo,
		env.govRepo,
		NewCouponService(env.couponRepo),
		NewPromotionService(env.promoRepo, nil, discardLogger()),
		notifySvc,
		policy,
		taxRate,
		log,
	)
	return env
}

func (env *orderTestEnv) seedProduct(t *testing.T, price string, quantity int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          "Product " + price,
		Price:         dec(price),
		Quantity:      quantity,
		TrackQuantity: true,
		Status:        model.ProductStatusActive,
	}
	require.NoError(t, env.productRepo.Create(context.Background(), p))
	return p
}

func (env *orderTestEnv) seedGovernorate(t *testing.T, shipping string) *model.Governorate {
	t.Helper()
	g := &model.Governorate{
		NameAr:       "القاهرة",
		NameEn:       "Cairo",
		ShippingCost: dec(shipping),
		IsActive:     true,
	}
	require.NoError(t, env.govRepo.Create(context.Background(), g))
	return g
}

func contactInput(govID uuid.UUID) CreateOrderInput {
	return CreateOrderInput{
		FullName:      "Ahmed Hassan",
		Phone:         "01012345678",
		Address:       "12 Tahrir St",
		City:          "Cairo",
		GovernorateID: govID,
		PaymentMethod: "cod",
	}
}

func TestCreateOrderWithCoupon(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	ctx := context.Background()
	userID := uuid.New()

	product := env.seedProduct(t, "250", 20)
	gov := env.seedGovernorate(t, "30")
	seedCoupon(t, env.couponRepo, model.Coupon{
		Code:              "SAVE10",
		DiscountType:      model.DiscountTypePercentage,
		DiscountValue:     dec("10"),
		MaxDiscountAmount: decPtr("50"),
		MinPurchaseAmount: decPtr("100"),
		Status:            model.CouponStatusActive,
	})

	in := contactInput(gov.ID)
	in.Items = []OrderItemInput{{ProductID: product.ID, Quantity: 4}}
	code := "SAVE10"
	in.CouponCode = &code

	order, err := env.svc.Create(ctx, userID, in)
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(dec("1000")), "subtotal %s", order.Subtotal)
	assert.True(t, order.ShippingCost.Equal(dec("30")), "shipping %s", order.ShippingCost)
	assert.True(t, order.Discount.Equal(dec("50")), "discount %s", order.Discount)
	assert.True(t, order.TotalAmount.Equal(dec("980")), "total %s", order.TotalAmount)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.Regexp(t, `^NS-\d{8}-\d{6}$`, order.OrderNumber)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "SAVE10", *order.CouponCode)

	// The spend is recorded, so the same user cannot reuse the code.
	_, err = env.svc.Create(ctx, userID, in)
	assert.ErrorIs(t, err, ErrCouponAlreadyUsed)

	// No stock moves at creation; that happens at confirmation.
	p, _ := env.productRepo.GetByID(ctx, product.ID)
	assert.Equal(t, 20, p.Quantity)
}

func TestCreateOrderFromCart(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	ctx := context.Background()
	userID := uuid.New()

	product := env.seedProduct(t, "99.99", 5)
	gov := env.seedGovernorate(t, "45")
	require.NoError(t, env.cartRepo.AddItem(ctx, &model.CartItem{
		UserID: userID, ProductID: product.ID, Quantity: 2,
	}))

	order, err := env.svc.Create(ctx, userID, contactInput(gov.ID))
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(dec("199.98")), "subtotal %s", order.Subtotal)
	assert.True(t, order.TotalAmount.Equal(dec("244.98")), "total %s", order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, product.Name, order.Items[0].ProductName)

	// Checkout consumed the server cart.
	remaining, err := env.cartRepo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	gov := env.seedGovernorate(t, "30")

	_, err := env.svc.Create(context.Background(), uuid.New(), contactInput(gov.ID))
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	ctx := context.Background()
	gov := env.seedGovernorate(t, "30")

	in := contactInput(gov.ID)
	in.Phone = ""
	_, err := env.svc.Create(ctx, uuid.New(), in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "phone", verr.Field)

	in = contactInput(uuid.New())
	_, err = env.svc.Create(ctx, uuid.New(), in)
	assert.ErrorIs(t, err, ErrGovernorateNotFound)

	inactive := &model.Governorate{NameEn: "Remote", ShippingCost: dec("80"), IsActive: false}
	require.NoError(t, env.govRepo.Create(ctx, inactive))
	in = contactInput(inactive.ID)
	_, err = env.svc.Create(ctx, uuid.New(), in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "governorate_id", verr.Field)
}

func TestCreateOrderFreeShippingThreshold(t *testing.T) {
	policy := FreeShippingPolicy{Enabled: true, Threshold: dec("500")}
	env := newOrderTestEnv(policy, decimal.Zero)
	ctx := context.Background()

	product := env.seedProduct(t, "500", 10)
	gov := env.seedGovernorate(t, "30")

	in := contactInput(gov.ID)
	in.Items = []OrderItemInput{{ProductID: product.ID, Quantity: 1}}
	order, err := env.svc.Create(ctx, uuid.New(), in)
	require.NoError(t, err)
	assert.True(t, order.ShippingCost.IsZero(), "shipping %s", order.ShippingCost)

	cheap := env.seedProduct(t, "499.99", 10)
	in.Items = []OrderItemInput{{ProductID: cheap.ID, Quantity: 1}}
	order, err = env.svc.Create(ctx, uuid.New(), in)
	require.NoError(t, err)
	assert.True(t, order.ShippingCost.Equal(dec("30")), "shipping %s", order.ShippingCost)
}

func TestCreateOrderPromotionPrice(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	ctx := context.Background()

	product := env.seedProduct(t, "200", 10)
	gov := env.seedGovernorate(t, "0")

	pct := dec("25")
	promo := &model.Promotion{
		Title:              "Flash Sale",
		Type:               model.PromotionTypeFlashSale,
		DiscountPercentage: &pct,
		Status:             model.PromotionStatusActive,
		Products:           []model.PromotionProduct{{ProductID: product.ID}},
	}
	require.NoError(t, env.promoRepo.Create(ctx, promo))

	in := contactInput(gov.ID)
	in.Items = []OrderItemInput{{ProductID: product.ID, Quantity: 2}}
	order, err := env.svc.Create(ctx, uuid.New(), in)
	require.NoError(t, err)

	// 200 at 25% off is 150 per unit, snapshotted on the line.
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(dec("150")), "unit %s", order.Items[0].UnitPrice)
	assert.True(t, order.Subtotal.Equal(dec("300")), "subtotal %s", order.Subtotal)
}

func TestUpdateStatusConfirmDeductsOnce(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	ctx := context.Background()
	userID := uuid.New()

	product := env.seedProduct(t, "100", 10)
	gov := env.seedGovernorate(t, "20")

	in := contactInput(gov.ID)
	in.Items = []OrderItemInput{{ProductID: product.ID, Quantity: 3}}
	order, err := env.svc.Create(ctx, userID, in)
	require.NoError(t, err)

	updated, err := env.svc.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)

	p, _ := env.productRepo.GetByID(ctx, product.ID)
	assert.Equal(t, 7, p.Quantity)

	// Confirming again is a no-op, not a second deduction.
	updated, err = env.svc.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)

	p, _ = env.productRepo.GetByID(ctx, product.ID)
	assert.Equal(t, 7, p.Quantity)
	assert.Equal(t, 3, env.productRepo.deducted[product.ID])
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	ctx := context.Background()

	product := env.seedProduct(t, "100", 10)
	gov := env.seedGovernorate(t, "20")

	in := contactInput(gov.ID)
	in.Items = []OrderItemInput{{ProductID: product.ID, Quantity: 1}}
	order, err := env.svc.Create(ctx, uuid.New(), in)
	require.NoError(t, err)

	for _, status := range []model.OrderStatus{
		model.OrderStatusConfirmed,
		model.OrderStatusProcessing,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
	} {
		_, err = env.svc.UpdateStatus(ctx, order.ID, status)
		require.NoError(t, err)
	}

	// No going back, and no cancelling a delivered order.
	_, err = env.svc.UpdateStatus(ctx, order.ID, model.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = env.svc.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusCancelBeforeDelivery(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	ctx := context.Background()

	product := env.seedProduct(t, "100", 10)
	gov := env.seedGovernorate(t, "20")

	in := contactInput(gov.ID)
	in.Items = []OrderItemInput{{ProductID: product.ID, Quantity: 1}}
	order, err := env.svc.Create(ctx, uuid.New(), in)
	require.NoError(t, err)

	_, err = env.svc.UpdateStatus(ctx, order.ID, model.OrderStatusShipped)
	require.NoError(t, err)
	updated, err := env.svc.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	_, err := env.svc.UpdateStatus(context.Background(), uuid.New(), model.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrderAccessControl(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	ctx := context.Background()
	owner := uuid.New()

	product := env.seedProduct(t, "100", 10)
	gov := env.seedGovernorate(t, "20")
	in := contactInput(gov.ID)
	in.Items = []OrderItemInput{{ProductID: product.ID, Quantity: 1}}
	order, err := env.svc.Create(ctx, owner, in)
	require.NoError(t, err)

	_, err = env.svc.GetByID(ctx, order.ID, owner, model.RoleUser)
	assert.NoError(t, err)

	_, err = env.svc.GetByID(ctx, order.ID, uuid.New(), model.RoleUser)
	assert.ErrorIs(t, err, ErrOrderAccessDenied)

	_, err = env.svc.GetByID(ctx, order.ID, uuid.New(), model.RoleAdmin)
	assert.NoError(t, err)

	_, err = env.svc.GetByID(ctx, uuid.New(), owner, model.RoleUser)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAttachPaymentProofOwnerOnly(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	ctx := context.Background()
	owner := uuid.New()

	product := env.seedProduct(t, "100", 10)
	gov := env.seedGovernorate(t, "20")
	in := contactInput(gov.ID)
	in.Items = []OrderItemInput{{ProductID: product.ID, Quantity: 1}}
	order, err := env.svc.Create(ctx, owner, in)
	require.NoError(t, err)

	err = env.svc.AttachPaymentProof(ctx, order.ID, uuid.New(), "https://cdn.example.com/proof.jpg")
	assert.ErrorIs(t, err, ErrOrderAccessDenied)

	require.NoError(t, env.svc.AttachPaymentProof(ctx, order.ID, owner, "https://cdn.example.com/proof.jpg"))
	stored, _ := env.orderRepo.GetByID(ctx, order.ID)
	require.NotNil(t, stored.PaymentProofURL)
	assert.Equal(t, "https://cdn.example.com/proof.jpg", *stored.PaymentProofURL)
	// Proof upload does not mark the order as paid.
	assert.Equal(t, model.PaymentStatusPending, stored.PaymentStatus)
}

func TestCreateOrderTax(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, dec("0.14"))
	ctx := context.Background()

	product := env.seedProduct(t, "100", 10)
	gov := env.seedGovernorate(t, "0")
	in := contactInput(gov.ID)
	in.Items = []OrderItemInput{{ProductID: product.ID, Quantity: 1}}

	order, err := env.svc.Create(ctx, uuid.New(), in)
	require.NoError(t, err)
	assert.True(t, order.Tax.Equal(dec("14")), "tax %s", order.Tax)
	assert.True(t, order.TotalAmount.Equal(dec("114")), "total %s", order.TotalAmount)
}

func TestCreateOrderRejectsUnsellableProduct(t *testing.T) {
	env := newOrderTestEnv(FreeShippingPolicy{}, decimal.Zero)
	ctx := context.Background()
	userID := uuid.New()

	gov := env.seedGovernorate(t, "30")
	archived := env.seedProduct(t, "250", 10)
	archived.Status = model.ProductStatusArchived

	in := contactInput(gov.ID)
	in.Items = []OrderItemInput{{ProductID: archived.ID, Quantity: 1}}
	_, err := env.svc.Create(ctx, userID, in)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	// Same gate covers a cart line whose product was archived after it
	// was added.
	active := env.seedProduct(t, "100", 10)
	require.NoError(t, env.cartRepo.AddItem(ctx, &model.CartItem{UserID: userID, ProductID: active.ID, Quantity: 1}))
	active.Status = model.ProductStatusDraft
	_, err = env.svc.Create(ctx, userID, contactInput(gov.ID))
	assert.ErrorIs(t, err, ErrProductUnavailable)
}
