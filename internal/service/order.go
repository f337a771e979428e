package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError is a field-specific rejection raised before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// OrderItemInput is an explicit checkout line. When none are given the
// server cart is consumed instead.
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// DeclaredTotals are the client-carried monetary figures. They are
// advisory only: the server recomputes everything and logs mismatches.
type DeclaredTotals struct {
	Subtotal     *decimal.Decimal
	ShippingCost *decimal.Decimal
	Discount     *decimal.Decimal
	TotalAmount  *decimal.Decimal
}

type CreateOrderInput struct {
	FullName        string
	Phone           string
	Address         string
	City            string
	GovernorateID   uuid.UUID
	Items           []OrderItemInput
	PaymentMethod   string
	PaymentProofURL *string
	CouponCode      *string
	Declared        DeclaredTotals
}

// declaredTolerance absorbs client-side rounding when comparing
// declared totals against server-computed ones.
var declaredTolerance = decimal.NewFromFloat(0.01)

type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	govRepo     repository.GovernorateRepository
	couponSvc   *CouponService
	promoSvc    *PromotionService
	notifySvc   *NotificationService
	policy      FreeShippingPolicy
	taxRate     decimal.Decimal
	log         *slog.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	govRepo repository.GovernorateRepository,
	couponSvc *CouponService,
	promoSvc *PromotionService,
	notifySvc *NotificationService,
	policy FreeShippingPolicy,
	taxRate decimal.Decimal,
	log *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		govRepo:     govRepo,
		couponSvc:   couponSvc,
		promoSvc:    promoSvc,
		notifySvc:   notifySvc,
		policy:      policy,
		taxRate:     taxRate,
		log:         log,
	}
}

// Create runs the pricing pipeline: validate input, price every line
// from the current catalog, resolve shipping, apply the coupon, and
// persist order, items and coupon spend inside one transaction. All
// failures before the transaction leave no writes behind.
func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (*model.Order, error) {
	if err := validateContact(in); err != nil {
		return nil, err
	}

	gov, err := s.govRepo.GetByID(ctx, in.GovernorateID)
	if err != nil {
		return nil, fmt.Errorf("get governorate: %w", err)
	}
	if gov == nil {
		return nil, ErrGovernorateNotFound
	}
	if !gov.IsActive {
		return nil, &ValidationError{Field: "governorate_id", Message: "governorate is not available for shipping"}
	}

	items, subtotal, fromCart, err := s.buildItems(ctx, userID, in.Items)
	if err != nil {
		return nil, err
	}

	shipping := s.policy.ShippingFor(subtotal, gov.EffectiveShippingCost())

	var (
		discount decimal.Decimal
		quote    *CouponQuote
	)
	if in.CouponCode != nil && *in.CouponCode != "" {
		quote, err = s.couponSvc.Validate(ctx, *in.CouponCode, subtotal, userID)
		if err != nil {
			return nil, err
		}
		discount = quote.Discount
	}

	tax := subtotal.Mul(s.taxRate).Round(2)
	total := subtotal.Add(shipping).Add(tax).Sub(discount)

	s.logDeclaredMismatch(userID, in.Declared, subtotal, shipping, discount, total)

	order := &model.Order{
		UserID:        userID,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Subtotal:      subtotal,
		ShippingCost:  shipping,
		Tax:           tax,
		Discount:      discount,
		TotalAmount:   total,
		ShippingAddress: model.ShippingAddress{
			FullName:      in.FullName,
			Phone:         in.Phone,
			Address:       in.Address,
			City:          in.City,
			GovernorateID: gov.ID,
			Governorate:   gov.NameEn,
		},
		PaymentMethod:   in.PaymentMethod,
		PaymentProofURL: in.PaymentProofURL,
		Items:           items,
	}
	if quote != nil {
		order.CouponCode = &quote.Coupon.Code
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.OrderNumber, err = s.orderRepo.NextOrderNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.CreateWithItems(ctx, tx, order); err != nil {
		return nil, err
	}

	if quote != nil {
		err := s.couponRepo.Spend(ctx, tx, &model.CouponUsage{
			CouponID:       quote.Coupon.ID,
			UserID:         userID,
			OrderID:        order.ID,
			DiscountAmount: discount,
			OrderTotal:     total,
		})
		if err != nil {
			// The unique constraint is the real guard against a concurrent
			// checkout spending the same coupon.
			if errors.Is(err, repository.ErrDuplicateCouponUsage) {
				return nil, ErrCouponAlreadyUsed
			}
			if errors.Is(err, repository.ErrCouponLimitReached) {
				return nil, ErrCouponExhausted
			}
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	if fromCart {
		if err := s.cartRepo.Clear(ctx, userID); err != nil {
			s.log.Error("clear cart after order", "user_id", userID, "order_id", order.ID, "error", err)
		}
	}
	s.notifySvc.NotifyOrderCreated(ctx, order)

	return order, nil
}

func validateContact(in CreateOrderInput) error {
	switch {
	case in.FullName == "":
		return &ValidationError{Field: "full_name", Message: "full name is required"}
	case in.Phone == "":
		return &ValidationError{Field: "phone", Message: "phone is required"}
	case in.Address == "":
		return &ValidationError{Field: "address", Message: "address is required"}
	case in.City == "":
		return &ValidationError{Field: "city", Message: "city is required"}
	case in.GovernorateID == uuid.Nil:
		return &ValidationError{Field: "governorate_id", Message: "governorate is required"}
	}
	return nil
}

// buildItems snapshots every line from the current product records at
// promotion-adjusted prices. Client-declared unit prices are never
// consulted.
func (s *OrderService) buildItems(ctx context.Context, userID uuid.UUID, explicit []OrderItemInput) ([]model.OrderItem, decimal.Decimal, bool, error) {
	lines := explicit
	fromCart := false
	if len(lines) == 0 {
		cartItems, err := s.cartRepo.ListByUser(ctx, userID)
		if err != nil {
			return nil, decimal.Zero, false, fmt.Errorf("load cart: %w", err)
		}
		for _, ci := range cartItems {
			lines = append(lines, OrderItemInput{ProductID: ci.ProductID, Quantity: ci.Quantity})
		}
		fromCart = true
	}
	if len(lines) == 0 {
		return nil, decimal.Zero, false, ErrEmptyCart
	}

	rules, err := s.promoSvc.ActiveRules(ctx)
	if err != nil {
		return nil, decimal.Zero, false, fmt.Errorf("load promotion rules: %w", err)
	}

	var (
		items    []model.OrderItem
		subtotal decimal.Decimal
	)
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, decimal.Zero, false, &ValidationError{Field: "items", Message: "quantity must be positive"}
		}
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, decimal.Zero, false, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, decimal.Zero, false, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		if product.Status != model.ProductStatusActive {
			return nil, decimal.Zero, false, fmt.Errorf("%w: %s", ErrProductUnavailable, line.ProductID)
		}

		unit := applyPriceRule(product.Price, rules, product.ID)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, model.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductImage: product.ImageURL,
			Quantity:     line.Quantity,
			UnitPrice:    unit,
			TotalPrice:   lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return items, subtotal, fromCart, nil
}

func (s *OrderService) logDeclaredMismatch(userID uuid.UUID, declared DeclaredTotals, subtotal, shipping, discount, total decimal.Decimal) {
	check := func(field string, claimed *decimal.Decimal, computed decimal.Decimal) {
		if claimed == nil {
			return
		}
		if claimed.Sub(computed).Abs().GreaterThan(declaredTolerance) {
			s.log.Warn("client-declared total mismatch",
				"user_id", userID, "field", field,
				"declared", claimed.String(), "computed", computed.String())
		}
	}
	check("subtotal", declared.Subtotal, subtotal)
	check("shipping_cost", declared.ShippingCost, shipping)
	check("discount", declared.Discount, discount)
	check("total_amount", declared.TotalAmount, total)
}

func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID, role model.Role) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID && role != model.RoleAdmin {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, int, error) {
	return s.orderRepo.List(ctx, filter)
}

// UpdateStatus moves an order through the forward-only state machine.
// Repeating the current status is a no-op, so a double confirmation
// cannot deduct inventory twice; the deduction only fires when the
// previous status was not yet confirmed-or-later.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	prev, err := s.orderRepo.GetStatusForUpdate(ctx, tx, orderID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if prev == target {
		order.Status = prev
		return order, nil
	}
	if !model.CanTransition(prev, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, target)
	}

	if target == model.OrderStatusConfirmed && !model.ConfirmedOrLater(prev) {
		for _, item := range order.Items {
			if err := s.productRepo.DeductStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		}
	}

	if err := s.orderRepo.SetStatus(ctx, tx, orderID, target); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status change: %w", err)
	}

	order.Status = target
	s.notifySvc.NotifyOrderStatus(ctx, order, target)
	return order, nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status model.PaymentStatus) error {
	if err := s.orderRepo.SetPaymentStatus(ctx, orderID, status); err != nil {
		if isNoRows(err) {
			return ErrOrderNotFound
		}
		return err
	}
	return nil
}

// AttachPaymentProof stores the uploaded proof URL. It never flips
// payment_status; an admin reviews the proof first.
func (s *OrderService) AttachPaymentProof(ctx context.Context, orderID, userID uuid.UUID, url string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.UserID != userID {
		return ErrOrderAccessDenied
	}
	if err := s.orderRepo.AttachPaymentProof(ctx, orderID, url); err != nil {
		if isNoRows(err) {
			return ErrOrderNotFound
		}
		return err
	}
	return nil
}
