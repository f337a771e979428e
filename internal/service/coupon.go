package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
)

var (
	ErrCouponNotFound     = errors.New("invalid coupon code")
	ErrCouponAlreadyUsed  = errors.New("coupon already used")
	ErrCouponInactive     = errors.New("coupon is not active")
	ErrCouponNotStarted   = errors.New("coupon is not valid yet")
	ErrCouponExpired      = errors.New("coupon has expired")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")
	ErrCouponBelowMinimum = errors.New("order total below coupon minimum")
)

// CouponQuote is the result of a successful validation. Nothing is
// recorded yet; the coupon is spent only at order creation.
type CouponQuote struct {
	Coupon   *model.Coupon
	Discount decimal.Decimal
}

type CouponService struct {
	couponRepo repository.CouponRepository
}

func NewCouponService(couponRepo repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Validate runs the rejection checks in a fixed order so the first
// failure produces the user-facing reason: unknown code, already used,
// inactive, outside date window, globally exhausted, below minimum.
func (s *CouponService) Validate(ctx context.Context, code string, orderTotal decimal.Decimal, userID uuid.UUID) (*CouponQuote, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("lookup coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	used, err := s.couponRepo.HasUsage(ctx, coupon.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("check coupon usage: %w", err)
	}
	if used {
		return nil, ErrCouponAlreadyUsed
	}

	if coupon.Status != model.CouponStatusActive {
		return nil, ErrCouponInactive
	}

	now := time.Now().UTC()
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return nil, ErrCouponNotStarted
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return nil, ErrCouponExpired
	}

	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return nil, ErrCouponExhausted
	}

	if coupon.MinPurchaseAmount != nil && orderTotal.LessThan(*coupon.MinPurchaseAmount) {
		return nil, fmt.Errorf("%w: minimum purchase is %s", ErrCouponBelowMinimum, coupon.MinPurchaseAmount.StringFixed(2))
	}

	return &CouponQuote{Coupon: coupon, Discount: ComputeDiscount(coupon, orderTotal)}, nil
}

// ComputeDiscount applies the coupon's discount math: percentage of the
// total clamped by max_discount_amount, or the fixed value. The result
// is always clamped to the order total so a total can never go negative.
func ComputeDiscount(coupon *model.Coupon, orderTotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch coupon.DiscountType {
	case model.DiscountTypePercentage:
		discount = orderTotal.Mul(coupon.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
		if coupon.MaxDiscountAmount != nil && discount.GreaterThan(*coupon.MaxDiscountAmount) {
			discount = *coupon.MaxDiscountAmount
		}
	case model.DiscountTypeFixed:
		discount = coupon.DiscountValue
	}
	if discount.GreaterThan(orderTotal) {
		discount = orderTotal
	}
	return discount
}

func (s *CouponService) Create(ctx context.Context, coupon *model.Coupon) error {
	return s.couponRepo.Create(ctx, coupon)
}

func (s *CouponService) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

func (s *CouponService) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

func (s *CouponService) List(ctx context.Context, limit, offset int) ([]model.Coupon, int, error) {
	return s.couponRepo.List(ctx, limit, offset)
}

func (s *CouponService) Update(ctx context.Context, coupon *model.Coupon) error {
	return s.couponRepo.Update(ctx, coupon)
}

func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.couponRepo.Delete(ctx, id)
}
