package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/cache"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
)

var ErrPromotionNotFound = errors.New("promotion not found")

const (
	promotionCacheTTL  = 5 * time.Minute
	promotionRulesKey  = "promotions:rules"
	promotionCachePref = "promotions:"
)

// PriceRule is a product-level price override contributed by an active
// promotion. An explicit custom price wins over percentage math.
type PriceRule struct {
	CustomPrice *decimal.Decimal `json:"custom_price"`
	Percentage  *decimal.Decimal `json:"percentage"`
}

type PromotionService struct {
	promoRepo repository.PromotionRepository
	cache     cache.Store
	log       *slog.Logger
}

func NewPromotionService(promoRepo repository.PromotionRepository, cacheStore cache.Store, log *slog.Logger) *PromotionService {
	return &PromotionService{promoRepo: promoRepo, cache: cacheStore, log: log}
}

func (s *PromotionService) Create(ctx context.Context, promo *model.Promotion) error {
	if err := s.promoRepo.Create(ctx, promo); err != nil {
		return fmt.Errorf("create promotion: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *PromotionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	if promo == nil {
		return nil, ErrPromotionNotFound
	}
	return promo, nil
}

func (s *PromotionService) List(ctx context.Context) ([]model.Promotion, error) {
	return s.promoRepo.List(ctx)
}

func (s *PromotionService) ListActive(ctx context.Context) ([]model.Promotion, error) {
	return s.promoRepo.ListActive(ctx)
}

func (s *PromotionService) Update(ctx context.Context, promo *model.Promotion) error {
	if err := s.promoRepo.Update(ctx, promo); err != nil {
		return fmt.Errorf("update promotion: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *PromotionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.promoRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *PromotionService) SetProducts(ctx context.Context, promoID uuid.UUID, products []model.PromotionProduct) error {
	if err := s.promoRepo.SetProducts(ctx, promoID, products); err != nil {
		return fmt.Errorf("set promotion products: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// ActiveRules returns the product-id → price-rule map for every product
// covered by a currently active promotion. Higher-priority promotions
// win when a product appears in more than one.
func (s *PromotionService) ActiveRules(ctx context.Context) (map[uuid.UUID]PriceRule, error) {
	rules := make(map[uuid.UUID]PriceRule)
	if s.cache != nil {
		if err := s.cache.Get(ctx, promotionRulesKey, &rules); err == nil {
			return rules, nil
		}
	}

	promos, err := s.promoRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active promotions: %w", err)
	}

	now := time.Now().UTC()
	for _, promo := range promos {
		if !promo.ActiveAt(now) {
			continue
		}
		for _, pp := range promo.Products {
			if _, taken := rules[pp.ProductID]; taken {
				continue
			}
			rules[pp.ProductID] = PriceRule{
				CustomPrice: pp.CustomPrice,
				Percentage:  promo.DiscountPercentage,
			}
		}
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, promotionRulesKey, rules, promotionCacheTTL)
	}
	return rules, nil
}

// EffectivePrice is the price a shopper pays right now:
// custom_price if an active promotion sets one, otherwise the catalog
// price reduced by the promotion percentage, otherwise the plain price.
func (s *PromotionService) EffectivePrice(ctx context.Context, product *model.Product) (decimal.Decimal, error) {
	rules, err := s.ActiveRules(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return applyPriceRule(product.Price, rules, product.ID), nil
}

// Apply returns the price under this rule. The zero rule is a no-op,
// so a missing map entry prices at the plain catalog price.
func (r PriceRule) Apply(price decimal.Decimal) decimal.Decimal {
	if r.CustomPrice != nil {
		return *r.CustomPrice
	}
	if r.Percentage != nil {
		factor := decimal.NewFromInt(100).Sub(*r.Percentage).Div(decimal.NewFromInt(100))
		return price.Mul(factor).Round(2)
	}
	return price
}

func applyPriceRule(price decimal.Decimal, rules map[uuid.UUID]PriceRule, productID uuid.UUID) decimal.Decimal {
	return rules[productID].Apply(price)
}

// Stale price rules are a correctness problem, not just a freshness
// one, so a failed invalidation is logged.
func (s *PromotionService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, promotionCachePref); err != nil {
		s.log.Warn("invalidate promotion cache", "error", err)
	}
}
