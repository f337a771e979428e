package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

func TestPriceRuleApply(t *testing.T) {
	price := dec("199.99")

	var none PriceRule
	assert.True(t, none.Apply(price).Equal(price))

	pct := dec("15")
	d := PriceRule{Percentage: &pct}.Apply(price)
	assert.True(t, d.Equal(dec("169.99")), "got %s", d)

	custom := dec("149")
	d = PriceRule{CustomPrice: &custom, Percentage: &pct}.Apply(price)
	// An explicit custom price beats the percentage.
	assert.True(t, d.Equal(dec("149")), "got %s", d)
}

func TestActiveRulesPriorityWins(t *testing.T) {
	repo := newMockPromotionRepo()
	svc := NewPromotionService(repo, nil, discardLogger())
	ctx := context.Background()
	productID := uuid.New()

	low := dec("10")
	high := dec("40")
	require.NoError(t, repo.Create(ctx, &model.Promotion{
		Title:              "Weekly",
		Type:               model.PromotionTypeDeal,
		DiscountPercentage: &low,
		Status:             model.PromotionStatusActive,
		Priority:           1,
		Products:           []model.PromotionProduct{{ProductID: productID}},
	}))
	require.NoError(t, repo.Create(ctx, &model.Promotion{
		Title:              "Flash",
		Type:               model.PromotionTypeFlashSale,
		DiscountPercentage: &high,
		Status:             model.PromotionStatusActive,
		Priority:           10,
		Products:           []model.PromotionProduct{{ProductID: productID}},
	}))

	rules, err := svc.ActiveRules(ctx)
	require.NoError(t, err)
	require.Contains(t, rules, productID)
	assert.True(t, rules[productID].Percentage.Equal(high))
}

func TestActiveRulesSkipsOutOfWindow(t *testing.T) {
	repo := newMockPromotionRepo()
	svc := NewPromotionService(repo, nil, discardLogger())
	ctx := context.Background()
	productID := uuid.New()

	pct := dec("20")
	past := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, &model.Promotion{
		Title:              "Ended",
		Type:               model.PromotionTypeFlashSale,
		DiscountPercentage: &pct,
		Status:             model.PromotionStatusActive,
		EndDate:            &past,
		Products:           []model.PromotionProduct{{ProductID: productID}},
	}))

	rules, err := svc.ActiveRules(ctx)
	require.NoError(t, err)
	assert.NotContains(t, rules, productID)
}

func TestActiveRulesCaching(t *testing.T) {
	repo := newMockPromotionRepo()
	store := newMemCache()
	svc := NewPromotionService(repo, store, discardLogger())
	ctx := context.Background()
	productID := uuid.New()

	pct := dec("30")
	promo := &model.Promotion{
		Title:              "Sale",
		Type:               model.PromotionTypeDeal,
		DiscountPercentage: &pct,
		Status:             model.PromotionStatusActive,
		Products:           []model.PromotionProduct{{ProductID: productID}},
	}
	require.NoError(t, svc.Create(ctx, promo))

	rules, err := svc.ActiveRules(ctx)
	require.NoError(t, err)
	require.Contains(t, rules, productID)
	assert.Equal(t, 1, store.sets)

	// Second read is served from cache even after the repo changes
	// underneath it.
	delete(repo.promos, promo.ID)
	rules, err = svc.ActiveRules(ctx)
	require.NoError(t, err)
	assert.Contains(t, rules, productID)
	assert.Equal(t, 1, store.sets)

	// A write invalidates before returning, so the next read misses.
	promo2 := &model.Promotion{
		Title:  "Other",
		Type:   model.PromotionTypeFeatured,
		Status: model.PromotionStatusActive,
	}
	require.NoError(t, svc.Create(ctx, promo2))
	rules, err = svc.ActiveRules(ctx)
	require.NoError(t, err)
	assert.NotContains(t, rules, productID)
}

func TestGetPromotionNotFound(t *testing.T) {
	svc := NewPromotionService(newMockPromotionRepo(), nil, discardLogger())
	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPromotionNotFound)
}

func TestPromotionFailedInvalidationWarns(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	svc := NewPromotionService(newMockPromotionRepo(), &failingCache{newMemCache()}, log)

	promo := &model.Promotion{
		Title:  "Sale",
		Type:   model.PromotionTypeDeal,
		Status: model.PromotionStatusActive,
	}
	require.NoError(t, svc.Create(context.Background(), promo))
	assert.Contains(t, logs.String(), "invalidate promotion cache")
}
