package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/cache"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrGovernorateNotFound   = errors.New("governorate not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
)

const (
	catalogCacheTTL = 5 * time.Minute

	productCachePref     = "products:"
	categoryCachePref    = "categories:"
	governorateCachePref = "governorates:"
	paymentCachePref     = "payment_methods:"
)

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

// CatalogService serves products, categories, governorates and payment
// methods. Reads go through the injected cache with a short TTL; every
// write invalidates its resource-family prefix before returning, so a
// shopper can never observe a write without its invalidation.
type CatalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	govRepo      repository.GovernorateRepository
	paymentRepo  repository.PaymentMethodRepository
	cache        cache.Store
	log          *slog.Logger
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	govRepo repository.GovernorateRepository,
	paymentRepo repository.PaymentMethodRepository,
	cacheStore cache.Store,
	log *slog.Logger,
) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		govRepo:      govRepo,
		paymentRepo:  paymentRepo,
		cache:        cacheStore,
		log:          log,
	}
}

// --- Products ---

type ProductPage struct {
	Products []model.Product
	Total    int
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *model.Product) error {
	if err := s.productRepo.Create(ctx, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx, productCachePref)
	return nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	key := productCachePref + id.String()
	if s.cache != nil {
		var cached model.Product
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, product, catalogCacheTTL)
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error) {
	key := fmt.Sprintf("%slist:%v:%s:%s:%d:%d",
		productCachePref, filter.CategoryID, filter.Status, filter.Search, filter.Limit, filter.Offset)
	if s.cache != nil {
		var cached ProductPage
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	page := &ProductPage{Products: products, Total: total}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, page, catalogCacheTTL)
	}
	return page, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, product *model.Product) error {
	if err := s.productRepo.Update(ctx, product); err != nil {
		if isNoRows(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx, productCachePref)
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if isNoRows(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, productCachePref)
	return nil
}

// --- Categories ---

func (s *CatalogService) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx, categoryCachePref)
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	key := fmt.Sprintf("%slist:%t", categoryCachePref, activeOnly)
	if s.cache != nil {
		var cached []model.Category
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	categories, err := s.categoryRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, categories, catalogCacheTTL)
	}
	return categories, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if isNoRows(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("update category: %w", err)
	}
	s.invalidate(ctx, categoryCachePref)
	return nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if isNoRows(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}
	s.invalidate(ctx, categoryCachePref)
	return nil
}

// --- Governorates ---

func (s *CatalogService) CreateGovernorate(ctx context.Context, gov *model.Governorate) error {
	if err := s.govRepo.Create(ctx, gov); err != nil {
		return fmt.Errorf("create governorate: %w", err)
	}
	s.invalidate(ctx, governorateCachePref)
	return nil
}

func (s *CatalogService) GetGovernorate(ctx context.Context, id uuid.UUID) (*model.Governorate, error) {
	gov, err := s.govRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get governorate: %w", err)
	}
	if gov == nil {
		return nil, ErrGovernorateNotFound
	}
	return gov, nil
}

func (s *CatalogService) ListGovernorates(ctx context.Context, activeOnly bool) ([]model.Governorate, error) {
	key := fmt.Sprintf("%slist:%t", governorateCachePref, activeOnly)
	if s.cache != nil {
		var cached []model.Governorate
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	govs, err := s.govRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list governorates: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, govs, catalogCacheTTL)
	}
	return govs, nil
}

func (s *CatalogService) UpdateGovernorate(ctx context.Context, gov *model.Governorate) error {
	if err := s.govRepo.Update(ctx, gov); err != nil {
		if isNoRows(err) {
			return ErrGovernorateNotFound
		}
		return fmt.Errorf("update governorate: %w", err)
	}
	s.invalidate(ctx, governorateCachePref)
	return nil
}

// BulkUpdateShipping applies one rate to a set of governorates
// all-or-nothing, then drops the cached listings.
func (s *CatalogService) BulkUpdateShipping(ctx context.Context, ids []uuid.UUID, cost decimal.Decimal, isFree bool) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.govRepo.BulkUpdateShipping(ctx, ids, cost, isFree); err != nil {
		return fmt.Errorf("bulk update shipping: %w", err)
	}
	s.invalidate(ctx, governorateCachePref)
	return nil
}

// --- Payment methods ---

func (s *CatalogService) ListPaymentMethods(ctx context.Context, activeOnly bool) ([]model.PaymentMethod, error) {
	key := fmt.Sprintf("%slist:%t", paymentCachePref, activeOnly)
	if s.cache != nil {
		var cached []model.PaymentMethod
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	methods, err := s.paymentRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, methods, catalogCacheTTL)
	}
	return methods, nil
}

func (s *CatalogService) GetPaymentMethod(ctx context.Context, code string) (*model.PaymentMethod, error) {
	pm, err := s.paymentRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get payment method: %w", err)
	}
	if pm == nil {
		return nil, ErrPaymentMethodNotFound
	}
	return pm, nil
}

func (s *CatalogService) UpdatePaymentMethod(ctx context.Context, pm *model.PaymentMethod) error {
	if err := s.paymentRepo.Update(ctx, pm); err != nil {
		if isNoRows(err) {
			return ErrPaymentMethodNotFound
		}
		return fmt.Errorf("update payment method: %w", err)
	}
	s.invalidate(ctx, paymentCachePref)
	return nil
}

// A failed invalidation leaves stale reads until the TTL runs out, so
// it is worth a warning even though the write itself succeeded.
func (s *CatalogService) invalidate(ctx context.Context, prefix string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, prefix); err != nil {
		s.log.Warn("invalidate cache", "prefix", prefix, "error", err)
	}
}
