package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product not available for sale")
	ErrCartItemNotFound   = errors.New("cart item not found")
)

// DeviceCartLine is one line of an anonymous device-local cart handed
// up at login.
type DeviceCartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// Cart is the user's server cart joined with live product data.
type Cart struct {
	Lines    []model.CartLine
	Subtotal decimal.Decimal
}

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	promoSvc    *PromotionService
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, promoSvc *PromotionService) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, promoSvc: promoSvc}
}

// GetCart prices every line from the current catalog record, with
// active promotions applied. Prices are never cached here: no order has
// been placed yet.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	if len(items) == 0 {
		return &Cart{Subtotal: decimal.Zero}, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	rules, err := s.promoSvc.ActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load promotion rules: %w", err)
	}

	cart := &Cart{Subtotal: decimal.Zero}
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			// Product deleted since it was added; drop the stale line.
			_ = s.cartRepo.Remove(ctx, userID, item.ProductID)
			continue
		}
		unit := applyPriceRule(product.Price, rules, product.ID)
		line := model.CartLine{
			Item:      item,
			Product:   *product,
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		cart.Lines = append(cart.Lines, line)
		cart.Subtotal = cart.Subtotal.Add(line.LineTotal)
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	// Drafts and archived products stay browsable to admins but are
	// never sellable.
	if product.Status != model.ProductStatusActive {
		return ErrProductUnavailable
	}

	return s.cartRepo.AddItem(ctx, &model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

// UpdateItem sets an absolute quantity; zero or below removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	if err := s.cartRepo.SetQuantity(ctx, userID, productID, quantity); err != nil {
		if isNoRows(err) {
			return ErrCartItemNotFound
		}
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.cartRepo.Remove(ctx, userID, productID); err != nil {
		if isNoRows(err) {
			return ErrCartItemNotFound
		}
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.Clear(ctx, userID)
}

// MergeDeviceCart folds a device-local cart into the server cart at
// login. Each line goes through the same additive add used everywhere,
// so callers must invoke it exactly once per login event. Unknown and
// unsellable products are skipped and returned rather than failing the
// merge.
func (s *CartService) MergeDeviceCart(ctx context.Context, userID uuid.UUID, lines []DeviceCartLine) ([]uuid.UUID, error) {
	var skipped []uuid.UUID
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		err := s.AddItem(ctx, userID, line.ProductID, line.Quantity)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrProductUnavailable) {
				skipped = append(skipped, line.ProductID)
				continue
			}
			return skipped, fmt.Errorf("merge cart line %s: %w", line.ProductID, err)
		}
	}
	return skipped, nil
}
