package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

type PromotionRepository interface {
	Create(ctx context.Context, promo *model.Promotion) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error)
	ListActive(ctx context.Context) ([]model.Promotion, error)
	List(ctx context.Context) ([]model.Promotion, error)
	Update(ctx context.Context, promo *model.Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error
	// SetProducts replaces the promotion's product set atomically.
	SetProducts(ctx context.Context, promoID uuid.UUID, products []model.PromotionProduct) error
}

type pgPromotionRepo struct{ pool *pgxpool.Pool }

func NewPromotionRepository(pool *pgxpool.Pool) PromotionRepository {
	return &pgPromotionRepo{pool: pool}
}

const promotionColumns = `id, title, promotion_type, discount_percentage, start_date, end_date,
	status, priority, created_at, updated_at`

func scanPromotion(row pgx.Row) (*model.Promotion, error) {
	p := &model.Promotion{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Type, &p.DiscountPercentage, &p.StartDate, &p.EndDate,
		&p.Status, &p.Priority, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgPromotionRepo) Create(ctx context.Context, promo *model.Promotion) error {
	promo.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO promotions (id, title, promotion_type, discount_percentage, start_date, end_date,
			status, priority, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`,
		promo.ID, promo.Title, promo.Type, promo.DiscountPercentage, promo.StartDate, promo.EndDate,
		promo.Status, promo.Priority,
	).Scan(&promo.CreatedAt, &promo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create promotion: %w", err)
	}
	return nil
}

func (r *pgPromotionRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	p, err := scanPromotion(r.pool.QueryRow(ctx,
		`SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	if err := r.loadProducts(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgPromotionRepo) ListActive(ctx context.Context) ([]model.Promotion, error) {
	return r.list(ctx,
		`SELECT `+promotionColumns+` FROM promotions
		 WHERE status = 'active'
		   AND (start_date IS NULL OR start_date <= NOW())
		   AND (end_date IS NULL OR end_date >= NOW())
		 ORDER BY priority DESC, created_at DESC`)
}

func (r *pgPromotionRepo) List(ctx context.Context) ([]model.Promotion, error) {
	return r.list(ctx,
		`SELECT `+promotionColumns+` FROM promotions ORDER BY priority DESC, created_at DESC`)
}

func (r *pgPromotionRepo) list(ctx context.Context, query string) ([]model.Promotion, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	var promos []model.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		promos = append(promos, *p)
	}
	rows.Close()

	for i := range promos {
		if err := r.loadProducts(ctx, &promos[i]); err != nil {
			return nil, err
		}
	}
	return promos, nil
}

func (r *pgPromotionRepo) loadProducts(ctx context.Context, promo *model.Promotion) error {
	rows, err := r.pool.Query(ctx,
		`SELECT promotion_id, product_id, custom_price FROM promotion_products WHERE promotion_id = $1`,
		promo.ID,
	)
	if err != nil {
		return fmt.Errorf("get promotion products: %w", err)
	}
	defer rows.Close()

	promo.Products = nil
	for rows.Next() {
		var pp model.PromotionProduct
		if err := rows.Scan(&pp.PromotionID, &pp.ProductID, &pp.CustomPrice); err != nil {
			return fmt.Errorf("scan promotion product: %w", err)
		}
		promo.Products = append(promo.Products, pp)
	}
	return nil
}

func (r *pgPromotionRepo) Update(ctx context.Context, promo *model.Promotion) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE promotions SET title=$2, promotion_type=$3, discount_percentage=$4, start_date=$5,
			end_date=$6, status=$7, priority=$8, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		promo.ID, promo.Title, promo.Type, promo.DiscountPercentage, promo.StartDate,
		promo.EndDate, promo.Status, promo.Priority,
	).Scan(&promo.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update promotion: %w", err)
	}
	return nil
}

func (r *pgPromotionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgPromotionRepo) SetProducts(ctx context.Context, promoID uuid.UUID, products []model.PromotionProduct) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM promotion_products WHERE promotion_id = $1`, promoID); err != nil {
		return fmt.Errorf("clear promotion products: %w", err)
	}
	for _, pp := range products {
		if _, err := tx.Exec(ctx,
			`INSERT INTO promotion_products (promotion_id, product_id, custom_price) VALUES ($1, $2, $3)`,
			promoID, pp.ProductID, pp.CustomPrice,
		); err != nil {
			return fmt.Errorf("insert promotion product: %w", err)
		}
	}
	return tx.Commit(ctx)
}
