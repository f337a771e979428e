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

// ProductFilter narrows List results. Zero values mean "no filter".
type ProductFilter struct {
	CategoryID *uuid.UUID
	Status     model.ProductStatus
	Search     string
	Limit      int
	Offset     int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeductStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, name, description, image_url, price, compare_at_price,
	quantity, track_quantity, category_id, status, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.CompareAtPrice,
		&p.Quantity, &p.TrackQuantity, &p.CategoryID, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (id, name, description, image_url, price, compare_at_price,
				quantity, track_quantity, category_id, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.ImageURL, product.Price,
		product.CompareAtPrice, product.Quantity, product.TrackQuantity, product.CategoryID, product.Status,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	products := make(map[uuid.UUID]*model.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}
	return products, nil
}

func (r *pgProductRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int, error) {
	where := `($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		AND ($2::uuid IS NULL OR category_id = $2)
		AND ($3 = '' OR status = $3)`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE `+where,
		filter.Search, filter.CategoryID, string(filter.Status),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+where+`
		 ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		filter.Search, filter.CategoryID, string(filter.Status), filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, total, nil
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, description=$3, image_url=$4, price=$5, compare_at_price=$6,
				quantity=$7, track_quantity=$8, category_id=$9, status=$10, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.ImageURL, product.Price,
		product.CompareAtPrice, product.Quantity, product.TrackQuantity, product.CategoryID, product.Status,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeductStock subtracts quantity atomically, flooring at zero. Products
// that do not track quantity are left untouched.
func (r *pgProductRepo) DeductStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	_, err := tx.Exec(ctx,
		`UPDATE products SET quantity = GREATEST(quantity - $2, 0), updated_at = NOW()
		 WHERE id = $1 AND track_quantity`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("deduct stock: %w", err)
	}
	return nil
}
