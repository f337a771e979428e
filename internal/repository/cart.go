package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

type CartRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	// AddItem is an additive upsert: a repeat add increments the existing
	// quantity rather than replacing it.
	AddItem(ctx context.Context, item *model.CartItem) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, product_id, quantity, created_at, updated_at
		 FROM cart_items WHERE user_id = $1 ORDER BY created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *pgCartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	item.ID = uuid.New()
	query := `INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())
			  ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + $4, updated_at = NOW()
			  RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, item.ID, item.UserID, item.ProductID, item.Quantity).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3, updated_at = NOW() WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("set cart quantity: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID,
	)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
