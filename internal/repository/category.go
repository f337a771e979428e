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

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context, activeOnly bool) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgCategoryRepo struct{ pool *pgxpool.Pool }

func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &pgCategoryRepo{pool: pool}
}

func (r *pgCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	category.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (id, name_ar, name_en, image_url, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`,
		category.ID, category.NameAr, category.NameEn, category.ImageURL, category.IsActive,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *pgCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	c := &model.Category{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name_ar, name_en, image_url, is_active, created_at, updated_at
		 FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.NameAr, &c.NameEn, &c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *pgCategoryRepo) List(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name_ar, name_en, image_url, is_active, created_at, updated_at
		 FROM categories WHERE NOT $1 OR is_active ORDER BY name_en`, activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.NameAr, &c.NameEn, &c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (r *pgCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE categories SET name_ar=$2, name_en=$3, image_url=$4, is_active=$5, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		category.ID, category.NameAr, category.NameEn, category.ImageURL, category.IsActive,
	).Scan(&category.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (r *pgCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
