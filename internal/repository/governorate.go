package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

type GovernorateRepository interface {
	Create(ctx context.Context, gov *model.Governorate) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Governorate, error)
	List(ctx context.Context, activeOnly bool) ([]model.Governorate, error)
	Update(ctx context.Context, gov *model.Governorate) error
	// BulkUpdateShipping applies the new rate to all given governorates in
	// one transaction. Partial application is not acceptable.
	BulkUpdateShipping(ctx context.Context, ids []uuid.UUID, cost decimal.Decimal, isFree bool) error
}

type pgGovernorateRepo struct{ pool *pgxpool.Pool }

func NewGovernorateRepository(pool *pgxpool.Pool) GovernorateRepository {
	return &pgGovernorateRepo{pool: pool}
}

func (r *pgGovernorateRepo) Create(ctx context.Context, gov *model.Governorate) error {
	gov.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO governorates (id, name_ar, name_en, shipping_cost, is_free_shipping, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_at, updated_at`,
		gov.ID, gov.NameAr, gov.NameEn, gov.ShippingCost, gov.IsFreeShipping, gov.IsActive,
	).Scan(&gov.CreatedAt, &gov.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create governorate: %w", err)
	}
	return nil
}

func (r *pgGovernorateRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Governorate, error) {
	g := &model.Governorate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name_ar, name_en, shipping_cost, is_free_shipping, is_active, created_at, updated_at
		 FROM governorates WHERE id = $1`, id,
	).Scan(&g.ID, &g.NameAr, &g.NameEn, &g.ShippingCost, &g.IsFreeShipping, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get governorate: %w", err)
	}
	return g, nil
}

func (r *pgGovernorateRepo) List(ctx context.Context, activeOnly bool) ([]model.Governorate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name_ar, name_en, shipping_cost, is_free_shipping, is_active, created_at, updated_at
		 FROM governorates WHERE NOT $1 OR is_active ORDER BY name_en`, activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list governorates: %w", err)
	}
	defer rows.Close()

	var govs []model.Governorate
	for rows.Next() {
		var g model.Governorate
		if err := rows.Scan(&g.ID, &g.NameAr, &g.NameEn, &g.ShippingCost, &g.IsFreeShipping, &g.IsActive, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan governorate: %w", err)
		}
		govs = append(govs, g)
	}
	return govs, nil
}

func (r *pgGovernorateRepo) Update(ctx context.Context, gov *model.Governorate) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE governorates SET name_ar=$2, name_en=$3, shipping_cost=$4, is_free_shipping=$5, is_active=$6, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		gov.ID, gov.NameAr, gov.NameEn, gov.ShippingCost, gov.IsFreeShipping, gov.IsActive,
	).Scan(&gov.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update governorate: %w", err)
	}
	return nil
}

func (r *pgGovernorateRepo) BulkUpdateShipping(ctx context.Context, ids []uuid.UUID, cost decimal.Decimal, isFree bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE governorates SET shipping_cost = $2, is_free_shipping = $3, updated_at = NOW()
		 WHERE id = ANY($1)`,
		ids, cost, isFree,
	)
	if err != nil {
		return fmt.Errorf("bulk update shipping: %w", err)
	}
	if int(ct.RowsAffected()) != len(ids) {
		return fmt.Errorf("bulk update shipping: expected %d rows, updated %d", len(ids), ct.RowsAffected())
	}
	return tx.Commit(ctx)
}
