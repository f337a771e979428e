package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

type PaymentMethodRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.PaymentMethod, error)
	GetByCode(ctx context.Context, code string) (*model.PaymentMethod, error)
	Update(ctx context.Context, pm *model.PaymentMethod) error
}

type pgPaymentMethodRepo struct{ pool *pgxpool.Pool }

func NewPaymentMethodRepository(pool *pgxpool.Pool) PaymentMethodRepository {
	return &pgPaymentMethodRepo{pool: pool}
}

func (r *pgPaymentMethodRepo) List(ctx context.Context, activeOnly bool) ([]model.PaymentMethod, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name_ar, name_en, instructions_ar, instructions_en, details, is_active, updated_at
		 FROM payment_methods WHERE NOT $1 OR is_active ORDER BY code`, activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []model.PaymentMethod
	for rows.Next() {
		var pm model.PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.Code, &pm.NameAr, &pm.NameEn, &pm.InstructionsAr,
			&pm.InstructionsEn, &pm.Details, &pm.IsActive, &pm.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, pm)
	}
	return methods, nil
}

func (r *pgPaymentMethodRepo) GetByCode(ctx context.Context, code string) (*model.PaymentMethod, error) {
	pm := &model.PaymentMethod{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, name_ar, name_en, instructions_ar, instructions_en, details, is_active, updated_at
		 FROM payment_methods WHERE code = $1`, code,
	).Scan(&pm.ID, &pm.Code, &pm.NameAr, &pm.NameEn, &pm.InstructionsAr,
		&pm.InstructionsEn, &pm.Details, &pm.IsActive, &pm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment method: %w", err)
	}
	return pm, nil
}

func (r *pgPaymentMethodRepo) Update(ctx context.Context, pm *model.PaymentMethod) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE payment_methods SET name_ar=$2, name_en=$3, instructions_ar=$4, instructions_en=$5,
			details=$6, is_active=$7, updated_at=NOW()
		 WHERE code=$1 RETURNING id, updated_at`,
		pm.Code, pm.NameAr, pm.NameEn, pm.InstructionsAr, pm.InstructionsEn, pm.Details, pm.IsActive,
	).Scan(&pm.ID, &pm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update payment method: %w", err)
	}
	return nil
}
