package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

var (
	// ErrDuplicateCouponUsage means the (coupon_id, user_id) uniqueness
	// constraint fired. The constraint, not any earlier read, is the
	// source of truth for the per-user-once rule.
	ErrDuplicateCouponUsage = errors.New("coupon already used by this user")
	// ErrCouponLimitReached means the global usage limit was hit by a
	// concurrent checkout between validation and spend.
	ErrCouponLimitReached = errors.New("coupon usage limit reached")
)

const pgUniqueViolation = "23505"

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context, limit, offset int) ([]model.Coupon, int, error)
	Update(ctx context.Context, coupon *model.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasUsage(ctx context.Context, couponID, userID uuid.UUID) (bool, error)
	// Spend appends the usage ledger row and bumps used_count as one
	// atomic unit inside the caller's transaction.
	Spend(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error
}

type pgCouponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &pgCouponRepo{pool: pool}
}

const couponColumns = `id, code, discount_type, discount_value, min_purchase_amount,
	max_discount_amount, usage_limit, used_count, valid_from, valid_until, status, created_at, updated_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	c := &model.Coupon{}
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MinPurchaseAmount,
		&c.MaxDiscountAmount, &c.UsageLimit, &c.UsedCount, &c.ValidFrom, &c.ValidUntil,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *pgCouponRepo) Create(ctx context.Context, coupon *model.Coupon) error {
	coupon.ID = uuid.New()
	coupon.Code = strings.ToUpper(coupon.Code)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO coupons (id, code, discount_type, discount_value, min_purchase_amount,
			max_discount_amount, usage_limit, used_count, valid_from, valid_until, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $10, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.MinPurchaseAmount,
		coupon.MaxDiscountAmount, coupon.UsageLimit, coupon.ValidFrom, coupon.ValidUntil, coupon.Status,
	).Scan(&coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

func (r *pgCouponRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return c, nil
}

func (r *pgCouponRepo) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = UPPER($1)`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code: %w", err)
	}
	return c, nil
}

func (r *pgCouponRepo) List(ctx context.Context, limit, offset int) ([]model.Coupon, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	return coupons, total, nil
}

func (r *pgCouponRepo) Update(ctx context.Context, coupon *model.Coupon) error {
	coupon.Code = strings.ToUpper(coupon.Code)
	err := r.pool.QueryRow(ctx,
		`UPDATE coupons SET code=$2, discount_type=$3, discount_value=$4, min_purchase_amount=$5,
			max_discount_amount=$6, usage_limit=$7, valid_from=$8, valid_until=$9, status=$10, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.MinPurchaseAmount,
		coupon.MaxDiscountAmount, coupon.UsageLimit, coupon.ValidFrom, coupon.ValidUntil, coupon.Status,
	).Scan(&coupon.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update coupon: %w", err)
	}
	return nil
}

func (r *pgCouponRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCouponRepo) HasUsage(ctx context.Context, couponID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupon_usage WHERE coupon_id = $1 AND user_id = $2)`,
		couponID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check coupon usage: %w", err)
	}
	return exists, nil
}

func (r *pgCouponRepo) Spend(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error {
	usage.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO coupon_usage (id, coupon_id, user_id, order_id, discount_amount, order_total, used_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING used_at`,
		usage.ID, usage.CouponID, usage.UserID, usage.OrderID, usage.DiscountAmount, usage.OrderTotal,
	).Scan(&usage.UsedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateCouponUsage
		}
		return fmt.Errorf("insert coupon usage: %w", err)
	}

	ct, err := tx.Exec(ctx,
		`UPDATE coupons SET used_count = used_count + 1, updated_at = NOW()
		 WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`,
		usage.CouponID,
	)
	if err != nil {
		return fmt.Errorf("increment used count: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrCouponLimitReached
	}
	return nil
}
