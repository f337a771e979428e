package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

type OrderFilter struct {
	Status model.OrderStatus
	Limit  int
	Offset int
}

type OrderRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	// NextOrderNumber draws the next human-readable order number from the
	// database sequence, so it can never be client-supplied or reused.
	NextOrderNumber(ctx context.Context, tx pgx.Tx) (string, error)
	CreateWithItems(ctx context.Context, tx pgx.Tx, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int, error)
	// GetStatusForUpdate locks the order row for the rest of the
	// transaction so concurrent transitions serialize.
	GetStatusForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (model.OrderStatus, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error
	AttachPaymentProof(ctx context.Context, id uuid.UUID, url string) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *pgOrderRepo) NextOrderNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return fmt.Sprintf("NS-%s-%06d", time.Now().UTC().Format("20060102"), seq), nil
}

func (r *pgOrderRepo) CreateWithItems(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO orders (id, order_number, user_id, status, payment_status, subtotal, shipping_cost,
			tax, discount, coupon_code, total_amount, full_name, phone, address, city, governorate_id,
			governorate_name, payment_method, payment_proof_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID, order.OrderNumber, order.UserID, order.Status, order.PaymentStatus,
		order.Subtotal, order.ShippingCost, order.Tax, order.Discount, order.CouponCode, order.TotalAmount,
		order.ShippingAddress.FullName, order.ShippingAddress.Phone, order.ShippingAddress.Address,
		order.ShippingAddress.City, order.ShippingAddress.GovernorateID, order.ShippingAddress.Governorate,
		order.PaymentMethod, order.PaymentProofURL,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, product_image, quantity, unit_price, total_price)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			order.Items[i].ID, order.ID, order.Items[i].ProductID, order.Items[i].ProductName,
			order.Items[i].ProductImage, order.Items[i].Quantity, order.Items[i].UnitPrice, order.Items[i].TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

const orderColumns = `id, order_number, user_id, status, payment_status, subtotal, shipping_cost,
	tax, discount, coupon_code, total_amount, full_name, phone, address, city, governorate_id,
	governorate_name, payment_method, payment_proof_url, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentStatus, &o.Subtotal, &o.ShippingCost,
		&o.Tax, &o.Discount, &o.CouponCode, &o.TotalAmount, &o.ShippingAddress.FullName,
		&o.ShippingAddress.Phone, &o.ShippingAddress.Address, &o.ShippingAddress.City,
		&o.ShippingAddress.GovernorateID, &o.ShippingAddress.Governorate, &o.PaymentMethod,
		&o.PaymentProofURL, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, product_name, product_image, quantity, unit_price, total_price
		 FROM order_items WHERE order_id = $1`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.ProductImage, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (r *pgOrderRepo) List(ctx context.Context, filter OrderFilter) ([]model.Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)`, string(filter.Status),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		string(filter.Status), filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, total, nil
}

func (r *pgOrderRepo) GetStatusForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (model.OrderStatus, error) {
	var status model.OrderStatus
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", pgx.ErrNoRows
		}
		return "", fmt.Errorf("lock order status: %w", err)
	}
	return status, nil
}

func (r *pgOrderRepo) SetStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	_, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status,
	)
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) SetPaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`, id, status,
	)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) AttachPaymentProof(ctx context.Context, id uuid.UUID, url string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_proof_url = $2, updated_at = NOW() WHERE id = $1`, id, url,
	)
	if err != nil {
		return fmt.Errorf("attach payment proof: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
