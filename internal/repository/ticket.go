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

type TicketRepository interface {
	Create(ctx context.Context, ticket *model.SupportTicket) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SupportTicket, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SupportTicket, error)
	List(ctx context.Context, status model.TicketStatus) ([]model.SupportTicket, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.TicketStatus) error
	AddMessage(ctx context.Context, msg *model.TicketMessage) error
	// ListMessages hides is_internal rows unless includeInternal is set.
	ListMessages(ctx context.Context, ticketID uuid.UUID, includeInternal bool) ([]model.TicketMessage, error)
}

type pgTicketRepo struct{ pool *pgxpool.Pool }

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &pgTicketRepo{pool: pool}
}

func (r *pgTicketRepo) Create(ctx context.Context, ticket *model.SupportTicket) error {
	ticket.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO support_tickets (id, user_id, subject, status, priority, category, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_at, updated_at`,
		ticket.ID, ticket.UserID, ticket.Subject, ticket.Status, ticket.Priority, ticket.Category,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

func (r *pgTicketRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.SupportTicket, error) {
	t := &model.SupportTicket{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, subject, status, priority, category, created_at, updated_at
		 FROM support_tickets WHERE id = $1`, id,
	).Scan(&t.ID, &t.UserID, &t.Subject, &t.Status, &t.Priority, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

func (r *pgTicketRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SupportTicket, error) {
	return r.list(ctx,
		`SELECT id, user_id, subject, status, priority, category, created_at, updated_at
		 FROM support_tickets WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
}

func (r *pgTicketRepo) List(ctx context.Context, status model.TicketStatus) ([]model.SupportTicket, error) {
	return r.list(ctx,
		`SELECT id, user_id, subject, status, priority, category, created_at, updated_at
		 FROM support_tickets WHERE ($1 = '' OR status = $1) ORDER BY updated_at DESC`, string(status))
}

func (r *pgTicketRepo) list(ctx context.Context, query string, arg any) ([]model.SupportTicket, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.SupportTicket
	for rows.Next() {
		var t model.SupportTicket
		if err := rows.Scan(&t.ID, &t.UserID, &t.Subject, &t.Status, &t.Priority, &t.Category, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func (r *pgTicketRepo) SetStatus(ctx context.Context, id uuid.UUID, status model.TicketStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE support_tickets SET status = $2, updated_at = NOW() WHERE id = $1`, id, status,
	)
	if err != nil {
		return fmt.Errorf("set ticket status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgTicketRepo) AddMessage(ctx context.Context, msg *model.TicketMessage) error {
	msg.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO ticket_messages (id, ticket_id, sender_id, sender_role, message, is_internal, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_at`,
		msg.ID, msg.TicketID, msg.SenderID, msg.SenderRole, msg.Message, msg.IsInternal,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("add ticket message: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE support_tickets SET updated_at = NOW() WHERE id = $1`, msg.TicketID,
	)
	if err != nil {
		return fmt.Errorf("touch ticket: %w", err)
	}
	return nil
}

func (r *pgTicketRepo) ListMessages(ctx context.Context, ticketID uuid.UUID, includeInternal bool) ([]model.TicketMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, ticket_id, sender_id, sender_role, message, is_internal, created_at
		 FROM ticket_messages WHERE ticket_id = $1 AND ($2 OR NOT is_internal)
		 ORDER BY created_at`, ticketID, includeInternal,
	)
	if err != nil {
		return nil, fmt.Errorf("list ticket messages: %w", err)
	}
	defer rows.Close()

	var messages []model.TicketMessage
	for rows.Next() {
		var m model.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.SenderID, &m.SenderRole, &m.Message, &m.IsInternal, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}
