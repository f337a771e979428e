package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
)

var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrTicketAccessDenied = errors.New("ticket access denied")
	ErrTicketClosed       = errors.New("ticket is closed")
)

type TicketService struct {
	repo      repository.TicketRepository
	notifySvc *NotificationService
}

func NewTicketService(repo repository.TicketRepository, notifySvc *NotificationService) *TicketService {
	return &TicketService{repo: repo, notifySvc: notifySvc}
}

// Create opens a ticket and records the opening message as its first
// non-internal message.
func (s *TicketService) Create(ctx context.Context, userID uuid.UUID, subject, category, message string, priority model.TicketPriority) (*model.SupportTicket, error) {
	if priority == "" {
		priority = model.TicketPriorityMedium
	}
	ticket := &model.SupportTicket{
		UserID:   userID,
		Subject:  subject,
		Status:   model.TicketStatusOpen,
		Priority: priority,
		Category: category,
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, err
	}
	first := &model.TicketMessage{
		TicketID:   ticket.ID,
		SenderID:   userID,
		SenderRole: model.RoleUser,
		Message:    message,
	}
	if err := s.repo.AddMessage(ctx, first); err != nil {
		return nil, err
	}
	s.notifySvc.PublishTicketMessage(ctx, first)
	return ticket, nil
}

func (s *TicketService) Get(ctx context.Context, ticketID, userID uuid.UUID, role model.Role) (*model.SupportTicket, []model.TicketMessage, error) {
	ticket, err := s.loadFor(ctx, ticketID, userID, role)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.repo.ListMessages(ctx, ticketID, role == model.RoleAdmin)
	if err != nil {
		return nil, nil, err
	}
	return ticket, messages, nil
}

func (s *TicketService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SupportTicket, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *TicketService) List(ctx context.Context, status model.TicketStatus) ([]model.SupportTicket, error) {
	return s.repo.List(ctx, status)
}

// Reply appends a message. An admin reply that is not internal notifies
// the ticket owner. A user replying to a resolved ticket reopens it;
// closed tickets accept no user replies.
func (s *TicketService) Reply(ctx context.Context, ticketID, senderID uuid.UUID, role model.Role, message string, internal bool) (*model.TicketMessage, error) {
	ticket, err := s.loadFor(ctx, ticketID, senderID, role)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin {
		internal = false
		if ticket.Status == model.TicketStatusClosed {
			return nil, ErrTicketClosed
		}
	}

	msg := &model.TicketMessage{
		TicketID:   ticketID,
		SenderID:   senderID,
		SenderRole: role,
		Message:    message,
		IsInternal: internal,
	}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, err
	}
	// Internal notes stay off the realtime channel the owner may be
	// subscribed to.
	if !internal {
		s.notifySvc.PublishTicketMessage(ctx, msg)
	}

	switch {
	case role == model.RoleAdmin && !internal:
		s.notifySvc.NotifySupportReply(ctx, ticket.UserID, ticket.ID, message)
		if ticket.Status == model.TicketStatusOpen {
			if err := s.repo.SetStatus(ctx, ticketID, model.TicketStatusInProgress); err != nil {
				return nil, err
			}
		}
	case role != model.RoleAdmin && ticket.Status == model.TicketStatusResolved:
		if err := s.repo.SetStatus(ctx, ticketID, model.TicketStatusOpen); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func (s *TicketService) SetStatus(ctx context.Context, ticketID uuid.UUID, status model.TicketStatus) error {
	if err := s.repo.SetStatus(ctx, ticketID, status); err != nil {
		if isNoRows(err) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("set ticket status: %w", err)
	}
	return nil
}

func (s *TicketService) loadFor(ctx context.Context, ticketID, userID uuid.UUID, role model.Role) (*model.SupportTicket, error) {
	ticket, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.UserID != userID && role != model.RoleAdmin {
		return nil, ErrTicketAccessDenied
	}
	return ticket, nil
}
