package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/notifier"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

// BroadcastMessage is the queued payload for store-wide announcements.
// The fan-out to every user happens in the worker, keyed by BroadcastID
// so a redelivered message is not applied twice.
type BroadcastMessage struct {
	BroadcastID uuid.UUID              `json:"broadcast_id"`
	Type        model.NotificationType `json:"type"`
	Title       model.Bilingual        `json:"title"`
	Message     model.Bilingual        `json:"message"`
	Data        map[string]any         `json:"data,omitempty"`
}

type NotificationService struct {
	repo      repository.NotificationRepository
	publisher notifier.Publisher
	log       *slog.Logger
}

func NewNotificationService(repo repository.NotificationRepository, publisher notifier.Publisher, log *slog.Logger) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher, log: log}
}

// Notify creates one notification row per recipient. Individual
// failures are logged and skipped so one bad recipient never rolls back
// the rest. The realtime publish afterwards is best-effort.
func (s *NotificationService) Notify(
	ctx context.Context,
	userIDs []uuid.UUID,
	typ model.NotificationType,
	title, message model.Bilingual,
	data map[string]any,
) []model.Notification {
	var created []model.Notification
	for _, userID := range userIDs {
		n := model.Notification{
			UserID:  userID,
			Type:    typ,
			Title:   title,
			Message: message,
			Data:    data,
		}
		if err := s.repo.Create(ctx, &n); err != nil {
			s.log.Error("create notification", "user_id", userID, "type", typ, "error", err)
			continue
		}
		created = append(created, n)

		if s.publisher != nil {
			channel := fmt.Sprintf("%s.%s", notifier.ChannelUser, userID)
			if err := s.publisher.Publish(ctx, channel, n); err != nil {
				s.log.Warn("publish notification", "user_id", userID, "error", err)
			}
		}
	}
	return created
}

func (s *NotificationService) NotifyOne(
	ctx context.Context,
	userID uuid.UUID,
	typ model.NotificationType,
	title, message model.Bilingual,
	data map[string]any,
) {
	s.Notify(ctx, []uuid.UUID{userID}, typ, title, message, data)
}

// Broadcast enqueues a store-wide announcement for the fan-out worker.
func (s *NotificationService) Broadcast(
	ctx context.Context,
	typ model.NotificationType,
	title, message model.Bilingual,
	data map[string]any,
) (uuid.UUID, error) {
	if s.publisher == nil {
		return uuid.Nil, errors.New("broadcast publisher not configured")
	}
	msg := BroadcastMessage{
		BroadcastID: uuid.New(),
		Type:        typ,
		Title:       title,
		Message:     message,
		Data:        data,
	}
	if err := s.publisher.Publish(ctx, notifier.ChannelBroadcast, msg); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue broadcast: %w", err)
	}
	return msg.BroadcastID, nil
}

// PublishTicketMessage mirrors a support-chat message onto the ticket's
// realtime channel so open chat views update without polling. The
// message row is already stored; delivery here is best-effort.
func (s *NotificationService) PublishTicketMessage(ctx context.Context, msg *model.TicketMessage) {
	if s.publisher == nil {
		return
	}
	channel := fmt.Sprintf("%s.%s", notifier.ChannelTicket, msg.TicketID)
	if err := s.publisher.Publish(ctx, channel, msg); err != nil {
		s.log.Warn("publish ticket message", "ticket_id", msg.TicketID, "error", err)
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if isNoRows(err) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// --- Domain-event copy ---

func (s *NotificationService) NotifyWelcome(ctx context.Context, userID uuid.UUID, fullName string) {
	s.NotifyOne(ctx, userID, model.NotificationWelcome,
		model.Bilingual{Ar: "أهلاً بك في نايل ستور", En: "Welcome to NileStore"},
		model.Bilingual{
			Ar: fmt.Sprintf("مرحباً %s، يسعدنا انضمامك إلينا.", fullName),
			En: fmt.Sprintf("Hi %s, we are glad to have you with us.", fullName),
		},
		nil,
	)
}

func (s *NotificationService) NotifyOrderCreated(ctx context.Context, order *model.Order) {
	s.NotifyOne(ctx, order.UserID, model.NotificationOrderCreated,
		model.Bilingual{Ar: "تم استلام طلبك", En: "Order received"},
		model.Bilingual{
			Ar: fmt.Sprintf("تم استلام طلبك رقم %s وهو قيد المراجعة.", order.OrderNumber),
			En: fmt.Sprintf("Your order %s has been received and is under review.", order.OrderNumber),
		},
		map[string]any{"order_id": order.ID.String(), "order_number": order.OrderNumber},
	)
}

var orderStatusCopy = map[model.OrderStatus]struct {
	typ     model.NotificationType
	title   model.Bilingual
	message model.Bilingual
}{
	model.OrderStatusConfirmed: {
		typ:     model.NotificationOrderConfirmed,
		title:   model.Bilingual{Ar: "تم تأكيد طلبك", En: "Order confirmed"},
		message: model.Bilingual{Ar: "تم تأكيد طلبك رقم %s وجاري تجهيزه.", En: "Your order %s has been confirmed and is being prepared."},
	},
	model.OrderStatusProcessing: {
		typ:     model.NotificationOrderProcessing,
		title:   model.Bilingual{Ar: "طلبك قيد التجهيز", En: "Order processing"},
		message: model.Bilingual{Ar: "طلبك رقم %s قيد التجهيز الآن.", En: "Your order %s is now being processed."},
	},
	model.OrderStatusShipped: {
		typ:     model.NotificationOrderShipped,
		title:   model.Bilingual{Ar: "تم شحن طلبك", En: "Order shipped"},
		message: model.Bilingual{Ar: "تم شحن طلبك رقم %s وهو في الطريق إليك.", En: "Your order %s has been shipped and is on its way."},
	},
	model.OrderStatusDelivered: {
		typ:     model.NotificationOrderDelivered,
		title:   model.Bilingual{Ar: "تم توصيل طلبك", En: "Order delivered"},
		message: model.Bilingual{Ar: "تم توصيل طلبك رقم %s. شكراً لتسوقك معنا.", En: "Your order %s has been delivered. Thank you for shopping with us."},
	},
	model.OrderStatusCancelled: {
		typ:     model.NotificationOrderCancelled,
		title:   model.Bilingual{Ar: "تم إلغاء طلبك", En: "Order cancelled"},
		message: model.Bilingual{Ar: "تم إلغاء طلبك رقم %s.", En: "Your order %s has been cancelled."},
	},
}

// NotifyOrderStatus sends the bilingual copy keyed by the target status.
// Unknown statuses (pending) send nothing.
func (s *NotificationService) NotifyOrderStatus(ctx context.Context, order *model.Order, status model.OrderStatus) {
	copyFor, ok := orderStatusCopy[status]
	if !ok {
		return
	}
	s.NotifyOne(ctx, order.UserID, copyFor.typ,
		copyFor.title,
		model.Bilingual{
			Ar: fmt.Sprintf(copyFor.message.Ar, order.OrderNumber),
			En: fmt.Sprintf(copyFor.message.En, order.OrderNumber),
		},
		map[string]any{"order_id": order.ID.String(), "order_number": order.OrderNumber},
	)
}

// NotifySupportReply carries the ticket id and a message preview so the
// client can deep-link into the conversation.
func (s *NotificationService) NotifySupportReply(ctx context.Context, userID, ticketID uuid.UUID, preview string) {
	s.NotifyOne(ctx, userID, model.NotificationSupportReply,
		model.Bilingual{Ar: "رد جديد على تذكرتك", En: "New reply on your ticket"},
		model.Bilingual{Ar: preview, En: preview},
		map[string]any{"ticket_id": ticketID.String(), "preview": preview},
	)
}
