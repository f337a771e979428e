package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationWelcome         NotificationType = "welcome"
	NotificationOrderCreated    NotificationType = "order_created"
	NotificationOrderConfirmed  NotificationType = "order_confirmed"
	NotificationOrderProcessing NotificationType = "order_processing"
	NotificationOrderShipped    NotificationType = "order_shipped"
	NotificationOrderDelivered  NotificationType = "order_delivered"
	NotificationOrderCancelled  NotificationType = "order_cancelled"
	NotificationSupportReply    NotificationType = "support_reply"
	NotificationPromotion       NotificationType = "promotion"
	NotificationAdminMessage    NotificationType = "admin_message"
	NotificationSystem          NotificationType = "system"
)

// Bilingual is an Arabic/English copy pair. Both sides are stored; the
// display layer picks one.
type Bilingual struct {
	Ar string `json:"ar"`
	En string `json:"en"`
}

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      NotificationType
	Title     Bilingual
	Message   Bilingual
	IsRead    bool
	ReadAt    *time.Time
	Data      map[string]any
	CreatedAt time.Time
}

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

type SupportTicket struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Subject   string
	Status    TicketStatus
	Priority  TicketPriority
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TicketMessage rows are append-only. Internal messages are visible to
// admins only.
type TicketMessage struct {
	ID         uuid.UUID
	TicketID   uuid.UUID
	SenderID   uuid.UUID
	SenderRole Role
	Message    string
	IsInternal bool
	CreatedAt  time.Time
}
