package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/notifier"
)

type ticketTestEnv struct {
	svc        *TicketService
	repo       *mockTicketRepo
	notifyRepo *mockNotificationRepo
	pub        *mockPublisher
}

func newTicketTestEnv() *ticketTestEnv {
	env := &ticketTestEnv{
		repo:       newMockTicketRepo(),
		notifyRepo: newMockNotificationRepo(),
		pub:        &mockPublisher{},
	}
	notifySvc := NewNotificationService(env.notifyRepo, env.pub, discardLogger())
	env.svc = NewTicketService(env.repo, notifySvc)
	return env
}

// ticketChannelEvents filters published events down to the given
// ticket's realtime channel.
func ticketChannelEvents(pub *mockPublisher, ticketID uuid.UUID) []publishedEvent {
	channel := fmt.Sprintf("%s.%s", notifier.ChannelTicket, ticketID)
	var out []publishedEvent
	for _, ev := range pub.published {
		if ev.channel == channel {
			out = append(out, ev)
		}
	}
	return out
}

func TestCreateTicketWithFirstMessage(t *testing.T) {
	env := newTicketTestEnv()
	ctx := context.Background()
	userID := uuid.New()

	ticket, err := env.svc.Create(ctx, userID, "Order never arrived", "shipping", "My order NS-20260801-000010 is two weeks late.", "")
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusOpen, ticket.Status)
	assert.Equal(t, model.TicketPriorityMedium, ticket.Priority)

	_, messages, err := env.svc.Get(ctx, ticket.ID, userID, model.RoleUser)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, model.RoleUser, messages[0].SenderRole)
	assert.False(t, messages[0].IsInternal)
}

func TestTicketAccessControl(t *testing.T) {
	env := newTicketTestEnv()
	ctx := context.Background()
	owner := uuid.New()

	ticket, err := env.svc.Create(ctx, owner, "Refund", "payments", "Please refund my order.", model.TicketPriorityHigh)
	require.NoError(t, err)

	_, _, err = env.svc.Get(ctx, ticket.ID, uuid.New(), model.RoleUser)
	assert.ErrorIs(t, err, ErrTicketAccessDenied)

	_, _, err = env.svc.Get(ctx, ticket.ID, uuid.New(), model.RoleAdmin)
	assert.NoError(t, err)

	_, _, err = env.svc.Get(ctx, uuid.New(), owner, model.RoleUser)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestInternalMessagesHiddenFromOwner(t *testing.T) {
	env := newTicketTestEnv()
	ctx := context.Background()
	owner := uuid.New()
	admin := uuid.New()

	ticket, err := env.svc.Create(ctx, owner, "Broken item", "products", "The lamp arrived cracked.", "")
	require.NoError(t, err)

	_, err = env.svc.Reply(ctx, ticket.ID, admin, model.RoleAdmin, "Check the courier damage report first.", true)
	require.NoError(t, err)
	_, err = env.svc.Reply(ctx, ticket.ID, admin, model.RoleAdmin, "We are sending a replacement.", false)
	require.NoError(t, err)

	_, ownerView, err := env.svc.Get(ctx, ticket.ID, owner, model.RoleUser)
	require.NoError(t, err)
	assert.Len(t, ownerView, 2)

	_, adminView, err := env.svc.Get(ctx, ticket.ID, admin, model.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, adminView, 3)
}

func TestAdminReplyNotifiesAndMovesInProgress(t *testing.T) {
	env := newTicketTestEnv()
	ctx := context.Background()
	owner := uuid.New()
	admin := uuid.New()

	ticket, err := env.svc.Create(ctx, owner, "Coupon rejected", "coupons", "SAVE10 says already used but I never used it.", "")
	require.NoError(t, err)

	_, err = env.svc.Reply(ctx, ticket.ID, admin, model.RoleAdmin, "We reset the coupon for you.", false)
	require.NoError(t, err)

	stored, _ := env.repo.GetByID(ctx, ticket.ID)
	assert.Equal(t, model.TicketStatusInProgress, stored.Status)

	// The owner got a support_reply notification carrying the ticket id.
	require.Len(t, env.notifyRepo.notifications, 1)
	for _, n := range env.notifyRepo.notifications {
		assert.Equal(t, owner, n.UserID)
		assert.Equal(t, model.NotificationSupportReply, n.Type)
		assert.Equal(t, ticket.ID.String(), n.Data["ticket_id"])
	}

	// An internal note notifies nobody.
	_, err = env.svc.Reply(ctx, ticket.ID, admin, model.RoleAdmin, "Flag this account for review.", true)
	require.NoError(t, err)
	assert.Len(t, env.notifyRepo.notifications, 1)
}

func TestUserReplyReopensResolved(t *testing.T) {
	env := newTicketTestEnv()
	ctx := context.Background()
	owner := uuid.New()

	ticket, err := env.svc.Create(ctx, owner, "Wrong size", "products", "I ordered the large one.", "")
	require.NoError(t, err)
	require.NoError(t, env.svc.SetStatus(ctx, ticket.ID, model.TicketStatusResolved))

	_, err = env.svc.Reply(ctx, ticket.ID, owner, model.RoleUser, "The replacement is still wrong.", false)
	require.NoError(t, err)

	stored, _ := env.repo.GetByID(ctx, ticket.ID)
	assert.Equal(t, model.TicketStatusOpen, stored.Status)
}

func TestUserCannotReplyToClosed(t *testing.T) {
	env := newTicketTestEnv()
	ctx := context.Background()
	owner := uuid.New()
	admin := uuid.New()

	ticket, err := env.svc.Create(ctx, owner, "Old issue", "other", "Long resolved.", "")
	require.NoError(t, err)
	require.NoError(t, env.svc.SetStatus(ctx, ticket.ID, model.TicketStatusClosed))

	_, err = env.svc.Reply(ctx, ticket.ID, owner, model.RoleUser, "One more thing.", false)
	assert.ErrorIs(t, err, ErrTicketClosed)

	// Admins can still write to a closed ticket.
	_, err = env.svc.Reply(ctx, ticket.ID, admin, model.RoleAdmin, "Archiving note.", true)
	assert.NoError(t, err)
}

func TestUserReplyNeverInternal(t *testing.T) {
	env := newTicketTestEnv()
	ctx := context.Background()
	owner := uuid.New()

	ticket, err := env.svc.Create(ctx, owner, "Question", "other", "When do you restock?", "")
	require.NoError(t, err)

	msg, err := env.svc.Reply(ctx, ticket.ID, owner, model.RoleUser, "Any update?", true)
	require.NoError(t, err)
	assert.False(t, msg.IsInternal)
}

func TestTicketMessagesReachRealtimeChannel(t *testing.T) {
	env := newTicketTestEnv()
	ctx := context.Background()
	owner := uuid.New()
	admin := uuid.New()

	ticket, err := env.svc.Create(ctx, owner, "Wrong item", "orders", "I received a different lamp.", "")
	require.NoError(t, err)

	// The opening message and both visible replies go out on the
	// ticket channel; the internal note never does.
	_, err = env.svc.Reply(ctx, ticket.ID, admin, model.RoleAdmin, "Checking with the warehouse.", false)
	require.NoError(t, err)
	_, err = env.svc.Reply(ctx, ticket.ID, admin, model.RoleAdmin, "Customer is a reseller.", true)
	require.NoError(t, err)
	_, err = env.svc.Reply(ctx, ticket.ID, owner, model.RoleUser, "Thanks, waiting.", false)
	require.NoError(t, err)

	events := ticketChannelEvents(env.pub, ticket.ID)
	require.Len(t, events, 3)
	for _, ev := range events {
		msg, ok := ev.event.(*model.TicketMessage)
		require.True(t, ok)
		assert.False(t, msg.IsInternal)
	}
	assert.Equal(t, "Thanks, waiting.", events[2].event.(*model.TicketMessage).Message)
}
