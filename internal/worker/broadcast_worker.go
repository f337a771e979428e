package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/notifier"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/service"
)

const idempotencyTTL = 24 * time.Hour

// BroadcastWorker fans a queued announcement out to every customer
// account. The fan-out runs outside the request path because a store
// with many users would otherwise block the admin call for seconds.
type BroadcastWorker struct {
	channel     *amqp.Channel
	userRepo    repository.UserRepository
	notifySvc   *service.NotificationService
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewBroadcastWorker(
	ch *amqp.Channel,
	userRepo repository.UserRepository,
	notifySvc *service.NotificationService,
	redisClient *redis.Client,
	log *slog.Logger,
) *BroadcastWorker {
	return &BroadcastWorker{
		channel:     ch,
		userRepo:    userRepo,
		notifySvc:   notifySvc,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

func (w *BroadcastWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(notifier.ChannelBroadcast, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("broadcast worker started")
	return nil
}

func (w *BroadcastWorker) Stop() { close(w.done) }

func (w *BroadcastWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var broadcast service.BroadcastMessage
	if err := json.Unmarshal(msg.Body, &broadcast); err != nil {
		w.log.Error("unmarshal broadcast message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("broadcast_id", broadcast.BroadcastID)

	// A redelivery after a crash mid-fan-out would double up rows for
	// the users already covered; the Redis marker keeps that to the
	// crash window only.
	idempotencyKey := "broadcast_processed:" + broadcast.BroadcastID.String()
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("broadcast already processed, skipping")
		_ = msg.Ack(false)
		return
	}

	userIDs, err := w.userRepo.ListIDs(ctx)
	if err != nil {
		log.Error("list recipients", "error", err)
		_ = msg.Nack(false, false) // -> DLQ
		return
	}

	created := w.notifySvc.Notify(ctx, userIDs, broadcast.Type, broadcast.Title, broadcast.Message, broadcast.Data)

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("broadcast delivered", "recipients", len(userIDs), "created", len(created))
}
