package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	dbPool         *pgxpool.Pool
	redisClient    *redis.Client
	amqpConn       *amqp.Connection
	uploadsEnabled bool
}

func NewHealthHandler(dbPool *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp.Connection, uploadsEnabled bool) *HealthHandler {
	return &HealthHandler{
		dbPool:         dbPool,
		redisClient:    redisClient,
		amqpConn:       amqpConn,
		uploadsEnabled: uploadsEnabled,
	}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nilestore-api"})
}

// Readyz probes every dependency an order placement touches. Uploads
// are reported but never fail readiness: the store sells without them.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	ready := true

	start := time.Now()
	if err := h.dbPool.Ping(ctx); err != nil {
		checks["postgres"] = gin.H{"status": "unavailable"}
		ready = false
	} else {
		checks["postgres"] = gin.H{"status": "up", "latency_ms": time.Since(start).Milliseconds()}
	}

	start = time.Now()
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = gin.H{"status": "unavailable"}
		ready = false
	} else {
		checks["redis"] = gin.H{"status": "up", "latency_ms": time.Since(start).Milliseconds()}
	}

	if h.amqpConn.IsClosed() {
		checks["rabbitmq"] = gin.H{"status": "unavailable"}
		ready = false
	} else {
		checks["rabbitmq"] = gin.H{"status": "up"}
	}

	if h.uploadsEnabled {
		checks["uploads"] = gin.H{"status": "configured"}
	} else {
		checks["uploads"] = gin.H{"status": "disabled"}
	}

	status := "ok"
	code := http.StatusOK
	if !ready {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}
