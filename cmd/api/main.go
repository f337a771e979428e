package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/cache"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/config"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/handler"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/middleware"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/notifier"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/repository"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/service"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/storage"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := notifier.Setup(amqpCh); err != nil {
		log.Error("setup RabbitMQ topology", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Cloudinary
	var uploader storage.Uploader
	if cfg.Cloudinary.URL != "" {
		uploader, err = storage.NewCloudinaryUploader(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
		if err != nil {
			log.Error("init cloudinary", "error", err)
			os.Exit(1)
		}
		log.Info("cloudinary uploads enabled")
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	categoryRepo := repository.NewCategoryRepository(dbPool)
	govRepo := repository.NewGovernorateRepository(dbPool)
	paymentRepo := repository.NewPaymentMethodRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	couponRepo := repository.NewCouponRepository(dbPool)
	promoRepo := repository.NewPromotionRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	notificationRepo := repository.NewNotificationRepository(dbPool)
	ticketRepo := repository.NewTicketRepository(dbPool)

	// Services
	cacheStore := cache.NewRedisStore(redisClient)
	publisher := notifier.NewAMQPPublisher(amqpCh)

	notifySvc := service.NewNotificationService(notificationRepo, publisher, log)
	authSvc := service.NewAuthService(userRepo, notifySvc, cfg.JWT.Secret, cfg.JWT.Expiration)
	catalogSvc := service.NewCatalogService(productRepo, categoryRepo, govRepo, paymentRepo, cacheStore, log)
	promoSvc := service.NewPromotionService(promoRepo, cacheStore, log)
	couponSvc := service.NewCouponService(couponRepo)
	cartSvc := service.NewCartService(cartRepo, productRepo, promoSvc)
	ticketSvc := service.NewTicketService(ticketRepo, notifySvc)

	policy := service.FreeShippingPolicy{
		Enabled:   cfg.Shipping.FreeShippingEnabled,
		Threshold: decimal.NewFromFloat(cfg.Shipping.FreeShippingThreshold),
	}
	orderSvc := service.NewOrderService(
		orderRepo, cartRepo, productRepo, couponRepo, govRepo,
		couponSvc, promoSvc, notifySvc,
		policy, decimal.NewFromFloat(cfg.Tax.Rate), log,
	)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	productH := handler.NewProductHandler(catalogSvc, promoSvc)
	categoryH := handler.NewCategoryHandler(catalogSvc)
	govH := handler.NewGovernorateHandler(catalogSvc)
	paymentH := handler.NewPaymentMethodHandler(catalogSvc)
	cartH := handler.NewCartHandler(cartSvc)
	couponH := handler.NewCouponHandler(couponSvc)
	promoH := handler.NewPromotionHandler(promoSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	notificationH := handler.NewNotificationHandler(notifySvc)
	ticketH := handler.NewTicketHandler(ticketSvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn, uploader != nil)

	// Worker
	broadcastWorker := worker.NewBroadcastWorker(amqpCh, userRepo, notifySvc, redisClient, log)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	authRequired := middleware.AuthMiddleware(cfg.JWT.Secret)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.GET("/me", authRequired, authH.Profile)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)

		productsAdmin := products.Group("", authRequired, middleware.AdminOnly())
		productsAdmin.POST("", productH.Create)
		productsAdmin.PUT("/:id", productH.Update)
		productsAdmin.DELETE("/:id", productH.Delete)

		categories := v1.Group("/categories")
		categories.GET("", categoryH.List)

		categoriesAdmin := categories.Group("", authRequired, middleware.AdminOnly())
		categoriesAdmin.POST("", categoryH.Create)
		categoriesAdmin.PUT("/:id", categoryH.Update)
		categoriesAdmin.DELETE("/:id", categoryH.Delete)

		governorates := v1.Group("/governorates")
		governorates.GET("", govH.List)

		governoratesAdmin := governorates.Group("", authRequired, middleware.AdminOnly())
		governoratesAdmin.POST("", govH.Create)
		governoratesAdmin.PUT("/:id", govH.Update)
		governoratesAdmin.PUT("", govH.BulkUpdateShipping)

		paymentMethods := v1.Group("/payment-methods")
		paymentMethods.GET("", paymentH.List)
		paymentMethods.PUT("/:code", authRequired, middleware.AdminOnly(), paymentH.Update)

		promotions := v1.Group("/promotions")
		promotions.GET("", promoH.ListActive)

		promotionsAdmin := v1.Group("/admin/promotions", authRequired, middleware.AdminOnly())
		promotionsAdmin.GET("", promoH.List)
		promotionsAdmin.POST("", promoH.Create)
		promotionsAdmin.PUT("/:id", promoH.Update)
		promotionsAdmin.PUT("/:id/products", promoH.SetProducts)
		promotionsAdmin.DELETE("/:id", promoH.Delete)

		cart := v1.Group("/cart", authRequired)
		cart.GET("", cartH.Get)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:productId", cartH.UpdateItem)
		cart.DELETE("/items/:productId", cartH.RemoveItem)
		cart.DELETE("", cartH.Clear)
		cart.POST("/merge", cartH.Merge)

		coupons := v1.Group("/coupons")
		coupons.POST("/validate", authRequired, couponH.Validate)

		couponsAdmin := coupons.Group("", authRequired, middleware.AdminOnly())
		couponsAdmin.GET("", couponH.List)
		couponsAdmin.POST("", couponH.Create)
		couponsAdmin.PUT("/:id", couponH.Update)
		couponsAdmin.DELETE("/:id", couponH.Delete)

		orders := v1.Group("/orders", authRequired)
		orders.POST("", orderH.Create)
		orders.GET("", orderH.ListMine)
		orders.GET("/:id", orderH.GetByID)
		orders.POST("/:id/payment-proof", orderH.AttachPaymentProof)

		ordersAdmin := v1.Group("/admin/orders", authRequired, middleware.AdminOnly())
		ordersAdmin.GET("", orderH.List)
		ordersAdmin.PATCH("/:id/status", orderH.UpdateStatus)
		ordersAdmin.PATCH("/:id/payment-status", orderH.UpdatePaymentStatus)

		notifications := v1.Group("/notifications", authRequired)
		notifications.GET("", notificationH.List)
		notifications.GET("/unread-count", notificationH.UnreadCount)
		notifications.PATCH("/:id/read", notificationH.MarkRead)
		notifications.PATCH("/read-all", notificationH.MarkAllRead)
		notifications.DELETE("/:id", notificationH.Delete)
		notifications.POST("/broadcast", middleware.AdminOnly(), notificationH.Broadcast)

		tickets := v1.Group("/tickets", authRequired)
		tickets.POST("", ticketH.Create)
		tickets.GET("", ticketH.ListMine)
		tickets.GET("/:id", ticketH.Get)
		tickets.POST("/:id/messages", ticketH.Reply)

		ticketsAdmin := v1.Group("/admin/tickets", authRequired, middleware.AdminOnly())
		ticketsAdmin.GET("", ticketH.List)
		ticketsAdmin.PATCH("/:id/status", ticketH.UpdateStatus)

		if uploader != nil {
			uploads := v1.Group("/uploads", authRequired)
			uploadH := handler.NewUploadHandler(uploader)
			uploads.POST("", uploadH.Upload)
			uploads.DELETE("/*publicId", middleware.AdminOnly(), uploadH.Delete)
		}
	}

	if err := broadcastWorker.Start(ctx); err != nil {
		log.Error("start broadcast worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	broadcastWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
