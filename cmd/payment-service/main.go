package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-excursions/internal/auth"
	"ms-excursions/internal/config"
	inventorydb "ms-excursions/internal/inventory/db"
	"ms-excursions/internal/kafka"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"
	handlers "ms-excursions/internal/payment/handler"
	"ms-excursions/internal/payment/services"
	"ms-excursions/internal/payment/storage"
)

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Payment Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()

	paymentStore, err := storage.NewPostgreSQLStore(cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to initialize payment store: %v", err))
	}
	defer paymentStore.Close()

	// Presale lookups go through bun against the same database.
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	stripeService, err := services.NewStripeService(cfg.Stripe, logger)
	if err != nil {
		logger.Fatal("STRIPE", fmt.Sprintf("Failed to initialize Stripe service: %v", err))
	}

	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer kafkaProducer.Close()

	presaleStore := &inventorydb.DB{Bun: bunDB}
	stripeHandler := handlers.NewStripeHandler(stripeService, paymentStore, kafkaProducer, presaleStore, logger)

	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		if err := paymentStore.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/payments")
	api.Use(auth.GinMiddleware())
	{
		api.POST("/charge", auth.GinRequireRole(models.RoleSeller, models.RoleDispatcher, models.RoleOwner), stripeHandler.ChargeCard)
		api.POST("/refund", auth.GinRequireRole(models.RoleDispatcher, models.RoleOwner), stripeHandler.RefundCard)
		api.GET("/:id", stripeHandler.GetPayment)
	}

	port := os.Getenv("PAYMENT_PORT")
	if port == "" {
		port = ":8081"
	}

	server := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Payment Service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Payment Service shutdown complete")
	}
}
