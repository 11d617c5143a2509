package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-excursions/internal/config"
	"ms-excursions/internal/kafka"
	"ms-excursions/internal/ledger"
	ledgerdb "ms-excursions/internal/ledger/db"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"
	"ms-excursions/internal/season"
	"ms-excursions/internal/shift"
)

// The season worker listens for day-closed events and folds each closed
// day into the season totals. Because the fold is idempotent, a crashed
// or replayed worker run cannot double-count.
func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Season Worker initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()

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
	if err := sqldb.Ping(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer kafkaProducer.Close()

	ledgerService := ledger.NewService(&ledgerdb.DB{Bun: bunDB}, logger)
	shiftStore := &shift.DB{Bun: bunDB}
	seasonStore := &season.DB{Bun: bunDB}
	aggregator := season.NewAggregator(bunDB, seasonStore, shiftStore, ledgerService, kafkaProducer, logger)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, kafka.TopicDayClosed, cfg.Kafka.GroupID)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeDayClosed(ctx, func(closure models.ShiftClosure) error {
		day := closure.BusinessDay
		logger.Info("WORKER", fmt.Sprintf("Folding closed day %s", day))

		if _, err := aggregator.RecomputeDayStats(ctx, day); err != nil {
			return fmt.Errorf("recompute day stats for %s: %w", day, err)
		}
		result, err := aggregator.Apply(ctx, day)
		if err != nil {
			return fmt.Errorf("apply day %s: %w", day, err)
		}
		logger.Info("WORKER", fmt.Sprintf("Day %s folded into season %d: %d applied, %d skipped",
			day, result.SeasonID, result.Applied, result.Skipped))
		return nil
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Season Worker started, waiting for shutdown signal")
	<-stop

	cancel()
	logger.Info("APP", "✅ Season Worker shutdown complete")
}
