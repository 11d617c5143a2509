package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-excursions/internal/config"
	"ms-excursions/internal/database/migrations"
	"ms-excursions/internal/models"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	dir := flag.String("dir", "./migrations", "directory containing migration files")
	seed := flag.Bool("seed", false, "insert sample slots after migrating up")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}

	ctx := context.Background()
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL: %v", err)
	}
	defer sqldb.Close()
	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	runner := migrations.NewRunner(db, migrations.MigrateOptions{MigrationsDir: *dir})
	defer runner.Close()

	switch *direction {
	case "up":
		if err := runner.MigrateUp(); err != nil {
			log.Fatalf("❌ Migration up failed: %v", err)
		}
		log.Println("✅ Migrations applied.")
	case "down":
		if err := runner.MigrateDown(); err != nil {
			log.Fatalf("❌ Migration down failed: %v", err)
		}
		log.Println("✅ Migrations rolled back.")
	default:
		log.Fatalf("Unknown direction %q, want up or down", *direction)
	}

	if *seed && *direction == "up" {
		log.Println("Seeding sample slots...")
		if err := seedSlots(ctx, db); err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		log.Println("✅ Done.")
	}
}

func seedSlots(ctx context.Context, db *bun.DB) error {
	slots := []models.Slot{
		{UID: models.SlotUID(1, "2026-06-01", "10:00"), BoatID: 1, TripDate: "2026-06-01", Time: "10:00", Capacity: 12, IsActive: true},
		{UID: models.SlotUID(1, "2026-06-01", "14:00"), BoatID: 1, TripDate: "2026-06-01", Time: "14:00", Capacity: 12, IsActive: true},
		{UID: models.SlotUID(2, "2026-06-01", "10:30"), BoatID: 2, TripDate: "2026-06-01", Time: "10:30", Capacity: 30, IsActive: true},
	}
	_, err := db.NewInsert().
		Model(&slots).
		On("CONFLICT (uid) DO NOTHING").
		Exec(ctx)
	return err
}
