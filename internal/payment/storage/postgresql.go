package storage

import (
	"database/sql"
	"fmt"

	"ms-excursions/internal/config"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"

	_ "github.com/lib/pq"
)

type PostgreSQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgreSQLStoreWithDB creates a payment store on an existing
// database connection.
func NewPostgreSQLStoreWithDB(db *sql.DB, log *logger.Logger) (*PostgreSQLStore, error) {
	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}
	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize payment tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize payment tables: %w", err)
	}
	return store, nil
}

func NewPostgreSQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*PostgreSQLStore, error) {
	log.LogDatabase("CONNECT", "postgresql", fmt.Sprintf("Connecting to PostgreSQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open PostgreSQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping PostgreSQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgreSQLStoreWithDB(db, log)
}

func (s *PostgreSQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "payments", "Creating payments table if not exists")

	paymentsQuery := `
    CREATE TABLE IF NOT EXISTS payments (
        payment_id VARCHAR(36) PRIMARY KEY,
        presale_id BIGINT NOT NULL,
        status VARCHAR(50) NOT NULL,
        amount BIGINT NOT NULL,
        currency VARCHAR(8) NOT NULL,
        transaction_id VARCHAR(100),
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP
    );
    `
	if _, err := s.db.Exec(paymentsQuery); err != nil {
		return fmt.Errorf("failed to create payments table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_payments_presale_id ON payments(presale_id);",
		"CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);",
	}
	for _, indexQuery := range indexes {
		if _, err := s.db.Exec(indexQuery); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func (s *PostgreSQLStore) SavePayment(payment *models.Payment) error {
	s.log.LogDatabase("INSERT", "payments", fmt.Sprintf("Saving payment %s", payment.PaymentID))

	query := `
    INSERT INTO payments (
        payment_id, presale_id, status, amount, currency, transaction_id, created_at
    ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := s.db.Exec(query,
		payment.PaymentID, payment.PresaleID, payment.Status, payment.Amount,
		payment.Currency, payment.TransactionID, payment.CreatedAt,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save payment %s: %s", payment.PaymentID, err.Error()))
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) GetPayment(id string) (*models.Payment, error) {
	query := `
    SELECT payment_id, presale_id, status, amount, currency, COALESCE(transaction_id, ''), created_at
    FROM payments WHERE payment_id = $1
    `
	payment := &models.Payment{}
	err := s.db.QueryRow(query, id).Scan(
		&payment.PaymentID, &payment.PresaleID, &payment.Status, &payment.Amount,
		&payment.Currency, &payment.TransactionID, &payment.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("payment not found")
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get payment %s: %s", id, err.Error()))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

func (s *PostgreSQLStore) UpdatePayment(payment *models.Payment) error {
	s.log.LogDatabase("UPDATE", "payments", fmt.Sprintf("Updating payment %s", payment.PaymentID))

	query := `
    UPDATE payments SET
        status = $1, transaction_id = $2, updated_at = $3
    WHERE payment_id = $4
    `
	_, err := s.db.Exec(query,
		payment.Status, payment.TransactionID, payment.UpdatedAt, payment.PaymentID,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update payment %s: %s", payment.PaymentID, err.Error()))
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) GetPaymentByPresaleID(presaleID int64) (*models.Payment, error) {
	query := `
    SELECT payment_id, presale_id, status, amount, currency, COALESCE(transaction_id, ''), created_at
    FROM payments
    WHERE presale_id = $1
    ORDER BY created_at DESC
    LIMIT 1
    `
	payment := &models.Payment{}
	err := s.db.QueryRow(query, presaleID).Scan(
		&payment.PaymentID, &payment.PresaleID, &payment.Status, &payment.Amount,
		&payment.Currency, &payment.TransactionID, &payment.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("payment not found")
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get payment for presale %d: %s", presaleID, err.Error()))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

func (s *PostgreSQLStore) Close() error {
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}
