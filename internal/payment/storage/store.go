package storage

import (
	"ms-excursions/internal/models"
)

type Store interface {
	SavePayment(payment *models.Payment) error
	GetPayment(id string) (*models.Payment, error)
	UpdatePayment(payment *models.Payment) error
	GetPaymentByPresaleID(presaleID int64) (*models.Payment, error)

	Close() error
	HealthCheck() error
}
