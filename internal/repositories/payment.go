package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(p *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByProviderID(provider, providerID string) (*models.Payment, error)
	// MarkReceived transitions the payment PENDING -> RECEIVED. The
	// update is conditional on the current status, so a duplicate
	// delivery observes zero affected rows and gets
	// ErrPaymentAlreadySettled instead of re-crediting.
	MarkReceived(id uint, paidAt time.Time) error
	UpdateStatus(id uint, status string) error
	ListByMerchant(merchantID uint, limit, offset int) ([]models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(p *models.Payment) error {
	if err := r.db.Create(p).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

func (r *paymentRepository) GetByProviderID(provider, providerID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("provider = ? AND provider_id = ?", provider, providerID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

func (r *paymentRepository) MarkReceived(id uint, paidAt time.Time) error {
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":  models.PaymentStatusReceived,
			"paid_at": paidAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark payment received: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPaymentAlreadySettled
	}
	return nil
}

func (r *paymentRepository) UpdateStatus(id uint, status string) error {
	res := r.db.Model(&models.Payment{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update payment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *paymentRepository) ListByMerchant(merchantID uint, limit, offset int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
