package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MerchantRepository persists merchant accounts and their custom fee
// overrides. Balance columns are only written through GetForUpdate +
// Update inside a Store transaction.
type MerchantRepository interface {
	Create(m *models.Merchant) error
	GetByID(id uint) (*models.Merchant, error)
	GetByEmail(email string) (*models.Merchant, error)
	// GetForUpdate loads the merchant row with a row-level lock. Only
	// meaningful inside ExecuteInTransaction; concurrent settlements
	// for the same merchant serialize on this lock.
	GetForUpdate(id uint) (*models.Merchant, error)
	Update(m *models.Merchant) error
	IncrementTokenVersion(id uint) error
	ListByStatus(status string) ([]models.Merchant, error)

	RecordWebhookFailure(id uint, at time.Time) error
	ResetWebhookFailures(id uint) error

	GetCustomRate(merchantID uint) (*models.CustomRate, error)
	UpsertCustomRate(rate *models.CustomRate) error
}

type merchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) Create(m *models.Merchant) error {
	if err := r.db.Create(m).Error; err != nil {
		return fmt.Errorf("failed to create merchant: %w", err)
	}
	return nil
}

func (r *merchantRepository) GetByID(id uint) (*models.Merchant, error) {
	var m models.Merchant
	if err := r.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return &m, nil
}

func (r *merchantRepository) GetByEmail(email string) (*models.Merchant, error) {
	var m models.Merchant
	if err := r.db.Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return &m, nil
}

func (r *merchantRepository) GetForUpdate(id uint) (*models.Merchant, error) {
	var m models.Merchant
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to lock merchant: %w", err)
	}
	return &m, nil
}

func (r *merchantRepository) Update(m *models.Merchant) error {
	if err := r.db.Save(m).Error; err != nil {
		return fmt.Errorf("failed to update merchant: %w", err)
	}
	return nil
}

func (r *merchantRepository) IncrementTokenVersion(id uint) error {
	res := r.db.Model(&models.Merchant{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to increment token version: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMerchantNotFound
	}
	return nil
}

func (r *merchantRepository) ListByStatus(status string) ([]models.Merchant, error) {
	var merchants []models.Merchant
	if err := r.db.Where("status = ?", status).Order("created_at ASC").Find(&merchants).Error; err != nil {
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	return merchants, nil
}

func (r *merchantRepository) RecordWebhookFailure(id uint, at time.Time) error {
	res := r.db.Model(&models.Merchant{}).Where("id = ?", id).Updates(map[string]interface{}{
		"webhook_fail_count":      gorm.Expr("webhook_fail_count + 1"),
		"webhook_last_failure_at": at,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to record webhook failure: %w", res.Error)
	}
	return nil
}

func (r *merchantRepository) ResetWebhookFailures(id uint) error {
	res := r.db.Model(&models.Merchant{}).Where("id = ?", id).Update("webhook_fail_count", 0)
	if res.Error != nil {
		return fmt.Errorf("failed to reset webhook failures: %w", res.Error)
	}
	return nil
}

func (r *merchantRepository) GetCustomRate(merchantID uint) (*models.CustomRate, error) {
	var rate models.CustomRate
	if err := r.db.Where("merchant_id = ?", merchantID).First(&rate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomRateNotFound
		}
		return nil, fmt.Errorf("failed to get custom rate: %w", err)
	}
	return &rate, nil
}

func (r *merchantRepository) UpsertCustomRate(rate *models.CustomRate) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "merchant_id"}},
		UpdateAll: true,
	}).Create(rate).Error
	if err != nil {
		return fmt.Errorf("failed to upsert custom rate: %w", err)
	}
	return nil
}
