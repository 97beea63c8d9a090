package repositories

import (
	"errors"
	"fmt"

	"github.com/mourinha112/zucropay-sub000/internal/models"

	"gorm.io/gorm"
)

type WebhookLogRepository interface {
	Create(l *models.WebhookLog) error
	GetByID(id uint) (*models.WebhookLog, error)
	MarkProcessed(id uint) error
	SetError(id uint, msg string) error
	ListUnprocessed(limit int) ([]models.WebhookLog, error)
}

type webhookLogRepository struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepository{db: db}
}

func (r *webhookLogRepository) Create(l *models.WebhookLog) error {
	if err := r.db.Create(l).Error; err != nil {
		return fmt.Errorf("failed to create webhook log: %w", err)
	}
	return nil
}

func (r *webhookLogRepository) GetByID(id uint) (*models.WebhookLog, error) {
	var l models.WebhookLog
	if err := r.db.First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebhookLogNotFound
		}
		return nil, fmt.Errorf("failed to get webhook log: %w", err)
	}
	return &l, nil
}

func (r *webhookLogRepository) MarkProcessed(id uint) error {
	res := r.db.Model(&models.WebhookLog{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processed": true,
		"error":     "",
	})
	if res.Error != nil {
		return fmt.Errorf("failed to mark webhook log processed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrWebhookLogNotFound
	}
	return nil
}

func (r *webhookLogRepository) SetError(id uint, msg string) error {
	res := r.db.Model(&models.WebhookLog{}).Where("id = ?", id).Update("error", msg)
	if res.Error != nil {
		return fmt.Errorf("failed to set webhook log error: %w", res.Error)
	}
	return nil
}

func (r *webhookLogRepository) ListUnprocessed(limit int) ([]models.WebhookLog, error) {
	var logs []models.WebhookLog
	err := r.db.Where("processed = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed webhook logs: %w", err)
	}
	return logs, nil
}
