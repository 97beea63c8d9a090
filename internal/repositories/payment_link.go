package repositories

import (
	"errors"
	"fmt"

	"github.com/mourinha112/zucropay-sub000/internal/models"

	"gorm.io/gorm"
)

type PaymentLinkRepository interface {
	Create(link *models.PaymentLink) error
	GetByID(id uint) (*models.PaymentLink, error)
	GetBySlug(slug string) (*models.PaymentLink, error)
	ListByMerchant(merchantID uint) ([]models.PaymentLink, error)
	Update(link *models.PaymentLink) error
	// IncrementReceived bumps the settled totals in place so concurrent
	// settlements for the same link do not lose counts.
	IncrementReceived(id uint, amount float64) error
	Deactivate(id uint) error
}

type paymentLinkRepository struct {
	db *gorm.DB
}

func NewPaymentLinkRepository(db *gorm.DB) PaymentLinkRepository {
	return &paymentLinkRepository{db: db}
}

func (r *paymentLinkRepository) Create(link *models.PaymentLink) error {
	if err := r.db.Create(link).Error; err != nil {
		return fmt.Errorf("failed to create payment link: %w", err)
	}
	return nil
}

func (r *paymentLinkRepository) GetByID(id uint) (*models.PaymentLink, error) {
	var link models.PaymentLink
	if err := r.db.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get payment link: %w", err)
	}
	return &link, nil
}

func (r *paymentLinkRepository) GetBySlug(slug string) (*models.PaymentLink, error) {
	var link models.PaymentLink
	if err := r.db.Where("slug = ?", slug).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get payment link: %w", err)
	}
	return &link, nil
}

func (r *paymentLinkRepository) ListByMerchant(merchantID uint) ([]models.PaymentLink, error) {
	var links []models.PaymentLink
	err := r.db.Where("merchant_id = ?", merchantID).Order("created_at DESC").Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment links: %w", err)
	}
	return links, nil
}

func (r *paymentLinkRepository) Update(link *models.PaymentLink) error {
	if err := r.db.Save(link).Error; err != nil {
		return fmt.Errorf("failed to update payment link: %w", err)
	}
	return nil
}

func (r *paymentLinkRepository) IncrementReceived(id uint, amount float64) error {
	res := r.db.Model(&models.PaymentLink{}).Where("id = ?", id).Updates(map[string]interface{}{
		"received_total": gorm.Expr("received_total + ?", amount),
		"received_count": gorm.Expr("received_count + 1"),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to increment payment link totals: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *paymentLinkRepository) Deactivate(id uint) error {
	res := r.db.Model(&models.PaymentLink{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate payment link: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}
