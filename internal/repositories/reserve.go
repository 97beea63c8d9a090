package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/models"

	"gorm.io/gorm"
)

type ReserveRepository interface {
	Create(reserve *models.BalanceReserve) error
	GetByID(id uint) (*models.BalanceReserve, error)
	GetByPaymentID(paymentID uint) (*models.BalanceReserve, error)
	// ListMatured returns HELD reserves whose release date has passed.
	// Released and cancelled reserves are excluded by the filter, which
	// is what makes re-running the sweep a no-op for processed rows.
	ListMatured(now time.Time) ([]models.BalanceReserve, error)
	// MarkReleased flips HELD -> RELEASED conditionally; a reserve
	// already released by a concurrent sweep yields ErrReserveNotHeld.
	MarkReleased(id uint, now time.Time, amount float64) error
	// CancelHeld flips HELD -> CANCELLED conditionally, used when a
	// refunded payment voids its reserve before maturity.
	CancelHeld(id uint) error
	SumHeldByMerchant(merchantID uint) (float64, error)
	ListByMerchant(merchantID uint, limit, offset int) ([]models.BalanceReserve, error)
}

type reserveRepository struct {
	db *gorm.DB
}

func NewReserveRepository(db *gorm.DB) ReserveRepository {
	return &reserveRepository{db: db}
}

func (r *reserveRepository) Create(reserve *models.BalanceReserve) error {
	if err := r.db.Create(reserve).Error; err != nil {
		return fmt.Errorf("failed to create reserve: %w", err)
	}
	return nil
}

func (r *reserveRepository) GetByID(id uint) (*models.BalanceReserve, error) {
	var reserve models.BalanceReserve
	if err := r.db.First(&reserve, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReserveNotFound
		}
		return nil, fmt.Errorf("failed to get reserve: %w", err)
	}
	return &reserve, nil
}

func (r *reserveRepository) GetByPaymentID(paymentID uint) (*models.BalanceReserve, error) {
	var reserve models.BalanceReserve
	if err := r.db.Where("payment_id = ?", paymentID).First(&reserve).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReserveNotFound
		}
		return nil, fmt.Errorf("failed to get reserve: %w", err)
	}
	return &reserve, nil
}

func (r *reserveRepository) ListMatured(now time.Time) ([]models.BalanceReserve, error) {
	var reserves []models.BalanceReserve
	err := r.db.Where("status = ? AND release_date <= ?", models.ReserveStatusHeld, now).
		Order("release_date ASC").
		Find(&reserves).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matured reserves: %w", err)
	}
	return reserves, nil
}

func (r *reserveRepository) MarkReleased(id uint, now time.Time, amount float64) error {
	res := r.db.Model(&models.BalanceReserve{}).
		Where("id = ? AND status = ?", id, models.ReserveStatusHeld).
		Updates(map[string]interface{}{
			"status":          models.ReserveStatusReleased,
			"released_at":     now,
			"released_amount": amount,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to release reserve: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReserveNotHeld
	}
	return nil
}

func (r *reserveRepository) CancelHeld(id uint) error {
	res := r.db.Model(&models.BalanceReserve{}).
		Where("id = ? AND status = ?", id, models.ReserveStatusHeld).
		Update("status", models.ReserveStatusCancelled)
	if res.Error != nil {
		return fmt.Errorf("failed to cancel reserve: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReserveNotHeld
	}
	return nil
}

func (r *reserveRepository) SumHeldByMerchant(merchantID uint) (float64, error) {
	var total float64
	err := r.db.Model(&models.BalanceReserve{}).
		Where("merchant_id = ? AND status = ?", merchantID, models.ReserveStatusHeld).
		Select("COALESCE(SUM(reserve_amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum held reserves: %w", err)
	}
	return total, nil
}

func (r *reserveRepository) ListByMerchant(merchantID uint, limit, offset int) ([]models.BalanceReserve, error) {
	var reserves []models.BalanceReserve
	err := r.db.Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reserves).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reserves: %w", err)
	}
	return reserves, nil
}
