package repositories

import (
	"errors"
	"fmt"

	"github.com/mourinha112/zucropay-sub000/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(t *models.Transaction) error
	GetByID(id uint) (*models.Transaction, error)
	ListByMerchant(merchantID uint, limit, offset int) ([]models.Transaction, error)
	ListCompletedByMerchant(merchantID uint, limit, offset int) ([]models.Transaction, error)
	// CompletePending and FailPending move a pending entry exactly once;
	// a completed row never changes again.
	CompletePending(id uint) error
	FailPending(id uint) error
	// CompletePendingByReference resolves an outbound transfer by its
	// provider reference when the TRANSFER_FINISHED webhook arrives.
	CompletePendingByReference(reference string) error
	// UpdatePendingReference swaps the internal reference for the
	// provider's transfer id once the payout is initiated.
	UpdatePendingReference(id uint, reference string) error
	SumCompletedByType(merchantID uint, txType string) (float64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(t *models.Transaction) error {
	if err := r.db.Create(t).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTxnNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}

func (r *transactionRepository) ListByMerchant(merchantID uint, limit, offset int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

func (r *transactionRepository) ListCompletedByMerchant(merchantID uint, limit, offset int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Where("merchant_id = ? AND status = ?", merchantID, models.TransactionStatusCompleted).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed transactions: %w", err)
	}
	return txns, nil
}

func (r *transactionRepository) CompletePending(id uint) error {
	return r.transitionPending(r.db.Where("id = ?", id), models.TransactionStatusCompleted)
}

func (r *transactionRepository) FailPending(id uint) error {
	return r.transitionPending(r.db.Where("id = ?", id), models.TransactionStatusFailed)
}

func (r *transactionRepository) CompletePendingByReference(reference string) error {
	return r.transitionPending(r.db.Where("reference = ?", reference), models.TransactionStatusCompleted)
}

func (r *transactionRepository) UpdatePendingReference(id uint, reference string) error {
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Update("reference", reference)
	if res.Error != nil {
		return fmt.Errorf("failed to update transaction reference: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTxnNotPending
	}
	return nil
}

func (r *transactionRepository) transitionPending(scope *gorm.DB, to string) error {
	res := scope.Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusPending).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to transition transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTxnNotPending
	}
	return nil
}

func (r *transactionRepository) SumCompletedByType(merchantID uint, txType string) (float64, error) {
	var total float64
	err := r.db.Model(&models.Transaction{}).
		Where("merchant_id = ? AND type = ? AND status = ?", merchantID, txType, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}
