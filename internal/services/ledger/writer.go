package ledger

import (
	"fmt"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/fees"
)

// The writer functions append audit entries for every monetary
// movement. Entries are self-contained: metadata carries the payment,
// reserve and provider identifiers plus the fee breakdown, so a
// disputed balance can be reconstructed from the log alone.

// WritePaymentReceivedTx appends the settlement pair: a gross credit
// annotated with the fee breakdown, and the platform fee debit.
func WritePaymentReceivedTx(tx repositories.Store, payment *models.Payment, s fees.Settlement) error {
	meta := models.JSON{
		"payment_id":       payment.ID,
		"provider":         payment.Provider,
		"provider_id":      payment.ProviderID,
		"billing_type":     payment.BillingType,
		"installments":     payment.Installments,
		"gross_value":      payment.GrossValue,
		"platform_fee":     s.PlatformFee,
		"reserve_amount":   s.ReserveAmount,
		"net_amount":       s.NetAmount,
		"value_after_fees": s.ValueAfterFees,
	}

	credit := &models.Transaction{
		MerchantID:  payment.MerchantID,
		Type:        models.TransactionTypePaymentReceived,
		Amount:      payment.GrossValue,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Payment %s received via %s", payment.ProviderID, payment.BillingType),
		Metadata:    meta,
	}
	if err := tx.Transactions().Create(credit); err != nil {
		return err
	}

	fee := &models.Transaction{
		MerchantID:  payment.MerchantID,
		Type:        models.TransactionTypePlatformFee,
		Amount:      -s.PlatformFee,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Platform fee for payment %s", payment.ProviderID),
		Metadata:    meta,
	}
	return tx.Transactions().Create(fee)
}

// WriteRefundTx appends the reversal entry for a refunded payment.
func WriteRefundTx(tx repositories.Store, payment *models.Payment) error {
	return tx.Transactions().Create(&models.Transaction{
		MerchantID:  payment.MerchantID,
		Type:        models.TransactionTypeRefund,
		Amount:      -payment.GrossValue,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Refund of payment %s", payment.ProviderID),
		Metadata: models.JSON{
			"payment_id":  payment.ID,
			"provider":    payment.Provider,
			"provider_id": payment.ProviderID,
			"gross_value": payment.GrossValue,
		},
	})
}

// WriteReserveReleaseTx appends the credit entry for a matured reserve.
func WriteReserveReleaseTx(tx repositories.Store, reserve *models.BalanceReserve) error {
	return tx.Transactions().Create(&models.Transaction{
		MerchantID:  reserve.MerchantID,
		Type:        models.TransactionTypeReserveRelease,
		Amount:      reserve.ReserveAmount,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Reserve release for payment %d", reserve.PaymentID),
		Metadata: models.JSON{
			"reserve_id":      reserve.ID,
			"payment_id":      reserve.PaymentID,
			"original_amount": reserve.OriginalAmount,
			"reserve_amount":  reserve.ReserveAmount,
			"release_date":    reserve.ReleaseDate,
		},
	})
}

// WriteWithdrawalTx appends the pending withdrawal entry plus its fee
// debit and returns the withdrawal entry for later completion.
func WriteWithdrawalTx(tx repositories.Store, merchantID uint, amount, fee float64, reference string) (*models.Transaction, error) {
	withdrawal := &models.Transaction{
		MerchantID:  merchantID,
		Type:        models.TransactionTypeWithdrawalRequest,
		Amount:      -amount,
		Status:      models.TransactionStatusPending,
		Description: "Withdrawal request",
		Reference:   reference,
		Metadata:    models.JSON{"withdrawal_fee": fee},
	}
	if err := tx.Transactions().Create(withdrawal); err != nil {
		return nil, err
	}
	if fee > 0 {
		feeEntry := &models.Transaction{
			MerchantID:  merchantID,
			Type:        models.TransactionTypeWithdrawalFee,
			Amount:      -fee,
			Status:      models.TransactionStatusCompleted,
			Description: "Withdrawal fee",
			Reference:   reference,
		}
		if err := tx.Transactions().Create(feeEntry); err != nil {
			return nil, err
		}
	}
	return withdrawal, nil
}
