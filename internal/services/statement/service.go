// Package statement builds merchant-facing statements from the
// transaction ledger and serves the operator reconciliation queue.
package statement

import (
	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/fees"
)

// Entry is one statement line, rounded for presentation.
type Entry struct {
	ID          uint        `json:"id"`
	Type        string      `json:"type"`
	Amount      float64     `json:"amount"`
	Status      string      `json:"status"`
	Description string      `json:"description"`
	Metadata    models.JSON `json:"metadata,omitempty"`
	CreatedAt   string      `json:"created_at"`
}

// Totals aggregates completed movements by type.
type Totals struct {
	Received  float64 `json:"received"`
	Fees      float64 `json:"fees"`
	Refunds   float64 `json:"refunds"`
	Withdrawn float64 `json:"withdrawn"`
	Released  float64 `json:"released"`
}

type Service struct {
	transactions repositories.TransactionRepository
	webhookLogs  repositories.WebhookLogRepository
}

func NewService(transactions repositories.TransactionRepository, webhookLogs repositories.WebhookLogRepository) *Service {
	if transactions == nil {
		panic("transaction repository is required")
	}
	if webhookLogs == nil {
		panic("webhook log repository is required")
	}
	return &Service{transactions: transactions, webhookLogs: webhookLogs}
}

// Statement lists completed ledger entries for the merchant. Only
// completed rows appear: a failed settlement must never show up in a
// merchant-facing view.
func (s *Service) Statement(merchantID uint, limit, offset int) ([]Entry, error) {
	txns, err := s.transactions.ListCompletedByMerchant(merchantID, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(txns))
	for _, t := range txns {
		entries = append(entries, Entry{
			ID:          t.ID,
			Type:        t.Type,
			Amount:      fees.Round2(t.Amount),
			Status:      t.Status,
			Description: t.Description,
			Metadata:    t.Metadata,
			CreatedAt:   t.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return entries, nil
}

// Totals sums completed movements by type for the merchant dashboard.
func (s *Service) Totals(merchantID uint) (Totals, error) {
	var (
		totals Totals
		err    error
	)
	read := func(txType string) float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = s.transactions.SumCompletedByType(merchantID, txType)
		return v
	}

	totals.Received = fees.Round2(read(models.TransactionTypePaymentReceived))
	totals.Fees = fees.Round2(read(models.TransactionTypePlatformFee))
	totals.Refunds = fees.Round2(read(models.TransactionTypeRefund))
	totals.Withdrawn = fees.Round2(read(models.TransactionTypeWithdrawalRequest))
	totals.Released = fees.Round2(read(models.TransactionTypeReserveRelease))
	if err != nil {
		return Totals{}, err
	}
	return totals, nil
}

// UnprocessedWebhooks lists deliveries that failed settlement and wait
// for operator review (admin operation).
func (s *Service) UnprocessedWebhooks(limit int) ([]models.WebhookLog, error) {
	return s.webhookLogs.ListUnprocessed(limit)
}
