// Package merchant exposes merchant account reads, approval and
// custom-rate administration. Balance fields are read here but only
// written by the ledger service.
package merchant

import (
	"context"
	"errors"
	"fmt"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/fees"
)

var ErrNotApproved = errors.New("merchant is not approved")

// Cache is the merchant read cache (redis in production).
type Cache interface {
	GetMerchant(ctx context.Context, id uint) (*models.Merchant, error)
	SetMerchant(ctx context.Context, m *models.Merchant) error
	InvalidateMerchant(ctx context.Context, id uint) error
}

// BalanceSummary is the merchant-facing funds view, rounded to
// currency precision at this presentation boundary.
type BalanceSummary struct {
	Balance         float64 `json:"balance"`
	ReservedBalance float64 `json:"reserved_balance"`
	HeldReserves    float64 `json:"held_reserves"`
	TotalFunds      float64 `json:"total_funds"`
}

type RateInput struct {
	PixRate        *float64 `json:"pix_rate"`
	CardRate       *float64 `json:"card_rate"`
	BoletoRate     *float64 `json:"boleto_rate"`
	FixedFee       *float64 `json:"fixed_fee"`
	InstallmentFee *float64 `json:"installment_fee"`
}

type Service struct {
	merchants repositories.MerchantRepository
	reserves  repositories.ReserveRepository
	cache     Cache
}

func NewService(merchants repositories.MerchantRepository, reserves repositories.ReserveRepository, cache Cache) *Service {
	if merchants == nil {
		panic("merchant repository is required")
	}
	if reserves == nil {
		panic("reserve repository is required")
	}
	return &Service{merchants: merchants, reserves: reserves, cache: cache}
}

// Get returns the merchant, trying the cache first.
func (s *Service) Get(ctx context.Context, id uint) (*models.Merchant, error) {
	if s.cache != nil {
		if m, err := s.cache.GetMerchant(ctx, id); err == nil {
			return m, nil
		}
	}

	m, err := s.merchants.GetByID(id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetMerchant(ctx, m)
	}
	return m, nil
}

// BalanceSummary returns the merchant's funds split, with the held
// reserve total from the reserve rows for reconciliation against
// ReservedBalance.
func (s *Service) BalanceSummary(ctx context.Context, id uint) (BalanceSummary, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return BalanceSummary{}, err
	}

	held, err := s.reserves.SumHeldByMerchant(id)
	if err != nil {
		return BalanceSummary{}, fmt.Errorf("failed to sum reserves: %w", err)
	}

	return BalanceSummary{
		Balance:         fees.Round2(m.Balance),
		ReservedBalance: fees.Round2(m.ReservedBalance),
		HeldReserves:    fees.Round2(held),
		TotalFunds:      fees.Round2(m.Balance + m.ReservedBalance),
	}, nil
}

// UpdateWebhook sets the merchant's outbound webhook endpoint.
func (s *Service) UpdateWebhook(ctx context.Context, id uint, url string) error {
	m, err := s.merchants.GetByID(id)
	if err != nil {
		return err
	}
	m.WebhookURL = url
	m.WebhookFailCount = 0
	if err := s.merchants.Update(m); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateMerchant(ctx, id)
	}
	return nil
}

// UpdatePixKey sets the merchant's PIX payout destination.
func (s *Service) UpdatePixKey(ctx context.Context, id uint, key string) error {
	m, err := s.merchants.GetByID(id)
	if err != nil {
		return err
	}
	m.PixKey = key
	if err := s.merchants.Update(m); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateMerchant(ctx, id)
	}
	return nil
}

// Approve activates a pending merchant (admin operation).
func (s *Service) Approve(ctx context.Context, id uint) error {
	return s.setStatus(ctx, id, models.MerchantStatusActive)
}

// Reject marks a pending merchant rejected (admin operation).
func (s *Service) Reject(ctx context.Context, id uint) error {
	return s.setStatus(ctx, id, models.MerchantStatusRejected)
}

func (s *Service) setStatus(ctx context.Context, id uint, status string) error {
	m, err := s.merchants.GetByID(id)
	if err != nil {
		return err
	}
	m.Status = status
	if err := s.merchants.Update(m); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateMerchant(ctx, id)
	}
	return nil
}

// ListPending returns merchants waiting for approval (admin operation).
func (s *Service) ListPending() ([]models.Merchant, error) {
	return s.merchants.ListByStatus(models.MerchantStatusPending)
}

// SetCustomRate upserts the merchant's fee override (admin operation).
// Nil fields keep falling back to platform defaults in the calculator.
func (s *Service) SetCustomRate(ctx context.Context, merchantID uint, input RateInput) (*models.CustomRate, error) {
	if _, err := s.merchants.GetByID(merchantID); err != nil {
		return nil, err
	}
	rate := &models.CustomRate{
		MerchantID:     merchantID,
		PixRate:        input.PixRate,
		CardRate:       input.CardRate,
		BoletoRate:     input.BoletoRate,
		FixedFee:       input.FixedFee,
		InstallmentFee: input.InstallmentFee,
	}
	if err := s.merchants.UpsertCustomRate(rate); err != nil {
		return nil, err
	}
	return rate, nil
}

// GetCustomRate returns the merchant's override, or nil when the
// merchant runs on platform defaults.
func (s *Service) GetCustomRate(merchantID uint) (*models.CustomRate, error) {
	rate, err := s.merchants.GetCustomRate(merchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrCustomRateNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rate, nil
}
