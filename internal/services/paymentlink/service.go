// Package paymentlink manages reusable checkout links for merchant
// products.
package paymentlink

import (
	"context"
	"errors"
	"strings"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidBillingType = errors.New("invalid billing type")
	ErrInactiveLink       = errors.New("payment link is inactive")
	ErrNotOwner           = errors.New("payment link belongs to another merchant")
)

// Cache caches link lookups by slug for the public checkout path.
type Cache interface {
	GetPaymentLink(ctx context.Context, slug string) (*models.PaymentLink, error)
	SetPaymentLink(ctx context.Context, link *models.PaymentLink) error
	InvalidatePaymentLink(ctx context.Context, slug string) error
}

type CreateInput struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Amount          float64 `json:"amount"`
	BillingType     string  `json:"billing_type"`
	MaxInstallments int     `json:"max_installments"`
}

type Service struct {
	links repositories.PaymentLinkRepository
	cache Cache
}

func NewService(links repositories.PaymentLinkRepository, cache Cache) *Service {
	if links == nil {
		panic("payment link repository is required")
	}
	return &Service{links: links, cache: cache}
}

func (s *Service) Create(ctx context.Context, merchantID uint, input CreateInput) (*models.PaymentLink, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	switch input.BillingType {
	case models.BillingTypePix, models.BillingTypeBoleto:
		input.MaxInstallments = 1
	case models.BillingTypeCreditCard:
		if input.MaxInstallments < 1 {
			input.MaxInstallments = 1
		}
	default:
		return nil, ErrInvalidBillingType
	}

	link := &models.PaymentLink{
		MerchantID:      merchantID,
		Slug:            newSlug(),
		Name:            input.Name,
		Description:     input.Description,
		Amount:          input.Amount,
		BillingType:     input.BillingType,
		MaxInstallments: input.MaxInstallments,
		Active:          true,
	}
	if err := s.links.Create(link); err != nil {
		return nil, err
	}
	return link, nil
}

// GetActiveBySlug resolves a link for public checkout, cache first.
func (s *Service) GetActiveBySlug(ctx context.Context, slug string) (*models.PaymentLink, error) {
	if s.cache != nil {
		if link, err := s.cache.GetPaymentLink(ctx, slug); err == nil {
			if !link.Active {
				return nil, ErrInactiveLink
			}
			return link, nil
		}
	}

	link, err := s.links.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if !link.Active {
		return nil, ErrInactiveLink
	}

	if s.cache != nil {
		s.cache.SetPaymentLink(ctx, link)
	}
	return link, nil
}

func (s *Service) ListByMerchant(merchantID uint) ([]models.PaymentLink, error) {
	return s.links.ListByMerchant(merchantID)
}

func (s *Service) Deactivate(ctx context.Context, merchantID, linkID uint) error {
	link, err := s.links.GetByID(linkID)
	if err != nil {
		return err
	}
	if link.MerchantID != merchantID {
		return ErrNotOwner
	}
	if err := s.links.Deactivate(linkID); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidatePaymentLink(ctx, link.Slug)
	}
	return nil
}

func newSlug() string {
	return strings.Split(uuid.NewString(), "-")[0] + strings.Split(uuid.NewString(), "-")[1]
}
