// Package charge initiates charges against the payment providers and
// records the local PENDING payment the webhook settlement later
// resolves.
package charge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/providers/asaas"
	"github.com/mourinha112/zucropay-sub000/internal/providers/efibank"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/card"
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidBillingType  = errors.New("invalid billing type")
	ErrTooManyInstallments = errors.New("installments exceed the link limit")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// AsaasAPI is the slice of the Asaas client the charge path needs.
type AsaasAPI interface {
	CreateCustomer(ctx context.Context, name, cpfCnpj string) (*asaas.Customer, error)
	CreateCharge(ctx context.Context, req asaas.ChargeRequest) (*asaas.Charge, error)
	GetPixQRCode(ctx context.Context, chargeID string) (*asaas.PixQRCode, error)
}

// EfiAPI is the slice of the EfiBank client the charge path needs.
type EfiAPI interface {
	CreatePixCharge(ctx context.Context, value float64, payerName, payerDoc, description string) (*efibank.Charge, error)
}

type CreateInput struct {
	Amount       float64     `json:"amount"`
	BillingType  string      `json:"billing_type"`
	Installments int         `json:"installments"`
	CustomerName string      `json:"customer_name"`
	CustomerDoc  string      `json:"customer_doc"`
	Description  string      `json:"description"`
	Card         *card.Input `json:"card,omitempty"`
}

// Result is what checkout needs to finish the payment: the local
// record plus PIX copy-paste / QR data when applicable.
type Result struct {
	Payment    *models.Payment `json:"payment"`
	PixPayload string          `json:"pix_payload,omitempty"`
	PixQRCode  string          `json:"pix_qr_code,omitempty"`
	InvoiceURL string          `json:"invoice_url,omitempty"`
}

type Service struct {
	payments repositories.PaymentRepository
	asaas    AsaasAPI
	efi      EfiAPI
	cards    card.Service
}

func NewService(payments repositories.PaymentRepository, asaasClient AsaasAPI, efiClient EfiAPI, cards card.Service) *Service {
	if payments == nil {
		panic("payment repository is required")
	}
	return &Service{payments: payments, asaas: asaasClient, efi: efiClient, cards: cards}
}

// CreateFromLink creates a charge for a public payment link checkout.
func (s *Service) CreateFromLink(ctx context.Context, link *models.PaymentLink, input CreateInput) (*Result, error) {
	input.Amount = link.Amount
	input.BillingType = link.BillingType
	if input.Installments > link.MaxInstallments {
		return nil, ErrTooManyInstallments
	}
	result, err := s.Create(ctx, link.MerchantID, input)
	if err != nil {
		return nil, err
	}
	result.Payment.PaymentLinkID = &link.ID
	if err := s.payments.Create(result.Payment); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateDirect creates a charge initiated by the merchant API and
// persists the pending payment.
func (s *Service) CreateDirect(ctx context.Context, merchantID uint, input CreateInput) (*Result, error) {
	result, err := s.Create(ctx, merchantID, input)
	if err != nil {
		return nil, err
	}
	if err := s.payments.Create(result.Payment); err != nil {
		return nil, err
	}
	return result, nil
}

// Create builds the provider charge and the unsaved local payment.
// PIX goes to EfiBank when configured, falling back to Asaas; boleto
// and card always go to Asaas.
func (s *Service) Create(ctx context.Context, merchantID uint, input CreateInput) (*Result, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.Installments < 1 {
		input.Installments = 1
	}

	switch input.BillingType {
	case models.BillingTypePix:
		if s.efi != nil {
			return s.createEfiPix(ctx, merchantID, input)
		}
		return s.createAsaas(ctx, merchantID, input, "")
	case models.BillingTypeBoleto:
		return s.createAsaas(ctx, merchantID, input, "")
	case models.BillingTypeCreditCard:
		if input.Card == nil {
			return nil, ErrInvalidBillingType
		}
		if s.cards == nil {
			return nil, ErrProviderUnavailable
		}
		tokenized, err := s.cards.Tokenize(*input.Card)
		if err != nil {
			return nil, err
		}
		return s.createAsaas(ctx, merchantID, input, tokenized.Token)
	default:
		return nil, ErrInvalidBillingType
	}
}

func (s *Service) createEfiPix(ctx context.Context, merchantID uint, input CreateInput) (*Result, error) {
	pixCharge, err := s.efi.CreatePixCharge(ctx, input.Amount, input.CustomerName, input.CustomerDoc, input.Description)
	if err != nil {
		return nil, fmt.Errorf("efibank charge failed: %w", err)
	}

	return &Result{
		Payment: &models.Payment{
			Provider:     models.ProviderEfiBank,
			ProviderID:   pixCharge.TxID,
			MerchantID:   merchantID,
			GrossValue:   input.Amount,
			BillingType:  models.BillingTypePix,
			Installments: 1,
			Status:       models.PaymentStatusPending,
			CustomerName: input.CustomerName,
			CustomerDoc:  input.CustomerDoc,
		},
		PixPayload: pixCharge.CopyPaste,
	}, nil
}

func (s *Service) createAsaas(ctx context.Context, merchantID uint, input CreateInput, cardToken string) (*Result, error) {
	if s.asaas == nil {
		return nil, ErrProviderUnavailable
	}

	customer, err := s.asaas.CreateCustomer(ctx, input.CustomerName, input.CustomerDoc)
	if err != nil {
		return nil, fmt.Errorf("asaas customer failed: %w", err)
	}

	charge, err := s.asaas.CreateCharge(ctx, asaas.ChargeRequest{
		Customer:         customer.ID,
		BillingType:      input.BillingType,
		Value:            input.Amount,
		DueDate:          time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
		Description:      input.Description,
		InstallmentCount: input.Installments,
		CreditCardToken:  cardToken,
	})
	if err != nil {
		return nil, fmt.Errorf("asaas charge failed: %w", err)
	}

	result := &Result{
		Payment: &models.Payment{
			Provider:     models.ProviderAsaas,
			ProviderID:   charge.ID,
			MerchantID:   merchantID,
			GrossValue:   input.Amount,
			BillingType:  input.BillingType,
			Installments: input.Installments,
			Status:       models.PaymentStatusPending,
			CustomerName: input.CustomerName,
			CustomerDoc:  input.CustomerDoc,
		},
		InvoiceURL: charge.InvoiceURL,
	}

	if input.BillingType == models.BillingTypePix {
		if qr, err := s.asaas.GetPixQRCode(ctx, charge.ID); err == nil {
			result.PixPayload = qr.Payload
			result.PixQRCode = qr.EncodedImage
		}
	}

	return result, nil
}
