// Package fees computes the platform's settlement math: fee, reserve
// hold and net payout for a confirmed charge. All functions are pure.
package fees

import (
	"math"

	"github.com/mourinha112/zucropay-sub000/internal/models"
)

// Platform defaults, used whenever a merchant has no custom rate or a
// custom rate leaves a field unset. Percentages are expressed the way
// administrators enter them (5.99 means 5.99%).
const (
	DefaultRatePercent        = 5.99
	DefaultFixedFee           = 2.50
	DefaultInstallmentPercent = 2.49

	// FixedFeeMinimum is the smallest gross value that carries the flat
	// fee for PIX/boleto; charges below it pay only the percentage.
	FixedFeeMinimum = 5.00

	// FeeCapRatio bounds the platform fee at half the gross value, so
	// misconfigured rates can never consume the whole charge.
	FeeCapRatio = 0.5

	// ReserveRatio is the share of the post-fee value held back as a
	// chargeback buffer.
	ReserveRatio = 0.05
)

// Settlement is the full fee breakdown for one charge.
// PlatformFee + ReserveAmount + NetAmount adds back up to the gross
// value whenever the fee cap was not hit.
type Settlement struct {
	PlatformFee    float64 `json:"platform_fee"`
	ValueAfterFees float64 `json:"value_after_fees"`
	ReserveAmount  float64 `json:"reserve_amount"`
	NetAmount      float64 `json:"net_amount"`
}

// ComputeSettlement derives the fee, reserve and net payout for a gross
// charge value. rates may be nil, meaning platform defaults; a partial
// override falls back to defaults field by field. Non-positive gross
// returns a zero settlement rather than an error: callers should never
// pass one, but a bad provider payload must not crash the webhook path.
func ComputeSettlement(gross float64, billingType string, installments int, rates *models.CustomRate) Settlement {
	if gross <= 0 {
		return Settlement{}
	}
	if installments < 1 {
		installments = 1
	}

	fee := gross * baseRate(billingType, rates) / 100

	if billingType == models.BillingTypeCreditCard {
		fee += gross * installmentRate(rates) / 100 * float64(installments)
	} else if gross >= FixedFeeMinimum {
		fee += fixedFee(rates)
	}

	if cap := gross * FeeCapRatio; fee > cap {
		fee = cap
	}

	valueAfterFees := math.Max(0, gross-fee)
	reserve := valueAfterFees * ReserveRatio
	net := math.Max(0, valueAfterFees-reserve)

	return Settlement{
		PlatformFee:    fee,
		ValueAfterFees: valueAfterFees,
		ReserveAmount:  reserve,
		NetAmount:      net,
	}
}

func baseRate(billingType string, rates *models.CustomRate) float64 {
	if rates == nil {
		return DefaultRatePercent
	}
	switch billingType {
	case models.BillingTypePix:
		return orDefault(rates.PixRate, DefaultRatePercent)
	case models.BillingTypeCreditCard:
		return orDefault(rates.CardRate, DefaultRatePercent)
	case models.BillingTypeBoleto:
		return orDefault(rates.BoletoRate, DefaultRatePercent)
	default:
		return DefaultRatePercent
	}
}

func installmentRate(rates *models.CustomRate) float64 {
	if rates == nil {
		return DefaultInstallmentPercent
	}
	return orDefault(rates.InstallmentFee, DefaultInstallmentPercent)
}

func fixedFee(rates *models.CustomRate) float64 {
	if rates == nil {
		return DefaultFixedFee
	}
	return orDefault(rates.FixedFee, DefaultFixedFee)
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Round2 rounds a monetary value to currency precision. Settlement
// math keeps full precision internally; rounding happens only where
// values are presented.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
