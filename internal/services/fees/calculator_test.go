package fees

import (
	"testing"

	"github.com/mourinha112/zucropay-sub000/internal/models"

	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-9

func ptr(v float64) *float64 { return &v }

func TestComputeSettlement_PixDefaults(t *testing.T) {
	s := ComputeSettlement(100.00, models.BillingTypePix, 1, nil)

	assert.InDelta(t, 8.49, s.PlatformFee, tolerance)
	assert.InDelta(t, 91.51, s.ValueAfterFees, tolerance)
	assert.InDelta(t, 4.5755, s.ReserveAmount, tolerance)
	assert.InDelta(t, 86.9345, s.NetAmount, tolerance)
}

func TestComputeSettlement_CardInstallments(t *testing.T) {
	s := ComputeSettlement(300.00, models.BillingTypeCreditCard, 3, nil)

	assert.InDelta(t, 40.38, s.PlatformFee, tolerance)
	assert.InDelta(t, 259.62, s.ValueAfterFees, tolerance)
	assert.InDelta(t, 12.981, s.ReserveAmount, tolerance)
	assert.InDelta(t, 246.639, s.NetAmount, tolerance)
}

func TestComputeSettlement_CustomPixRate(t *testing.T) {
	rates := &models.CustomRate{PixRate: ptr(3.5)}
	s := ComputeSettlement(200.00, models.BillingTypePix, 1, rates)

	assert.InDelta(t, 9.50, s.PlatformFee, tolerance)
	assert.InDelta(t, 190.50, s.ValueAfterFees, tolerance)
	assert.InDelta(t, 9.525, s.ReserveAmount, tolerance)
	assert.InDelta(t, 180.975, s.NetAmount, tolerance)
}

func TestComputeSettlement_PartialOverrideFallsBackPerField(t *testing.T) {
	// Only the PIX rate is overridden; fixed fee and card rates keep
	// the platform defaults.
	rates := &models.CustomRate{PixRate: ptr(3.5)}

	pix := ComputeSettlement(100.00, models.BillingTypePix, 1, rates)
	assert.InDelta(t, 100*0.035+2.50, pix.PlatformFee, tolerance)

	card := ComputeSettlement(100.00, models.BillingTypeCreditCard, 1, rates)
	assert.InDelta(t, 100*0.0599+100*0.0249, card.PlatformFee, tolerance)
}

func TestComputeSettlement_BelowFixedFeeThreshold(t *testing.T) {
	s := ComputeSettlement(4.99, models.BillingTypePix, 1, nil)
	assert.InDelta(t, 4.99*0.0599, s.PlatformFee, tolerance)
}

func TestComputeSettlement_BoletoCarriesFixedFee(t *testing.T) {
	s := ComputeSettlement(50.00, models.BillingTypeBoleto, 1, nil)
	assert.InDelta(t, 50*0.0599+2.50, s.PlatformFee, tolerance)
}

func TestComputeSettlement_ZeroAndNegativeGross(t *testing.T) {
	for _, gross := range []float64{0, -5} {
		s := ComputeSettlement(gross, models.BillingTypePix, 1, nil)
		assert.Equal(t, Settlement{}, s)
	}
}

func TestComputeSettlement_FeeCap(t *testing.T) {
	// 12 installments at a high custom rate would exceed half the
	// gross value without the cap.
	rates := &models.CustomRate{CardRate: ptr(10.0), InstallmentFee: ptr(8.0)}
	s := ComputeSettlement(100.00, models.BillingTypeCreditCard, 12, rates)

	assert.InDelta(t, 50.00, s.PlatformFee, tolerance)
	assert.InDelta(t, 50.00, s.ValueAfterFees, tolerance)
}

func TestComputeSettlement_Deterministic(t *testing.T) {
	a := ComputeSettlement(123.45, models.BillingTypeCreditCard, 6, nil)
	b := ComputeSettlement(123.45, models.BillingTypeCreditCard, 6, nil)
	assert.Equal(t, a, b)
}

func TestComputeSettlement_Conservation(t *testing.T) {
	cases := []struct {
		gross        float64
		billingType  string
		installments int
	}{
		{100.00, models.BillingTypePix, 1},
		{300.00, models.BillingTypeCreditCard, 3},
		{19.90, models.BillingTypeBoleto, 1},
		{4.50, models.BillingTypePix, 1},
		{1250.75, models.BillingTypeCreditCard, 10},
	}

	for _, tc := range cases {
		s := ComputeSettlement(tc.gross, tc.billingType, tc.installments, nil)

		assert.GreaterOrEqual(t, s.PlatformFee, 0.0)
		assert.GreaterOrEqual(t, s.ReserveAmount, 0.0)
		assert.GreaterOrEqual(t, s.NetAmount, 0.0)
		assert.LessOrEqual(t, s.PlatformFee, tc.gross*FeeCapRatio+tolerance)

		if s.PlatformFee < tc.gross*FeeCapRatio {
			total := s.PlatformFee + s.ReserveAmount + s.NetAmount
			assert.InDelta(t, tc.gross, total, 1e-6, "gross=%v", tc.gross)
		}
	}
}

func TestComputeSettlement_InstallmentsFloor(t *testing.T) {
	// Zero or negative installments are treated as a single one.
	a := ComputeSettlement(100, models.BillingTypeCreditCard, 0, nil)
	b := ComputeSettlement(100, models.BillingTypeCreditCard, 1, nil)
	assert.Equal(t, b, a)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 86.93, Round2(86.9345))
	assert.Equal(t, 246.64, Round2(246.639))
	assert.Equal(t, 0.0, Round2(0))
}
