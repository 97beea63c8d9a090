package merchant

import (
	"context"
	"testing"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store *memory.Store) *Service {
	return NewService(store.Merchants(), store.Reserves(), nil)
}

func TestBalanceSummaryRoundsForPresentation(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{
		Email:           "m@shop.dev",
		Balance:         86.9345,
		ReservedBalance: 4.5755,
	})
	store.SeedReserve(models.BalanceReserve{
		MerchantID:    merchant.ID,
		PaymentID:     1,
		ReserveAmount: 4.5755,
		Status:        models.ReserveStatusHeld,
		ReleaseDate:   time.Now().Add(24 * time.Hour),
	})

	summary, err := newTestService(store).BalanceSummary(context.Background(), merchant.ID)
	require.NoError(t, err)

	// Full precision lives in the ledger; the summary shows cents.
	assert.Equal(t, 86.93, summary.Balance)
	assert.Equal(t, 4.58, summary.ReservedBalance)
	assert.Equal(t, 4.58, summary.HeldReserves)
	assert.Equal(t, 91.51, summary.TotalFunds)
}

func TestApproveActivatesMerchant(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev", Status: models.MerchantStatusPending})
	svc := newTestService(store)

	pending, err := svc.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, svc.Approve(context.Background(), merchant.ID))

	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MerchantStatusActive, m.Status)

	pending, err = svc.ListPending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSetCustomRatePartialOverride(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})
	svc := newTestService(store)

	pixRate := 3.5
	rate, err := svc.SetCustomRate(context.Background(), merchant.ID, RateInput{PixRate: &pixRate})
	require.NoError(t, err)

	require.NotNil(t, rate.PixRate)
	assert.Equal(t, 3.5, *rate.PixRate)
	// Unset fields stay nil so the calculator falls back per field.
	assert.Nil(t, rate.CardRate)
	assert.Nil(t, rate.FixedFee)

	// Upsert replaces the previous override.
	cardRate := 4.0
	rate, err = svc.SetCustomRate(context.Background(), merchant.ID, RateInput{CardRate: &cardRate})
	require.NoError(t, err)
	assert.Nil(t, rate.PixRate)
	require.NotNil(t, rate.CardRate)

	stored, err := svc.GetCustomRate(merchant.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Nil(t, stored.PixRate)
}

func TestGetCustomRateAbsentReturnsNil(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{Email: "m@shop.dev"})

	rate, err := newTestService(store).GetCustomRate(merchant.ID)
	require.NoError(t, err)
	assert.Nil(t, rate)
}

func TestUpdateWebhookResetsFailureCount(t *testing.T) {
	store := memory.NewStore()
	merchant := store.SeedMerchant(models.Merchant{
		Email:            "m@shop.dev",
		WebhookURL:       "https://old.example.com/hook",
		WebhookFailCount: 7,
	})

	err := newTestService(store).UpdateWebhook(context.Background(), merchant.ID, "https://new.example.com/hook")
	require.NoError(t, err)

	m, err := store.Merchants().GetByID(merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com/hook", m.WebhookURL)
	assert.Zero(t, m.WebhookFailCount)
}
