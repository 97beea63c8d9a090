package asaas

import (
	"testing"

	"github.com/mourinha112/zucropay-sub000/internal/services/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePaymentEvents(t *testing.T) {
	cases := []struct {
		event string
		kind  settlement.EventKind
	}{
		{"PAYMENT_RECEIVED", settlement.EventPaymentReceived},
		{"PAYMENT_CONFIRMED", settlement.EventPaymentReceived},
		{"PAYMENT_OVERDUE", settlement.EventPaymentOverdue},
		{"PAYMENT_REFUNDED", settlement.EventPaymentRefunded},
	}

	for _, tc := range cases {
		t.Run(tc.event, func(t *testing.T) {
			payload := []byte(`{"event":"` + tc.event + `","payment":{"id":"pay_123"}}`)
			events := NewNormalizer().Normalize(payload)
			require.Len(t, events, 1)
			assert.Equal(t, tc.kind, events[0].Kind)
			assert.Equal(t, "pay_123", events[0].ProviderPaymentID)
			assert.Equal(t, tc.event, events[0].RawType)
		})
	}
}

func TestNormalizeTransferDone(t *testing.T) {
	payload := []byte(`{"event":"TRANSFER_DONE","transfer":{"id":"tr_9"}}`)
	events := NewNormalizer().Normalize(payload)
	require.Len(t, events, 1)
	assert.Equal(t, settlement.EventTransferFinished, events[0].Kind)
	assert.Equal(t, "tr_9", events[0].TransferID)
}

func TestNormalizeUnknownEvent(t *testing.T) {
	events := NewNormalizer().Normalize([]byte(`{"event":"PAYMENT_UPDATED","payment":{"id":"pay_1"}}`))
	require.Len(t, events, 1)
	assert.Equal(t, settlement.EventUnknown, events[0].Kind)
}

func TestNormalizeMalformedPayload(t *testing.T) {
	events := NewNormalizer().Normalize([]byte(`garbage`))
	require.Len(t, events, 1)
	assert.Equal(t, settlement.EventUnknown, events[0].Kind)
}
