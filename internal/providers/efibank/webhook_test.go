package efibank

import (
	"testing"

	"github.com/mourinha112/zucropay-sub000/internal/services/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePixBatch(t *testing.T) {
	payload := []byte(`{"pix":[{"txid":"tx_1","valor":"10.00"},{"txid":"tx_2","valor":"25.50"}]}`)

	events := NewNormalizer().Normalize(payload)

	require.Len(t, events, 2)
	assert.Equal(t, settlement.EventPaymentReceived, events[0].Kind)
	assert.Equal(t, "tx_1", events[0].ProviderPaymentID)
	assert.Equal(t, "tx_2", events[1].ProviderPaymentID)
}

func TestNormalizeEventoEnvelope(t *testing.T) {
	cases := []struct {
		evento string
		kind   settlement.EventKind
	}{
		{"cobranca_paga", settlement.EventPaymentReceived},
		{"cobranca_vencida", settlement.EventPaymentOverdue},
		{"cobranca_devolvida", settlement.EventPaymentRefunded},
	}

	for _, tc := range cases {
		t.Run(tc.evento, func(t *testing.T) {
			payload := []byte(`{"evento":"` + tc.evento + `","txid":"tx_7"}`)
			events := NewNormalizer().Normalize(payload)
			require.Len(t, events, 1)
			assert.Equal(t, tc.kind, events[0].Kind)
			assert.Equal(t, "tx_7", events[0].ProviderPaymentID)
		})
	}
}

func TestNormalizeTransferConcluded(t *testing.T) {
	payload := []byte(`{"evento":"transferencia_concluida","identificador":"wd_3"}`)
	events := NewNormalizer().Normalize(payload)
	require.Len(t, events, 1)
	assert.Equal(t, settlement.EventTransferFinished, events[0].Kind)
	assert.Equal(t, "wd_3", events[0].TransferID)
}

func TestNormalizeUnknownEvento(t *testing.T) {
	events := NewNormalizer().Normalize([]byte(`{"evento":"cobranca_criada"}`))
	require.Len(t, events, 1)
	assert.Equal(t, settlement.EventUnknown, events[0].Kind)
}
