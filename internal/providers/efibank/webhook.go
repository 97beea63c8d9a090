package efibank

import (
	"encoding/json"

	"github.com/mourinha112/zucropay-sub000/internal/services/settlement"
)

// EfiBank delivers two payload shapes: PIX confirmations arrive
// batched in a "pix" array keyed by txid, and charge/transfer events
// arrive as a flat "evento" envelope.
type webhookPayload struct {
	Pix []struct {
		TxID  string `json:"txid"`
		Valor string `json:"valor"`
	} `json:"pix"`
	Evento string `json:"evento"`
	TxID   string `json:"txid"`
	ID     string `json:"identificador"`
}

// Normalizer maps EfiBank webhook vocabulary to the internal taxonomy.
type Normalizer struct{}

func NewNormalizer() Normalizer { return Normalizer{} }

func (Normalizer) Normalize(payload []byte) []settlement.Event {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return []settlement.Event{{Kind: settlement.EventUnknown}}
	}

	if len(body.Pix) > 0 {
		events := make([]settlement.Event, 0, len(body.Pix))
		for _, pix := range body.Pix {
			events = append(events, settlement.Event{
				Kind:              settlement.EventPaymentReceived,
				ProviderPaymentID: pix.TxID,
				RawType:           "pix",
			})
		}
		return events
	}

	event := settlement.Event{
		Kind:              settlement.EventUnknown,
		ProviderPaymentID: body.TxID,
		RawType:           body.Evento,
	}

	switch body.Evento {
	case "cobranca_paga":
		event.Kind = settlement.EventPaymentReceived
	case "cobranca_vencida":
		event.Kind = settlement.EventPaymentOverdue
	case "cobranca_devolvida":
		event.Kind = settlement.EventPaymentRefunded
	case "transferencia_concluida":
		event.Kind = settlement.EventTransferFinished
		event.TransferID = body.ID
	}

	return []settlement.Event{event}
}
