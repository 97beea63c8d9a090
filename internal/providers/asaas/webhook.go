package asaas

import (
	"encoding/json"

	"github.com/mourinha112/zucropay-sub000/internal/services/settlement"
)

// webhookPayload is the envelope Asaas posts: an event string plus a
// nested payment or transfer object.
type webhookPayload struct {
	Event   string `json:"event"`
	Payment *struct {
		ID string `json:"id"`
	} `json:"payment"`
	Transfer *struct {
		ID string `json:"id"`
	} `json:"transfer"`
}

// Normalizer maps Asaas webhook vocabulary to the internal taxonomy.
type Normalizer struct{}

func NewNormalizer() Normalizer { return Normalizer{} }

func (Normalizer) Normalize(payload []byte) []settlement.Event {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return []settlement.Event{{Kind: settlement.EventUnknown}}
	}

	event := settlement.Event{Kind: settlement.EventUnknown, RawType: body.Event}
	if body.Payment != nil {
		event.ProviderPaymentID = body.Payment.ID
	}
	if body.Transfer != nil {
		event.TransferID = body.Transfer.ID
	}

	switch body.Event {
	case "PAYMENT_RECEIVED", "PAYMENT_CONFIRMED":
		event.Kind = settlement.EventPaymentReceived
	case "PAYMENT_OVERDUE":
		event.Kind = settlement.EventPaymentOverdue
	case "PAYMENT_REFUNDED":
		event.Kind = settlement.EventPaymentRefunded
	case "TRANSFER_DONE", "TRANSFER_FINISHED":
		event.Kind = settlement.EventTransferFinished
	}

	return []settlement.Event{event}
}
