package settlement

// EventKind is the internal event taxonomy. Provider-specific
// vocabularies are normalized into it before any business logic runs.
type EventKind string

const (
	EventPaymentReceived  EventKind = "RECEIVED"
	EventPaymentOverdue   EventKind = "OVERDUE"
	EventPaymentRefunded  EventKind = "REFUNDED"
	EventTransferFinished EventKind = "TRANSFER_FINISHED"
	EventUnknown          EventKind = "UNKNOWN"
)

// Event is one normalized provider notification. A single webhook
// body may carry several (EfiBank batches PIX confirmations).
type Event struct {
	Kind EventKind
	// ProviderPaymentID identifies the charge at the provider for
	// payment events.
	ProviderPaymentID string
	// TransferID identifies the outbound transfer for transfer events.
	TransferID string
	// RawType preserves the provider's own event string for the audit
	// trail.
	RawType string
}

// Normalizer maps one provider's webhook payload to internal events.
// Unrecognized payloads yield EventUnknown entries, never errors that
// would bounce the delivery.
type Normalizer interface {
	Normalize(payload []byte) []Event
}

// Status is the terminal state of processing one event.
type Status string

const (
	StatusSettled Status = "SETTLED"
	StatusSkipped Status = "SKIPPED"
	StatusFailed  Status = "FAILED"
)

// Outcome reports what happened to one normalized event.
type Outcome struct {
	Status    Status `json:"status"`
	Reason    string `json:"reason,omitempty"`
	PaymentID uint   `json:"payment_id,omitempty"`
}

// Result reports the handling of one inbound delivery.
type Result struct {
	LogID    uint      `json:"log_id"`
	Outcomes []Outcome `json:"outcomes"`
}

// Failed reports whether any event hit an internal failure. The
// provider still receives a success response either way; this only
// controls the processed flag on the webhook log.
func (r Result) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Dispatcher forwards settlement events to merchant-configured
// endpoints. Implementations must not block: delivery is decoupled
// from the settlement's own success.
type Dispatcher interface {
	Dispatch(merchantID uint, eventType string, payload interface{})
}

// NoopDispatcher is used when outbound webhooks are not wired.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(uint, string, interface{}) {}
