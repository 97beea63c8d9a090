// Package settlement turns provider webhook notifications into
// balance, reserve and ledger updates. It owns the idempotency
// guarantee: one balance credit per payment no matter how many times
// the provider redelivers the notification.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/fees"
	"github.com/mourinha112/zucropay-sub000/internal/services/ledger"
	"github.com/mourinha112/zucropay-sub000/internal/services/reserve"
)

type Orchestrator struct {
	store       repositories.Store
	ledger      *ledger.Service
	normalizers map[string]Normalizer
	dispatcher  Dispatcher
	now         func() time.Time
}

// NewOrchestrator creates the settlement orchestrator. normalizers is
// keyed by provider name (models.ProviderAsaas, models.ProviderEfiBank).
func NewOrchestrator(store repositories.Store, ledgerSvc *ledger.Service, normalizers map[string]Normalizer, dispatcher Dispatcher) *Orchestrator {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if len(normalizers) == 0 {
		panic("at least one normalizer is required")
	}
	if dispatcher == nil {
		dispatcher = NoopDispatcher{}
	}
	return &Orchestrator{
		store:       store,
		ledger:      ledgerSvc,
		normalizers: normalizers,
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// Handle processes one inbound provider delivery. The raw payload is
// logged before anything else so failed processing never loses the
// audit trail; the webhook log row stays unprocessed on internal
// failure as the signal for manual reconciliation. Handle never
// returns an error: the HTTP layer always acknowledges the provider.
func (o *Orchestrator) Handle(ctx context.Context, provider string, payload []byte) Result {
	var result Result

	webhookLog := &models.WebhookLog{
		Provider:  provider,
		EventType: peekEventType(payload),
		Payload:   string(payload),
	}
	if err := o.store.WebhookLogs().Create(webhookLog); err != nil {
		// Without the log row there is nothing to reconcile against;
		// record the failure and bail out of processing entirely.
		log.Printf("settlement: failed to log %s webhook: %v", provider, err)
		result.Outcomes = append(result.Outcomes, Outcome{Status: StatusFailed, Reason: "webhook log write failed"})
		return result
	}
	result.LogID = webhookLog.ID

	normalizer, ok := o.normalizers[provider]
	if !ok {
		result.Outcomes = append(result.Outcomes, Outcome{Status: StatusSkipped, Reason: "unknown provider"})
		o.finish(webhookLog.ID, result)
		return result
	}

	events := normalizer.Normalize(payload)
	if len(events) == 0 {
		result.Outcomes = append(result.Outcomes, Outcome{Status: StatusSkipped, Reason: "no events in payload"})
		o.finish(webhookLog.ID, result)
		return result
	}

	for _, event := range events {
		result.Outcomes = append(result.Outcomes, o.processEvent(ctx, provider, event))
	}

	o.finish(webhookLog.ID, result)
	return result
}

// Replay reprocesses a previously logged delivery against the current
// database state. Used for manual reconciliation of unprocessed rows;
// settled events are naturally skipped by the idempotency guard.
func (o *Orchestrator) Replay(ctx context.Context, logID uint) (Result, error) {
	webhookLog, err := o.store.WebhookLogs().GetByID(logID)
	if err != nil {
		return Result{}, err
	}

	result := Result{LogID: webhookLog.ID}

	normalizer, ok := o.normalizers[webhookLog.Provider]
	if !ok {
		result.Outcomes = append(result.Outcomes, Outcome{Status: StatusSkipped, Reason: "unknown provider"})
		o.finish(webhookLog.ID, result)
		return result, nil
	}

	events := normalizer.Normalize([]byte(webhookLog.Payload))
	if len(events) == 0 {
		result.Outcomes = append(result.Outcomes, Outcome{Status: StatusSkipped, Reason: "no events in payload"})
		o.finish(webhookLog.ID, result)
		return result, nil
	}

	for _, event := range events {
		result.Outcomes = append(result.Outcomes, o.processEvent(ctx, webhookLog.Provider, event))
	}

	o.finish(webhookLog.ID, result)
	return result, nil
}

func (o *Orchestrator) finish(logID uint, result Result) {
	if result.Failed() {
		reasons := ""
		for _, out := range result.Outcomes {
			if out.Status == StatusFailed {
				reasons += out.Reason + "; "
			}
		}
		if err := o.store.WebhookLogs().SetError(logID, reasons); err != nil {
			log.Printf("settlement: failed to record webhook error: %v", err)
		}
		return
	}
	if err := o.store.WebhookLogs().MarkProcessed(logID); err != nil {
		log.Printf("settlement: failed to mark webhook processed: %v", err)
	}
}

func (o *Orchestrator) processEvent(ctx context.Context, provider string, event Event) Outcome {
	switch event.Kind {
	case EventPaymentReceived:
		return o.settleReceived(ctx, provider, event)
	case EventPaymentRefunded:
		return o.settleRefunded(ctx, provider, event)
	case EventPaymentOverdue:
		return o.settleOverdue(provider, event)
	case EventTransferFinished:
		return o.settleTransferFinished(event)
	default:
		log.Printf("settlement: ignoring %s event %q", provider, event.RawType)
		return Outcome{Status: StatusSkipped, Reason: fmt.Sprintf("unrecognized event %q", event.RawType)}
	}
}

// settleReceived runs the full settlement: conditional status
// transition, fee computation, balance credit, reserve hold, ledger
// entries and link counters, all in one transaction. The conditional
// MarkReceived is the idempotency guard; a duplicate delivery loses it
// and turns into a skip.
func (o *Orchestrator) settleReceived(ctx context.Context, provider string, event Event) Outcome {
	payment, err := o.store.Payments().GetByProviderID(provider, event.ProviderPaymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return Outcome{Status: StatusSkipped, Reason: "unknown payment " + event.ProviderPaymentID}
		}
		return Outcome{Status: StatusFailed, Reason: err.Error()}
	}
	if payment.Status == models.PaymentStatusReceived {
		return Outcome{Status: StatusSkipped, Reason: "duplicate delivery", PaymentID: payment.ID}
	}

	now := o.now()
	var settled fees.Settlement

	err = o.store.ExecuteInTransaction(func(tx repositories.Store) error {
		if err := tx.Payments().MarkReceived(payment.ID, now); err != nil {
			return err
		}

		rates, err := tx.Merchants().GetCustomRate(payment.MerchantID)
		if err != nil && !errors.Is(err, repositories.ErrCustomRateNotFound) {
			return err
		}

		settled = fees.ComputeSettlement(payment.GrossValue, payment.BillingType, payment.Installments, rates)

		if err := ledger.CreditTx(tx, payment.MerchantID, settled.NetAmount, settled.ReserveAmount); err != nil {
			return err
		}
		if _, err := reserve.HoldTx(tx, payment, settled, now); err != nil {
			return err
		}
		if err := ledger.WritePaymentReceivedTx(tx, payment, settled); err != nil {
			return err
		}
		if payment.PaymentLinkID != nil {
			if err := tx.PaymentLinks().IncrementReceived(*payment.PaymentLinkID, payment.GrossValue); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentAlreadySettled) {
			return Outcome{Status: StatusSkipped, Reason: "duplicate delivery", PaymentID: payment.ID}
		}
		return Outcome{Status: StatusFailed, Reason: err.Error(), PaymentID: payment.ID}
	}

	o.ledger.InvalidateMerchant(ctx, payment.MerchantID)
	o.dispatcher.Dispatch(payment.MerchantID, "payment.received", models.JSON{
		"payment_id":   payment.ID,
		"provider_id":  payment.ProviderID,
		"gross_value":  payment.GrossValue,
		"net_amount":   settled.NetAmount,
		"platform_fee": settled.PlatformFee,
		"billing_type": payment.BillingType,
		"paid_at":      now,
	})

	return Outcome{Status: StatusSettled, PaymentID: payment.ID}
}

// settleRefunded reverses a settled payment: the gross value leaves
// the available balance and the linked HELD reserve is cancelled so it
// cannot mature into funds the merchant no longer earned.
func (o *Orchestrator) settleRefunded(ctx context.Context, provider string, event Event) Outcome {
	payment, err := o.store.Payments().GetByProviderID(provider, event.ProviderPaymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return Outcome{Status: StatusSkipped, Reason: "unknown payment " + event.ProviderPaymentID}
		}
		return Outcome{Status: StatusFailed, Reason: err.Error()}
	}
	if payment.Status == models.PaymentStatusRefunded {
		return Outcome{Status: StatusSkipped, Reason: "already refunded", PaymentID: payment.ID}
	}

	wasSettled := payment.Status == models.PaymentStatusReceived

	err = o.store.ExecuteInTransaction(func(tx repositories.Store) error {
		if err := tx.Payments().UpdateStatus(payment.ID, models.PaymentStatusRefunded); err != nil {
			return err
		}
		if !wasSettled {
			// Never credited; just record the terminal status.
			return nil
		}
		if err := ledger.ReverseTx(tx, payment.MerchantID, payment.GrossValue); err != nil {
			return err
		}
		if err := reserve.CancelTx(tx, payment.ID); err != nil {
			return err
		}
		return ledger.WriteRefundTx(tx, payment)
	})
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: err.Error(), PaymentID: payment.ID}
	}

	o.ledger.InvalidateMerchant(ctx, payment.MerchantID)
	o.dispatcher.Dispatch(payment.MerchantID, "payment.refunded", models.JSON{
		"payment_id":  payment.ID,
		"provider_id": payment.ProviderID,
		"gross_value": payment.GrossValue,
	})

	return Outcome{Status: StatusSettled, PaymentID: payment.ID}
}

// settleOverdue marks a pending charge overdue. No balance effect.
func (o *Orchestrator) settleOverdue(provider string, event Event) Outcome {
	payment, err := o.store.Payments().GetByProviderID(provider, event.ProviderPaymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return Outcome{Status: StatusSkipped, Reason: "unknown payment " + event.ProviderPaymentID}
		}
		return Outcome{Status: StatusFailed, Reason: err.Error()}
	}
	if payment.Status != models.PaymentStatusPending {
		return Outcome{Status: StatusSkipped, Reason: "payment not pending", PaymentID: payment.ID}
	}
	if err := o.store.Payments().UpdateStatus(payment.ID, models.PaymentStatusOverdue); err != nil {
		return Outcome{Status: StatusFailed, Reason: err.Error(), PaymentID: payment.ID}
	}
	return Outcome{Status: StatusSettled, PaymentID: payment.ID}
}

// settleTransferFinished completes the pending ledger entry for an
// outbound withdrawal transfer.
func (o *Orchestrator) settleTransferFinished(event Event) Outcome {
	err := o.store.Transactions().CompletePendingByReference(event.TransferID)
	if err != nil {
		if errors.Is(err, repositories.ErrTxnNotPending) {
			return Outcome{Status: StatusSkipped, Reason: "no pending transfer " + event.TransferID}
		}
		return Outcome{Status: StatusFailed, Reason: err.Error()}
	}
	return Outcome{Status: StatusSettled}
}

// peekEventType extracts the provider's event string for the log row
// without committing to any payload schema.
func peekEventType(payload []byte) string {
	var probe struct {
		Event  string `json:"event"`
		Evento string `json:"evento"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	if probe.Event != "" {
		return probe.Event
	}
	return probe.Evento
}
