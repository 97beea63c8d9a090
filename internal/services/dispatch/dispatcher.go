// Package dispatch re-delivers settlement events to merchant-configured
// webhook endpoints. Delivery is fire-and-forget: it runs after the
// settlement committed and can never block or fail it.
package dispatch

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/repositories"

	"github.com/google/uuid"
)

const (
	signatureHeader = "X-Zucropay-Signature"
	eventIDHeader   = "X-Zucropay-Event-Id"
	deliveryTimeout = 10 * time.Second
)

type Dispatcher struct {
	merchants  repositories.MerchantRepository
	httpClient *http.Client
	now        func() time.Time
}

// NewDispatcher creates the outbound webhook dispatcher.
func NewDispatcher(merchants repositories.MerchantRepository) *Dispatcher {
	if merchants == nil {
		panic("merchant repository is required")
	}
	return &Dispatcher{
		merchants:  merchants,
		httpClient: &http.Client{Timeout: deliveryTimeout},
		now:        time.Now,
	}
}

// Dispatch delivers one event to the merchant's endpoint in a
// background goroutine. Merchants without a configured URL are
// skipped. Failures bump the merchant's failure counter; a later
// success resets it.
func (d *Dispatcher) Dispatch(merchantID uint, eventType string, payload interface{}) {
	go d.deliver(merchantID, eventType, payload)
}

func (d *Dispatcher) deliver(merchantID uint, eventType string, payload interface{}) {
	merchant, err := d.merchants.GetByID(merchantID)
	if err != nil {
		log.Printf("dispatch: merchant %d lookup failed: %v", merchantID, err)
		return
	}
	if merchant.WebhookURL == "" {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"id":         uuid.NewString(),
		"event":      eventType,
		"created_at": d.now().UTC().Format(time.RFC3339),
		"data":       payload,
	})
	if err != nil {
		log.Printf("dispatch: marshal failed for merchant %d: %v", merchantID, err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, merchant.WebhookURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("dispatch: bad webhook URL for merchant %d: %v", merchantID, err)
		d.recordFailure(merchantID)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventIDHeader, uuid.NewString())
	req.Header.Set(signatureHeader, Sign(merchant.WebhookSecret, body))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		log.Printf("dispatch: delivery to merchant %d failed: %v", merchantID, err)
		d.recordFailure(merchantID)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("dispatch: merchant %d endpoint returned %d", merchantID, resp.StatusCode)
		d.recordFailure(merchantID)
		return
	}

	if merchant.WebhookFailCount > 0 {
		if err := d.merchants.ResetWebhookFailures(merchantID); err != nil {
			log.Printf("dispatch: failed to reset failures for merchant %d: %v", merchantID, err)
		}
	}
}

func (d *Dispatcher) recordFailure(merchantID uint) {
	if err := d.merchants.RecordWebhookFailure(merchantID, d.now()); err != nil {
		log.Printf("dispatch: failed to record failure for merchant %d: %v", merchantID, err)
	}
}

// Sign computes the hex HMAC-SHA256 of body under the merchant's
// shared secret. Merchants verify deliveries by recomputing it.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
