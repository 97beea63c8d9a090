package repositories

import "errors"

var (
	ErrMerchantNotFound   = errors.New("merchant not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrReserveNotFound    = errors.New("reserve not found")
	ErrCustomRateNotFound = errors.New("custom rate not found")
	ErrLinkNotFound       = errors.New("payment link not found")
	ErrWebhookLogNotFound = errors.New("webhook log not found")
	ErrTxnNotFound        = errors.New("transaction not found")

	// ErrPaymentAlreadySettled is returned by the conditional status
	// transition when the payment left PENDING already. It is the
	// idempotency guard for duplicate webhook deliveries.
	ErrPaymentAlreadySettled = errors.New("payment already settled")

	// ErrReserveNotHeld is returned when a release or cancel races a
	// concurrent sweep and the reserve is no longer HELD.
	ErrReserveNotHeld = errors.New("reserve is not held")

	// ErrTxnNotPending is returned when completing or failing a ledger
	// entry that already left pending.
	ErrTxnNotPending = errors.New("transaction is not pending")
)
