package repositories

import (
	"gorm.io/gorm"
)

// Store aggregates the entity repositories and scopes them to a single
// database handle, so a settlement can run every write inside one
// transaction. ExecuteInTransaction hands the callback a Store bound
// to the transaction; all repositories obtained from it share it.
type Store interface {
	Merchants() MerchantRepository
	Payments() PaymentRepository
	Reserves() ReserveRepository
	Transactions() TransactionRepository
	WebhookLogs() WebhookLogRepository
	PaymentLinks() PaymentLinkRepository
	ExecuteInTransaction(fn func(Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store backed by the given gorm handle.
func NewStore(db *gorm.DB) Store {
	if db == nil {
		panic("db is required")
	}
	return &gormStore{db: db}
}

func (s *gormStore) Merchants() MerchantRepository       { return &merchantRepository{db: s.db} }
func (s *gormStore) Payments() PaymentRepository         { return &paymentRepository{db: s.db} }
func (s *gormStore) Reserves() ReserveRepository         { return &reserveRepository{db: s.db} }
func (s *gormStore) Transactions() TransactionRepository { return &transactionRepository{db: s.db} }
func (s *gormStore) WebhookLogs() WebhookLogRepository   { return &webhookLogRepository{db: s.db} }
func (s *gormStore) PaymentLinks() PaymentLinkRepository { return &paymentLinkRepository{db: s.db} }

func (s *gormStore) ExecuteInTransaction(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
