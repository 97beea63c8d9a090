// Package memory provides an in-memory repositories.Store used by
// service tests and local experiments. Semantics mirror the gorm
// implementation: conditional transitions return the same sentinel
// errors and ExecuteInTransaction rolls back on error by restoring a
// snapshot. Not safe for production use.
package memory

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
)

type Store struct {
	mu sync.Mutex

	merchants map[uint]models.Merchant
	rates     map[uint]models.CustomRate // keyed by merchant ID
	payments  map[uint]models.Payment
	reserves  map[uint]models.BalanceReserve
	txns      map[uint]models.Transaction
	logs      map[uint]models.WebhookLog
	links     map[uint]models.PaymentLink

	nextID uint
}

func NewStore() *Store {
	return &Store{
		merchants: make(map[uint]models.Merchant),
		rates:     make(map[uint]models.CustomRate),
		payments:  make(map[uint]models.Payment),
		reserves:  make(map[uint]models.BalanceReserve),
		txns:      make(map[uint]models.Transaction),
		logs:      make(map[uint]models.WebhookLog),
		links:     make(map[uint]models.PaymentLink),
	}
}

var _ repositories.Store = (*Store)(nil)

var errDuplicateEmail = errors.New("email already exists")

func (s *Store) Merchants() repositories.MerchantRepository       { return (*merchantRepo)(s) }
func (s *Store) Payments() repositories.PaymentRepository         { return (*paymentRepo)(s) }
func (s *Store) Reserves() repositories.ReserveRepository         { return (*reserveRepo)(s) }
func (s *Store) Transactions() repositories.TransactionRepository { return (*txnRepo)(s) }
func (s *Store) WebhookLogs() repositories.WebhookLogRepository   { return (*logRepo)(s) }
func (s *Store) PaymentLinks() repositories.PaymentLinkRepository { return (*linkRepo)(s) }

// ExecuteInTransaction snapshots all tables, runs fn and restores the
// snapshot when fn fails, giving tests the same all-or-nothing
// behaviour as a database transaction.
func (s *Store) ExecuteInTransaction(fn func(repositories.Store) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshotState struct {
	merchants map[uint]models.Merchant
	rates     map[uint]models.CustomRate
	payments  map[uint]models.Payment
	reserves  map[uint]models.BalanceReserve
	txns      map[uint]models.Transaction
	logs      map[uint]models.WebhookLog
	links     map[uint]models.PaymentLink
	nextID    uint
}

func (s *Store) snapshot() snapshotState {
	return snapshotState{
		merchants: copyMap(s.merchants),
		rates:     copyMap(s.rates),
		payments:  copyMap(s.payments),
		reserves:  copyMap(s.reserves),
		txns:      copyMap(s.txns),
		logs:      copyMap(s.logs),
		links:     copyMap(s.links),
		nextID:    s.nextID,
	}
}

func (s *Store) restore(snap snapshotState) {
	s.merchants = snap.merchants
	s.rates = snap.rates
	s.payments = snap.payments
	s.reserves = snap.reserves
	s.txns = snap.txns
	s.logs = snap.logs
	s.links = snap.links
	s.nextID = snap.nextID
}

func copyMap[V any](src map[uint]V) map[uint]V {
	dst := make(map[uint]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (s *Store) allocID() uint {
	s.nextID++
	return s.nextID
}

// Seed helpers used by tests.

func (s *Store) SeedMerchant(m models.Merchant) models.Merchant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.allocID()
	}
	s.merchants[m.ID] = m
	return m
}

func (s *Store) SeedPayment(p models.Payment) models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.allocID()
	}
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}
	s.payments[p.ID] = p
	return p
}

func (s *Store) SeedReserve(r models.BalanceReserve) models.BalanceReserve {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.allocID()
	}
	if r.Status == "" {
		r.Status = models.ReserveStatusHeld
	}
	s.reserves[r.ID] = r
	return r
}

func (s *Store) SeedCustomRate(rate models.CustomRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[rate.MerchantID] = rate
}

func (s *Store) SeedLink(l models.PaymentLink) models.PaymentLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == 0 {
		l.ID = s.allocID()
	}
	s.links[l.ID] = l
	return l
}

// merchantRepo

type merchantRepo Store

func (r *merchantRepo) Create(m *models.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.Email == m.Email {
			return errDuplicateEmail
		}
	}
	m.ID = (*Store)(r).allocID()
	m.CreatedAt = time.Now()
	r.merchants[m.ID] = *m
	return nil
}

func (r *merchantRepo) GetByID(id uint) (*models.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, repositories.ErrMerchantNotFound
	}
	return &m, nil
}

func (r *merchantRepo) GetByEmail(email string) (*models.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.merchants {
		if strings.EqualFold(m.Email, email) {
			out := m
			return &out, nil
		}
	}
	return nil, repositories.ErrMerchantNotFound
}

func (r *merchantRepo) GetForUpdate(id uint) (*models.Merchant, error) {
	return r.GetByID(id)
}

func (r *merchantRepo) Update(m *models.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.merchants[m.ID]; !ok {
		return repositories.ErrMerchantNotFound
	}
	m.UpdatedAt = time.Now()
	r.merchants[m.ID] = *m
	return nil
}

func (r *merchantRepo) IncrementTokenVersion(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return repositories.ErrMerchantNotFound
	}
	m.TokenVersion++
	r.merchants[id] = m
	return nil
}

func (r *merchantRepo) ListByStatus(status string) ([]models.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Merchant
	for _, m := range r.merchants {
		if m.Status == status {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *merchantRepo) RecordWebhookFailure(id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return repositories.ErrMerchantNotFound
	}
	m.WebhookFailCount++
	m.WebhookLastFailureAt = &at
	r.merchants[id] = m
	return nil
}

func (r *merchantRepo) ResetWebhookFailures(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return repositories.ErrMerchantNotFound
	}
	m.WebhookFailCount = 0
	m.WebhookLastFailureAt = nil
	r.merchants[id] = m
	return nil
}

func (r *merchantRepo) GetCustomRate(merchantID uint) (*models.CustomRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rate, ok := r.rates[merchantID]
	if !ok {
		return nil, repositories.ErrCustomRateNotFound
	}
	return &rate, nil
}

func (r *merchantRepo) UpsertCustomRate(rate *models.CustomRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rate.ID == 0 {
		rate.ID = (*Store)(r).allocID()
	}
	r.rates[rate.MerchantID] = *rate
	return nil
}

// paymentRepo

type paymentRepo Store

func (r *paymentRepo) Create(p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = (*Store)(r).allocID()
	}
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}
	p.CreatedAt = time.Now()
	r.payments[p.ID] = *p
	return nil
}

func (r *paymentRepo) GetByID(id uint) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *paymentRepo) GetByProviderID(provider, providerID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.Provider == provider && p.ProviderID == providerID {
			out := p
			return &out, nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

func (r *paymentRepo) MarkReceived(id uint, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return repositories.ErrPaymentNotFound
	}
	if p.Status != models.PaymentStatusPending {
		return repositories.ErrPaymentAlreadySettled
	}
	p.Status = models.PaymentStatusReceived
	p.PaidAt = &paidAt
	r.payments[id] = p
	return nil
}

func (r *paymentRepo) UpdateStatus(id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return repositories.ErrPaymentNotFound
	}
	p.Status = status
	r.payments[id] = p
	return nil
}

func (r *paymentRepo) ListByMerchant(merchantID uint, limit, offset int) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, p := range r.payments {
		if p.MerchantID == merchantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), nil
}

// reserveRepo

type reserveRepo Store

func (r *reserveRepo) Create(reserve *models.BalanceReserve) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reserve.ID == 0 {
		reserve.ID = (*Store)(r).allocID()
	}
	reserve.CreatedAt = time.Now()
	r.reserves[reserve.ID] = *reserve
	return nil
}

func (r *reserveRepo) GetByID(id uint) (*models.BalanceReserve, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reserves[id]
	if !ok {
		return nil, repositories.ErrReserveNotFound
	}
	return &res, nil
}

func (r *reserveRepo) GetByPaymentID(paymentID uint) (*models.BalanceReserve, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.reserves {
		if res.PaymentID == paymentID {
			out := res
			return &out, nil
		}
	}
	return nil, repositories.ErrReserveNotFound
}

func (r *reserveRepo) ListMatured(now time.Time) ([]models.BalanceReserve, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BalanceReserve
	for _, res := range r.reserves {
		if res.Status == models.ReserveStatusHeld && !res.ReleaseDate.After(now) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *reserveRepo) MarkReleased(id uint, now time.Time, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reserves[id]
	if !ok {
		return repositories.ErrReserveNotFound
	}
	if res.Status != models.ReserveStatusHeld {
		return repositories.ErrReserveNotHeld
	}
	res.Status = models.ReserveStatusReleased
	res.ReleasedAt = &now
	res.ReleasedAmount = amount
	r.reserves[id] = res
	return nil
}

func (r *reserveRepo) CancelHeld(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reserves[id]
	if !ok {
		return repositories.ErrReserveNotFound
	}
	if res.Status != models.ReserveStatusHeld {
		return repositories.ErrReserveNotHeld
	}
	res.Status = models.ReserveStatusCancelled
	r.reserves[id] = res
	return nil
}

func (r *reserveRepo) SumHeldByMerchant(merchantID uint) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	for _, res := range r.reserves {
		if res.MerchantID == merchantID && res.Status == models.ReserveStatusHeld {
			sum += res.ReserveAmount
		}
	}
	return sum, nil
}

func (r *reserveRepo) ListByMerchant(merchantID uint, limit, offset int) ([]models.BalanceReserve, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BalanceReserve
	for _, res := range r.reserves {
		if res.MerchantID == merchantID {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), nil
}

// txnRepo

type txnRepo Store

func (r *txnRepo) Create(t *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == 0 {
		t.ID = (*Store)(r).allocID()
	}
	if t.Status == "" {
		t.Status = models.TransactionStatusPending
	}
	t.CreatedAt = time.Now()
	r.txns[t.ID] = *t
	return nil
}

func (r *txnRepo) GetByID(id uint) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[id]
	if !ok {
		return nil, repositories.ErrTxnNotFound
	}
	return &t, nil
}

func (r *txnRepo) ListByMerchant(merchantID uint, limit, offset int) ([]models.Transaction, error) {
	return r.list(merchantID, limit, offset, false)
}

func (r *txnRepo) ListCompletedByMerchant(merchantID uint, limit, offset int) ([]models.Transaction, error) {
	return r.list(merchantID, limit, offset, true)
}

func (r *txnRepo) list(merchantID uint, limit, offset int, completedOnly bool) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Transaction
	for _, t := range r.txns {
		if t.MerchantID != merchantID {
			continue
		}
		if completedOnly && t.Status != models.TransactionStatusCompleted {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, offset), nil
}

func (r *txnRepo) CompletePending(id uint) error {
	return r.transition(id, models.TransactionStatusCompleted)
}

func (r *txnRepo) FailPending(id uint) error {
	return r.transition(id, models.TransactionStatusFailed)
}

func (r *txnRepo) transition(id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[id]
	if !ok {
		return repositories.ErrTxnNotFound
	}
	if t.Status != models.TransactionStatusPending {
		return repositories.ErrTxnNotPending
	}
	t.Status = status
	r.txns[id] = t
	return nil
}

func (r *txnRepo) CompletePendingByReference(reference string) error {
	r.mu.Lock()
	var id uint
	found := false
	for _, t := range r.txns {
		if t.Reference == reference && t.Status == models.TransactionStatusPending {
			id = t.ID
			found = true
			break
		}
	}
	r.mu.Unlock()
	if !found {
		return repositories.ErrTxnNotPending
	}
	return r.transition(id, models.TransactionStatusCompleted)
}

func (r *txnRepo) UpdatePendingReference(id uint, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[id]
	if !ok || t.Status != models.TransactionStatusPending {
		return repositories.ErrTxnNotPending
	}
	t.Reference = reference
	r.txns[id] = t
	return nil
}

func (r *txnRepo) SumCompletedByType(merchantID uint, txType string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	for _, t := range r.txns {
		if t.MerchantID == merchantID && t.Type == txType && t.Status == models.TransactionStatusCompleted {
			sum += t.Amount
		}
	}
	return sum, nil
}

// logRepo

type logRepo Store

func (r *logRepo) Create(l *models.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == 0 {
		l.ID = (*Store)(r).allocID()
	}
	l.CreatedAt = time.Now()
	r.logs[l.ID] = *l
	return nil
}

func (r *logRepo) GetByID(id uint) (*models.WebhookLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return nil, repositories.ErrWebhookLogNotFound
	}
	return &l, nil
}

func (r *logRepo) MarkProcessed(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return repositories.ErrWebhookLogNotFound
	}
	l.Processed = true
	l.Error = ""
	r.logs[id] = l
	return nil
}

func (r *logRepo) SetError(id uint, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return repositories.ErrWebhookLogNotFound
	}
	l.Error = msg
	r.logs[id] = l
	return nil
}

func (r *logRepo) ListUnprocessed(limit int) ([]models.WebhookLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WebhookLog
	for _, l := range r.logs {
		if !l.Processed {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// linkRepo

type linkRepo Store

func (r *linkRepo) Create(link *models.PaymentLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if link.ID == 0 {
		link.ID = (*Store)(r).allocID()
	}
	link.CreatedAt = time.Now()
	r.links[link.ID] = *link
	return nil
}

func (r *linkRepo) GetByID(id uint) (*models.PaymentLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok {
		return nil, repositories.ErrLinkNotFound
	}
	return &l, nil
}

func (r *linkRepo) GetBySlug(slug string) (*models.PaymentLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.Slug == slug {
			out := l
			return &out, nil
		}
	}
	return nil, repositories.ErrLinkNotFound
}

func (r *linkRepo) ListByMerchant(merchantID uint) ([]models.PaymentLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PaymentLink
	for _, l := range r.links {
		if l.MerchantID == merchantID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *linkRepo) Update(link *models.PaymentLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[link.ID]; !ok {
		return repositories.ErrLinkNotFound
	}
	r.links[link.ID] = *link
	return nil
}

func (r *linkRepo) IncrementReceived(id uint, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok {
		return repositories.ErrLinkNotFound
	}
	l.ReceivedTotal += amount
	l.ReceivedCount++
	r.links[id] = l
	return nil
}

func (r *linkRepo) Deactivate(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok {
		return repositories.ErrLinkNotFound
	}
	l.Active = false
	r.links[id] = l
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
