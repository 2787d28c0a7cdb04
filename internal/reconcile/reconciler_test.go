package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"blockfund/internal/chain"
	"blockfund/internal/domain"
	"blockfund/internal/realtime"
)

// memPending mimics the single-statement apply of the SQL repository.
type memPending struct {
	mu        sync.Mutex
	items     map[string]*domain.PendingDonation
	collected map[int64]decimal.Decimal
	donations int
}

func newMemPending() *memPending {
	return &memPending{items: map[string]*domain.PendingDonation{}, collected: map[int64]decimal.Decimal{}}
}

func (m *memPending) Create(_ context.Context, p *domain.PendingDonation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.items[p.TxHash]; ok && existing.Status != domain.PendingStatusFailed {
		return domain.ErrDuplicateOperation
	}
	p.Status = domain.PendingStatusPending
	cp := *p
	m.items[p.TxHash] = &cp
	return nil
}

func (m *memPending) GetByTxHash(_ context.Context, txHash string) (*domain.PendingDonation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[txHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPending) ListPending(_ context.Context, limit int) ([]domain.PendingDonation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PendingDonation
	for _, p := range m.items {
		if p.Status == domain.PendingStatusPending && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPending) MarkFailed(_ context.Context, txHash, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[txHash]; ok && p.Status == domain.PendingStatusPending {
		p.Status = domain.PendingStatusFailed
		p.FailureReason = reason
	}
	return nil
}

func (m *memPending) TouchAttempt(_ context.Context, txHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[txHash]; ok {
		p.Attempts++
	}
	return nil
}

func (m *memPending) Apply(_ context.Context, txHash string) (*domain.AppliedDonation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[txHash]
	if !ok || p.Status != domain.PendingStatusPending {
		return nil, domain.ErrDuplicateOperation
	}
	p.Status = domain.PendingStatusConfirmed
	m.donations++
	m.collected[p.CampaignID] = m.collected[p.CampaignID].Add(p.Amount)
	return &domain.AppliedDonation{DonationID: "don-" + txHash, CampaignID: p.CampaignID, AmountCollected: m.collected[p.CampaignID]}, nil
}

type stubCampaigns struct {
	domain.CampaignRepository
	campaign domain.Campaign
}

func (s stubCampaigns) GetByID(context.Context, int64) (*domain.Campaign, error) {
	c := s.campaign
	return &c, nil
}

type stubVerifier struct {
	mu      sync.Mutex
	results map[string]error
	// senders pins a transaction to the address that signed it.
	senders map[string]string
	calls   int
}

func (v *stubVerifier) VerifyDonation(_ context.Context, txHash string, want chain.DonationExpectation) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	if want.Wei == nil || want.Wei.Sign() <= 0 {
		return chain.ErrMismatch
	}
	if from, ok := v.senders[txHash]; ok && from != want.From {
		return chain.ErrMismatch
	}
	return v.results[txHash]
}

func newTestReconciler(pending *memPending, verifier Verifier, broker realtime.Broker) *Reconciler {
	index := int64(0)
	campaigns := stubCampaigns{campaign: domain.Campaign{ID: 1, ChainIndex: &index}}
	return New(pending, campaigns, verifier, broker, zerolog.Nop(), Options{Workers: 2, MaxAttempts: 3})
}

func pendingDonation(tx string) *domain.PendingDonation {
	return &domain.PendingDonation{
		CampaignID:   1,
		DonorID:      "d-1",
		DonorAddress: "0x00000000000000000000000000000000000000aa",
		Amount:       decimal.RequireFromString("0.5"),
		TxHash:       tx,
	}
}

func TestSubmitConfirmedAppliesOnce(t *testing.T) {
	pending := newMemPending()
	broker := realtime.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _ := broker.Subscribe(ctx, realtime.Filter{})
	r := newTestReconciler(pending, &stubVerifier{results: map[string]error{}}, broker)

	applied, err := r.Submit(ctx, pendingDonation("0x01"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !applied.AmountCollected.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("collected = %s", applied.AmountCollected)
	}

	if _, err := r.Submit(ctx, pendingDonation("0x01")); !errors.Is(err, domain.ErrDuplicateOperation) {
		t.Fatalf("second submit should be a duplicate, got %v", err)
	}
	if pending.donations != 1 {
		t.Fatalf("donations recorded = %d", pending.donations)
	}
	if got := len(events); got != 2 {
		t.Fatalf("expected donation and campaign events, got %d", got)
	}
}

func TestSubmitPendingLeavesMirrorUnchanged(t *testing.T) {
	pending := newMemPending()
	r := newTestReconciler(pending, &stubVerifier{results: map[string]error{"0x02": chain.ErrPending}}, nil)

	_, err := r.Submit(context.Background(), pendingDonation("0x02"))
	if !errors.Is(err, chain.ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	if pending.donations != 0 || !pending.collected[1].IsZero() {
		t.Fatalf("mirror changed while pending")
	}
	p, _ := pending.GetByTxHash(context.Background(), "0x02")
	if p.Status != domain.PendingStatusPending || p.Attempts != 1 {
		t.Fatalf("unexpected pending row: %+v", p)
	}
}

func TestSubmitMismatchIsNotStored(t *testing.T) {
	pending := newMemPending()
	r := newTestReconciler(pending, &stubVerifier{results: map[string]error{"0x03": chain.ErrMismatch}}, nil)

	_, err := r.Submit(context.Background(), pendingDonation("0x03"))
	if !errors.Is(err, chain.ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	if _, err := pending.GetByTxHash(context.Background(), "0x03"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("mismatched submission should not be stored, got %v", err)
	}
}

func TestSubmitForeignHashDoesNotBlockSender(t *testing.T) {
	const sender = "0x00000000000000000000000000000000000000aa"
	pending := newMemPending()
	verifier := &stubVerifier{results: map[string]error{}, senders: map[string]string{"0x05": sender}}
	r := newTestReconciler(pending, verifier, nil)

	other := pendingDonation("0x05")
	other.DonorID = "d-2"
	other.DonorAddress = "0x00000000000000000000000000000000000000bb"
	if _, err := r.Submit(context.Background(), other); !errors.Is(err, chain.ErrMismatch) {
		t.Fatalf("foreign submit error = %v, want ErrMismatch", err)
	}

	applied, err := r.Submit(context.Background(), pendingDonation("0x05"))
	if err != nil {
		t.Fatalf("sender submit: %v", err)
	}
	if pending.donations != 1 || !applied.AmountCollected.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("donations recorded = %d, collected = %s", pending.donations, applied.AmountCollected)
	}
}

func TestSubmitReplacesFailedRow(t *testing.T) {
	pending := newMemPending()
	verifier := &stubVerifier{results: map[string]error{"0x06": chain.ErrPending}}
	r := newTestReconciler(pending, verifier, nil)

	// The first submission carries the wrong amount and is only caught once
	// the transaction is mined.
	wrong := pendingDonation("0x06")
	wrong.Amount = decimal.RequireFromString("5")
	if _, err := r.Submit(context.Background(), wrong); !errors.Is(err, chain.ErrPending) {
		t.Fatalf("first submit error = %v, want ErrPending", err)
	}
	verifier.mu.Lock()
	verifier.results["0x06"] = chain.ErrMismatch
	verifier.mu.Unlock()
	if res, err := r.Sweep(context.Background()); err != nil || res.Failed != 1 {
		t.Fatalf("sweep = %+v, %v", res, err)
	}

	verifier.mu.Lock()
	delete(verifier.results, "0x06")
	verifier.mu.Unlock()
	applied, err := r.Submit(context.Background(), pendingDonation("0x06"))
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !applied.AmountCollected.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("collected = %s", applied.AmountCollected)
	}
	p, _ := pending.GetByTxHash(context.Background(), "0x06")
	if p.Status != domain.PendingStatusConfirmed || !p.Amount.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("unexpected pending row: %+v", p)
	}
}

func TestSubmitWithoutChain(t *testing.T) {
	r := New(newMemPending(), stubCampaigns{}, nil, nil, zerolog.Nop(), Options{})
	if _, err := r.Submit(context.Background(), pendingDonation("0x04")); !errors.Is(err, ErrChainUnavailable) {
		t.Fatalf("expected ErrChainUnavailable, got %v", err)
	}
}

func TestSweepRepairsAndExpires(t *testing.T) {
	pending := newMemPending()
	verifier := &stubVerifier{results: map[string]error{
		"0x10": chain.ErrPending,
		"0x11": chain.ErrPending,
	}}
	r := newTestReconciler(pending, verifier, nil)
	for _, tx := range []string{"0x10", "0x11", "0x12"} {
		if err := pending.Create(context.Background(), pendingDonation(tx)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	res, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Confirmed != 1 || res.Pending != 2 {
		t.Fatalf("first sweep = %+v", res)
	}

	// 0x11 is mined between sweeps.
	verifier.mu.Lock()
	delete(verifier.results, "0x11")
	verifier.mu.Unlock()
	res, err = r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Confirmed != 1 || res.Pending != 1 {
		t.Fatalf("second sweep = %+v", res)
	}

	// 0x10 runs out of attempts on the third try.
	res, err = r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Failed != 1 {
		t.Fatalf("third sweep = %+v", res)
	}
	if !pending.collected[1].Equal(decimal.NewFromInt(1)) {
		t.Fatalf("collected = %s", pending.collected[1])
	}
}
