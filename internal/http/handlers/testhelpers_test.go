package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"blockfund/internal/chain"
	"blockfund/internal/domain"
	"blockfund/internal/middleware"
	"blockfund/internal/realtime"
)

const (
	testSecret   = "test-secret"
	testContract = "0x2beb05b5316937a8878c85a444bb69e489507bf5"
	testWallet   = "0x1111111111111111111111111111111111111111"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type testDeps struct {
	campaigns *memCampaigns
	donations *memDonations
	votes     *memVotes
	profiles  *memProfiles
	broker    *realtime.MemoryBroker
}

func newTestApp(t *testing.T) (*App, *testDeps) {
	t.Helper()
	deps := &testDeps{
		campaigns: newMemCampaigns(),
		donations: &memDonations{},
		votes:     &memVotes{},
		profiles:  newMemProfiles(),
		broker:    realtime.NewMemoryBroker(),
	}
	app := NewApp(App{
		Logger:              zerolog.Nop(),
		JWTSecret:           testSecret,
		JWTTTL:              time.Hour,
		SuperVerifiedDomain: "gov.in",
		Campaigns:           deps.campaigns,
		Donations:           deps.donations,
		Votes:               deps.votes,
		Profiles:            deps.profiles,
		Broker:              deps.broker,
	})
	app.now = func() time.Time { return testNow }
	return app, deps
}

func newFakeChain(t *testing.T) *fakeChain {
	t.Helper()
	contract, err := chain.NewContract(testContract)
	if err != nil {
		t.Fatalf("NewContract() error: %v", err)
	}
	return &fakeChain{contract: contract, balance: decimal.Zero}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decodeBody(t, rr, &body)
	return body.Error.Code
}

func ptr[T any](v T) *T { return &v }

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// memCampaigns is an in-memory domain.CampaignRepository.
type memCampaigns struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]domain.Campaign
}

func newMemCampaigns() *memCampaigns {
	return &memCampaigns{items: map[int64]domain.Campaign{}}
}

func (m *memCampaigns) put(c domain.Campaign) domain.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		m.nextID++
		c.ID = m.nextID
	} else if c.ID > m.nextID {
		m.nextID = c.ID
	}
	m.items[c.ID] = c
	return c
}

func (m *memCampaigns) Create(_ context.Context, nc domain.NewCampaign) (*domain.Campaign, error) {
	c := m.put(domain.Campaign{
		OwnerID:         nc.OwnerID,
		OwnerAddress:    nc.OwnerAddress,
		CreatorName:     nc.CreatorName,
		Title:           nc.Title,
		Description:     nc.Description,
		Target:          nc.Target,
		Deadline:        nc.Deadline,
		AmountCollected: decimal.Zero,
		ImageURL:        nc.ImageURL,
		Documents:       nc.Documents,
		Videos:          nc.Videos,
		ChainIndex:      nc.ChainIndex,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	})
	return &c, nil
}

func (m *memCampaigns) GetByID(_ context.Context, id int64) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *memCampaigns) List(_ context.Context, f domain.CampaignFilter) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.items {
		if f.OwnerID != "" && c.OwnerID != f.OwnerID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(f.Search)) {
			continue
		}
		if !f.Tab.Matches(c, f.Now) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memCampaigns) MarkVerified(_ context.Context, id int64, verifiedBy string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !c.IsVerified {
		c.IsVerified = true
		c.VerifiedBy = &verifiedBy
		c.VerifiedAt = &testNow
	}
	m.items[id] = c
	return &c, nil
}

// memDonations is an in-memory domain.DonationRepository.
type memDonations struct {
	items []domain.Donation
}

func (m *memDonations) ListByCampaign(_ context.Context, campaignID int64) ([]domain.Donation, error) {
	var out []domain.Donation
	for _, d := range m.items {
		if d.CampaignID == campaignID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDonations) ListByDonor(_ context.Context, donorID string) ([]domain.Donation, error) {
	var out []domain.Donation
	for _, d := range m.items {
		if d.DonorID == donorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDonations) HasDonated(_ context.Context, campaignID int64, donorID string) (bool, error) {
	for _, d := range m.items {
		if d.CampaignID == campaignID && d.DonorID == donorID {
			return true, nil
		}
	}
	return false, nil
}

// memVotes is an in-memory domain.VoteRepository keyed by campaign and voter.
type memVotes struct {
	items []domain.VerificationVote
}

func (m *memVotes) Upsert(_ context.Context, v domain.VerificationVote) error {
	for i, existing := range m.items {
		if existing.CampaignID == v.CampaignID && existing.VoterID == v.VoterID {
			m.items[i].Verdict = v.Verdict
			return nil
		}
	}
	m.items = append(m.items, v)
	return nil
}

func (m *memVotes) ListByCampaign(_ context.Context, campaignID int64) ([]domain.VerificationVote, error) {
	var out []domain.VerificationVote
	for _, v := range m.items {
		if v.CampaignID == campaignID {
			out = append(out, v)
		}
	}
	return out, nil
}

// memProfiles is an in-memory domain.ProfileRepository.
type memProfiles struct {
	mu     sync.Mutex
	nextID int
	items  map[string]domain.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{items: map[string]domain.Profile{}}
}

func (m *memProfiles) add(p domain.Profile) domain.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		m.nextID++
		p.ID = fmt.Sprintf("profile-%d", m.nextID)
	}
	if p.Provider == "" {
		p.Provider = domain.AuthProviderPassword
	}
	m.items[p.ID] = p
	return p
}

func (m *memProfiles) CreateWithPassword(_ context.Context, email, hash, name string) (*domain.Profile, error) {
	if p, _ := m.GetByEmail(context.Background(), email); p != nil {
		return nil, domain.ErrEmailTaken
	}
	p := m.add(domain.Profile{Email: email, PasswordHash: hash, DisplayName: name, CreatedAt: testNow})
	return &p, nil
}

func (m *memProfiles) UpsertByGoogleSub(_ context.Context, sub, email, name string) (*domain.Profile, error) {
	if p, _ := m.GetByEmail(context.Background(), email); p != nil {
		p.GoogleSub = sub
		if !p.EmailVerified {
			p.PasswordHash = ""
		}
		p.EmailVerified = true
		updated := m.add(*p)
		return &updated, nil
	}
	p := m.add(domain.Profile{Email: email, GoogleSub: sub, DisplayName: name, Provider: domain.AuthProviderGoogle, EmailVerified: true})
	return &p, nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProfiles) LinkWallet(_ context.Context, id, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.WalletAddress = strings.ToLower(address)
	m.items[id] = p
	return nil
}

func (m *memProfiles) SetFlags(_ context.Context, id string, creator, admin *bool) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if creator != nil {
		p.IsVerifiedCreator = *creator
	}
	if admin != nil {
		p.IsAdmin = *admin
	}
	m.items[id] = p
	return &p, nil
}

type fakeChain struct {
	contract *chain.Contract
	balance  decimal.Decimal
	verified bool
	err      error
}

func (f *fakeChain) ChainID() int64 {
	return 17000
}

func (f *fakeChain) Contract() *chain.Contract {
	return f.contract
}

func (f *fakeChain) Balance(context.Context, string) (decimal.Decimal, error) {
	return f.balance, f.err
}

func (f *fakeChain) IsVerifiedCreator(context.Context, string) (bool, error) {
	return f.verified, f.err
}

type fakeSubmitter struct {
	applied *domain.AppliedDonation
	err     error
	got     *domain.PendingDonation
}

func (f *fakeSubmitter) Submit(_ context.Context, p *domain.PendingDonation) (*domain.AppliedDonation, error) {
	f.got = p
	return f.applied, f.err
}
