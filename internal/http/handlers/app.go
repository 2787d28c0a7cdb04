package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"blockfund/internal/chain"
	"blockfund/internal/domain"
	"blockfund/internal/infra/google"
	"blockfund/internal/middleware"
	"blockfund/internal/realtime"
	"blockfund/internal/storage"
	"blockfund/internal/wallet"
)

const maxJSONBody = 1 << 20

// ChainReader is the chain access the handlers need. *chain.Client satisfies it.
type ChainReader interface {
	ChainID() int64
	Contract() *chain.Contract
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
	IsVerifiedCreator(ctx context.Context, address string) (bool, error)
}

// DonationSubmitter hands donor transactions to the reconciler.
type DonationSubmitter interface {
	Submit(ctx context.Context, p *domain.PendingDonation) (*domain.AppliedDonation, error)
}

// WalletLinker issues and checks wallet challenges.
type WalletLinker interface {
	Challenge(ctx context.Context, profileID, address string) (*wallet.Challenge, error)
	Verify(ctx context.Context, profileID, address, signature string) (string, error)
}

// GoogleVerifier validates Google ID tokens.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*google.IDClaims, error)
}

// Pinger reports database liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App carries the dependencies shared by all handlers.
type App struct {
	Logger              zerolog.Logger
	JWTSecret           string
	JWTTTL              time.Duration
	SuperVerifiedDomain string
	MediaLimits         storage.Limits
	AllowedOrigins      []string

	DB         Pinger
	Campaigns  domain.CampaignRepository
	Donations  domain.DonationRepository
	Votes      domain.VoteRepository
	Profiles   domain.ProfileRepository
	Reconciler DonationSubmitter
	Wallets    WalletLinker
	Chain      ChainReader
	Broker     realtime.Broker
	Store      *storage.FileStore
	Google     GoogleVerifier

	sanitizer *bluemonday.Policy
	strict    *bluemonday.Policy
	now       func() time.Time
}

// NewApp fills in the defaults that are not injected.
func NewApp(a App) *App {
	app := a
	app.sanitizer = bluemonday.UGCPolicy()
	app.strict = bluemonday.StrictPolicy()
	app.now = time.Now
	if app.JWTTTL <= 0 {
		app.JWTTTL = 24 * time.Hour
	}
	if app.MediaLimits.Default <= 0 {
		app.MediaLimits.Default = 10 << 20
	}
	if app.MediaLimits.Video <= 0 {
		app.MediaLimits.Video = 50 << 20
	}
	return &app
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, msg string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: slug, Message: msg}})
}

func (a *App) invalid(w http.ResponseWriter, fields map[string]string) {
	a.json(w, http.StatusUnprocessableEntity, errorBody{Error: errorDetail{
		Code:    "validation_failed",
		Message: "request failed validation",
		Fields:  fields,
	}})
}

// internal logs err and answers with a generic 500.
func (a *App) internal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	a.Logger.Error().
		Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("path", r.URL.Path).
		Msg(msg)
	a.error(w, http.StatusInternalServerError, "internal", msg)
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// currentProfile loads the caller's profile, writing the error response
// itself when that fails.
func (a *App) currentProfile(w http.ResponseWriter, r *http.Request) (*domain.Profile, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	profile, err := a.Profiles.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusUnauthorized, "unauthorized", "profile not found")
			return nil, false
		}
		a.internal(w, r, err, "failed to load profile")
		return nil, false
	}
	return profile, true
}

func (a *App) campaignIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid campaign id")
		return 0, false
	}
	return id, true
}

func (a *App) loadCampaign(w http.ResponseWriter, r *http.Request) (*domain.Campaign, bool) {
	id, ok := a.campaignIDParam(w, r)
	if !ok {
		return nil, false
	}
	campaign, err := a.Campaigns.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "campaign not found")
			return nil, false
		}
		a.internal(w, r, err, "failed to load campaign")
		return nil, false
	}
	return campaign, true
}

func (a *App) publish(r *http.Request, table string, change realtime.ChangeType, rowID string) {
	if a.Broker == nil {
		return
	}
	if err := a.Broker.Publish(r.Context(), realtime.Event{Table: table, Type: change, RowID: rowID}); err != nil {
		a.Logger.Warn().Err(err).Str("table", table).Msg("publish change")
	}
}

func (a *App) locale(r *http.Request) string {
	return middleware.LocaleFromContext(r.Context())
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
