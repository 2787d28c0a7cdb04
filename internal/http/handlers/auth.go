package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"blockfund/internal/domain"
	"blockfund/internal/funding"
	"blockfund/internal/middleware"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLength = 72
)

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleVerifyRequest struct {
	IDToken string `json:"id_token"`
}

type sessionResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      profileDTO `json:"user"`
}

func (a *App) AuthSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !a.decode(w, r, &req) {
		return
	}
	addr, err := mail.ParseAddress(trimmed(req.Email))
	if err != nil || addr.Address != trimmed(req.Email) {
		a.error(w, http.StatusBadRequest, "bad_request", "valid email required")
		return
	}
	if len(req.Password) < minPasswordLength || len(req.Password) > maxPasswordLength {
		a.error(w, http.StatusBadRequest, "bad_request", "password must be 8 to 72 characters")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.internal(w, r, err, "failed to hash password")
		return
	}
	name := a.strict.Sanitize(trimmed(req.DisplayName))
	if name == "" {
		name = strings.SplitN(addr.Address, "@", 2)[0]
	}
	profile, err := a.Profiles.CreateWithPassword(r.Context(), addr.Address, string(hash), name)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			a.error(w, http.StatusConflict, "email_taken", "email already registered")
			return
		}
		a.internal(w, r, err, "failed to create profile")
		return
	}
	a.session(w, r, http.StatusCreated, profile)
}

func (a *App) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decode(w, r, &req) {
		return
	}
	profile, err := a.Profiles.GetByEmail(r.Context(), trimmed(req.Email))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.internal(w, r, err, "failed to load profile")
		return
	}
	if profile == nil || profile.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
		a.error(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	a.session(w, r, http.StatusOK, profile)
}

func (a *App) AuthGoogleVerify(w http.ResponseWriter, r *http.Request) {
	if a.Google == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "google sign-in not configured")
		return
	}
	var req googleVerifyRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id_token required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	claims, err := a.Google.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("google verify failed")
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid google token")
		return
	}
	if claims.Email == "" || !claims.EmailVerified {
		a.error(w, http.StatusUnauthorized, "unauthorized", "google account email not verified")
		return
	}
	profile, err := a.Profiles.UpsertByGoogleSub(r.Context(), claims.Subject, claims.Email, a.strict.Sanitize(claims.Name))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateOperation) {
			a.error(w, http.StatusConflict, "conflict", "google account linked to another profile")
			return
		}
		a.internal(w, r, err, "failed to persist profile")
		return
	}
	a.session(w, r, http.StatusOK, profile)
}

func (a *App) session(w http.ResponseWriter, r *http.Request, status int, profile *domain.Profile) {
	token, err := middleware.IssueToken(a.JWTSecret, profile.ID, profile.Email, a.JWTTTL)
	if err != nil {
		a.internal(w, r, err, "failed to sign token")
		return
	}
	a.json(w, status, sessionResponse{
		Token:     token,
		ExpiresAt: a.now().Add(a.JWTTTL).UTC(),
		User:      a.newProfileDTO(*profile),
	})
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, a.newProfileDTO(*profile))
}

func (a *App) MyCampaigns(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	campaigns, err := a.Campaigns.List(r.Context(), domain.CampaignFilter{OwnerID: profile.ID})
	if err != nil {
		a.internal(w, r, err, "failed to load campaigns")
		return
	}
	now, locale := a.now(), a.locale(r)
	items := make([]campaignDTO, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, newCampaignDTO(c, now, locale))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) MyDonations(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.currentProfile(w, r)
	if !ok {
		return
	}
	donations, err := a.Donations.ListByDonor(r.Context(), profile.ID)
	if err != nil {
		a.internal(w, r, err, "failed to load donations")
		return
	}
	totals := domain.TotalsOf(donations)
	a.json(w, http.StatusOK, map[string]any{
		"items": newDonationDTOs(donations),
		"totals": map[string]any{
			"count":       totals.Count,
			"sum":         totals.Sum.String(),
			"sum_display": funding.FormatEthAmount(totals.Sum.String()),
		},
	})
}
