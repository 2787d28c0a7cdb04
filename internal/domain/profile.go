package domain

import (
	"strings"
	"time"
)

// AuthProvider enumerates how a profile signs in.
type AuthProvider string

const (
	AuthProviderPassword AuthProvider = "password"
	AuthProviderGoogle   AuthProvider = "google"
)

// Profile represents an authenticated account within the platform.
type Profile struct {
	ID                string
	Email             string
	PasswordHash      string
	GoogleSub         string
	Provider          AuthProvider
	DisplayName       string
	WalletAddress     string
	IsAdmin           bool
	IsVerifiedCreator bool
	EmailVerified     bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsSuperVerified reports whether the profile holds a confirmed email on the
// trusted domain. Super-verified profiles are creators and verifiers by
// default. An unconfirmed address never qualifies.
func (p Profile) IsSuperVerified(domain string) bool {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "@")
	if domain == "" || !p.EmailVerified {
		return false
	}
	return strings.HasSuffix(strings.ToLower(p.Email), "@"+domain)
}

// CanCreateCampaigns reports whether the profile may open campaigns.
func (p Profile) CanCreateCampaigns(superDomain string) bool {
	return p.IsAdmin || p.IsVerifiedCreator || p.IsSuperVerified(superDomain)
}

// CanVerifyCampaigns reports whether the profile may verify campaigns directly.
func (p Profile) CanVerifyCampaigns(superDomain string) bool {
	return p.IsAdmin || p.IsSuperVerified(superDomain)
}
