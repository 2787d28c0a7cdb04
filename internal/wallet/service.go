// Package wallet links an externally owned account to a profile by having the
// owner sign a one-time challenge.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"blockfund/internal/chain"
	"blockfund/internal/domain"
)

// ChallengeTTL bounds how long a challenge may be answered.
const ChallengeTTL = 5 * time.Minute

var (
	ErrChallengeExpired = errors.New("wallet: challenge expired")
	ErrInvalidAddress   = errors.New("wallet: invalid address")
)

// Challenge is the message a wallet owner must sign.
type Challenge struct {
	Address   string    `json:"address"`
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service issues and checks wallet challenges.
type Service struct {
	store    NonceStore
	profiles domain.ProfileRepository
	now      func() time.Time
}

func NewService(store NonceStore, profiles domain.ProfileRepository) *Service {
	return &Service{store: store, profiles: profiles, now: time.Now}
}

// Challenge issues a fresh nonce for profileID and address, replacing any
// earlier one.
func (s *Service) Challenge(ctx context.Context, profileID, address string) (*Challenge, error) {
	if !common.IsHexAddress(address) {
		return nil, ErrInvalidAddress
	}
	checksum := common.HexToAddress(address).Hex()
	nonce := uuid.NewString()
	if err := s.store.Put(ctx, challengeKey(profileID, checksum), nonce, ChallengeTTL); err != nil {
		return nil, fmt.Errorf("wallet: store nonce: %w", err)
	}
	return &Challenge{
		Address:   checksum,
		Nonce:     nonce,
		Message:   challengeMessage(checksum, nonce),
		ExpiresAt: s.now().Add(ChallengeTTL).UTC(),
	}, nil
}

// Verify consumes the outstanding challenge, checks the signature and links
// the address. It returns the checksummed address.
func (s *Service) Verify(ctx context.Context, profileID, address, signature string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	checksum := common.HexToAddress(address).Hex()
	nonce, err := s.store.Take(ctx, challengeKey(profileID, checksum))
	if err != nil {
		return "", err
	}
	if err := chain.VerifyPersonalSignature(checksum, challengeMessage(checksum, nonce), signature); err != nil {
		return "", err
	}
	if err := s.profiles.LinkWallet(ctx, profileID, strings.ToLower(checksum)); err != nil {
		return "", err
	}
	return checksum, nil
}

func challengeKey(profileID, address string) string {
	return profileID + ":" + strings.ToLower(address)
}

func challengeMessage(address, nonce string) string {
	return fmt.Sprintf("BlockFund wants you to link this wallet.\n\nAddress: %s\nNonce: %s", address, nonce)
}
