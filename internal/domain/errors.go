package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrExceedsRemaining   = errors.New("amount exceeds remaining target")
	ErrCampaignClosed     = errors.New("campaign closed")
	ErrDuplicateOperation = errors.New("duplicate operation")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWalletNotLinked    = errors.New("wallet not linked")
	ErrMalformedRecord    = errors.New("malformed record")
)
