package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidEmail         = errors.New("invalid email")
	ErrWeakPassword         = errors.New("password must have at least 8 characters")
	ErrRateLimited          = errors.New("rate limited")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidVIN           = errors.New("invalid vin")
	ErrZipNotFound          = errors.New("zip code not found")
	ErrInvalidZip           = errors.New("invalid zip code")
	ErrModelNotFound        = errors.New("model not found")
	ErrValuationNotFound    = errors.New("valuation not found")
	ErrFollowUpIncomplete   = errors.New("follow-up incomplete")
	ErrPremiumRequired      = errors.New("premium report required")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrSessionNotFound      = errors.New("chat session not found")
	ErrInventoryNotFound    = errors.New("inventory item not found")
	ErrOfferNotFound        = errors.New("offer not found")
	ErrOfferNotPending      = errors.New("offer is not pending")
	ErrSubscriptionInactive = errors.New("dealer subscription inactive")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrReferralInvalid      = errors.New("invalid referral")
	ErrAccountNotFound      = errors.New("account not found")
)

// ValidationErrors agrupa errores por campo; el handler responde 422.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
