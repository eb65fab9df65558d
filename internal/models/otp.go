package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OTPPurpose is the closed set of things a one-time code can verify.
type OTPPurpose string

const (
	PurposeEmailVerification OTPPurpose = "EMAIL_VERIFICATION"
	PurposeTwoFactorAuth     OTPPurpose = "TWO_FACTOR_AUTH"
	PurposePasswordReset     OTPPurpose = "PASSWORD_RESET"
)

func (p OTPPurpose) Valid() bool {
	switch p {
	case PurposeEmailVerification, PurposeTwoFactorAuth, PurposePasswordReset:
		return true
	}
	return false
}

// ParsePurpose maps an empty string to EMAIL_VERIFICATION.
func ParsePurpose(s string) (OTPPurpose, error) {
	if s == "" {
		return PurposeEmailVerification, nil
	}
	p := OTPPurpose(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown otp purpose %q", s)
	}
	return p, nil
}

// OTPChallenge is one outstanding verification attempt.
// Only the bcrypt hash of the code is stored.
type OTPChallenge struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Purpose   OTPPurpose `json:"purpose"`
	CodeHash  string     `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Attempts  int        `json:"attempts"`
}

func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
