package services

import "errors"

var (
	ErrMissingInput       = errors.New("missing input")
	ErrNotFound           = errors.New("not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWeakPassword       = errors.New("weak password")
	ErrDeliveryFailure    = errors.New("delivery failure")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already used")
	ErrUsernameTaken      = errors.New("username already used")
	ErrForbidden          = errors.New("forbidden")
)

// FlowError carries a user-facing message and a sentinel kind checked with errors.Is.
type FlowError struct {
	Kind    error
	Message string
}

func (e *FlowError) Error() string { return e.Message }
func (e *FlowError) Unwrap() error { return e.Kind }

func flowErr(kind error, msg string) error {
	return &FlowError{Kind: kind, Message: msg}
}
