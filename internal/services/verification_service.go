package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"grubgo/internal/models"
	"grubgo/internal/repositories"
	"grubgo/internal/utils"
)

type VerificationStatus string

const (
	StatusSuccess VerificationStatus = "SUCCESS"
	StatusResend  VerificationStatus = "RESEND"
	StatusPending VerificationStatus = "PENDING"
)

const (
	otpTTL              = 10 * time.Minute
	issueWindow         = 10 * time.Minute
	maxIssuesPerWindow  = 3
	maxValidateAttempts = 5
	otpDigits           = 6
)

// IssueResult describes a challenge that was created and mailed.
type IssueResult struct {
	UserID  uuid.UUID         `json:"userId"`
	Email   string            `json:"email"`
	Purpose models.OTPPurpose `json:"purpose"`
}

// ResetGrant is returned by a successful PASSWORD_RESET validation.
type ResetGrant struct {
	PasswordResetToken string `json:"password_reset_token"`
}

// VerificationResult is the outcome of a validation that did not fail.
// On RESEND, Data holds the *IssueResult of the replacement challenge.
type VerificationResult struct {
	Status      VerificationStatus
	Message     string
	Data        any
	AccessToken string
}

type VerificationService interface {
	Issue(ctx context.Context, userID uuid.UUID, email string, purpose models.OTPPurpose) (*IssueResult, error)
	Validate(ctx context.Context, userID, otp string, purpose models.OTPPurpose) (*VerificationResult, error)
	// Resend issues a fresh challenge to the user's current address.
	Resend(ctx context.Context, userID string, purpose models.OTPPurpose) (*IssueResult, error)
}

type purposeSpec struct {
	subject         string
	title           string
	intro           string
	action          string
	successMessage  string
	notFoundMessage string
	onSuccess       func(s *verificationService, ctx context.Context, userID uuid.UUID, res *VerificationResult) error
}

const defaultNotFoundMessage = "Account record doesn't exist or has been verified already. Please request again."

var purposeSpecs = map[models.OTPPurpose]purposeSpec{
	models.PurposeEmailVerification: {
		subject:         "Verify Your Email Address",
		title:           "Welcome to GrubGo!",
		intro:           "Your OTP for email verification is:",
		action:          "Use this code to verify your email address.",
		successMessage:  "Email OTP verified successfully!",
		notFoundMessage: defaultNotFoundMessage,
		onSuccess:       (*verificationService).markEmailVerified,
	},
	models.PurposeTwoFactorAuth: {
		subject:         "Your GrubGo 2FA Code",
		title:           "Sign-in Verification",
		intro:           "Your 2FA code is:",
		action:          "Use this code to complete your sign-in.",
		successMessage:  "2FA OTP verified successfully!",
		notFoundMessage: defaultNotFoundMessage,
		onSuccess:       (*verificationService).completeSignIn,
	},
	models.PurposePasswordReset: {
		subject:         "Reset Your Password",
		title:           "Password Reset Request",
		intro:           "Your password reset OTP is:",
		action:          "Use this code to reset your password.",
		successMessage:  "Password-reset OTP verified successfully!",
		notFoundMessage: "No reset request found or it has already been used. Please request a new password reset.",
		onSuccess:       (*verificationService).grantPasswordReset,
	},
}

func (p purposeSpec) render(code string) string {
	return fmt.Sprintf(`
		<h2>%s</h2>
		<h3>%s <b>%s</b></h3>
		<p>%s</p>
		<p>This OTP is valid for %d minutes.</p>
	`, p.title, p.intro, code, p.action, int(otpTTL/time.Minute))
}

type verificationService struct {
	otps   repositories.OTPRepository
	users  repositories.UserRepository
	emails EmailService
	auth   AuthService
	now    func() time.Time
}

func NewVerificationService(otps repositories.OTPRepository, users repositories.UserRepository, emails EmailService, auth AuthService) VerificationService {
	return &verificationService{
		otps:   otps,
		users:  users,
		emails: emails,
		auth:   auth,
		now:    time.Now,
	}
}

func (s *verificationService) Issue(ctx context.Context, userID uuid.UUID, email string, purpose models.OTPPurpose) (*IssueResult, error) {
	if purpose == "" {
		purpose = models.PurposeEmailVerification
	}
	spec, ok := purposeSpecs[purpose]
	if !ok {
		return nil, flowErr(ErrInvalidInput, "Unknown OTP purpose.")
	}
	email = strings.TrimSpace(email)
	if userID == uuid.Nil || email == "" {
		return nil, flowErr(ErrMissingInput, "User and email are required to send an OTP.")
	}

	now := s.now()
	cnt, err := s.otps.CountLiveSince(ctx, userID, purpose, now.Add(-issueWindow), now)
	if err != nil {
		return nil, err
	}
	if cnt >= maxIssuesPerWindow {
		log.Printf("[otp][issue] throttled user_id=%s purpose=%s live=%d", userID, purpose, cnt)
		return nil, flowErr(ErrRateLimited, "Too many OTP requests. Please wait a few minutes and try again.")
	}

	code, err := utils.NewNumericCode(otpDigits)
	if err != nil {
		return nil, err
	}
	codeHash, err := s.auth.Hash(code)
	if err != nil {
		return nil, err
	}
	ch := &models.OTPChallenge{
		UserID:    userID,
		Purpose:   purpose,
		CodeHash:  codeHash,
		CreatedAt: now,
		ExpiresAt: now.Add(otpTTL),
	}
	if err := s.otps.Create(ctx, ch); err != nil {
		return nil, err
	}

	// The challenge stays in place when delivery fails; it expires on its own.
	if err := s.emails.Send(email, spec.subject, spec.render(code)); err != nil {
		log.Printf("[otp][issue] send failed user_id=%s purpose=%s: %v", userID, purpose, err)
		return nil, flowErr(ErrDeliveryFailure, "Error sending OTP email. Please try again later.")
	}

	log.Printf("[otp][issue] ok user_id=%s purpose=%s expires_at=%s", userID, purpose, ch.ExpiresAt.Format(time.RFC3339))
	return &IssueResult{UserID: userID, Email: email, Purpose: purpose}, nil
}

func (s *verificationService) Validate(ctx context.Context, userID, otp string, purpose models.OTPPurpose) (*VerificationResult, error) {
	userID = strings.TrimSpace(userID)
	otp = strings.TrimSpace(otp)
	if userID == "" || otp == "" {
		return nil, flowErr(ErrMissingInput, "Empty OTP details are not allowed!")
	}
	spec, ok := purposeSpecs[purpose]
	if !ok {
		return nil, flowErr(ErrInvalidInput, "Unknown OTP purpose.")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, flowErr(ErrNotFound, spec.notFoundMessage)
	}

	ch, err := s.otps.GetLatest(ctx, uid, purpose)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, flowErr(ErrNotFound, spec.notFoundMessage)
	}

	if ch.Expired(s.now()) {
		log.Printf("[otp][validate] expired user_id=%s purpose=%s, resending", uid, purpose)
		return s.cycle(ctx, uid, purpose, "OTP has expired. A new code has been sent to your email.")
	}
	if ch.Attempts >= maxValidateAttempts {
		log.Printf("[otp][validate] locked out user_id=%s purpose=%s, resending", uid, purpose)
		return s.cycle(ctx, uid, purpose, "Too many incorrect attempts. A new code has been sent to your email.")
	}

	if !s.auth.Compare(ch.CodeHash, otp) {
		attempts, updated, err := s.otps.IncrementAttempts(ctx, ch.ID, maxValidateAttempts)
		if err != nil {
			return nil, err
		}
		log.Printf("[otp][validate] mismatch user_id=%s purpose=%s attempts=%d counted=%v", uid, purpose, attempts, updated)
		return nil, flowErr(ErrInvalidOTP, "Invalid OTP. Please check your inbox and try again.")
	}

	res := &VerificationResult{Status: StatusSuccess, Message: spec.successMessage}
	if err := spec.onSuccess(s, ctx, uid, res); err != nil {
		return nil, err
	}
	if err := s.otps.DeleteAll(ctx, uid, purpose); err != nil {
		return nil, err
	}
	log.Printf("[otp][validate] ok user_id=%s purpose=%s", uid, purpose)
	return res, nil
}

func (s *verificationService) Resend(ctx context.Context, userID string, purpose models.OTPPurpose) (*IssueResult, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, flowErr(ErrNotFound, "User not found!")
	}
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, flowErr(ErrNotFound, "User not found!")
	}
	return s.Issue(ctx, user.ID, user.Email, purpose)
}

// cycle replaces every outstanding challenge with a freshly issued one.
func (s *verificationService) cycle(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose, msg string) (*VerificationResult, error) {
	if err := s.otps.DeleteAll(ctx, userID, purpose); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, flowErr(ErrNotFound, "User not found!")
	}
	issued, err := s.Issue(ctx, user.ID, user.Email, purpose)
	if err != nil {
		return nil, err
	}
	return &VerificationResult{Status: StatusResend, Message: msg, Data: issued}, nil
}

func (s *verificationService) markEmailVerified(ctx context.Context, userID uuid.UUID, _ *VerificationResult) error {
	if err := s.users.MarkEmailVerified(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return flowErr(ErrNotFound, "User not found!")
		}
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err == nil && user != nil {
		if err := s.emails.SendWelcomeEmail(user.Email, user.Username); err != nil {
			log.Printf("[otp][validate] warning: welcome email to %s failed: %v", user.Email, err)
		}
	}
	return nil
}

func (s *verificationService) completeSignIn(ctx context.Context, userID uuid.UUID, res *VerificationResult) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return flowErr(ErrNotFound, "User not found!")
	}
	token, err := s.auth.IssueAccessToken(user.ID)
	if err != nil {
		return err
	}
	res.Data = user.Public()
	res.AccessToken = token
	return nil
}

func (s *verificationService) grantPasswordReset(_ context.Context, userID uuid.UUID, res *VerificationResult) error {
	token, err := s.auth.IssueResetToken(userID)
	if err != nil {
		return err
	}
	res.Data = &ResetGrant{PasswordResetToken: token}
	return nil
}
