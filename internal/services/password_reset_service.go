package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"grubgo/internal/models"
	"grubgo/internal/repositories"
)

const (
	minPasswordLength = 8

	resetRequestedMessage = "If an account with that email exists, a password reset OTP has been sent."
)

type PasswordResetService interface {
	// RequestReset always answers with the same confirmation so callers cannot probe for accounts.
	RequestReset(ctx context.Context, email string) (string, error)
	VerifyResetOTP(ctx context.Context, userID, otp string) (*VerificationResult, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
}

type passwordResetService struct {
	userRepo     repositories.UserRepository
	verification VerificationService
	auth         AuthService
}

func NewPasswordResetService(userRepo repositories.UserRepository, verification VerificationService, auth AuthService) PasswordResetService {
	return &passwordResetService{
		userRepo:     userRepo,
		verification: verification,
		auth:         auth,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", flowErr(ErrMissingInput, "Email is required!")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		log.Printf("[password-reset] request for %q: user not found or error: %v", email, err)
		return resetRequestedMessage, nil
	}
	if _, err := s.verification.Issue(ctx, user.ID, user.Email, models.PurposePasswordReset); err != nil {
		log.Printf("[password-reset] issue for user_id=%s failed: %v", user.ID, err)
	}
	return resetRequestedMessage, nil
}

func (s *passwordResetService) VerifyResetOTP(ctx context.Context, userID, otp string) (*VerificationResult, error) {
	return s.verification.Validate(ctx, userID, otp, models.PurposePasswordReset)
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	token = strings.TrimSpace(token)
	newPassword = strings.TrimSpace(newPassword)
	if token == "" || newPassword == "" {
		return "", flowErr(ErrMissingInput, "Empty password details are not allowed!")
	}
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return "", flowErr(ErrWeakPassword, "Password must be at least 8 characters long!")
	}

	userID, err := s.auth.ParseResetToken(token)
	if err != nil {
		log.Printf("[password-reset] rejected token: %v", err)
		return "", flowErr(ErrInvalidToken, "Invalid or expired password reset token!")
	}

	hash, err := s.auth.Hash(newPassword)
	if err != nil {
		return "", err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", flowErr(ErrNotFound, "User not found!")
		}
		return "", err
	}
	log.Printf("[password-reset] password updated user_id=%s", userID)
	return "Password reset successfully!", nil
}
