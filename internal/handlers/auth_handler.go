package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grubgo/internal/models"
	"grubgo/internal/services"
)

type AuthHandler struct {
	verification services.VerificationService
	reset        services.PasswordResetService
}

func NewAuthHandler(verification services.VerificationService, reset services.PasswordResetService) *AuthHandler {
	return &AuthHandler{verification: verification, reset: reset}
}

type OTPRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

type ResendRequest struct {
	UserID  string `json:"userId"`
	Purpose string `json:"purpose"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"password_reset_token"`
	NewPassword string `json:"newPassword"`
}

// @Summary      Verify email OTP
// @Description  Confirms the code sent after signup. An expired or locked-out code is replaced and RESEND is returned.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      OTPRequest  true  "user id and code"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/auth/verify-email-otp [post]
func (h *AuthHandler) VerifyEmailOTP(c *gin.Context) {
	h.verify(c, "auth.verify-email", models.PurposeEmailVerification)
}

// @Summary      Verify 2FA OTP
// @Description  Completes sign-in; returns the user and an access token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      OTPRequest  true  "user id and code"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/auth/verify-2fa-otp [post]
func (h *AuthHandler) Verify2FAOTP(c *gin.Context) {
	h.verify(c, "auth.verify-2fa", models.PurposeTwoFactorAuth)
}

func (h *AuthHandler) verify(c *gin.Context, tag string, purpose models.OTPPurpose) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Empty OTP details are not allowed!")
		return
	}
	res, err := h.verification.Validate(c.Request.Context(), req.UserID, req.OTP, purpose)
	if err != nil {
		writeError(c, tag, err)
		return
	}
	writeVerification(c, res)
}

func writeVerification(c *gin.Context, res *services.VerificationResult) {
	env := Envelope{Message: res.Message, Data: res.Data, Token: res.AccessToken}
	if res.Status == services.StatusResend {
		env.Status = string(services.StatusResend)
	}
	ok(c, http.StatusOK, env)
}

// @Summary      Request password reset OTP
// @Description  Always answers with the same confirmation whether or not the account exists.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      PasswordResetRequest  true  "account email"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/auth/request-password-reset-otp [post]
func (h *AuthHandler) RequestPasswordResetOTP(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Email is required!")
		return
	}
	msg, err := h.reset.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, "auth.reset-request", err)
		return
	}
	ok(c, http.StatusOK, Envelope{Message: msg})
}

// @Summary      Verify password reset OTP
// @Description  Exchanges a valid code for a short-lived password_reset_token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      OTPRequest  true  "user id and code"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/auth/verify-password-reset-otp [post]
func (h *AuthHandler) VerifyPasswordResetOTP(c *gin.Context) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Empty OTP details are not allowed!")
		return
	}
	res, err := h.reset.VerifyResetOTP(c.Request.Context(), req.UserID, req.OTP)
	if err != nil {
		writeError(c, "auth.reset-verify", err)
		return
	}
	writeVerification(c, res)
}

// @Summary      Reset password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      ResetPasswordRequest  true  "reset token and new password"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Empty password details are not allowed!")
		return
	}
	msg, err := h.reset.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		writeError(c, "auth.reset-password", err)
		return
	}
	ok(c, http.StatusOK, Envelope{Message: msg})
}

// @Summary      Resend OTP
// @Description  Issues a fresh code for the purpose (EMAIL_VERIFICATION when empty).
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      ResendRequest  true  "user id and purpose"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      429   {object}  Envelope
// @Router       /api/auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req ResendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "User id is required!")
		return
	}
	purpose, err := models.ParsePurpose(req.Purpose)
	if err != nil {
		fail(c, http.StatusBadRequest, "Unknown OTP purpose.")
		return
	}
	issued, err := h.verification.Resend(c.Request.Context(), req.UserID, purpose)
	if err != nil {
		writeError(c, "auth.resend", err, resendStatuses...)
		return
	}
	ok(c, http.StatusOK, Envelope{
		Status:  string(services.StatusPending),
		Message: "A new OTP has been sent to your email.",
		Data:    issued,
	})
}
