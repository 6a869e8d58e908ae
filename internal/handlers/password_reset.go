package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/config"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/services"
	"github.com/example/tradegate/internal/utils"
)

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer *services.Mailer
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(db *gorm.DB, cfg *config.Config, mailer *services.Mailer) *PasswordResetHandler {
	return &PasswordResetHandler{db: db, cfg: cfg, mailer: mailer}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword initiates the reset flow: validates the account, issues a
// 6-digit code bound to an opaque token, and emails the code.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	code, err := generateVerificationCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate code")
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}
	resetToken := hex.EncodeToString(tokenBytes)

	// Expire any previous unused reset tokens for this email.
	h.db.Model(&models.PasswordResetToken{}).
		Where("email = ? AND used_at IS NULL", req.Email).
		Update("expires_at", time.Now())

	record := models.PasswordResetToken{
		Email:     req.Email,
		Token:     resetToken,
		CodeHash:  utils.HashVerificationCode(code),
		ExpiresAt: time.Now().Add(h.cfg.CodeTTL),
	}
	if err := h.db.Create(&record).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create reset token")
	}

	if err := h.mailer.SendPasswordResetCode(user.Email, user.Name, code); err != nil {
		h.db.Delete(&models.PasswordResetToken{}, "id = ?", record.ID)
		return fiber.NewError(fiber.StatusBadGateway, "failed to send reset email")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   resetToken,
	})
}

type verifyResetCodeRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// VerifyResetCode verifies the code submitted by the user.
func (h *PasswordResetHandler) VerifyResetCode(c *fiber.Ctx) error {
	var req verifyResetCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Token == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token and code are required")
	}

	var record models.PasswordResetToken
	if err := h.db.Where("token = ?", req.Token).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "invalid reset token")
		}
		return err
	}

	if record.UsedAt != nil {
		return fiber.NewError(fiber.StatusBadRequest, "token already used")
	}

	if record.ExpiresAt.Before(time.Now()) {
		return fiber.NewError(fiber.StatusBadRequest, "token expired")
	}

	if record.CodeHash != utils.HashVerificationCode(req.Code) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid verification code")
	}

	record.Verified = true
	if err := h.db.Save(&record).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"verified": true,
		"token":    record.Token,
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword updates the user's password after successful code
// verification.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Token == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token and new_password are required")
	}

	if len(req.NewPassword) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	var record models.PasswordResetToken
	if err := h.db.Where("token = ?", req.Token).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "invalid reset token")
		}
		return err
	}

	if record.UsedAt != nil {
		return fiber.NewError(fiber.StatusBadRequest, "token already used")
	}

	if record.ExpiresAt.Before(time.Now()) {
		return fiber.NewError(fiber.StatusBadRequest, "token expired")
	}

	if !record.Verified {
		return fiber.NewError(fiber.StatusBadRequest, "code not verified yet")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	if err := h.db.Model(&models.User{}).
		Where("email = ?", record.Email).
		Update("password_hash", hash).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update password")
	}

	now := time.Now()
	record.UsedAt = &now
	h.db.Save(&record)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password updated successfully",
	})
}
