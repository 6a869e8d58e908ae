package handlers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/tradegate/internal/config"
	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/services"
	"github.com/example/tradegate/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	mailer   *services.Mailer
	notifier *services.Notifier
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, mailer *services.Mailer, notifier *services.Notifier) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, mailer: mailer, notifier: notifier}
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
	Country     string `json:"country"`
}

// Register creates or overwrites a pending registration and emails a
// one-time verification code. No durable account exists until the code is
// consumed.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if len(req.Password) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	role := models.UserRole(req.Role)
	if req.Role == "" {
		role = models.RoleBuyer
	}
	if !role.IsValid() || role == models.RoleAdmin {
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "an account with this email already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	code, err := generateVerificationCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate verification code")
	}

	now := time.Now()
	pending := models.PendingUser{
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  passwordHash,
		Role:          role,
		CompanyName:   req.CompanyName,
		Country:       req.Country,
		CodeHash:      utils.HashVerificationCode(code),
		CodeExpiresAt: now.Add(h.cfg.CodeTTL),
		ExpiresAt:     now.Add(h.cfg.PendingTTL),
	}

	// Re-registration overwrites the pending record in place, extending
	// both the code expiry and the record expiry. The upsert keeps
	// concurrent registrations for the same email from colliding on the
	// unique index.
	if err := h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "password_hash", "role", "company_name", "country",
			"code_hash", "code_expires_at", "expires_at", "updated_at",
		}),
	}).Create(&pending).Error; err != nil {
		return err
	}

	if err := h.mailer.SendVerificationCode(pending.Email, pending.Name, code); err != nil {
		// A pending record the user cannot act on must not linger.
		h.db.Delete(&models.PendingUser{}, "email = ?", pending.Email)
		return fiber.NewError(fiber.StatusBadGateway, "failed to send verification email")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "verification code sent",
		"data": fiber.Map{
			"email":      pending.Email,
			"expires_at": pending.CodeExpiresAt,
		},
	})
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyEmail consumes a verification code, converting the pending
// registration into a durable account. Wrong code, expired code and missing
// record are indistinguishable to the caller.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and code are required")
	}

	var pending models.PendingUser
	err := h.db.Where("email = ? AND code_hash = ? AND code_expires_at > ?",
		req.Email, utils.HashVerificationCode(req.Code), time.Now()).
		First(&pending).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusBadRequest, "invalid or expired verification code")
		}
		return err
	}

	user := models.User{
		Name:            pending.Name,
		Email:           pending.Email,
		PasswordHash:    pending.PasswordHash,
		Role:            pending.Role,
		CompanyName:     pending.CompanyName,
		Country:         pending.Country,
		AuthProvider:    "local",
		IsEmailVerified: true,
		IsActive:        true,
	}

	// Deleting first, with the affected-rows guard, makes the code
	// single-use: a concurrent verify that loses the race sees zero rows
	// and gets the same indistinguishable rejection.
	if err := h.db.Transaction(func(tx *gorm.DB) error {
		consumed := tx.Delete(&models.PendingUser{}, "id = ?", pending.ID)
		if consumed.Error != nil {
			return consumed.Error
		}
		if consumed.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid or expired verification code")
		}
		return tx.Create(&user).Error
	}); err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, string(user.Role), h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	// Welcome side effects are best effort and never fail the request.
	h.notifier.Notify(user.ID, models.NotificationWelcome, "Welcome to Tradegate",
		"Your account is verified and ready to use.")
	_ = h.mailer.SendWelcome(user.Email, user.Name)

	return c.JSON(fiber.Map{
		"success": true,
		"user":    userProjection(user),
		"token":   token,
	})
}

type resendCodeRequest struct {
	Email string `json:"email"`
}

// ResendCode reissues the verification code on an existing pending
// registration.
func (h *AuthHandler) ResendCode(c *fiber.Ctx) error {
	var req resendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "account is already verified")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	var pending models.PendingUser
	if err := h.db.Where("email = ?", req.Email).First(&pending).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "no pending registration for this email")
		}
		return err
	}

	code, err := generateVerificationCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate verification code")
	}

	now := time.Now()
	pending.CodeHash = utils.HashVerificationCode(code)
	pending.CodeExpiresAt = now.Add(h.cfg.CodeTTL)
	pending.ExpiresAt = now.Add(h.cfg.PendingTTL)
	if err := h.db.Save(&pending).Error; err != nil {
		return err
	}

	if err := h.mailer.SendVerificationCode(pending.Email, pending.Name, code); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to send verification email")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "verification code sent",
		"data": fiber.Map{
			"email":      pending.Email,
			"expires_at": pending.CodeExpiresAt,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a verified, active user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	if !user.IsEmailVerified {
		return fiber.NewError(fiber.StatusForbidden, "email not verified")
	}
	if !user.IsActive {
		return fiber.NewError(fiber.StatusForbidden, "account is deactivated")
	}

	now := time.Now()
	h.db.Model(&user).Update("last_login_at", &now)

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, string(user.Role), h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    userProjection(user),
		"token":   token,
	})
}

type oauthLoginRequest struct {
	Provider string `json:"provider"`
	Subject  string `json:"subject"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// OAuthLogin creates or fetches an account from a gateway-verified OAuth
// profile. Accounts created this way are verified from the start and never
// pass through the pending flow.
func (h *AuthHandler) OAuthLogin(c *fiber.Ctx) error {
	var req oauthLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = normalizeEmail(req.Email)
	if req.Provider == "" || req.Subject == "" || req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "provider, subject and email are required")
	}

	var user models.User
	err := h.db.Where("email = ?", req.Email).First(&user).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		user = models.User{
			Name:            req.Name,
			Email:           req.Email,
			Role:            models.RoleBuyer,
			AuthProvider:    req.Provider,
			IsEmailVerified: true,
			IsActive:        true,
		}
		if err := h.db.Create(&user).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	case !user.IsActive:
		return fiber.NewError(fiber.StatusForbidden, "account is deactivated")
	}

	now := time.Now()
	h.db.Model(&user).Update("last_login_at", &now)

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, string(user.Role), h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    userProjection(user),
		"token":   token,
	})
}

// Me returns the authenticated user's own profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": userProjection(user)})
}

func userProjection(user models.User) fiber.Map {
	return fiber.Map{
		"id":                user.ID,
		"name":              user.Name,
		"email":             user.Email,
		"role":              user.Role,
		"company_name":      user.CompanyName,
		"country":           user.Country,
		"is_email_verified": user.IsEmailVerified,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateVerificationCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
