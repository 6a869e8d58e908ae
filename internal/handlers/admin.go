package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/services"
)

// AdminHandler exposes marketplace settings and dashboard statistics.
type AdminHandler struct {
	db       *gorm.DB
	settings *services.SettingsService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, settings *services.SettingsService) *AdminHandler {
	return &AdminHandler{db: db, settings: settings}
}

// GetSettings returns the current marketplace settings.
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.settings.Current()})
}

// UpdateSettings persists new marketplace settings.
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var input models.Settings
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if input.TaxRate < 0 || input.TaxRate > 1 {
		return fiber.NewError(fiber.StatusBadRequest, "tax_rate must be between 0 and 1")
	}
	if input.ShippingFlatRate < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "shipping_flat_rate must not be negative")
	}

	updated, err := h.settings.Update(input)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": updated})
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Dashboard returns aggregate marketplace statistics.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	var userCount, supplierCount, productCount int64
	if err := h.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Supplier{}).Count(&supplierCount).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&productCount).Error; err != nil {
		return err
	}

	var quotesByStatus []statusCount
	if err := h.db.Model(&models.Quote{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&quotesByStatus).Error; err != nil {
		return err
	}

	var ordersByStatus []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&ordersByStatus).Error; err != nil {
		return err
	}

	var revenue float64
	if err := h.db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("payment_status = ?", models.OrderPaid).
		Scan(&revenue).Error; err != nil {
		return err
	}

	var openContacts int64
	if err := h.db.Model(&models.Contact{}).
		Where("status <> ?", models.ContactResolved).
		Count(&openContacts).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"users":            userCount,
			"suppliers":        supplierCount,
			"active_products":  productCount,
			"quotes_by_status": quotesByStatus,
			"orders_by_status": ordersByStatus,
			"revenue":          revenue,
			"open_contacts":    openContacts,
		},
	})
}

// ListUsers returns all accounts for the admin panel.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := h.db.Order("created_at desc").Limit(200).Find(&users).Error; err != nil {
		return err
	}

	projections := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		p := userProjection(user)
		p["is_active"] = user.IsActive
		p["created_at"] = user.CreatedAt
		projections = append(projections, p)
	}

	return c.JSON(fiber.Map{"success": true, "data": projections})
}

// SetUserActive toggles an account's active flag.
func (h *AdminHandler) SetUserActive(c *fiber.Ctx) error {
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result := h.db.Model(&models.User{}).
		Where("id = ?", c.Params("id")).
		Update("is_active", req.IsActive)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.JSON(fiber.Map{"success": true})
}
