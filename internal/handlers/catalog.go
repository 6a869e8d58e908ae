package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/utils"
)

// CatalogHandler manages categories and supplier profiles.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListCategories returns paginated categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var categories []models.Category
	var total int64

	if err := h.db.Model(&models.Category{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Limit(pg.Limit).Offset(pg.Offset).Order("name asc").
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       categories,
		"pagination": pg.Meta(total),
	})
}

// GetCategory returns a single category by ID.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// CreateCategory persists a new category. Admin only (enforced by route).
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if payload.Name == "" || payload.Slug == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and slug are required")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = category.ID
	if err := h.db.Model(&category).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory removes a category by ID.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListSuppliers returns paginated supplier profiles with optional country
// filter and search.
func (h *CatalogHandler) ListSuppliers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Supplier{})

	if country := c.Query("country"); country != "" {
		query = query.Where("country = ?", country)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("company_name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var suppliers []models.Supplier
	if err := query.Order("company_name asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&suppliers).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       suppliers,
		"pagination": pg.Meta(total),
	})
}

// GetSupplier returns a supplier profile with its product listings.
func (h *CatalogHandler) GetSupplier(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var supplier models.Supplier
	if err := h.db.Preload("Products", "is_active = ?", true).
		First(&supplier, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": supplier})
}

type supplierProfileRequest struct {
	CompanyName   string `json:"company_name"`
	Description   string `json:"description"`
	Country       string `json:"country"`
	City          string `json:"city"`
	Website       string `json:"website"`
	YearFounded   int    `json:"year_founded"`
	EmployeeCount string `json:"employee_count"`
}

// UpsertSupplierProfile creates or updates the calling supplier's profile.
func (h *CatalogHandler) UpsertSupplierProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req supplierProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.CompanyName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "company_name is required")
	}

	var supplier models.Supplier
	err := h.db.Where("user_id = ?", userID).First(&supplier).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}

	supplier.UserID = userID
	supplier.CompanyName = req.CompanyName
	supplier.Description = req.Description
	supplier.Country = req.Country
	supplier.City = req.City
	supplier.Website = req.Website
	supplier.YearFounded = req.YearFounded
	supplier.EmployeeCount = req.EmployeeCount

	if err := h.db.Save(&supplier).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": supplier})
}

// VerifySupplier flips the verified badge. Admin only (enforced by route).
func (h *CatalogHandler) VerifySupplier(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	result := h.db.Model(&models.Supplier{}).Where("id = ?", id).Update("is_verified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "supplier not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"id": id, "is_verified": true}})
}
