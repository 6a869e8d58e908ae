package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/utils"
)

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

var productFilterColumns = map[string]bool{
	"unit_price":        true,
	"moq":               true,
	"lead_time_days":    true,
	"country_of_origin": true,
	"unit":              true,
	"currency":          true,
}

var productSortColumns = map[string]bool{
	"unit_price":     true,
	"created_at":     true,
	"average_rating": true,
	"moq":            true,
	"name":           true,
}

// ListProducts returns paginated active products with optional filters,
// search and sort per the shared query contract.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{}).Where("is_active = ?", true)

	if v := c.Query("category_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			query = query.Where("category_id = ?", id)
		}
	}

	if v := c.Query("supplier_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			query = query.Where("supplier_id = ?", id)
		}
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", q, q)
	}

	query = utils.ApplyFilters(query, c, productFilterColumns)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	query = utils.ApplySort(query, c, productSortColumns, "created_at desc")

	var products []models.Product
	if err := query.Preload("Category").Preload("Supplier").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       products,
		"pagination": pg.Meta(total),
	})
}

// GetProduct loads a product with its relations. When the caller is an
// authenticated buyer, the view is recorded in their recently viewed list.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.Preload("Category").Preload("Supplier").
		First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	if userID, ok := middleware.GetCurrentUserID(c); ok {
		h.recordView(userID, product.ID)
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// recordView maintains the capped, deduplicated recently viewed list. Best
// effort: a failed write never fails the product read.
func (h *ProductHandler) recordView(userID, productID uuid.UUID) {
	var user models.User
	if err := h.db.Select("id", "recently_viewed").First(&user, "id = ?", userID).Error; err != nil {
		return
	}

	updated := models.PushRecentlyViewed(user.RecentlyViewed, productID.String())
	h.db.Model(&models.User{}).Where("id = ?", userID).
		Update("recently_viewed", pq.StringArray(updated))
}

type productRequest struct {
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Description     string   `json:"description"`
	CategoryID      string   `json:"category_id"`
	UnitPrice       float64  `json:"unit_price"`
	Currency        string   `json:"currency"`
	Unit            string   `json:"unit"`
	MOQ             int      `json:"moq"`
	LeadTimeDays    int      `json:"lead_time_days"`
	CountryOfOrigin string   `json:"country_of_origin"`
	HSCode          string   `json:"hs_code"`
	Images          []string `json:"images"`
	IsActive        *bool    `json:"is_active"`
}

// CreateProduct lets a supplier list a product under their own profile.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	supplier, err := h.supplierForCaller(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.Slug == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and slug are required")
	}
	if req.UnitPrice <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "unit_price must be positive")
	}
	if req.MOQ < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "moq must be at least 1")
	}

	product := models.Product{
		Name:            req.Name,
		Slug:            req.Slug,
		Description:     req.Description,
		SupplierID:      supplier.ID,
		UnitPrice:       req.UnitPrice,
		Currency:        req.Currency,
		Unit:            req.Unit,
		MOQ:             req.MOQ,
		LeadTimeDays:    req.LeadTimeDays,
		CountryOfOrigin: req.CountryOfOrigin,
		HSCode:          req.HSCode,
		Images:          req.Images,
		IsActive:        true,
	}

	if req.CategoryID != "" {
		if id, err := uuid.Parse(req.CategoryID); err == nil {
			product.CategoryID = &id
		}
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct updates a listing owned by the calling supplier (admins may
// update any). Rating aggregates are never writable through this endpoint.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	product, err := h.loadOwnedProduct(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Slug != "" {
		product.Slug = req.Slug
	}
	product.Description = req.Description
	if req.UnitPrice > 0 {
		product.UnitPrice = req.UnitPrice
	}
	if req.Currency != "" {
		product.Currency = req.Currency
	}
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if req.MOQ >= 1 {
		product.MOQ = req.MOQ
	}
	product.LeadTimeDays = req.LeadTimeDays
	product.CountryOfOrigin = req.CountryOfOrigin
	product.HSCode = req.HSCode
	if req.Images != nil {
		product.Images = req.Images
	}
	if req.CategoryID != "" {
		if id, err := uuid.Parse(req.CategoryID); err == nil {
			product.CategoryID = &id
		}
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.db.Save(product).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a listing owned by the calling supplier.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	product, err := h.loadOwnedProduct(c)
	if err != nil {
		return err
	}

	if err := h.db.Delete(&models.Product{}, "id = ?", product.ID).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) supplierForCaller(c *fiber.Ctx) (*models.Supplier, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var supplier models.Supplier
	if err := h.db.Where("user_id = ?", userID).First(&supplier).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusForbidden, "supplier profile required")
		}
		return nil, err
	}
	return &supplier, nil
}

func (h *ProductHandler) loadOwnedProduct(c *fiber.Ctx) (*models.Product, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.Preload("Supplier").First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return nil, err
	}

	if role != models.RoleAdmin && (product.Supplier == nil || product.Supplier.UserID != userID) {
		return nil, fiber.NewError(fiber.StatusForbidden, "product belongs to another supplier")
	}
	return &product, nil
}
