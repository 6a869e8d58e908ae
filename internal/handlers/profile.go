package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
)

// ProfileHandler manages the authenticated user's profile, favorites and
// recently viewed products.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

type updateProfileRequest struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
}

// UpdateProfile edits the caller's own profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	user.CompanyName = req.CompanyName
	user.Country = req.Country
	user.Phone = req.Phone

	if err := h.db.Save(&user).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": userProjection(user)})
}

// ListFavorites returns the caller's favorited products.
func (h *ProfileHandler) ListFavorites(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var favorites []models.UserFavorite
	if err := h.db.Preload("Product").Preload("Product.Supplier").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&favorites).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": favorites})
}

// AddFavorite adds a product to the caller's favorites. Idempotent.
func (h *ProfileHandler) AddFavorite(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	favorite := models.UserFavorite{UserID: userID, ProductID: productID}
	if err := h.db.Where("user_id = ? AND product_id = ?", userID, productID).
		FirstOrCreate(&favorite).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": favorite})
}

// RemoveFavorite removes a product from the caller's favorites.
func (h *ProfileHandler) RemoveFavorite(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	if err := h.db.Delete(&models.UserFavorite{},
		"user_id = ? AND product_id = ?", userID, productID).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListRecentlyViewed returns the caller's recently viewed products,
// most recent first.
func (h *ProfileHandler) ListRecentlyViewed(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.Select("id", "recently_viewed").First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if len(user.RecentlyViewed) == 0 {
		return c.JSON(fiber.Map{"success": true, "data": []models.Product{}})
	}

	ids := make([]uuid.UUID, 0, len(user.RecentlyViewed))
	for _, raw := range user.RecentlyViewed {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}

	var products []models.Product
	if err := h.db.Preload("Supplier").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return err
	}

	// Restore the stored ordering; the IN query returns rows unordered.
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": ordered})
}
