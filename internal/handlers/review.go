package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/utils"
)

// ReviewHandler manages product reviews. Every mutation recomputes the
// product's denormalized rating aggregate inside the same transaction, so
// average_rating and num_reviews always equal the aggregate over the
// remaining reviews.
type ReviewHandler struct {
	db *gorm.DB
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{db: db}
}

type createReviewRequest struct {
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
}

// CreateReview adds a review. The caller must have a delivered order
// containing the product, and may review each product only once.
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Rating < 1 || req.Rating > 5 {
		return fiber.NewError(fiber.StatusBadRequest, "rating must be between 1 and 5")
	}

	productID, err := uuid.Parse(req.ProductID)
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

	var deliveredOrderID uuid.UUID
	row := h.db.Model(&models.Order{}).
		Select("orders.id").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.buyer_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, models.OrderDelivered, productID).
		Limit(1).
		Scan(&deliveredOrderID)
	if row.Error != nil {
		return row.Error
	}
	if row.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusForbidden, "reviews require a delivered order for this product")
	}

	var existing models.Review
	if err := h.db.Where("product_id = ? AND user_id = ?", productID, userID).
		First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "you have already reviewed this product")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	review := models.Review{
		ProductID: productID,
		UserID:    userID,
		OrderID:   &deliveredOrderID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return refreshProductRating(tx, productID)
	}); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": review})
}

// ListProductReviews returns reviews for a product. Public.
func (h *ReviewHandler) ListProductReviews(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Review{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var reviews []models.Review
	if err := query.Preload("User").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&reviews).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       reviews,
		"pagination": pg.Meta(total),
	})
}

type updateReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

// UpdateReview edits the caller's own review.
func (h *ReviewHandler) UpdateReview(c *fiber.Ctx) error {
	review, err := h.loadOwnReview(c)
	if err != nil {
		return err
	}

	var req updateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Rating < 1 || req.Rating > 5 {
		return fiber.NewError(fiber.StatusBadRequest, "rating must be between 1 and 5")
	}

	review.Rating = req.Rating
	review.Title = req.Title
	review.Comment = req.Comment

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(review).Error; err != nil {
			return err
		}
		return refreshProductRating(tx, review.ProductID)
	}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": review})
}

// DeleteReview removes the caller's own review (admins may remove any).
func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	review, err := h.loadOwnReview(c)
	if err != nil {
		return err
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Review{}, "id = ?", review.ID).Error; err != nil {
			return err
		}
		return refreshProductRating(tx, review.ProductID)
	}); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ReviewHandler) loadOwnReview(c *fiber.Ctx) (*models.Review, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var review models.Review
	if err := h.db.First(&review, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "review not found")
		}
		return nil, err
	}

	if role != models.RoleAdmin && review.UserID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "review belongs to another user")
	}
	return &review, nil
}

// refreshProductRating recomputes the denormalized aggregate from the
// remaining reviews. With no reviews it resets to 0/0.
func refreshProductRating(tx *gorm.DB, productID uuid.UUID) error {
	var agg struct {
		Avg   float64
		Count int64
	}
	if err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error; err != nil {
		return err
	}

	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"average_rating": agg.Avg,
			"num_reviews":    agg.Count,
		}).Error
}
