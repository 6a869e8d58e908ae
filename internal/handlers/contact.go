package handlers

import (
	"net/mail"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/utils"
)

// ContactHandler manages contact form messages.
type ContactHandler struct {
	db *gorm.DB
}

// NewContactHandler constructs ContactHandler.
func NewContactHandler(db *gorm.DB) *ContactHandler {
	return &ContactHandler{db: db}
}

type createContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// CreateContact accepts a message from the public contact form.
func (h *ContactHandler) CreateContact(c *fiber.Ctx) error {
	var req createContactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.Email == "" || req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, email and message are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid email format")
	}

	contact := models.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		Status:  models.ContactNew,
	}

	if err := h.db.Create(&contact).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": contact})
}

// ListContacts returns paginated contact messages. Admin only (enforced by
// route).
func (h *ContactHandler) ListContacts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Contact{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var contacts []models.Contact
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&contacts).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       contacts,
		"pagination": pg.Meta(total),
	})
}

type updateContactStatusRequest struct {
	Status string `json:"status"`
}

// UpdateContactStatus moves a contact message between handling states.
func (h *ContactHandler) UpdateContactStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateContactStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Status {
	case models.ContactNew, models.ContactInProgress, models.ContactResolved:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown contact status")
	}

	result := h.db.Model(&models.Contact{}).Where("id = ?", id).Update("status", req.Status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "contact not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"id": id, "status": req.Status}})
}
