package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/utils"
)

// NotificationHandler manages the caller's in-app notifications.
type NotificationHandler struct {
	db *gorm.DB
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// ListNotifications returns the caller's notifications, newest first.
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var notifications []models.Notification
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&notifications).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       notifications,
		"pagination": pg.Meta(total),
	})
}

// UnreadCount returns the number of unread notifications.
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var count int64
	if err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"unread": count}})
}

// MarkRead marks a single notification as read.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	now := time.Now()
	result := h.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "notification not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkAllRead marks every unread notification as read.
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	now := time.Now()
	if err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": &now}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}
