package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/services"
	"github.com/example/tradegate/internal/utils"
)

// ShipmentHandler manages shipment endpoints. Creating a shipment marks the
// order shipped; delivering it marks the order delivered. Both side effects
// run in the same transaction as the shipment write.
type ShipmentHandler struct {
	db       *gorm.DB
	notifier *services.Notifier
}

// NewShipmentHandler constructs ShipmentHandler.
func NewShipmentHandler(db *gorm.DB, notifier *services.Notifier) *ShipmentHandler {
	return &ShipmentHandler{db: db, notifier: notifier}
}

type createShipmentRequest struct {
	OrderID           string     `json:"order_id"`
	Carrier           string     `json:"carrier"`
	Origin            string     `json:"origin"`
	Destination       string     `json:"destination"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// CreateShipment opens a shipment for an order. Supplier or admin only.
func (h *ShipmentHandler) CreateShipment(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	var req createShipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if role != models.RoleAdmin && order.SupplierID != userID {
		return fiber.NewError(fiber.StatusForbidden, "order belongs to another supplier")
	}

	if !order.Status.CanTransitionTo(models.OrderShipped) {
		return fiber.NewError(fiber.StatusConflict, "order cannot be shipped from its current status")
	}

	now := time.Now()
	shipment := models.Shipment{
		OrderID:           order.ID,
		TrackingNumber:    "TRK-" + ulid.Make().String(),
		Carrier:           req.Carrier,
		Status:            models.ShipmentPendingPickup,
		Origin:            req.Origin,
		Destination:       req.Destination,
		CurrentLocation:   req.Origin,
		EstimatedDelivery: req.EstimatedDelivery,
		Events: []models.ShipmentEvent{{
			Status:      models.ShipmentPendingPickup,
			Location:    req.Origin,
			Description: "Shipment created, awaiting carrier pickup",
			OccurredAt:  now,
		}},
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&shipment).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Update("status", models.OrderShipped)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "order status changed concurrently")
		}
		return nil
	}); err != nil {
		return err
	}

	h.notifier.Notify(order.BuyerID, models.NotificationShipmentStatus,
		"Order shipped", fmt.Sprintf("Order %s has shipped. Tracking number %s.",
			order.OrderNumber, shipment.TrackingNumber))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": shipment})
}

// ListShipments returns shipments visible to the caller.
func (h *ShipmentHandler) ListShipments(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Shipment{}).
		Joins("JOIN orders ON orders.id = shipments.order_id")

	switch role {
	case models.RoleBuyer:
		query = query.Where("orders.buyer_id = ?", userID)
	case models.RoleSupplier:
		query = query.Where("orders.supplier_id = ?", userID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("shipments.status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var shipments []models.Shipment
	if err := query.Order("shipments.created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&shipments).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       shipments,
		"pagination": pg.Meta(total),
	})
}

// GetShipment returns a shipment with its tracking history.
func (h *ShipmentHandler) GetShipment(c *fiber.Ctx) error {
	shipment, order, err := h.loadShipmentForCaller(c)
	if err != nil {
		return err
	}

	if err := h.db.Preload("Events", func(db *gorm.DB) *gorm.DB {
		return db.Order("occurred_at asc")
	}).First(shipment, "id = ?", shipment.ID).Error; err != nil {
		return err
	}
	shipment.Order = order

	return c.JSON(fiber.Map{"success": true, "data": shipment})
}

type trackShipmentEventRequest struct {
	Location    string `json:"location"`
	Description string `json:"description"`
}

// AddTrackingEvent appends a location update to the history without
// changing the shipment status. History is append-only.
func (h *ShipmentHandler) AddTrackingEvent(c *fiber.Ctx) error {
	shipment, _, err := h.loadShipmentForUpdate(c)
	if err != nil {
		return err
	}

	var req trackShipmentEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Location == "" {
		return fiber.NewError(fiber.StatusBadRequest, "location is required")
	}

	event := models.ShipmentEvent{
		ShipmentID:  shipment.ID,
		Status:      shipment.Status,
		Location:    req.Location,
		Description: req.Description,
		OccurredAt:  time.Now(),
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		return tx.Model(&models.Shipment{}).
			Where("id = ?", shipment.ID).
			Update("current_location", req.Location).Error
	}); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": event})
}

type updateShipmentStatusRequest struct {
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// UpdateStatus moves the shipment through its lifecycle, appending a
// tracking event. Delivery also marks the parent order delivered and stamps
// both delivery timestamps, atomically.
func (h *ShipmentHandler) UpdateStatus(c *fiber.Ctx) error {
	shipment, order, err := h.loadShipmentForUpdate(c)
	if err != nil {
		return err
	}

	var req updateShipmentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	next := models.ShipmentStatus(req.Status)
	if !next.IsValid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown shipment status")
	}
	if !shipment.Status.CanTransitionTo(next) {
		return fiber.NewError(fiber.StatusConflict, "illegal shipment status transition")
	}

	now := time.Now()
	location := req.Location
	if location == "" {
		location = shipment.CurrentLocation
	}

	updates := map[string]any{
		"status":           next,
		"current_location": location,
	}
	if next == models.ShipmentDelivered {
		updates["delivered_at"] = &now
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Shipment{}).
			Where("id = ? AND status = ?", shipment.ID, shipment.Status).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "shipment status changed concurrently")
		}

		event := models.ShipmentEvent{
			ShipmentID:  shipment.ID,
			Status:      next,
			Location:    location,
			Description: req.Description,
			OccurredAt:  now,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		if next == models.ShipmentDelivered {
			return tx.Model(&models.Order{}).
				Where("id = ?", shipment.OrderID).
				Updates(map[string]any{
					"status":       models.OrderDelivered,
					"delivered_at": &now,
				}).Error
		}
		return nil
	}); err != nil {
		return err
	}

	h.notifier.Notify(order.BuyerID, models.NotificationShipmentStatus,
		"Shipment update", fmt.Sprintf("Shipment %s is now %s.", shipment.TrackingNumber, next))

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":               shipment.ID,
		"status":           next,
		"current_location": location,
	}})
}

func (h *ShipmentHandler) loadShipment(c *fiber.Ctx) (*models.Shipment, *models.Order, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var shipment models.Shipment
	if err := h.db.First(&shipment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fiber.NewError(fiber.StatusNotFound, "shipment not found")
		}
		return nil, nil, err
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", shipment.OrderID).Error; err != nil {
		return nil, nil, err
	}

	return &shipment, &order, nil
}

func (h *ShipmentHandler) loadShipmentForCaller(c *fiber.Ctx) (*models.Shipment, *models.Order, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	shipment, order, err := h.loadShipment(c)
	if err != nil {
		return nil, nil, err
	}

	if role != models.RoleAdmin && order.BuyerID != userID && order.SupplierID != userID {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "not a party to this shipment")
	}
	return shipment, order, nil
}

func (h *ShipmentHandler) loadShipmentForUpdate(c *fiber.Ctx) (*models.Shipment, *models.Order, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	shipment, order, err := h.loadShipment(c)
	if err != nil {
		return nil, nil, err
	}

	if role != models.RoleAdmin && order.SupplierID != userID {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "only the supplier may update the shipment")
	}
	return shipment, order, nil
}
