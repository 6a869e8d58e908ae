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

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db       *gorm.DB
	settings *services.SettingsService
	notifier *services.Notifier
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, settings *services.SettingsService, notifier *services.Notifier) *OrderHandler {
	return &OrderHandler{db: db, settings: settings, notifier: notifier}
}

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items            []orderItemRequest `json:"items"`
	ShippingAddress  string             `json:"shipping_address"`
	ShippingCity     string             `json:"shipping_city"`
	ShippingCountry  string             `json:"shipping_country"`
	ShippingPostcode string             `json:"shipping_postcode"`
	Incoterm         string             `json:"incoterm"`
	Notes            string             `json:"notes"`
}

// CreateOrder places an order. Every item's product must exist and meet its
// minimum order quantity; prices are snapshotted into the items and the
// total is computed once, here, never again.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	buyerID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order must contain at least one item")
	}

	var supplierID uuid.UUID
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		var product models.Product
		if err := h.db.Preload("Supplier").First(&product, "id = ?", productID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("product %s not found", productID))
			}
			return err
		}

		if line.Quantity < product.MOQ {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("quantity %d is below the minimum order quantity %d for %s",
					line.Quantity, product.MOQ, product.Name))
		}

		if product.Supplier == nil {
			return fiber.NewError(fiber.StatusConflict, "product has no supplier profile")
		}
		// An order binds one supplier to its lifecycle, so mixed carts
		// are rejected rather than silently attributed to the first
		// item's supplier.
		if supplierID == uuid.Nil {
			supplierID = product.Supplier.UserID
		} else if supplierID != product.Supplier.UserID {
			return fiber.NewError(fiber.StatusBadRequest, "all items must belong to the same supplier")
		}

		items = append(items, models.OrderItem{
			ProductID:   &product.ID,
			ProductName: product.Name,
			Unit:        product.Unit,
			Quantity:    line.Quantity,
			UnitPrice:   product.UnitPrice,
			LineTotal:   product.UnitPrice * float64(line.Quantity),
		})
	}

	settings := h.settings.Current()
	subtotal, _ := models.ComputeTotals(items, 0, 0)
	shipping := settings.ShippingFlatRate
	tax := subtotal * settings.TaxRate
	_, total := models.ComputeTotals(items, shipping, tax)

	order := models.Order{
		OrderNumber:      "ORD-" + ulid.Make().String(),
		BuyerID:          buyerID,
		SupplierID:       supplierID,
		Status:           models.OrderPending,
		PaymentStatus:    models.OrderUnpaid,
		Subtotal:         subtotal,
		ShippingCost:     shipping,
		Tax:              tax,
		TotalAmount:      total,
		Currency:         settings.DefaultCurrency,
		ShippingAddress:  req.ShippingAddress,
		ShippingCity:     req.ShippingCity,
		ShippingCountry:  req.ShippingCountry,
		ShippingPostcode: req.ShippingPostcode,
		Incoterm:         req.Incoterm,
		Notes:            req.Notes,
		PlacedAt:         time.Now(),
		Items:            items,
	}

	if err := h.db.Create(&order).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"placed_at":    order.PlacedAt,
			"subtotal":     order.Subtotal,
			"total":        order.TotalAmount,
			"currency":     order.Currency,
		},
	})
}

// ListOrders returns orders visible to the caller.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	switch role {
	case models.RoleBuyer:
		query = query.Where("buyer_id = ?", userID)
	case models.RoleSupplier:
		query = query.Where("supplier_id = ?", userID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// GetOrder returns a single order for a party to it.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.loadOrderForCaller(c)
	if err != nil {
		return err
	}

	if err := h.db.Preload("Items").First(order, "id = ?", order.ID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// CancelOrder lets the buyer cancel while the order is still pending or
// confirmed. One-way transition.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if order.BuyerID != userID {
		return fiber.NewError(fiber.StatusForbidden, "only the buyer may cancel")
	}

	if !order.Status.CanCancel() {
		return fiber.NewError(fiber.StatusConflict, "order can no longer be cancelled")
	}

	result := h.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Update("status", models.OrderCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict, "order status changed concurrently")
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":     order.ID,
		"status": models.OrderCancelled,
	}})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves the order forward in its lifecycle. Supplier or admin
// only; delivered stamps the delivery timestamp.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if role != models.RoleAdmin && order.SupplierID != userID {
		return fiber.NewError(fiber.StatusForbidden, "only the supplier may update order status")
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	next := models.OrderStatus(req.Status)
	if !next.IsValid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown order status")
	}
	if !order.Status.CanTransitionTo(next) {
		return fiber.NewError(fiber.StatusConflict, "illegal order status transition")
	}

	updates := map[string]any{"status": next}
	if next == models.OrderDelivered {
		now := time.Now()
		updates["delivered_at"] = &now
	}

	result := h.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict, "order status changed concurrently")
	}

	h.notifier.Notify(order.BuyerID, models.NotificationOrderStatus,
		"Order status updated", fmt.Sprintf("Order %s is now %s.", order.OrderNumber, next))

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":     order.ID,
		"status": next,
	}})
}

func (h *OrderHandler) loadOrder(c *fiber.Ctx) (*models.Order, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (h *OrderHandler) loadOrderForCaller(c *fiber.Ctx) (*models.Order, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	order, err := h.loadOrder(c)
	if err != nil {
		return nil, err
	}

	if role != models.RoleAdmin && order.BuyerID != userID && order.SupplierID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "not a party to this order")
	}
	return order, nil
}
