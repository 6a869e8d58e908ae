package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/utils"
)

// PaymentHandler manages payment endpoints. Creating a payment and marking
// the parent order paid happen inside a single transaction, so a failed
// payment write can never leave an order falsely marked paid.
type PaymentHandler struct {
	db *gorm.DB
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{db: db}
}

type createPaymentRequest struct {
	OrderID string `json:"order_id"`
	Method  string `json:"method"`
}

var paymentMethods = map[string]bool{
	"card":             true,
	"wire_transfer":    true,
	"escrow":           true,
	"letter_of_credit": true,
}

// CreatePayment settles an order owned by the caller.
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	buyerID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if !paymentMethods[req.Method] {
		return fiber.NewError(fiber.StatusBadRequest, "unknown payment method")
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

	if order.BuyerID != buyerID {
		return fiber.NewError(fiber.StatusForbidden, "order belongs to another buyer")
	}

	if order.PaymentStatus == models.OrderPaid {
		return fiber.NewError(fiber.StatusConflict, "order is already paid")
	}

	now := time.Now()
	payment := models.Payment{
		OrderID:        order.ID,
		BuyerID:        buyerID,
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
		Method:         req.Method,
		Status:         models.PaymentCompleted,
		TransactionRef: "PAY-" + ulid.Make().String(),
		PaidAt:         &now,
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("payment_status", models.OrderPaid).Error
	}); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payment})
}

// ListPayments returns payments visible to the caller.
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Payment{})

	if role != models.RoleAdmin {
		query = query.Where("buyer_id = ?", userID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var payments []models.Payment
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&payments).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       payments,
		"pagination": pg.Meta(total),
	})
}

// GetPayment returns a single payment.
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var payment models.Payment
	if err := h.db.First(&payment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "payment not found")
		}
		return err
	}

	if role != models.RoleAdmin && payment.BuyerID != userID {
		return fiber.NewError(fiber.StatusForbidden, "payment belongs to another buyer")
	}

	return c.JSON(fiber.Map{"success": true, "data": payment})
}

type refundPaymentRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// RefundPayment refunds a completed payment. The refund sub-record is
// written once and never modified; the parent order's payment marker is
// flipped in the same transaction.
func (h *PaymentHandler) RefundPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var payment models.Payment
	if err := h.db.First(&payment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "payment not found")
		}
		return err
	}

	if !payment.Status.CanRefund() {
		return fiber.NewError(fiber.StatusConflict, "only completed payments can be refunded")
	}

	var req refundPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	amount := req.Amount
	if amount == 0 {
		amount = payment.Amount
	}
	if amount <= 0 || amount > payment.Amount {
		return fiber.NewError(fiber.StatusBadRequest, "invalid refund amount")
	}

	now := time.Now()
	if err := h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentCompleted).
			Updates(map[string]any{
				"status":        models.PaymentRefunded,
				"refund_amount": amount,
				"refund_reason": req.Reason,
				"refunded_at":   &now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "payment status changed concurrently")
		}
		return tx.Model(&models.Order{}).
			Where("id = ?", payment.OrderID).
			Update("payment_status", models.OrderPaymentRefunded).Error
	}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":            payment.ID,
		"status":        models.PaymentRefunded,
		"refund_amount": amount,
		"refunded_at":   now,
	}})
}
