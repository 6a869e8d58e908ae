package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/config"
	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/services"
	"github.com/example/tradegate/internal/utils"
)

// QuoteHandler manages the quote lifecycle: pending, responded, then
// accepted or rejected. All transitions are compare-and-swap updates so
// concurrent double-transitions lose instead of silently overwriting.
type QuoteHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	settings *services.SettingsService
	notifier *services.Notifier
}

// NewQuoteHandler constructs QuoteHandler.
func NewQuoteHandler(db *gorm.DB, cfg *config.Config, settings *services.SettingsService, notifier *services.Notifier) *QuoteHandler {
	return &QuoteHandler{db: db, cfg: cfg, settings: settings, notifier: notifier}
}

// validity returns the quote window from admin settings, falling back to the
// environment default when the setting is unset.
func (h *QuoteHandler) validity() time.Duration {
	if days := h.settings.Current().QuoteExpiryDays; days > 0 {
		return time.Duration(days) * 24 * time.Hour
	}
	return h.cfg.QuoteExpiry
}

type createQuoteRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Unit      string `json:"unit"`
	Message   string `json:"message"`
}

// CreateQuote lets a buyer request an offer on a product.
func (h *QuoteHandler) CreateQuote(c *fiber.Ctx) error {
	buyerID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Quantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.db.Preload("Supplier").First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	if product.Supplier == nil {
		return fiber.NewError(fiber.StatusConflict, "product has no supplier profile")
	}

	unit := req.Unit
	if unit == "" {
		unit = product.Unit
	}

	quote := models.Quote{
		BuyerID:    buyerID,
		SupplierID: product.Supplier.UserID,
		ProductID:  product.ID,
		Quantity:   req.Quantity,
		Unit:       unit,
		Message:    req.Message,
		Status:     models.QuotePending,
		ExpiresAt:  time.Now().Add(h.validity()),
	}

	if err := h.db.Create(&quote).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": quote})
}

// ListQuotes returns quotes visible to the caller: own requests for buyers,
// assigned requests for suppliers, everything for admins.
func (h *QuoteHandler) ListQuotes(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Quote{})

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

	var quotes []models.Quote
	if err := query.Preload("Product").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&quotes).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       quotes,
		"pagination": pg.Meta(total),
	})
}

// GetQuote returns a single quote when the caller is a party to it.
func (h *QuoteHandler) GetQuote(c *fiber.Ctx) error {
	quote, err := h.loadQuoteForCaller(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": quote})
}

type respondQuoteRequest struct {
	OfferPrice      float64    `json:"offer_price"`
	OfferMOQ        int        `json:"offer_moq"`
	LeadTimeDays    int        `json:"lead_time_days"`
	OfferValidUntil *time.Time `json:"offer_valid_until"`
	Notes           string     `json:"notes"`
}

// RespondQuote lets the assigned supplier (or an admin) attach a structured
// offer. Legal only while the quote is pending.
func (h *QuoteHandler) RespondQuote(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	quote, err := h.loadQuote(c)
	if err != nil {
		return err
	}

	if role != models.RoleAdmin && quote.SupplierID != userID {
		return fiber.NewError(fiber.StatusForbidden, "only the assigned supplier may respond")
	}

	if err := h.ensureNotExpired(quote); err != nil {
		return err
	}

	var req respondQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OfferPrice <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "offer_price must be positive")
	}

	now := time.Now()
	updates := map[string]any{
		"status":            models.QuoteResponded,
		"offer_price":       req.OfferPrice,
		"offer_moq":         req.OfferMOQ,
		"lead_time_days":    req.LeadTimeDays,
		"offer_valid_until": req.OfferValidUntil,
		"response_notes":    req.Notes,
		"responded_at":      &now,
	}

	if err := h.transition(quote, models.QuoteResponded, updates); err != nil {
		return err
	}

	h.notifier.Notify(quote.BuyerID, models.NotificationQuoteResponded,
		"Quote response received", "A supplier has responded to your quote request.")

	return h.reply(c, quote.ID)
}

// AcceptQuote lets the owning buyer accept a responded quote.
func (h *QuoteHandler) AcceptQuote(c *fiber.Ctx) error {
	return h.decide(c, models.QuoteAccepted)
}

// RejectQuote lets the owning buyer reject a responded quote.
func (h *QuoteHandler) RejectQuote(c *fiber.Ctx) error {
	return h.decide(c, models.QuoteRejected)
}

func (h *QuoteHandler) decide(c *fiber.Ctx, next models.QuoteStatus) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	quote, err := h.loadQuote(c)
	if err != nil {
		return err
	}

	if quote.BuyerID != userID {
		return fiber.NewError(fiber.StatusForbidden, "only the requesting buyer may decide")
	}

	if err := h.ensureNotExpired(quote); err != nil {
		return err
	}

	if err := h.transition(quote, next, map[string]any{"status": next}); err != nil {
		return err
	}

	return h.reply(c, quote.ID)
}

// ensureNotExpired rejects lifecycle actions on a quote whose validity
// window has passed, flipping the row to expired when that transition is
// still legal.
func (h *QuoteHandler) ensureNotExpired(quote *models.Quote) error {
	if !time.Now().After(quote.ExpiresAt) {
		return nil
	}
	if quote.Status.CanTransitionTo(models.QuoteExpired) {
		h.db.Model(&models.Quote{}).
			Where("id = ? AND status = ?", quote.ID, quote.Status).
			Update("status", models.QuoteExpired)
	}
	return fiber.NewError(fiber.StatusConflict, "quote has expired")
}

// transition performs the CAS update guarding the lifecycle: the row must
// still carry the status the handler loaded. Zero rows affected means a
// concurrent transition won or the state was never legal.
func (h *QuoteHandler) transition(quote *models.Quote, next models.QuoteStatus, updates map[string]any) error {
	if !quote.Status.CanTransitionTo(next) {
		return fiber.NewError(fiber.StatusConflict, "illegal quote status transition")
	}

	result := h.db.Model(&models.Quote{}).
		Where("id = ? AND status = ?", quote.ID, quote.Status).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict, "quote status changed concurrently")
	}
	return nil
}

func (h *QuoteHandler) reply(c *fiber.Ctx, id uuid.UUID) error {
	var quote models.Quote
	if err := h.db.Preload("Product").First(&quote, "id = ?", id).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": quote})
}

func (h *QuoteHandler) loadQuote(c *fiber.Ctx) (*models.Quote, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var quote models.Quote
	if err := h.db.First(&quote, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "quote not found")
		}
		return nil, err
	}
	return &quote, nil
}

func (h *QuoteHandler) loadQuoteForCaller(c *fiber.Ctx) (*models.Quote, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	quote, err := h.loadQuote(c)
	if err != nil {
		return nil, err
	}

	if role != models.RoleAdmin && quote.BuyerID != userID && quote.SupplierID != userID {
		return nil, fiber.NewError(fiber.StatusForbidden, "not a party to this quote")
	}

	if err := h.db.Preload("Product").First(quote, "id = ?", quote.ID).Error; err != nil {
		return nil, err
	}
	return quote, nil
}
