package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/tradegate/internal/config"
	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/services"
	"github.com/example/tradegate/internal/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.PendingUser{},
		&models.Supplier{},
		&models.Category{},
		&models.Product{},
		&models.Quote{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Shipment{},
		&models.ShipmentEvent{},
		&models.Review{},
		&models.Notification{},
		&models.Settings{},
	))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "test-secret",
		TokenExpires: time.Hour,
		CodeTTL:      10 * time.Minute,
		PendingTTL:   15 * time.Minute,
		QuoteExpiry:  30 * 24 * time.Hour,
	}
}

func bearer(t *testing.T, cfg *config.Config, userID uuid.UUID, role models.UserRole) string {
	t.Helper()
	token, err := utils.GenerateToken(cfg.JWTSecret, userID, string(role), cfg.TokenExpires)
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonReq(method, target string, payload any) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) models.User {
	t.Helper()
	user := models.User{
		Name:            "User " + email,
		Email:           email,
		Role:            role,
		IsEmailVerified: true,
		IsActive:        true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedSupplier(t *testing.T, db *gorm.DB, email string) (models.User, models.Supplier) {
	t.Helper()
	user := seedUser(t, db, email, models.RoleSupplier)
	supplier := models.Supplier{UserID: user.ID, CompanyName: "Co " + email}
	require.NoError(t, db.Create(&supplier).Error)
	return user, supplier
}

func seedProduct(t *testing.T, db *gorm.DB, supplier models.Supplier, slug string, moq int) models.Product {
	t.Helper()
	product := models.Product{
		Name:       "Product " + slug,
		Slug:       slug,
		SupplierID: supplier.ID,
		UnitPrice:  5,
		Currency:   "USD",
		Unit:       "kg",
		MOQ:        moq,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestShipmentDeliveryMarksOrderDelivered(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()

	supplierUser, _ := seedSupplier(t, db, "acme@example.com")
	buyer := seedUser(t, db, "buyer@example.com", models.RoleBuyer)

	order := models.Order{
		OrderNumber:   "ORD-SHIPTEST",
		BuyerID:       buyer.ID,
		SupplierID:    supplierUser.ID,
		Status:        models.OrderShipped,
		PaymentStatus: models.OrderPaid,
		PlacedAt:      time.Now(),
	}
	require.NoError(t, db.Create(&order).Error)

	shipment := models.Shipment{
		OrderID:         order.ID,
		TrackingNumber:  "TRK-SHIPTEST",
		Status:          models.ShipmentOutForDelivery,
		CurrentLocation: "Distribution hub",
	}
	require.NoError(t, db.Create(&shipment).Error)

	h := NewShipmentHandler(db, services.NewNotifier(db, zerolog.Nop()))
	app := fiber.New()
	app.Put("/shipments/:id/status", middleware.AuthMiddleware(cfg), h.UpdateStatus)

	req := jsonReq(http.MethodPut, "/shipments/"+shipment.ID.String()+"/status",
		fiber.Map{"status": "delivered", "location": "Front door"})
	req.Header.Set("Authorization", bearer(t, cfg, supplierUser.ID, models.RoleSupplier))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var gotShipment models.Shipment
	require.NoError(t, db.First(&gotShipment, "id = ?", shipment.ID).Error)
	assert.Equal(t, models.ShipmentDelivered, gotShipment.Status)
	require.NotNil(t, gotShipment.DeliveredAt)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderDelivered, gotOrder.Status)
	require.NotNil(t, gotOrder.DeliveredAt)

	var events int64
	require.NoError(t, db.Model(&models.ShipmentEvent{}).
		Where("shipment_id = ?", shipment.ID).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestReviewAggregateRoundTrip(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()

	supplierUser, supplier := seedSupplier(t, db, "bolts@example.com")
	buyer := seedUser(t, db, "reviewer@example.com", models.RoleBuyer)
	product := seedProduct(t, db, supplier, "bolts", 1)

	order := models.Order{
		OrderNumber: "ORD-REVTEST",
		BuyerID:     buyer.ID,
		SupplierID:  supplierUser.ID,
		Status:      models.OrderDelivered,
		PlacedAt:    time.Now(),
	}
	require.NoError(t, db.Create(&order).Error)
	item := models.OrderItem{
		OrderID:     order.ID,
		ProductID:   &product.ID,
		ProductName: product.Name,
		Quantity:    1,
		UnitPrice:   5,
		LineTotal:   5,
	}
	require.NoError(t, db.Create(&item).Error)

	h := NewReviewHandler(db)
	app := fiber.New()
	app.Post("/reviews", middleware.AuthMiddleware(cfg), h.CreateReview)
	app.Delete("/reviews/:id", middleware.AuthMiddleware(cfg), h.DeleteReview)

	auth := bearer(t, cfg, buyer.ID, models.RoleBuyer)

	req := jsonReq(http.MethodPost, "/reviews", fiber.Map{
		"product_id": product.ID.String(),
		"rating":     4,
		"title":      "Solid",
		"comment":    "Held up well",
	})
	req.Header.Set("Authorization", auth)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var rated models.Product
	require.NoError(t, db.First(&rated, "id = ?", product.ID).Error)
	assert.Equal(t, 4.0, rated.AverageRating)
	assert.Equal(t, 1, rated.NumReviews)

	var review models.Review
	require.NoError(t, db.First(&review, "product_id = ? AND user_id = ?", product.ID, buyer.ID).Error)

	del := httptest.NewRequest(http.MethodDelete, "/reviews/"+review.ID.String(), nil)
	del.Header.Set("Authorization", auth)
	resp, err = app.Test(del)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	require.NoError(t, db.First(&rated, "id = ?", product.ID).Error)
	assert.Equal(t, 0.0, rated.AverageRating)
	assert.Equal(t, 0, rated.NumReviews)
}

func TestCreateOrderBelowMOQPersistsNothing(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()

	_, supplier := seedSupplier(t, db, "grain@example.com")
	buyer := seedUser(t, db, "wholesale@example.com", models.RoleBuyer)
	product := seedProduct(t, db, supplier, "grain", 10)

	settings := services.NewSettingsService(db)
	require.NoError(t, settings.Init())

	h := NewOrderHandler(db, settings, services.NewNotifier(db, zerolog.Nop()))
	app := fiber.New()
	app.Post("/orders", middleware.AuthMiddleware(cfg), h.CreateOrder)

	req := jsonReq(http.MethodPost, "/orders", fiber.Map{
		"items": []fiber.Map{{"product_id": product.ID.String(), "quantity": 5}},
	})
	req.Header.Set("Authorization", bearer(t, cfg, buyer.ID, models.RoleBuyer))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var orders, items int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestCreateOrderRejectsMixedSuppliers(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()

	_, supplierA := seedSupplier(t, db, "north@example.com")
	_, supplierB := seedSupplier(t, db, "south@example.com")
	buyer := seedUser(t, db, "mixed@example.com", models.RoleBuyer)
	productA := seedProduct(t, db, supplierA, "north-widget", 1)
	productB := seedProduct(t, db, supplierB, "south-widget", 1)

	settings := services.NewSettingsService(db)
	require.NoError(t, settings.Init())

	h := NewOrderHandler(db, settings, services.NewNotifier(db, zerolog.Nop()))
	app := fiber.New()
	app.Post("/orders", middleware.AuthMiddleware(cfg), h.CreateOrder)

	req := jsonReq(http.MethodPost, "/orders", fiber.Map{
		"items": []fiber.Map{
			{"product_id": productA.ID.String(), "quantity": 1},
			{"product_id": productB.ID.String(), "quantity": 1},
		},
	})
	req.Header.Set("Authorization", bearer(t, cfg, buyer.ID, models.RoleBuyer))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestQuoteValidityComesFromSettings(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()

	_, supplier := seedSupplier(t, db, "quoted@example.com")
	buyer := seedUser(t, db, "asker@example.com", models.RoleBuyer)
	product := seedProduct(t, db, supplier, "quoted-widget", 1)

	settings := services.NewSettingsService(db)
	require.NoError(t, settings.Init())
	current := settings.Current()
	current.QuoteExpiryDays = 7
	_, err := settings.Update(current)
	require.NoError(t, err)

	h := NewQuoteHandler(db, cfg, settings, services.NewNotifier(db, zerolog.Nop()))
	app := fiber.New()
	app.Post("/quotes", middleware.AuthMiddleware(cfg), h.CreateQuote)

	req := jsonReq(http.MethodPost, "/quotes", fiber.Map{
		"product_id": product.ID.String(),
		"quantity":   3,
	})
	req.Header.Set("Authorization", bearer(t, cfg, buyer.ID, models.RoleBuyer))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var quote models.Quote
	require.NoError(t, db.First(&quote, "buyer_id = ?", buyer.ID).Error)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), quote.ExpiresAt, time.Minute)
}

func TestExpiredQuoteCannotBeAccepted(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()

	supplierUser, supplier := seedSupplier(t, db, "late@example.com")
	buyer := seedUser(t, db, "slow@example.com", models.RoleBuyer)
	product := seedProduct(t, db, supplier, "late-widget", 1)

	price := 9.5
	quote := models.Quote{
		BuyerID:    buyer.ID,
		SupplierID: supplierUser.ID,
		ProductID:  product.ID,
		Quantity:   2,
		Status:     models.QuoteResponded,
		OfferPrice: &price,
		ExpiresAt:  time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&quote).Error)

	settings := services.NewSettingsService(db)
	require.NoError(t, settings.Init())

	h := NewQuoteHandler(db, cfg, settings, services.NewNotifier(db, zerolog.Nop()))
	app := fiber.New()
	app.Post("/quotes/:id/accept", middleware.AuthMiddleware(cfg), h.AcceptQuote)

	req := jsonReq(http.MethodPost, "/quotes/"+quote.ID.String()+"/accept", nil)
	req.Header.Set("Authorization", bearer(t, cfg, buyer.ID, models.RoleBuyer))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var got models.Quote
	require.NoError(t, db.First(&got, "id = ?", quote.ID).Error)
	assert.Equal(t, models.QuoteExpired, got.Status)
}

func TestRegisterTwiceKeepsOnePendingRecord(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()

	mailer := services.NewMailer("", "", "noreply@tradegate.example", zerolog.Nop())
	h := NewAuthHandler(db, cfg, mailer, services.NewNotifier(db, zerolog.Nop()))
	app := fiber.New()
	app.Post("/register", h.Register)

	payload := fiber.Map{
		"name":     "Pat",
		"email":    "pat@example.com",
		"password": "secret123",
	}

	resp, err := app.Test(jsonReq(http.MethodPost, "/register", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var first models.PendingUser
	require.NoError(t, db.First(&first, "email = ?", "pat@example.com").Error)

	resp, err = app.Test(jsonReq(http.MethodPost, "/register", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.PendingUser{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var second models.PendingUser
	require.NoError(t, db.First(&second, "email = ?", "pat@example.com").Error)
	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.CodeHash, second.CodeHash)
}

func TestVerifyEmailConsumesCodeOnce(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()

	pending := models.PendingUser{
		Name:          "Vera",
		Email:         "vera@example.com",
		PasswordHash:  "irrelevant",
		Role:          models.RoleBuyer,
		CodeHash:      utils.HashVerificationCode("654321"),
		CodeExpiresAt: time.Now().Add(10 * time.Minute),
		ExpiresAt:     time.Now().Add(15 * time.Minute),
	}
	require.NoError(t, db.Create(&pending).Error)

	mailer := services.NewMailer("", "", "noreply@tradegate.example", zerolog.Nop())
	h := NewAuthHandler(db, cfg, mailer, services.NewNotifier(db, zerolog.Nop()))
	app := fiber.New()
	app.Post("/verify", h.VerifyEmail)

	wrong := jsonReq(http.MethodPost, "/verify", fiber.Map{"email": "vera@example.com", "code": "000000"})
	resp, err := app.Test(wrong)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)

	right := jsonReq(http.MethodPost, "/verify", fiber.Map{"email": "vera@example.com", "code": "654321"})
	resp, err = app.Test(right)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "vera@example.com").Error)
	assert.True(t, user.IsEmailVerified)
	assert.True(t, user.IsActive)

	var remaining int64
	require.NoError(t, db.Model(&models.PendingUser{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	again := jsonReq(http.MethodPost, "/verify", fiber.Map{"email": "vera@example.com", "code": "654321"})
	resp, err = app.Test(again)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
