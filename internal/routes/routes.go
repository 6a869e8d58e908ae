package routes

import (
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"

	"github.com/example/tradegate/internal/config"
	"github.com/example/tradegate/internal/handlers"
	"github.com/example/tradegate/internal/middleware"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, log zerolog.Logger, settings *services.SettingsService) {
	mailer := services.NewMailer(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom, log)
	notifier := services.NewNotifier(db, log)

	authHandler := handlers.NewAuthHandler(db, cfg, mailer, notifier)
	resetHandler := handlers.NewPasswordResetHandler(db, cfg, mailer)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db)
	quoteHandler := handlers.NewQuoteHandler(db, cfg, settings, notifier)
	orderHandler := handlers.NewOrderHandler(db, settings, notifier)
	paymentHandler := handlers.NewPaymentHandler(db)
	shipmentHandler := handlers.NewShipmentHandler(db, notifier)
	reviewHandler := handlers.NewReviewHandler(db)
	profileHandler := handlers.NewProfileHandler(db)
	contactHandler := handlers.NewContactHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)
	adminHandler := handlers.NewAdminHandler(db, settings)

	// Credential endpoints are throttled per client IP.
	authLimiter := middleware.NewRateLimiter(rate.Limit(1), 10)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth", authLimiter.Middleware())
	auth.Post("/register", authHandler.Register)
	auth.Post("/verify-email", authHandler.VerifyEmail)
	auth.Post("/resend-code", authHandler.ResendCode)
	auth.Post("/login", authHandler.Login)
	auth.Post("/oauth", authHandler.OAuthLogin)
	auth.Post("/forgot-password", resetHandler.ForgotPassword)
	auth.Post("/verify-reset-code", resetHandler.VerifyResetCode)
	auth.Post("/reset-password", resetHandler.ResetPassword)

	// Public catalog routes
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)

	suppliers := api.Group("/suppliers")
	suppliers.Get("/", catalogHandler.ListSuppliers)
	suppliers.Get("/:id", catalogHandler.GetSupplier)

	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/:id", middleware.OptionalAuth(cfg), productHandler.GetProduct)
	products.Get("/:id/reviews", reviewHandler.ListProductReviews)

	api.Post("/contact", contactHandler.CreateContact)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/auth/me", authHandler.Me)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/favorites", profileHandler.ListFavorites)
	protected.Post("/profile/favorites/:productId", profileHandler.AddFavorite)
	protected.Delete("/profile/favorites/:productId", profileHandler.RemoveFavorite)
	protected.Get("/profile/recently-viewed", profileHandler.ListRecentlyViewed)

	supplierOnly := middleware.RequireRoles(models.RoleSupplier, models.RoleAdmin)

	protected.Put("/suppliers/profile", supplierOnly, catalogHandler.UpsertSupplierProfile)
	protected.Post("/products", supplierOnly, productHandler.CreateProduct)
	protected.Put("/products/:id", supplierOnly, productHandler.UpdateProduct)
	protected.Delete("/products/:id", supplierOnly, productHandler.DeleteProduct)

	quotes := protected.Group("/quotes")
	quotes.Post("/", middleware.RequireRoles(models.RoleBuyer), quoteHandler.CreateQuote)
	quotes.Get("/", quoteHandler.ListQuotes)
	quotes.Get("/:id", quoteHandler.GetQuote)
	quotes.Post("/:id/respond", supplierOnly, quoteHandler.RespondQuote)
	quotes.Post("/:id/accept", middleware.RequireRoles(models.RoleBuyer), quoteHandler.AcceptQuote)
	quotes.Post("/:id/reject", middleware.RequireRoles(models.RoleBuyer), quoteHandler.RejectQuote)

	orders := protected.Group("/orders")
	orders.Post("/", middleware.RequireRoles(models.RoleBuyer), orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Post("/:id/cancel", middleware.RequireRoles(models.RoleBuyer), orderHandler.CancelOrder)
	orders.Put("/:id/status", supplierOnly, orderHandler.UpdateStatus)

	payments := protected.Group("/payments")
	payments.Post("/", middleware.RequireRoles(models.RoleBuyer), paymentHandler.CreatePayment)
	payments.Get("/", paymentHandler.ListPayments)
	payments.Get("/:id", paymentHandler.GetPayment)
	payments.Post("/:id/refund", middleware.RequireRoles(models.RoleAdmin), paymentHandler.RefundPayment)

	shipments := protected.Group("/shipments")
	shipments.Post("/", supplierOnly, shipmentHandler.CreateShipment)
	shipments.Get("/", shipmentHandler.ListShipments)
	shipments.Get("/:id", shipmentHandler.GetShipment)
	shipments.Post("/:id/events", supplierOnly, shipmentHandler.AddTrackingEvent)
	shipments.Put("/:id/status", supplierOnly, shipmentHandler.UpdateStatus)

	reviews := protected.Group("/reviews", middleware.RequireRoles(models.RoleBuyer, models.RoleAdmin))
	reviews.Post("/", reviewHandler.CreateReview)
	reviews.Put("/:id", reviewHandler.UpdateReview)
	reviews.Delete("/:id", reviewHandler.DeleteReview)

	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationHandler.ListNotifications)
	notifications.Get("/unread-count", notificationHandler.UnreadCount)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)

	// Admin routes
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.RequireRoles(models.RoleAdmin))
	admin.Get("/dashboard", adminHandler.Dashboard)
	admin.Get("/settings", adminHandler.GetSettings)
	admin.Put("/settings", adminHandler.UpdateSettings)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/active", adminHandler.SetUserActive)
	admin.Get("/contacts", contactHandler.ListContacts)
	admin.Put("/contacts/:id/status", contactHandler.UpdateContactStatus)
	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)
	admin.Put("/suppliers/:id/verify", catalogHandler.VerifySupplier)
}
