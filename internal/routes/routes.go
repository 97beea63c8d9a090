// Package routes defines the API routing configuration.
// It wires repositories, services and handlers together and groups
// routes by the authentication they require.
package routes

import (
	"log"

	"github.com/mourinha112/zucropay-sub000/internal/config"
	"github.com/mourinha112/zucropay-sub000/internal/handlers"
	"github.com/mourinha112/zucropay-sub000/internal/middleware"
	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/providers/asaas"
	"github.com/mourinha112/zucropay-sub000/internal/providers/efibank"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/auth"
	"github.com/mourinha112/zucropay-sub000/internal/services/card"
	"github.com/mourinha112/zucropay-sub000/internal/services/charge"
	"github.com/mourinha112/zucropay-sub000/internal/services/dispatch"
	"github.com/mourinha112/zucropay-sub000/internal/services/ledger"
	"github.com/mourinha112/zucropay-sub000/internal/services/merchant"
	"github.com/mourinha112/zucropay-sub000/internal/services/paymentlink"
	"github.com/mourinha112/zucropay-sub000/internal/services/reserve"
	"github.com/mourinha112/zucropay-sub000/internal/services/settlement"
	"github.com/mourinha112/zucropay-sub000/internal/services/statement"
	"github.com/mourinha112/zucropay-sub000/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
)

// Services holds the long-lived services the binaries need outside the
// HTTP layer (the reserve sweep loop).
type Services struct {
	Tracker *reserve.Tracker
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App) *Services {
	store := repositories.NewStore(repositories.DB)
	merchantRepo := store.Merchants()
	paymentRepo := store.Payments()

	// Provider clients. Missing credentials leave the client nil and
	// the charge service falls back or reports the provider unavailable;
	// inbound webhooks keep working either way.
	var asaasClient charge.AsaasAPI
	var transferClient withdrawal.TransferAPI
	if creds, err := config.AsaasCredentials(); err == nil {
		client := asaas.NewClient(creds)
		asaasClient = client
		transferClient = client
	} else {
		log.Println("asaas credentials not configured, charge creation via asaas disabled")
	}
	var efiClient charge.EfiAPI
	if creds, err := config.EfiBankCredentials(); err == nil {
		efiClient = efibank.NewClient(creds)
	} else {
		log.Println("efibank credentials not configured, pix via efibank disabled")
	}

	ledgerService := ledger.NewService(store, repositories.CacheService)
	dispatcher := dispatch.NewDispatcher(merchantRepo)
	orchestrator := settlement.NewOrchestrator(store, ledgerService, map[string]settlement.Normalizer{
		models.ProviderAsaas:   asaas.NewNormalizer(),
		models.ProviderEfiBank: efibank.NewNormalizer(),
	}, dispatcher)
	tracker := reserve.NewTracker(store, ledgerService)

	authService := auth.NewService(merchantRepo)
	merchantService := merchant.NewService(merchantRepo, store.Reserves(), repositories.CacheService)
	linkService := paymentlink.NewService(store.PaymentLinks(), repositories.CacheService)
	chargeService := charge.NewService(paymentRepo, asaasClient, efiClient, card.NewService())
	withdrawalService := withdrawal.NewService(store, ledgerService, transferClient)
	statementService := statement.NewService(store.Transactions(), store.WebhookLogs())

	authHandler := handlers.NewAuthHandler(authService)
	merchantHandler := handlers.NewMerchantHandler(merchantService, statementService)
	linkHandler := handlers.NewPaymentLinkHandler(linkService, chargeService)
	chargeHandler := handlers.NewChargeHandler(chargeService, paymentRepo)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	webhookHandler := handlers.NewWebhookHandler(orchestrator)
	adminHandler := handlers.NewAdminHandler(merchantService, withdrawalService, statementService, orchestrator, tracker)

	authMiddleware := middleware.NewAuthMiddleware(merchantRepo)

	app.Get("/health", handlers.HealthCheck)

	// Provider webhooks. Always acknowledged; settlement failures are
	// queued in the webhook log instead of bounced back to the provider.
	webhooks := app.Group("/webhooks")
	webhooks.Post("/asaas", webhookHandler.Asaas)
	webhooks.Post("/efibank", webhookHandler.EfiBank)

	// Public checkout.
	app.Get("/pay/:slug", linkHandler.PublicGet)
	app.Post("/pay/:slug", linkHandler.PublicPay)

	api := app.Group("/api")
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.Refresh)

	authenticated := api.Group("/", authMiddleware.Handler)
	authenticated.Post("/logout", authHandler.Logout)

	authenticated.Get("/merchant", merchantHandler.Profile)
	authenticated.Get("/merchant/balance", merchantHandler.Balance)
	authenticated.Put("/merchant/webhook", merchantHandler.UpdateWebhook)
	authenticated.Put("/merchant/pix-key", merchantHandler.UpdatePixKey)
	authenticated.Get("/merchant/statement", merchantHandler.Statement)
	authenticated.Get("/merchant/totals", merchantHandler.Totals)

	authenticated.Post("/payment-links", linkHandler.Create)
	authenticated.Get("/payment-links", linkHandler.List)
	authenticated.Delete("/payment-links/:id", linkHandler.Deactivate)

	authenticated.Post("/charges", chargeHandler.Create)
	authenticated.Get("/charges", chargeHandler.List)

	authenticated.Post("/withdrawals", withdrawalHandler.Request)
	authenticated.Get("/withdrawals/pending", withdrawalHandler.ListPending)

	admin := authenticated.Group("/admin", middleware.AdminOnly)
	admin.Get("/merchants/pending", adminHandler.ListPendingMerchants)
	admin.Post("/merchants/:id/approve", adminHandler.ApproveMerchant)
	admin.Post("/merchants/:id/reject", adminHandler.RejectMerchant)
	admin.Get("/merchants/:id/rates", adminHandler.GetCustomRate)
	admin.Put("/merchants/:id/rates", adminHandler.SetCustomRate)
	admin.Get("/webhooks/unprocessed", adminHandler.UnprocessedWebhooks)
	admin.Post("/webhooks/:id/replay", adminHandler.ReplayWebhook)
	admin.Post("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
	admin.Post("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)
	admin.Post("/reserves/sweep", adminHandler.RunReserveSweep)

	return &Services{Tracker: tracker}
}
